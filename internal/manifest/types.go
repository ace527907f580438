package manifest

import "fmt"

type SectionName string

const (
	Frontmatter SectionName = "frontmatter"
	Mainmatter  SectionName = "mainmatter"
	Backmatter  SectionName = "backmatter"
)

// SectionOrder is the fixed order of sections in every assembled document.
var SectionOrder = [...]SectionName{Frontmatter, Mainmatter, Backmatter}

func (n SectionName) index() (int, bool) {
	for i, known := range SectionOrder {
		if known == n {
			return i, true
		}
	}
	return -1, false
}

// Entry is one manifest line referencing a fragment path.
type Entry struct {
	Path     string //slash-separated, exactly as written
	Enabled  bool   //false if the line was commented out
	Line     int    //1-based line number in the manifest text
	Depth    int    //0 for top-level entries of a section
	Children []*Entry
}

type Section struct {
	Name     SectionName
	Declared bool //false if the manifest has no block for this section
	Line     int  //line of the header, 0 if undeclared
	Entries  []*Entry
}

// Manifest always holds all three sections in SectionOrder.
type Manifest struct {
	Sections [len(SectionOrder)]*Section
}

// Position locates an enabled entry: Index is its place in the flattened enabled order of its section.
type Position struct {
	Section SectionName
	Index   int
	Line    int
}

func (p Position) String() string {
	return fmt.Sprintf("%s #%d (line %d)", p.Section, p.Index+1, p.Line)
}

// Ref is a flattened reference to an enabled entry.
type Ref struct {
	Path     string
	Position Position
}

func newManifest() *Manifest {
	m := &Manifest{}
	for i, name := range SectionOrder {
		m.Sections[i] = &Section{Name: name}
	}
	return m
}

// Section returns the section with the given name or nil for unknown names.
func (m *Manifest) Section(name SectionName) *Section {
	if i, ok := name.index(); ok {
		return m.Sections[i]
	}
	return nil
}
