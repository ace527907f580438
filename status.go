package quire

import (
	"errors"
	"fmt"
	"sort"

	"github.com/n2code/quire/internal/fragment"
	"github.com/n2code/quire/internal/manifest"
	"github.com/n2code/quire/internal/output"
	"github.com/n2code/quire/internal/record"
)

type FragmentStatus rune

const (
	Included FragmentStatus = '=' //enabled and unchanged since the last build
	Changed  FragmentStatus = '~' //enabled, content differs from the last build
	New      FragmentStatus = '+' //enabled, not part of the last build
	Disabled FragmentStatus = '#' //commented out in the manifest
	Repeated FragmentStatus = '2' //enabled again after an earlier entry with the same path
	Orphaned FragmentStatus = '?' //in the store but not referenced by the manifest
	Homonym  FragmentStatus = '≈' //orphan with the same file name as an included fragment, e.g. a legacy copy
	Missing  FragmentStatus = '∅' //enabled but absent from the store
)

func (s FragmentStatus) String() string {
	switch s {
	case Included:
		return "Included"
	case Changed:
		return "Changed"
	case New:
		return "New"
	case Disabled:
		return "Disabled"
	case Repeated:
		return "Repeated"
	case Orphaned:
		return "Orphaned"
	case Homonym:
		return "Homonym"
	case Missing:
		return "Missing"
	default:
		return fmt.Sprintf("Status(%c)", rune(s))
	}
}

// RepresentsChange is true for everything that makes the next build differ from the last one or fail.
func (s FragmentStatus) RepresentsChange() bool {
	switch s {
	case Changed, New, Missing:
		return true
	default:
		return false
	}
}

func colorForStatus(status FragmentStatus) output.SgrModifier {
	switch status {
	case Included, Disabled:
		return output.DefaultForeground
	case New:
		return output.Cyan //color of progress
	case Changed:
		return output.Green //color of good news
	case Repeated, Homonym:
		return output.Yellow //color of attention
	case Orphaned:
		return output.Magenta //color of waste
	case Missing:
		return output.Red //color of trouble
	default:
		return output.DefaultForeground
	}
}

// StatusEntry is one classified manifest entry or store fragment.
type StatusEntry struct {
	Path     string
	Status   FragmentStatus
	Line     int    //manifest line, 0 for fragments not referenced by the manifest
	Relation string //path the status relates to, i.e. the enabled namesake of a homonym
	Err      error  //lookup failure of a missing fragment
}

type StatusReport struct {
	Entries      []StatusEntry //manifest entries in declaration order, then unreferenced fragments sorted by path
	NeverBuilt   bool
	ManifestEdit bool //flattened manifest differs from the last build
}

// Bucket returns all entries with the given status in report order.
func (r *StatusReport) Bucket(status FragmentStatus) []StatusEntry {
	var bucket []StatusEntry
	for _, entry := range r.Entries {
		if entry.Status == status {
			bucket = append(bucket, entry)
		}
	}
	return bucket
}

// HasChanges tells whether the next build would produce a different output or fail.
func (r *StatusReport) HasChanges() bool {
	if r.NeverBuilt || r.ManifestEdit {
		return true
	}
	for _, entry := range r.Entries {
		if entry.Status.RepresentsChange() {
			return true
		}
	}
	return false
}

func (q *quire) Status() (*StatusReport, error) {
	m, err := q.Manifest()
	if err != nil {
		return nil, err
	}
	previous, err := q.loadRecord()
	if err != nil {
		return nil, err
	}
	q.store.Forget()
	return classify(m, q.store, previous)
}

func classify(m *manifest.Manifest, store fragment.Store, previous *record.Record) (*StatusReport, error) {
	report := &StatusReport{NeverBuilt: previous == nil}
	if previous != nil && previous.Manifest != m.Fingerprint() {
		report.ManifestEdit = true
	}

	referenced := make(map[string]bool)
	enabled := make(map[string]bool)
	includedNames := make(map[string][]string) //base name -> enabled paths
	m.Walk(func(_ *manifest.Section, entry *manifest.Entry) {
		classified := StatusEntry{Path: entry.Path, Line: entry.Line}
		switch {
		case !entry.Enabled:
			classified.Status = Disabled
		case enabled[entry.Path]:
			classified.Status = Repeated
		default:
			enabled[entry.Path] = true
			resolved, err := store.Resolve(entry.Path)
			switch {
			case err != nil:
				classified.Status = Missing
				if !errors.Is(err, fragment.ErrNotFound) {
					classified.Err = err
				}
			case previous == nil:
				classified.Status = New
			default:
				if _, known := previous.Recorded(entry.Path); !known {
					classified.Status = New
				} else if previous.Changed(resolved) {
					classified.Status = Changed
				} else {
					classified.Status = Included
				}
			}
			base := fragment.SemanticPath(entry.Path).Base()
			includedNames[base] = append(includedNames[base], entry.Path)
		}
		referenced[entry.Path] = true
		report.Entries = append(report.Entries, classified)
	})

	paths, err := store.Paths()
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	for _, path := range paths {
		if referenced[path] {
			continue
		}
		classified := StatusEntry{Path: path, Status: Orphaned}
		if namesakes := includedNames[fragment.SemanticPath(path).Base()]; len(namesakes) > 0 {
			classified.Status = Homonym
			classified.Relation = namesakes[0]
		}
		report.Entries = append(report.Entries, classified)
	}
	return report, nil
}
