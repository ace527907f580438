package manifest

import (
	"fmt"

	"github.com/zeebo/xxh3"
)

// Refs yields the enabled entries of the section depth-first in declaration order.
// Children of a disabled entry are still visited, the comment marker only concerns its own line.
func (s *Section) Refs() []Ref {
	var refs []Ref
	var visit func(entries []*Entry)
	visit = func(entries []*Entry) {
		for _, entry := range entries {
			if entry.Enabled {
				refs = append(refs, Ref{
					Path:     entry.Path,
					Position: Position{Section: s.Name, Index: len(refs), Line: entry.Line},
				})
			}
			visit(entry.Children)
		}
	}
	visit(s.Entries)
	return refs
}

// Refs yields the enabled entries of all sections in SectionOrder.
func (m *Manifest) Refs() []Ref {
	var refs []Ref
	for _, section := range m.Sections {
		refs = append(refs, section.Refs()...)
	}
	return refs
}

// Flatten returns the ordered sequence of enabled fragment paths.
func Flatten(m *Manifest) []string {
	refs := m.Refs()
	paths := make([]string, len(refs))
	for i, ref := range refs {
		paths[i] = ref.Path
	}
	return paths
}

// Walk visits every entry, disabled ones included, depth-first in declaration order.
func (m *Manifest) Walk(visitor func(section *Section, entry *Entry)) {
	for _, section := range m.Sections {
		var visit func(entries []*Entry)
		visit = func(entries []*Entry) {
			for _, entry := range entries {
				visitor(section, entry)
				visit(entry.Children)
			}
		}
		visit(section.Entries)
	}
}

// Count returns the number of enabled and disabled entries.
func (m *Manifest) Count() (enabled int, disabled int) {
	m.Walk(func(_ *Section, entry *Entry) {
		if entry.Enabled {
			enabled++
		} else {
			disabled++
		}
	})
	return
}

// Fingerprint hashes the flattened structure; cosmetic edits (blank lines, comments) do not change it.
func (m *Manifest) Fingerprint() string {
	hasher := xxh3.New()
	for _, section := range m.Sections {
		fmt.Fprintf(hasher, "%s:\n", section.Name)
		for _, ref := range section.Refs() {
			fmt.Fprintf(hasher, "%s\n", ref.Path)
		}
	}
	return fmt.Sprintf("%016x", hasher.Sum64())
}
