package assembly

import (
	"bytes"
	"fmt"

	"github.com/n2code/quire/internal/fragment"
	"github.com/n2code/quire/internal/manifest"
)

// Part is the resolved content of one enabled manifest entry.
type Part struct {
	manifest.Ref
	Content  []byte
	Checksum string
}

type SectionContent struct {
	Name  manifest.SectionName
	Parts []Part
}

// Document is the assembled manuscript. It is never modified after Assemble returns it.
type Document struct {
	sections  []SectionContent
	separator string
	marker    string
	warnings  []*DuplicatePathError
}

// Sections returns the sections in canonical order. Part contents must be treated as read-only.
func (d *Document) Sections() []SectionContent {
	sections := make([]SectionContent, len(d.sections))
	for i, section := range d.sections {
		sections[i] = SectionContent{Name: section.Name, Parts: append([]Part(nil), section.Parts...)}
	}
	return sections
}

// SectionText joins the contents of one section with the separator, without any marker.
func (d *Document) SectionText(name manifest.SectionName) []byte {
	for _, section := range d.sections {
		if section.Name == name {
			return section.Text(d.separator)
		}
	}
	return nil
}

// Text joins the part contents with the given separator.
func (s SectionContent) Text(separator string) []byte {
	return bytes.Join(s.blocks(""), []byte(separator))
}

// Bytes renders the single output artifact: per section its marker (if any) and parts, all joined by the separator.
func (d *Document) Bytes() []byte {
	var blocks [][]byte
	for _, section := range d.sections {
		blocks = append(blocks, section.blocks(d.marker)...)
	}
	return d.join(blocks)
}

func (d *Document) join(blocks [][]byte) []byte {
	return bytes.Join(blocks, []byte(d.separator))
}

func (s SectionContent) blocks(markerFormat string) [][]byte {
	blocks := make([][]byte, 0, len(s.Parts)+1)
	if markerFormat != "" {
		blocks = append(blocks, []byte(fmt.Sprintf(markerFormat, s.Name)))
	}
	for _, part := range s.Parts {
		blocks = append(blocks, part.Content)
	}
	return blocks
}

// Fingerprint is the checksum of Bytes.
func (d *Document) Fingerprint() string {
	return fragment.Checksum(d.Bytes())
}

// Parts lists all parts across sections in output order.
func (d *Document) Parts() []Part {
	var parts []Part
	for _, section := range d.sections {
		parts = append(parts, section.Parts...)
	}
	return parts
}

// Warnings lists repeated inclusions tolerated under the warn policy.
func (d *Document) Warnings() []*DuplicatePathError {
	return append([]*DuplicatePathError(nil), d.warnings...)
}
