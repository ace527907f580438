package manifest

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const commentMarker = "#"
const headerSuffix = ":"
const byteOrderMark = "\uFEFF"
const maxLineLength = 1024 * 1024

type openLevel struct {
	indent int
	entry  *Entry
}

type parser struct {
	manifest *Manifest
	current  *Section
	base     int //indentation of the first entry of the current block, -1 before that
	stack    []openLevel
}

// Parse reads manifest text and returns every entry, enabled and disabled, in source order.
func Parse(r io.Reader) (*Manifest, error) {
	p := parser{manifest: newManifest(), base: -1}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		raw := strings.TrimRight(scanner.Text(), "\r")
		if lineNumber == 1 {
			raw = strings.TrimPrefix(raw, byteOrderMark)
		}
		if err := p.consume(lineNumber, raw); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest failed: %w", err)
	}
	return p.manifest, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(text string) (*Manifest, error) {
	return Parse(strings.NewReader(text))
}

func (p *parser) consume(lineNumber int, raw string) error {
	content := strings.TrimSpace(raw)
	if content == "" {
		return nil
	}
	fail := func(kind error) error {
		return &FormatError{Line: lineNumber, Text: raw, Err: kind}
	}

	indent := leadingWhitespace(raw)
	if indent == 0 {
		switch {
		case strings.HasPrefix(content, commentMarker):
			return nil //unindented comments annotate the manifest itself, they are not entries
		case strings.HasSuffix(content, headerSuffix):
			return p.header(lineNumber, content, fail)
		default:
			return fail(ErrEntryOutsideSection)
		}
	}
	if p.current == nil {
		return fail(ErrEntryOutsideSection)
	}

	entry := &Entry{Path: content, Enabled: true, Line: lineNumber}
	if strings.HasPrefix(content, commentMarker) {
		entry.Enabled = false
		entry.Path = strings.TrimSpace(strings.TrimLeft(content, commentMarker))
		if entry.Path == "" {
			return nil
		}
	}
	return p.place(entry, indent, fail)
}

func (p *parser) header(lineNumber int, content string, fail func(error) error) error {
	name := SectionName(strings.TrimSpace(strings.TrimSuffix(content, headerSuffix)))
	section := p.manifest.Section(name)
	if section == nil {
		return fail(ErrUnknownSection)
	}
	if section.Declared {
		return fail(ErrDuplicateSection)
	}
	section.Declared = true
	section.Line = lineNumber
	p.current = section
	p.base = -1
	p.stack = nil
	return nil
}

// place attaches the entry to the tree using the stack of open indentation levels.
func (p *parser) place(entry *Entry, indent int, fail func(error) error) error {
	if p.base < 0 {
		p.base = indent
	}
	if indent < p.base {
		return fail(ErrInconsistentIndent) //dedent below the block's base level
	}

	popped := false
	for len(p.stack) > 0 && p.stack[len(p.stack)-1].indent > indent {
		p.stack = p.stack[:len(p.stack)-1]
		popped = true
	}

	if len(p.stack) > 0 {
		top := p.stack[len(p.stack)-1]
		switch {
		case top.indent == indent:
			p.stack = p.stack[:len(p.stack)-1] //sibling replaces it
		case popped:
			return fail(ErrInconsistentIndent) //dedent to a level that was never opened
		}
	}

	if len(p.stack) == 0 {
		entry.Depth = 0
		p.current.Entries = append(p.current.Entries, entry)
	} else {
		parent := p.stack[len(p.stack)-1].entry
		entry.Depth = parent.Depth + 1
		parent.Children = append(parent.Children, entry)
	}
	p.stack = append(p.stack, openLevel{indent: indent, entry: entry})
	return nil
}

// leadingWhitespace counts blanks and tabs alike as one column each.
func leadingWhitespace(line string) (columns int) {
	for _, char := range line {
		if char != ' ' && char != '\t' {
			break
		}
		columns++
	}
	return
}
