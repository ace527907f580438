package assembly

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/n2code/quire/internal/fragment"
	"github.com/n2code/quire/internal/manifest"
)

// DuplicatePolicy decides how a path enabled more than once is treated.
type DuplicatePolicy string

const (
	AllowDuplicates  DuplicatePolicy = "allow"
	WarnDuplicates   DuplicatePolicy = "warn"
	RejectDuplicates DuplicatePolicy = "error"
)

func ParseDuplicatePolicy(value string) (DuplicatePolicy, error) {
	switch policy := DuplicatePolicy(value); policy {
	case AllowDuplicates, WarnDuplicates, RejectDuplicates:
		return policy, nil
	case "":
		return WarnDuplicates, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q (allowed: allow, warn, error)", value)
	}
}

const (
	DefaultSeparator     = "\n\n"
	DefaultSectionMarker = "{%s}"
)

// Assembler turns a parsed manifest into a Document. Its settings are fixed at construction.
type Assembler struct {
	separator     string
	sectionMarker string
	duplicates    DuplicatePolicy
	parallelism   int
	logger        *zap.Logger
}

type Option func(*Assembler)

// WithSeparator sets the text placed between consecutive blocks of the output.
func WithSeparator(separator string) Option {
	return func(a *Assembler) {
		a.separator = separator
	}
}

// WithSectionMarker sets the format of the line opening each section, %s is the section name. Empty disables markers.
func WithSectionMarker(format string) Option {
	return func(a *Assembler) {
		a.sectionMarker = format
	}
}

func WithDuplicatePolicy(policy DuplicatePolicy) Option {
	return func(a *Assembler) {
		a.duplicates = policy
	}
}

// WithParallelism bounds the number of concurrent fragment reads. Output order is unaffected.
func WithParallelism(reads int) Option {
	return func(a *Assembler) {
		if reads < 1 {
			reads = 1
		}
		a.parallelism = reads
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func New(opts ...Option) *Assembler {
	a := &Assembler{
		separator:     DefaultSeparator,
		sectionMarker: DefaultSectionMarker,
		duplicates:    WarnDuplicates,
		parallelism:   1,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble resolves every enabled entry of the manifest and concatenates the results.
// Either all fragments are found and a complete Document is returned or no Document at all.
// The error for the earliest failing entry in manifest order is reported as
// *FragmentNotFoundError, *ResolveError or *DuplicatePathError.
func (a *Assembler) Assemble(ctx context.Context, m *manifest.Manifest, resolver fragment.Resolver) (*Document, error) {
	refs := m.Refs()

	warnings, err := a.checkDuplicates(refs)
	if err != nil {
		return nil, err
	}

	fragments, failures, err := a.resolveAll(ctx, refs, resolver)
	if err != nil {
		return nil, err
	}
	for i, failure := range failures {
		if failure == nil {
			continue
		}
		ref := refs[i]
		if errors.Is(failure, fragment.ErrNotFound) {
			return nil, &FragmentNotFoundError{Path: ref.Path, Position: ref.Position, Err: failure}
		}
		return nil, &ResolveError{Path: ref.Path, Position: ref.Position, Err: failure}
	}

	doc := &Document{separator: a.separator, marker: a.sectionMarker, warnings: warnings}
	next := 0
	for _, name := range manifest.SectionOrder {
		section := m.Section(name)
		if section == nil || !section.Declared {
			continue
		}
		content := SectionContent{Name: name}
		for next < len(refs) && refs[next].Position.Section == name {
			content.Parts = append(content.Parts, Part{
				Ref:      refs[next],
				Content:  fragments[next].Content,
				Checksum: fragments[next].Checksum(),
			})
			next++
		}
		doc.sections = append(doc.sections, content)
	}

	a.logger.Debug("manuscript assembled",
		zap.Int("sections", len(doc.sections)),
		zap.Int("fragments", len(refs)),
		zap.Int("duplicates", len(warnings)))
	return doc, nil
}

func (a *Assembler) checkDuplicates(refs []manifest.Ref) ([]*DuplicatePathError, error) {
	if a.duplicates == AllowDuplicates {
		return nil, nil
	}
	var warnings []*DuplicatePathError
	first := make(map[string]manifest.Position, len(refs))
	for _, ref := range refs {
		earlier, seen := first[ref.Path]
		if !seen {
			first[ref.Path] = ref.Position
			continue
		}
		duplicate := &DuplicatePathError{Path: ref.Path, First: earlier, Repeated: ref.Position}
		if a.duplicates == RejectDuplicates {
			return nil, duplicate
		}
		a.logger.Warn("fragment included repeatedly",
			zap.String("path", ref.Path),
			zap.Stringer("first", earlier),
			zap.Stringer("repeated", ref.Position))
		warnings = append(warnings, duplicate)
	}
	return warnings, nil
}

// resolveAll reads all referenced fragments. Per-entry failures are returned by index, only cancellation aborts early.
func (a *Assembler) resolveAll(ctx context.Context, refs []manifest.Ref, resolver fragment.Resolver) ([]fragment.Fragment, []error, error) {
	fragments := make([]fragment.Fragment, len(refs))
	failures := make([]error, len(refs))

	if a.parallelism <= 1 {
		for i, ref := range refs {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			fragments[i], failures[i] = a.resolve(resolver, ref)
			if failures[i] != nil {
				break //later entries cannot change the outcome
			}
		}
		return fragments, failures, nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(a.parallelism)
	for i, ref := range refs {
		i, ref := i, ref
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			fragments[i], failures[i] = a.resolve(resolver, ref)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return fragments, failures, nil
}

func (a *Assembler) resolve(resolver fragment.Resolver, ref manifest.Ref) (fragment.Fragment, error) {
	resolved, err := resolver.Resolve(ref.Path)
	if err != nil {
		a.logger.Debug("fragment unresolved", zap.String("path", ref.Path), zap.Error(err))
		return fragment.Fragment{}, err
	}
	a.logger.Debug("fragment resolved", zap.String("path", ref.Path), zap.Int("bytes", len(resolved.Content)))
	return resolved, nil
}
