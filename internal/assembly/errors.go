package assembly

import (
	"fmt"

	"github.com/n2code/quire/internal/manifest"
)

// FragmentNotFoundError identifies an enabled entry without a fragment in the store.
type FragmentNotFoundError struct {
	Path     string
	Position manifest.Position
	Err      error
}

func (e *FragmentNotFoundError) Error() string {
	return fmt.Sprintf("fragment not found: %s (referenced by %s)", e.Path, e.Position)
}

func (e *FragmentNotFoundError) Unwrap() error {
	return e.Err
}

// ResolveError wraps any other failure to read an existing fragment.
type ResolveError struct {
	Path     string
	Position manifest.Position
	Err      error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolving %s (referenced by %s) failed: %s", e.Path, e.Position, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// DuplicatePathError reports a path that is enabled more than once in the manifest.
type DuplicatePathError struct {
	Path     string
	First    manifest.Position
	Repeated manifest.Position
}

func (e *DuplicatePathError) Error() string {
	return fmt.Sprintf("path %s included repeatedly: first by %s, again by %s", e.Path, e.First, e.Repeated)
}
