package fragment

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("fragment not found")

// LookupError is returned by stores for a path that cannot be resolved.
// Err is ErrNotFound unless reading an existing fragment failed.
type LookupError struct {
	Path   string
	Detail string //optional explanation, e.g. why a path can never exist in the store
	Err    error
}

func (e *LookupError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%s): %s", e.Err, e.Detail, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Path)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

func notFound(path string, detail string) *LookupError {
	return &LookupError{Path: path, Detail: detail, Err: ErrNotFound}
}
