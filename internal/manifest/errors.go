package manifest

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownSection      = errors.New("unknown section header")
	ErrDuplicateSection    = errors.New("section declared twice")
	ErrEntryOutsideSection = errors.New("entry outside of a section block")
	ErrInconsistentIndent  = errors.New("inconsistent indentation")
)

// FormatError reports a structural violation of the manifest grammar.
type FormatError struct {
	Line int    //1-based
	Text string //offending line without line terminator
	Err  error  //one of the Err* kinds above
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("manifest line %d: %s: %q", e.Line, e.Err, e.Text)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
