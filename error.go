package quire

import (
	"fmt"
	"strings"

	"github.com/n2code/quire/internal/assembly"
	"github.com/n2code/quire/internal/manifest"
)

type CommandError struct {
	message string
	cause   error
}

func (e *CommandError) Error() string {
	var msg strings.Builder
	fmt.Fprint(&msg, e.message)
	if e.cause != nil {
		fmt.Fprint(&msg, ": ", e.cause)
	}
	return msg.String()
}

func (e *CommandError) Unwrap() error {
	return e.cause
}

func newCommandError(message string, cause error) *CommandError {
	return &CommandError{message: message, cause: cause}
}

// ManifestFormatError reports malformed manifest structure along with the offending line.
type ManifestFormatError = manifest.FormatError

// FragmentNotFoundError names the enabled entry whose fragment does not exist, the earliest one in output order.
type FragmentNotFoundError = assembly.FragmentNotFoundError

// DuplicatePathError is returned for repeated inclusions if duplicates are configured as errors.
type DuplicatePathError = assembly.DuplicatePathError

// ResolveError wraps failures to read fragments that do exist.
type ResolveError = assembly.ResolveError
