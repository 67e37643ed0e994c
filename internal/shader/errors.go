package shader

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound means a shader pattern matched no file.
	ErrNotFound = errors.New("shader not found")

	// ErrAmbiguous means a shader pattern matched more than one file.
	ErrAmbiguous = errors.New("shader name is ambiguous")

	// ErrEmptyRequest means neither a shader name nor "all" was requested.
	ErrEmptyRequest = errors.New("no shader requested")
)

// ResolutionError reports a single-shader request that did not resolve to
// exactly one file. It unwraps to ErrNotFound or ErrAmbiguous.
type ResolutionError struct {
	Pattern string
	Matches []string
	Err     error
}

func (e *ResolutionError) Error() string {
	if errors.Is(e.Err, ErrAmbiguous) {
		return fmt.Sprintf("%v: '%s' matches %d files (%s)",
			e.Err, e.Pattern, len(e.Matches), strings.Join(e.Matches, ", "))
	}
	return fmt.Sprintf("file '%s' not found", e.Pattern)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
