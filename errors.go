package texpect

import (
	"errors"
	"fmt"
)

var (
	ErrAdjacentTags = errors.New("two consecutive capture tags")
	ErrDuplicateTag = errors.New("duplicated tag name")
	ErrInputPrefix  = errors.New("too few characters before the input")
	ErrRegex        = errors.New("invalid regular expression")
)

// BuildError is returned when an expected output template cannot be turned
// into an Expected. Offset is the byte offset into the template. Use
// [errors.Is] with ErrAdjacentTags, ErrDuplicateTag, ErrInputPrefix or
// ErrRegex to tell the kind.
type BuildError struct {
	Offset int
	Kind   error
	// Name of the offending tag, if any
	Name string
	msg  string
}

func buildErrorf(off int, kind error, name, format string, a ...any) *BuildError {
	return &BuildError{
		Offset: off,
		Kind:   kind,
		Name:   name,
		msg:    fmt.Sprintf(format, a...),
	}
}

func (e *BuildError) Error() string { return e.msg }

func (e *BuildError) Unwrap() error { return e.Kind }

// LineError relates an error to a line of a named source, e.g. an
// expectation file.
type LineError struct {
	Source string
	Line   int
	err    error
}

func (e LineError) Error() string {
	return fmt.Sprintf("%s:%d:%s", e.Source, e.Line, e.err)
}

func (e LineError) Unwrap() error { return e.err }
