package parsers

import (
	"errors"
	"fmt"
)

// ErrSyntax indicates a source file could not be parsed.
var ErrSyntax = errors.New("invalid syntax")

// ParseError records a file that failed to parse.
type ParseError struct {
	File string
	Line int // 0 when unknown
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
