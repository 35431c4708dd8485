package iof

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyDocument   = errors.New("document has no root element")
	ErrUnexpectedRoot  = errors.New("root element is not ResultList")
	ErrMissingEvent    = errors.New("result list has no Event")
	ErrInvalidPosition = errors.New("position must be a positive integer")
	ErrNegativeTime    = errors.New("time must not be negative")
	ErrInvalidTime     = errors.New("invalid time value")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidNumber   = errors.New("invalid number")
	ErrUnknownStatus   = errors.New("unknown result status")
)

// ParseError reports where in the document decoding failed. Line is the
// line of the enclosing top-level element, or of the syntax error itself.
type ParseError struct {
	Line    int
	Element string
	Err     error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Element != "":
		return fmt.Sprintf("iof: line %d: %s: %v", e.Line, e.Element, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("iof: line %d: %v", e.Line, e.Err)
	case e.Element != "":
		return fmt.Sprintf("iof: %s: %v", e.Element, e.Err)
	}
	return fmt.Sprintf("iof: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// fieldError is a conversion failure below a top-level element. The parser
// prefixes the element path and line when turning it into a ParseError.
type fieldError struct {
	path string
	err  error
}

func (e *fieldError) Error() string {
	return e.path + ": " + e.err.Error()
}

func (e *fieldError) Unwrap() error {
	return e.err
}

func fieldErr(path string, err error) error {
	return &fieldError{path: path, err: err}
}
