package inliner

import (
	"errors"
	"fmt"
	"strings"

	"mailinline/internal/css"
	"mailinline/internal/html"
	"mailinline/internal/sanitize"
)

var (
	// ErrParse is wrapped when the stylesheet cannot be parsed
	ErrParse = css.ErrParse
	// ErrHTMLParse is wrapped when the document cannot be tokenized
	ErrHTMLParse = html.ErrParse
	// ErrMalformedColor is wrapped when oklch() or rgb() arguments are unusable
	ErrMalformedColor = sanitize.ErrMalformedColor
	// ErrMissingHead is wrapped when styles must go into <head> but there is none
	ErrMissingHead = errors.New("no <head> element to hold non-inlinable styles")
)

type (
	// ParseError carries the offset of a stylesheet syntax problem
	ParseError = css.ParseError
	// MalformedColorError names the color function and value that failed
	MalformedColorError = sanitize.MalformedColorError
)

// MissingHeadError lists the classes whose rules could not be inlined and
// had nowhere to go
type MissingHeadError struct {
	Classes []string
}

func (e *MissingHeadError) Error() string {
	return fmt.Sprintf("the following classes cannot be inlined: %s. Media queries and pseudo selectors "+
		"only work from a <style> tag inside <head>, and the document has no <head> element at any depth",
		strings.Join(e.Classes, " "))
}

func (e *MissingHeadError) Unwrap() error {
	return ErrMissingHead
}
