package sanitize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"mailinline/internal/css"
)

// ErrMalformedColor is wrapped by every MalformedColorError
var ErrMalformedColor = errors.New("malformed color")

// MalformedColorError reports an oklch() or rgb() whose channels could not
// be determined
type MalformedColorError struct {
	Function string // oklch or rgb
	Value    string // the offending function call
	Property string
}

func (e *MalformedColorError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("could not determine the parameters of an %s() function in %s: %s", e.Function, e.Property, e.Value)
	}
	return fmt.Sprintf("could not determine the parameters of an %s() function: %s", e.Function, e.Value)
}

func (e *MalformedColorError) Unwrap() error {
	return ErrMalformedColor
}

var infinityRadiusRegex = regexp.MustCompile(`(?i)calc\s*\(\s*infinity\s*\*\s*1px\s*\)`)

// logical shorthands and the physical longhands they expand to
var logicalShorthands = map[string][2]string{
	"padding-inline": {"padding-left", "padding-right"},
	"padding-block":  {"padding-top", "padding-bottom"},
	"margin-inline":  {"margin-left", "margin-right"},
	"margin-block":   {"margin-top", "margin-bottom"},
}

// splitTopLevel splits value on whitespace outside of functions
func splitTopLevel(value string) []string {
	var parts []string
	var cur []*css.Value
	for _, n := range css.ParseValue(value) {
		if n.Type == css.ValueSpace {
			if len(cur) > 0 {
				parts = append(parts, css.Stringify(cur))
			}
			cur = nil
			continue
		}
		cur = append(cur, n)
	}
	if len(cur) > 0 {
		parts = append(parts, css.Stringify(cur))
	}
	return parts
}

// expandLogical rewrites decl in place as the first longhand and inserts the
// second longhand right after it
func expandLogical(decl *css.Node) {
	longhands, ok := logicalShorthands[decl.Prop]
	if !ok {
		return
	}
	values := splitTopLevel(decl.Value)
	if len(values) == 0 {
		return
	}
	first, second := values[0], values[0]
	if len(values) > 1 {
		second = values[1]
	}

	decl.Prop = longhands[0]
	decl.Value = first
	decl.InsertAfter(css.NewDecl(longhands[1], second, decl.Important))
}

// SanitizeDeclaration normalizes one declaration for email clients. A
// logical shorthand inserts its second longhand after decl; the caller's
// walk picks it up next.
func SanitizeDeclaration(decl *css.Node, baseFontSize float64) error {
	if decl.Prop == "border-radius" && infinityRadiusRegex.MatchString(decl.Value) {
		decl.Value = "9999px"
	}

	expandLogical(decl)

	decl.Value = convertUnits(decl.Value, baseFontSize)

	value, err := convertColors(decl.Value)
	if err != nil {
		var mce *MalformedColorError
		if errors.As(err, &mce) {
			mce.Property = decl.Prop
		}
		return err
	}
	decl.Value = value
	return nil
}

// SanitizeDeclarations applies SanitizeDeclaration to every declaration of
// root. It stops at the first malformed color.
func SanitizeDeclarations(root *css.Node, baseFontSize float64) error {
	var err error
	root.Walk(func(n *css.Node) bool {
		if n.Kind != css.KindDecl {
			return true
		}
		err = SanitizeDeclaration(n, baseFontSize)
		return err == nil
	})
	return err
}

func hasFunction(value, name string) bool {
	return strings.Contains(strings.ToLower(value), name+"(")
}
