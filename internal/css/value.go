package css

import (
	"strings"

	parse "github.com/tdewolff/parse/v2"
	tdcss "github.com/tdewolff/parse/v2/css"
)

// ValueType identifies a component of a declaration value
type ValueType uint8

const (
	ValueWord ValueType = iota
	ValueString
	ValueFunction
	ValueDiv
	ValueSpace
)

// Value is one component of a declaration value. Words hold a run of
// adjacent tokens (`10px`, `#fff`, `-webkit-box`), functions hold their
// arguments in Nodes, divs are `,` or `/` with the surrounding whitespace
// kept in Before and After.
type Value struct {
	Type   ValueType
	Value  string
	Before string
	After  string
	Nodes  []*Value
}

// ParseValue splits a declaration value into components. The result
// stringifies back to the input with runs of whitespace collapsed.
func ParseValue(value string) []*Value {
	lexer := tdcss.NewLexer(parse.NewInputString(value))
	nodes, _ := parseValueNodes(lexer, false)
	return nodes
}

// parseValueNodes reads components until the closing parenthesis of the
// enclosing function (consumed) or end of input
func parseValueNodes(lexer *tdcss.Lexer, nested bool) ([]*Value, bool) {
	var nodes []*Value
	var word strings.Builder

	flush := func() {
		if word.Len() > 0 {
			nodes = append(nodes, &Value{Type: ValueWord, Value: word.String()})
			word.Reset()
		}
	}

	for {
		tt, data := lexer.Next()
		switch tt {
		case tdcss.ErrorToken:
			flush()
			return mergeDivSpace(nodes), false
		case tdcss.RightParenthesisToken:
			if nested {
				flush()
				return mergeDivSpace(nodes), true
			}
			word.Write(data)
		case tdcss.WhitespaceToken:
			flush()
			nodes = append(nodes, &Value{Type: ValueSpace, Value: " "})
		case tdcss.CommentToken:
		case tdcss.CommaToken:
			flush()
			nodes = append(nodes, &Value{Type: ValueDiv, Value: ","})
		case tdcss.DelimToken:
			if string(data) == "/" {
				flush()
				nodes = append(nodes, &Value{Type: ValueDiv, Value: "/"})
				continue
			}
			word.Write(data)
		case tdcss.StringToken:
			flush()
			nodes = append(nodes, &Value{Type: ValueString, Value: string(data)})
		case tdcss.FunctionToken, tdcss.LeftParenthesisToken:
			flush()
			name := strings.TrimSuffix(string(data), "(")
			args, _ := parseValueNodes(lexer, true)
			nodes = append(nodes, &Value{Type: ValueFunction, Value: name, Nodes: args})
		default:
			word.Write(data)
		}
	}
}

// mergeDivSpace folds whitespace around divs into the div itself and trims
// leading and trailing space nodes
func mergeDivSpace(nodes []*Value) []*Value {
	out := make([]*Value, 0, len(nodes))
	for i := 0; i < len(nodes); i++ {
		n := nodes[i]
		if n.Type == ValueSpace {
			if i+1 < len(nodes) && nodes[i+1].Type == ValueDiv {
				nodes[i+1].Before = " "
				continue
			}
			if len(out) > 0 && out[len(out)-1].Type == ValueDiv {
				out[len(out)-1].After = " "
				continue
			}
			if len(out) == 0 || i == len(nodes)-1 {
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

// Stringify renders value components back to text
func Stringify(nodes []*Value) string {
	var sb strings.Builder
	for _, n := range nodes {
		n.write(&sb)
	}
	return sb.String()
}

func (v *Value) String() string {
	var sb strings.Builder
	v.write(&sb)
	return sb.String()
}

func (v *Value) write(sb *strings.Builder) {
	switch v.Type {
	case ValueFunction:
		sb.WriteString(v.Value)
		sb.WriteByte('(')
		for _, n := range v.Nodes {
			n.write(sb)
		}
		sb.WriteByte(')')
	case ValueDiv:
		sb.WriteString(v.Before)
		sb.WriteString(v.Value)
		sb.WriteString(v.After)
	default:
		sb.WriteString(v.Value)
	}
}

// WalkValues visits components pre-order. Returning false from fn skips the
// children of that component.
func WalkValues(nodes []*Value, fn func(*Value) bool) {
	for _, n := range nodes {
		if fn(n) && n.Type == ValueFunction {
			WalkValues(n.Nodes, fn)
		}
	}
}

// WalkValuesPost visits components post-order, so a function's arguments
// are seen (and possibly rewritten) before the function itself
func WalkValuesPost(nodes []*Value, fn func(*Value)) {
	for _, n := range nodes {
		if n.Type == ValueFunction {
			WalkValuesPost(n.Nodes, fn)
		}
		fn(n)
	}
}

// Args splits function arguments on divs of the given kind
// (`,` for rgb(a, b, c), "" for any div)
func (v *Value) Args(div string) [][]*Value {
	var args [][]*Value
	var cur []*Value
	for _, n := range v.Nodes {
		if n.Type == ValueDiv && (div == "" || n.Value == div) {
			args = append(args, cur)
			cur = nil
			continue
		}
		cur = append(cur, n)
	}
	return append(args, cur)
}

// SetWord turns v into a plain word carrying text
func (v *Value) SetWord(text string) {
	v.Type = ValueWord
	v.Value = text
	v.Before = ""
	v.After = ""
	v.Nodes = nil
}
