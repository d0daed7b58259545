package resolver

import (
	"strings"

	"mailinline/internal/css"
)

// Declaration is one property ready to be written into a style attribute
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

func (d Declaration) String() string {
	if d.Important {
		return d.Property + ": " + d.Value + " !important;"
	}
	return d.Property + ": " + d.Value + ";"
}

// ComposeDeclarations flattens rules into declarations, lowest precedence
// first. Custom properties are not emitted; var() references still present
// resolve against custom properties declared by the same rules and then
// against registered initial values.
func ComposeDeclarations(rules []*css.Node, customProperties css.CustomProperties) []Declaration {
	local := make(map[string]string)
	for _, rule := range rules {
		rule.WalkDecls(func(decl *css.Node) {
			if decl.IsCustomProperty() {
				local[decl.Prop] = decl.Value
			}
		})
	}

	var out []Declaration
	for _, rule := range rules {
		rule.WalkDecls(func(decl *css.Node) {
			if decl.IsCustomProperty() {
				return
			}
			out = append(out, Declaration{
				Property:  decl.Prop,
				Value:     resolveVars(decl.Value, local, customProperties),
				Important: decl.Important,
			})
		})
	}
	return out
}

func resolveVars(value string, local map[string]string, customProperties css.CustomProperties) string {
	if !strings.Contains(value, "var(") {
		return value
	}

	nodes := css.ParseValue(value)
	css.WalkValues(nodes, func(n *css.Value) bool {
		if n.Type != css.ValueFunction || n.Value != "var" {
			return true
		}
		name := strings.TrimSpace(css.Stringify(n.Args(",")[0]))
		if v, ok := local[name]; ok {
			n.SetWord(v)
			return false
		}
		if v, ok := customProperties.Initial(name); ok {
			n.SetWord(v)
			return false
		}
		return true
	})
	return css.Stringify(nodes)
}

// SerializeDeclarations writes declarations in order as a style attribute
// value
func SerializeDeclarations(decls []Declaration) string {
	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d.String()
	}
	return strings.Join(parts, " ")
}

// MakeInlineStylesFor serializes the declarations of rules in cascade order
func MakeInlineStylesFor(rules []*css.Node, customProperties css.CustomProperties) string {
	return SerializeDeclarations(ComposeDeclarations(rules, customProperties))
}

// CombineStyles appends the element's own style after the generated one so
// it keeps the highest precedence
func CombineStyles(generated, existing string) string {
	existing = strings.TrimSpace(existing)
	switch {
	case existing == "":
		return generated
	case generated == "":
		return existing
	}
	if !strings.HasSuffix(existing, ";") {
		existing += ";"
	}
	return generated + " " + existing
}
