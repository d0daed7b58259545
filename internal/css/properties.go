package css

import "strings"

// CustomProperty is a variable registered with @property
type CustomProperty struct {
	Syntax       *Node
	Inherits     *Node
	InitialValue *Node
}

// CustomProperties maps a variable name (`--x`) to its registration
type CustomProperties map[string]CustomProperty

// Initial returns the registered initial value of name
func (cp CustomProperties) Initial(name string) (string, bool) {
	prop, ok := cp[name]
	if !ok || prop.InitialValue == nil {
		return "", false
	}
	return prop.InitialValue.Value, true
}

// GetCustomProperties reads every `@property --name { ... }` block
func GetCustomProperties(root *Node) CustomProperties {
	props := make(CustomProperties)

	root.WalkAtRules("property", func(at *Node) {
		name := strings.TrimSpace(at.Params)
		if !strings.HasPrefix(name, "--") {
			return
		}

		var prop CustomProperty
		at.WalkDecls(func(decl *Node) {
			switch decl.Prop {
			case "syntax":
				prop.Syntax = decl
			case "inherits":
				prop.Inherits = decl
			case "initial-value":
				prop.InitialValue = decl
			}
		})
		props[name] = prop
	})

	return props
}
