package sanitize

import (
	"fmt"

	"mailinline/internal/css"
)

// directives that pull in external resources or build-time plugins and
// have no meaning in an email
var strippedAtRules = map[string]bool{
	"import": true,
	"plugin": true,
	"source": true,
}

// SanitizeCustomCSS drops @import, @plugin and @source from user supplied CSS
// before it is handed to the utility generator
func SanitizeCustomCSS(parser *css.Parser, customCSS string) (string, error) {
	root, err := parser.Parse(customCSS)
	if err != nil {
		return "", fmt.Errorf("failed to parse custom css: %w", err)
	}

	var remove []*css.Node
	root.WalkAtRules("", func(at *css.Node) {
		if strippedAtRules[at.Name] {
			remove = append(remove, at)
		}
	})
	for _, at := range remove {
		at.Remove()
	}

	return root.String(), nil
}
