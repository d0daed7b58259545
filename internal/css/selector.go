package css

import (
	"regexp"
	"strings"
)

var (
	pseudoRegex    = regexp.MustCompile(`::?[\w-]+(\([^)]*\))?`)
	classRegex     = regexp.MustCompile(`\.((?:\\.|[^\s.:>+~\[#,])+)`)
	unescapeRegex  = regexp.MustCompile(`\\(.)`)
	elementRegex   = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
	combinatorChar = " >+~\t\n"
)

// SplitSelectorList splits a selector list on top-level commas. Commas inside
// parentheses, brackets or quotes do not split. Fragments are trimmed, and
// empty fragments are kept so callers can see doubled commas.
func SplitSelectorList(selector string) []string {
	var (
		parts   []string
		start   int
		depth   int
		quote   byte
		escaped bool
	)

	for i := 0; i < len(selector); i++ {
		c := selector[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}

		switch c {
		case '"', '\'':
			quote = c
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(selector[start:i]))
				start = i + 1
			}
		}
	}

	return append(parts, strings.TrimSpace(selector[start:]))
}

// HasPseudoSelector reports whether selector uses a pseudo-class or
// pseudo-element. The check is textual, so an escaped colon inside a class
// name (`.sm\:flex`) counts as well.
func HasPseudoSelector(selector string) bool {
	return pseudoRegex.MatchString(selector)
}

// ClassNames returns the unescaped class names referenced by selector in
// order of appearance
func ClassNames(selector string) []string {
	matches := classRegex.FindAllStringSubmatch(selector, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, Unescape(m[1]))
	}
	return names
}

// Unescape drops CSS backslash escapes: `sm\:flex` becomes `sm:flex`
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return unescapeRegex.ReplaceAllString(s, "$1")
}

// IsElementSelector reports whether selector is a bare tag name
func IsElementSelector(selector string) bool {
	return elementRegex.MatchString(strings.ToLower(selector))
}

func hasCombinator(selector string) bool {
	return strings.ContainsAny(selector, combinatorChar)
}
