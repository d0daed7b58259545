package sanitize

import "strings"

// SanitizeClassName turns an arbitrary utility class (`sm:p-4`,
// `w-[calc(100%-2px)]`) into a plain identifier usable both in the class
// attribute and in a selector without escaping
func SanitizeClassName(class string) string {
	var sb strings.Builder
	sb.Grow(len(class))
	for _, r := range class {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		case r == '[', r == ']', r == '(', r == ')', r == '\'', r == '"':
		case r == '+':
			sb.WriteString("plus")
		case r == '%':
			sb.WriteString("pc")
		case r >= 0x80:
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
