package sanitize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"mailinline/internal/css"
)

// DefaultBaseFontSize is the root font size used for rem and em
const DefaultBaseFontSize = 16.0

var (
	hasConvertibleUnitRegex = regexp.MustCompile(`(?i)\d+(rem|em|pt|pc|in|cm|mm)\b`)
	convertibleWordRegex    = regexp.MustCompile(`(?i)^(-?[\d.]+)(rem|em|pt|pc|in|cm|mm)$`)
)

// ToPixels converts a length to px. An empty unit counts as px. It reports
// false for units that depend on layout (%, vw, vh, ch, ex, ...).
func ToPixels(value float64, unit string, baseFontSize float64) (float64, bool) {
	switch strings.ToLower(unit) {
	case "px", "":
		return value, true
	case "rem", "em":
		return value * baseFontSize, true
	case "pt":
		return value * (96.0 / 72.0), true
	case "pc":
		return value * 16, true
	case "in":
		return value * 96, true
	case "cm":
		return value * (96 / 2.54), true
	case "mm":
		return value * (96 / 25.4), true
	}
	return 0, false
}

// formatNumber renders f the shortest way that parses back to f
func formatNumber(f float64) string {
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// roundTo3 rounds half up to three decimals
func roundTo3(f float64) float64 {
	return math.Floor(f*1000+0.5) / 1000
}

// convertUnits rewrites every absolute or font-relative length in value to px
func convertUnits(value string, baseFontSize float64) string {
	if !hasConvertibleUnitRegex.MatchString(value) {
		return value
	}

	nodes := css.ParseValue(value)
	changed := false
	css.WalkValues(nodes, func(n *css.Value) bool {
		if n.Type != css.ValueWord {
			return true
		}
		m := convertibleWordRegex.FindStringSubmatch(n.Value)
		if m == nil {
			return true
		}
		num, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return true
		}
		if px, ok := ToPixels(num, m[2], baseFontSize); ok {
			n.Value = formatNumber(roundTo3(px)) + "px"
			changed = true
		}
		return true
	})

	if !changed {
		return value
	}
	return css.Stringify(nodes)
}
