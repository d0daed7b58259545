package sanitize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"mailinline/internal/css"
)

var (
	oklchArgRegex = regexp.MustCompile(`(?i)^(-?[\d.]+)(%|deg)?$`)
	rgbArgRegex   = regexp.MustCompile(`^(-?[\d.]+)(%)?$`)
	hexRegex      = regexp.MustCompile(`^#([0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
)

// OKLab to LMS and LMS to linear sRGB matrices
var (
	labToLMS = [3][2]float64{
		{0.3963377773761749, 0.2158037573099136},
		{-0.1055613458156586, -0.0638541728258133},
		{-0.0894841775298119, -1.2914855480194092},
	}
	lmsToRGB = [3][3]float64{
		{4.0767416360759583, -3.3077115392580629, 0.2309699031821043},
		{-1.2684379732850315, 2.6097573492876882, -0.341319376002657},
		{-0.0041960761386756, -0.7034186179359362, 1.7076146940746117},
	}
)

// RGB is a color with 0..255 channels and an optional alpha
type RGB struct {
	R, G, B  float64
	A        float64
	HasAlpha bool
}

// String formats the color as `rgb(r, g, b)` or `rgb(r, g, b, a)`. Alpha is
// omitted when it is 1.
func (c RGB) String() string {
	var sb strings.Builder
	sb.WriteString("rgb(")
	sb.WriteString(strconv.Itoa(roundChannel(c.R)))
	sb.WriteString(", ")
	sb.WriteString(strconv.Itoa(roundChannel(c.G)))
	sb.WriteString(", ")
	sb.WriteString(strconv.Itoa(roundChannel(c.B)))
	if c.HasAlpha && c.A != 1 {
		sb.WriteString(", ")
		sb.WriteString(formatNumber(c.A))
	}
	sb.WriteByte(')')
	return sb.String()
}

func roundChannel(f float64) int {
	return int(math.Floor(f + 0.5))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// linearToSRGB applies the sRGB transfer function
func linearToSRGB(v float64) float64 {
	abs := math.Abs(v)
	if abs > 0.0031308 {
		sign := 1.0
		if v < 0 {
			sign = -1
		}
		return sign * (math.Pow(abs, 1/2.4)*1.055 - 0.055)
	}
	return v * 12.92
}

// OklchToRGB converts lightness (0..1), chroma and hue in degrees to sRGB
func OklchToRGB(l, c, h float64) RGB {
	a := c * math.Cos(h/180*math.Pi)
	b := c * math.Sin(h/180*math.Pi)

	lms := [3]float64{}
	for i, row := range labToLMS {
		lms[i] = math.Pow(l+row[0]*a+row[1]*b, 3)
	}

	var rgb [3]float64
	for i, row := range lmsToRGB {
		lin := row[0]*lms[0] + row[1]*lms[1] + row[2]*lms[2]
		rgb[i] = clamp(255*linearToSRGB(lin), 0, 255)
	}

	return RGB{R: rgb[0], G: rgb[1], B: rgb[2]}
}

type oklchArgs struct {
	l, c, h, a             float64
	hasL, hasC, hasH, hasA bool
}

func parseOklchArgs(nodes []*css.Value) oklchArgs {
	var res oklchArgs
	for _, n := range nodes {
		if n.Type != css.ValueWord {
			continue
		}
		m := oklchArgRegex.FindStringSubmatch(n.Value)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}

		switch strings.ToLower(m[2]) {
		case "%":
			if !res.hasL {
				res.l, res.hasL = v/100, true
			} else if !res.hasA {
				res.a, res.hasA = v/100, true
			}
		case "deg":
			if !res.hasH {
				res.h, res.hasH = v, true
			}
		default:
			switch {
			case !res.hasL:
				res.l, res.hasL = v, true
			case !res.hasC:
				res.c, res.hasC = v, true
			case !res.hasH:
				res.h, res.hasH = v, true
			case !res.hasA:
				res.a, res.hasA = v, true
			}
		}
	}
	return res
}

// parseRGBArgs reads up to four channels; percentages scale to 0..255 for
// color channels and 0..1 for alpha
func parseRGBArgs(nodes []*css.Value) (RGB, bool) {
	var vals []float64
	for _, n := range nodes {
		if n.Type != css.ValueWord || len(vals) == 4 {
			continue
		}
		m := rgbArgRegex.FindStringSubmatch(n.Value)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if m[2] == "%" {
			if len(vals) < 3 {
				v = v * 255 / 100
			} else {
				v = v / 100
			}
		}
		vals = append(vals, v)
	}

	if len(vals) < 3 {
		return RGB{}, false
	}
	c := RGB{R: vals[0], G: vals[1], B: vals[2]}
	if len(vals) == 4 {
		c.A, c.HasAlpha = vals[3], true
	}
	return c, true
}

// HexToRGB parses #rgb, #rgba, #rrggbb and #rrggbbaa
func HexToRGB(hex string) (RGB, bool) {
	if !hexRegex.MatchString(hex) {
		return RGB{}, false
	}
	h := hex[1:]
	if len(h) <= 4 {
		var sb strings.Builder
		for i := 0; i < len(h); i++ {
			sb.WriteByte(h[i])
			sb.WriteByte(h[i])
		}
		h = sb.String()
	}

	channel := func(i int) float64 {
		v, _ := strconv.ParseUint(h[i:i+2], 16, 8)
		return float64(v)
	}

	c := RGB{R: channel(0), G: channel(2), B: channel(4)}
	if len(h) == 8 {
		c.A, c.HasAlpha = channel(6)/255, true
	}
	return c, true
}

// colorMix handles `color-mix(in <space>, <rgb> P%, transparent)`, the form
// utility frameworks emit for opacity modifiers
func colorMix(fn *css.Value) (string, bool) {
	if len(fn.Nodes) == 0 {
		return "", false
	}
	last := fn.Nodes[len(fn.Nodes)-1]
	if last.Type != css.ValueWord || last.Value != "transparent" {
		return "", false
	}

	var rgbArgs []*css.Value
	pct, hasPct := 0.0, false
	for _, n := range fn.Nodes {
		switch {
		case n.Type == css.ValueFunction && strings.EqualFold(n.Value, "rgb"):
			rgbArgs = n.Nodes
		case n.Type == css.ValueWord && strings.HasPrefix(strings.ToLower(n.Value), "rgb("):
			if parsed := css.ParseValue(n.Value); len(parsed) == 1 && parsed[0].Type == css.ValueFunction {
				rgbArgs = parsed[0].Nodes
			}
		case n.Type == css.ValueWord && strings.HasSuffix(n.Value, "%"):
			if v, err := strconv.ParseFloat(strings.TrimSuffix(n.Value, "%"), 64); err == nil {
				pct, hasPct = v/100, true
			}
		}
	}
	if rgbArgs == nil || !hasPct {
		return "", false
	}

	c, ok := parseRGBArgs(rgbArgs)
	if !ok {
		return "", false
	}
	c.A, c.HasAlpha = pct, true
	return c.String(), true
}

// convertColors rewrites oklch(), rgb(), color-mix() and hex colors in value
// to comma separated rgb(). Arguments are converted before the function that
// holds them.
func convertColors(value string) (string, error) {
	lower := strings.ToLower(value)
	if !strings.Contains(lower, "oklch(") && !strings.Contains(lower, "rgb(") &&
		!strings.Contains(value, "#") && !strings.Contains(lower, "color-mix(") {
		return value, nil
	}

	nodes := css.ParseValue(value)
	var err error
	css.WalkValuesPost(nodes, func(n *css.Value) {
		if err != nil {
			return
		}
		switch n.Type {
		case css.ValueFunction:
			switch strings.ToLower(n.Value) {
			case "oklch":
				args := parseOklchArgs(n.Nodes)
				if !args.hasL || !args.hasC || !args.hasH {
					err = &MalformedColorError{Function: "oklch", Value: n.String()}
					return
				}
				c := OklchToRGB(args.l, args.c, args.h)
				c.A, c.HasAlpha = args.a, args.hasA
				n.SetWord(c.String())
			case "rgb":
				c, ok := parseRGBArgs(n.Nodes)
				if !ok {
					err = &MalformedColorError{Function: "rgb", Value: n.String()}
					return
				}
				n.SetWord(c.String())
			case "color-mix":
				if s, ok := colorMix(n); ok {
					n.SetWord(s)
				}
			}
		case css.ValueWord:
			if strings.HasPrefix(n.Value, "#") {
				if c, ok := HexToRGB(n.Value); ok {
					n.SetWord(c.String())
				}
			}
		}
	})
	if err != nil {
		return value, err
	}
	return css.Stringify(nodes), nil
}
