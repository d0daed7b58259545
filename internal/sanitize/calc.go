package sanitize

import (
	"regexp"
	"strconv"
	"strings"

	"mailinline/internal/css"
)

var calcOperandRegex = regexp.MustCompile(`(?i)^(-?[\d.]+)(%|[a-z]+)?$`)

type operandType uint8

const (
	operandNumber operandType = iota
	operandDimension
	operandPercentage
)

type operand struct {
	value float64
	unit  string
	typ   operandType
}

func (o operand) String() string {
	return formatNumber(o.value) + o.unit
}

func parseOperand(s string) (operand, bool) {
	m := calcOperandRegex.FindStringSubmatch(s)
	if m == nil {
		return operand{}, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return operand{}, false
	}

	o := operand{value: v, unit: m[2], typ: operandNumber}
	switch {
	case o.unit == "%":
		o.typ = operandPercentage
	case o.unit != "":
		o.typ = operandDimension
	}
	return o, true
}

func isOperator(s string) bool {
	return s == "*" || s == "/" || s == "+" || s == "-"
}

// tokenizeCalc splits an expression into operands and operators. A `+` or
// `-` only counts as an operator when it follows an operand that does not
// end in an exponent marker, so `-4px` and `1e-3` stay intact.
func tokenizeCalc(expr string) []string {
	var tokens []string
	var cur strings.Builder

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			tokens = append(tokens, s)
		}
		cur.Reset()
	}

	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch c {
		case '*', '/':
			flush()
			tokens = append(tokens, string(c))
		case '+', '-':
			s := strings.TrimSpace(cur.String())
			if s != "" && !strings.HasSuffix(s, "e") && !strings.HasSuffix(s, "E") {
				flush()
				tokens = append(tokens, string(c))
			} else {
				cur.WriteByte(c)
			}
		case ' ', '\t', '\n':
			if strings.TrimSpace(cur.String()) == "" {
				continue
			}
			j := i + 1
			for j < len(expr) && (expr[j] == ' ' || expr[j] == '\t' || expr[j] == '\n') {
				j++
			}
			if j >= len(expr) || !isOperator(string(expr[j])) {
				flush()
			}
		default:
			cur.WriteByte(c)
		}
	}
	flush()

	return tokens
}

func multiply(op string, left, right operand) operand {
	var v float64
	if op == "*" {
		v = left.value * right.value
	} else if right.value != 0 {
		v = left.value / right.value
	}

	res := operand{value: v, typ: operandNumber}
	switch {
	case left.typ == operandDimension && right.typ == operandNumber:
		res.unit, res.typ = left.unit, operandDimension
	case left.typ == operandNumber && right.typ == operandDimension:
		res.unit, res.typ = right.unit, operandDimension
	case left.typ == operandDimension && right.typ == operandDimension:
		if op == "*" {
			res.unit, res.typ = left.unit, operandDimension
		}
	case left.typ == operandPercentage || right.typ == operandPercentage:
		if !(op == "/" && left.typ == operandPercentage && right.typ == operandPercentage) {
			res.unit, res.typ = "%", operandPercentage
		}
	}
	return res
}

func add(op string, left, right operand, baseFontSize float64) (operand, bool) {
	sign := 1.0
	if op == "-" {
		sign = -1
	}

	if strings.EqualFold(left.unit, right.unit) {
		return operand{value: left.value + sign*right.value, unit: left.unit, typ: left.typ}, true
	}

	lpx, lok := ToPixels(left.value, left.unit, baseFontSize)
	rpx, rok := ToPixels(right.value, right.unit, baseFontSize)
	if !lok || !rok {
		return operand{}, false
	}
	return operand{value: lpx + sign*rpx, unit: "px", typ: operandDimension}, true
}

// EvaluateCalc evaluates the inside of a calc() function. Multiplication and
// division bind tighter than addition and subtraction, both left to right.
// Parentheses are not supported. It reports false when the expression does
// not reduce to a single value, e.g. when it mixes % and px.
func EvaluateCalc(expr string, baseFontSize float64) (string, bool) {
	tokens := tokenizeCalc(expr)
	if len(tokens) == 0 {
		return "", false
	}
	if len(tokens) == 1 {
		o, ok := parseOperand(tokens[0])
		if !ok {
			return "", false
		}
		return o.String(), true
	}

	for i := 1; i < len(tokens)-1; {
		if tokens[i] != "*" && tokens[i] != "/" {
			i++
			continue
		}
		left, lok := parseOperand(tokens[i-1])
		right, rok := parseOperand(tokens[i+1])
		if !lok || !rok {
			i++
			continue
		}
		tokens = splice(tokens, i-1, multiply(tokens[i], left, right).String())
	}

	for i := 1; i < len(tokens)-1; {
		if tokens[i] != "+" && tokens[i] != "-" {
			i++
			continue
		}
		left, lok := parseOperand(tokens[i-1])
		right, rok := parseOperand(tokens[i+1])
		if !lok || !rok {
			i++
			continue
		}
		res, ok := add(tokens[i], left, right, baseFontSize)
		if !ok {
			i++
			continue
		}
		tokens = splice(tokens, i-1, res.String())
	}

	if len(tokens) == 1 {
		return tokens[0], true
	}
	return "", false
}

// splice replaces tokens[at:at+3] with result
func splice(tokens []string, at int, result string) []string {
	out := append(tokens[:at:at], result)
	return append(out, tokens[at+3:]...)
}

// resolveCalc replaces every calc() in value that evaluates to a single
// value. Inner calls are handled first so nested calc() collapses in one go.
func resolveCalc(value string, baseFontSize float64) string {
	if !strings.Contains(strings.ToLower(value), "calc(") {
		return value
	}

	nodes := css.ParseValue(value)
	changed := false
	css.WalkValuesPost(nodes, func(n *css.Value) {
		if n.Type != css.ValueFunction || !strings.EqualFold(n.Value, "calc") {
			return
		}
		inner := css.Stringify(n.Nodes)
		if strings.ContainsAny(inner, "()") {
			return
		}
		if result, ok := EvaluateCalc(inner, baseFontSize); ok {
			n.SetWord(result)
			changed = true
		}
	})

	if !changed {
		return value
	}
	return css.Stringify(nodes)
}

// ResolveCalcExpressions evaluates calc() in every declaration of root
func ResolveCalcExpressions(root *css.Node, baseFontSize float64) {
	root.WalkDecls(func(decl *css.Node) {
		decl.Value = resolveCalc(decl.Value, baseFontSize)
	})
}
