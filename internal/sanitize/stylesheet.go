// Package sanitize rewrites a parsed stylesheet into something email
// clients understand: variables substituted, calc() evaluated, lengths in
// px and colors as rgb().
package sanitize

import (
	"fmt"

	"go.uber.org/zap"

	"mailinline/internal/css"
	"mailinline/internal/diag"
)

// Options tunes the sanitizer passes
type Options struct {
	BaseFontSize          float64
	MaxVariableIterations int
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		BaseFontSize:          DefaultBaseFontSize,
		MaxVariableIterations: DefaultMaxVariableIterations,
	}
}

func (o Options) withDefaults() Options {
	if o.BaseFontSize <= 0 {
		o.BaseFontSize = DefaultBaseFontSize
	}
	if o.MaxVariableIterations <= 0 {
		o.MaxVariableIterations = DefaultMaxVariableIterations
	}
	return o
}

// SanitizeStylesheet runs variable resolution, calc evaluation and
// declaration sanitizing over root, in that order. A variable pass that hits
// the iteration cap is reported to collector and is not an error.
func SanitizeStylesheet(root *css.Node, opts Options, collector *diag.Collector) (Result, error) {
	opts = opts.withDefaults()

	res := ResolveAllVariables(root, opts.MaxVariableIterations)
	if !res.Converged && collector != nil {
		collector.Warn(
			fmt.Sprintf("CSS variable resolution hit maximum iterations (%d). This may indicate circular variable references.", opts.MaxVariableIterations),
			zap.Int("iterations", res.Iterations),
		)
	}

	ResolveCalcExpressions(root, opts.BaseFontSize)

	if err := SanitizeDeclarations(root, opts.BaseFontSize); err != nil {
		return res, fmt.Errorf("failed to sanitize declarations: %w", err)
	}
	return res, nil
}
