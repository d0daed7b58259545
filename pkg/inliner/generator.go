package inliner

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"mailinline/internal/css"
	"mailinline/internal/sanitize"
)

// Generator produces the stylesheet for the class names found in a
// document. It is called once per render.
type Generator interface {
	Generate(ctx context.Context, candidates []string) (string, error)
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func(ctx context.Context, candidates []string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, candidates []string) (string, error) {
	return f(ctx, candidates)
}

// StaticGenerator returns the same stylesheet regardless of candidates
type StaticGenerator struct {
	css string
}

// NewStaticGenerator combines a prebuilt stylesheet with optional custom
// CSS. @import, @plugin and @source are removed from the custom part.
func NewStaticGenerator(stylesheet, customCSS string) (*StaticGenerator, error) {
	if strings.TrimSpace(customCSS) == "" {
		return &StaticGenerator{css: stylesheet}, nil
	}
	custom, err := sanitize.SanitizeCustomCSS(css.NewParser(nil), customCSS)
	if err != nil {
		return nil, fmt.Errorf("failed to sanitize custom CSS: %w", err)
	}
	return &StaticGenerator{css: custom + "\n" + stylesheet}, nil
}

func (g *StaticGenerator) Generate(ctx context.Context, _ []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return g.css, nil
}

// AccumulatingGenerator remembers every candidate it was ever given and
// compiles all of them on each call, the way incremental utility CSS
// compilers do. Calls are serialized, but the output of one render depends
// on the renders before it: share an instance only when that is wanted.
type AccumulatingGenerator struct {
	compile GeneratorFunc

	mu    sync.Mutex
	seen  map[string]bool
	order []string
}

// NewAccumulatingGenerator wraps compile, which receives the accumulated
// candidates in first-seen order
func NewAccumulatingGenerator(compile GeneratorFunc) *AccumulatingGenerator {
	return &AccumulatingGenerator{
		compile: compile,
		seen:    make(map[string]bool),
	}
}

func (g *AccumulatingGenerator) Generate(ctx context.Context, candidates []string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, c := range candidates {
		if !g.seen[c] {
			g.seen[c] = true
			g.order = append(g.order, c)
		}
	}
	all := make([]string, len(g.order))
	copy(all, g.order)
	return g.compile(ctx, all)
}

// Candidates returns everything accumulated so far
func (g *AccumulatingGenerator) Candidates() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}
