package inliner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"mailinline/internal/config"
	"mailinline/internal/html"
)

func render(t *testing.T, document, stylesheet string) *InlineResult {
	t.Helper()
	result, err := Render(document, stylesheet, config.Default())
	require.NoError(t, err)
	return result
}

func TestRender_ResponsiveClass(t *testing.T) {
	document := `<!DOCTYPE html><html><head><title>Hi</title></head><body><!-- greeting -->` +
		`<div class="bg-blue-500 sm:bg-red-500">Hello</div></body></html>`
	stylesheet := `
		.bg-blue-500 { background-color: #3b82f6; }
		@media (min-width: 640px) { .sm\:bg-red-500 { background-color: #ef4444; } }
	`

	result := render(t, document, stylesheet)

	want := html.XHTMLDoctype + `<html><head>` +
		`<style>@media (min-width: 640px) { .sm_bg-red-500 { background-color: rgb(239, 68, 68) !important; } }</style>` +
		`<title>Hi</title></head><body>` +
		`<div class="sm_bg-red-500" style="background-color: rgb(59, 130, 246);">Hello</div>` +
		`</body></html>`
	assert.Equal(t, want, result.HTML)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 1, result.PreservedRules)
	assert.True(t, result.Converged)
	assert.Equal(t, 2, result.ProcessingStats.CSSRulesParsed)
	assert.Equal(t, 1, result.ProcessingStats.ClassesInlined)
	assert.Equal(t, 1, result.ProcessingStats.ClassesKept)
}

func TestRender_MissingHead(t *testing.T) {
	stylesheet := `@media (min-width: 640px) { .sm\:p-4 { padding: 1rem; } }`

	_, err := Render(`<body><div class="sm:p-4 other">x</div></body>`, stylesheet, config.Default())
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrMissingHead))
	var mhe *MissingHeadError
	require.ErrorAs(t, err, &mhe)
	assert.Equal(t, []string{"sm:p-4"}, mhe.Classes)
	assert.Contains(t, err.Error(), "sm:p-4")
}

func TestRender_HeadAtAnyDepth(t *testing.T) {
	stylesheet := `.hover\:underline:hover { text-decoration-line: underline; }`

	result := render(t, `<div><head></head><a class="hover:underline">x</a></div>`, stylesheet)
	assert.Equal(t,
		`<div><head><style>.hover_underline:hover { text-decoration-line: underline !important; }</style></head>`+
			`<a class="hover_underline">x</a></div>`,
		result.HTML)
}

func TestRender_GlobalConditionalMatching(t *testing.T) {
	stylesheet := `* { border-color: red; box-sizing: border-box }`
	document := `<head></head><div class="border"></div><div class="outline"></div>`

	result := render(t, document, stylesheet)

	assert.Contains(t, result.HTML, `<div class="border" style="border-color: red; box-sizing: border-box;"></div>`)
	assert.Contains(t, result.HTML, `<div class="outline" style="box-sizing: border-box;"></div>`)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "You are using the following classes that were not recognized: border outline.", result.Warnings[0])
}

func TestRender_VariableChain(t *testing.T) {
	stylesheet := `:root { --a: red; --b: var(--a); --c: var(--b); } .x { color: var(--c); }`

	result := render(t, `<p class="x">x</p>`, stylesheet)

	assert.Equal(t, `<p style="color: red;">x</p>`, result.HTML)
	assert.True(t, result.Converged)
}

func TestRender_CircularVariables(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	gen, err := NewStaticGenerator(`:root { --a: var(--b); --b: var(--a); } .x { color: var(--a); }`, "")
	require.NoError(t, err)

	result, err := New(config.Default(), gen, zap.New(core)).Render(context.Background(), `<p class="x">x</p>`)
	require.NoError(t, err)

	assert.False(t, result.Converged)
	assert.Equal(t, 10, result.ProcessingStats.VariableIterations)
	assert.Contains(t, result.HTML, "var(--")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "maximum iterations")
	assert.Equal(t, 1, logs.FilterMessageSnippet("maximum iterations").Len())
}

func TestRender_BaseFontSize(t *testing.T) {
	cfg := config.Default()
	cfg.BaseFontSize = 10

	result, err := Render(`<p class="p">x</p>`, `.p { padding: 1.5rem; width: calc(2rem + 4px); }`, cfg)
	require.NoError(t, err)
	assert.Equal(t, `<p style="padding: 15px; width: 24px;">x</p>`, result.HTML)
}

func TestRender_Cleanup(t *testing.T) {
	document := `<!doctype html><html><head></head><body><!-- mso --><img src="a.png" onerror="alert(1)" onload="x()"></body></html>`

	result := render(t, document, "")
	assert.Equal(t, html.XHTMLDoctype+`<html><head></head><body><img src="a.png"/></body></html>`, result.HTML)

	cfg := config.Default()
	cfg.KeepComments = true
	cfg.KeepDoctype = true
	cfg.KeepEventHandlers = true
	kept, err := Render(document, "", cfg)
	require.NoError(t, err)
	assert.Equal(t, `<!DOCTYPE html><html><head></head><body><!-- mso --><img src="a.png" onerror="alert(1)" onload="x()"/></body></html>`, kept.HTML)
}

func TestRender_ExistingStyleWins(t *testing.T) {
	result := render(t, `<p class="a" style="color: blue">x</p>`, `.a { color: red; margin: 0 }`)
	assert.Equal(t, `<p style="color: red; margin: 0; color: blue;">x</p>`, result.HTML)
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name       string
		stylesheet string
		target     error
	}{
		{"unclosed block", `.a { color: red`, ErrParse},
		{"malformed oklch", `.a { color: oklch(bogus); }`, ErrMalformedColor},
		{"malformed rgb", `.a { color: rgb(a b c); }`, ErrMalformedColor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(`<head></head><p class="a">x</p>`, tt.stylesheet, config.Default())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), err.Error())
		})
	}

	var pe *ParseError
	_, err := Render(`<p>x</p>`, `}`, config.Default())
	require.ErrorAs(t, err, &pe)
}

func TestRender_CompatibilityWarnings(t *testing.T) {
	cfg := config.Default()
	cfg.TargetEmailClient = "outlook"

	stylesheet := `
		@media (min-width: 640px) { .sm\:p-4 { padding: 16px; } }
		.focus\:ring:focus { outline-width: 2px; }
	`
	result, err := Render(`<head></head><div class="sm:p-4 focus:ring"></div>`, stylesheet, cfg)
	require.NoError(t, err)

	require.Len(t, result.Warnings, 2)
	assert.Contains(t, result.Warnings[0], "ignores media queries")
	assert.Contains(t, result.Warnings[1], "does not support :focus")
}

func TestRender_GeneratorSeesClassesInOrder(t *testing.T) {
	var got []string
	gen := GeneratorFunc(func(_ context.Context, candidates []string) (string, error) {
		got = candidates
		return `.b { color: red; }`, nil
	})

	_, err := New(config.Default(), gen, nil).Render(context.Background(), `<p class="b a"><span class="a c b"></span></p>`)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, got)
}

func TestRender_GeneratorError(t *testing.T) {
	boom := errors.New("compiler crashed")
	gen := GeneratorFunc(func(context.Context, []string) (string, error) { return "", boom })

	_, err := New(config.Default(), gen, nil).Render(context.Background(), `<p class="a"></p>`)
	assert.ErrorIs(t, err, boom)
}

func TestRender_CanceledContext(t *testing.T) {
	gen, err := NewStaticGenerator(".a { color: red; }", "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(config.Default(), gen, nil).Render(ctx, `<p class="a"></p>`)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStaticGenerator_CustomCSS(t *testing.T) {
	gen, err := NewStaticGenerator(`.text-brand { color: var(--brand); }`, `@import "theme.css"; :root { --brand: #ff0000; }`)
	require.NoError(t, err)

	css, err := gen.Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.NotContains(t, css, "@import")

	result, err := New(config.Default(), gen, nil).Render(context.Background(), `<p class="text-brand">x</p>`)
	require.NoError(t, err)
	assert.Equal(t, `<p style="color: rgb(255, 0, 0);">x</p>`, result.HTML)
}

func TestAccumulatingGenerator(t *testing.T) {
	var calls [][]string
	var mu sync.Mutex
	gen := NewAccumulatingGenerator(func(_ context.Context, candidates []string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, candidates)
		return "", nil
	})

	ctx := context.Background()
	_, err := gen.Generate(ctx, []string{"a", "b"})
	require.NoError(t, err)
	_, err = gen.Generate(ctx, []string{"b", "c"})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"a", "b"}, {"a", "b", "c"}}, calls)
	assert.Equal(t, []string{"a", "b", "c"}, gen.Candidates())

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = gen.Generate(ctx, []string{strings.Repeat("x", i+1)})
		}()
	}
	wg.Wait()
	assert.Len(t, gen.Candidates(), 11)
}

func TestValidate(t *testing.T) {
	inl := New(config.Default(), &StaticGenerator{}, nil)

	issues, err := inl.Validate(`<div style="position: fixed" onload="x()"><style>.a{position:fixed}</style></div>`)
	require.NoError(t, err)

	var messages []string
	for _, issue := range issues {
		messages = append(messages, issue.Type+": "+issue.Message)
	}
	assert.ElementsMatch(t, []string{
		"structure: Document has no <head>, responsive or pseudo class styles cannot be kept",
		"structure: Email should use table-based layout for better client compatibility",
		"css: position: fixed is not supported in email clients",
		"css: position: fixed is not supported in email clients",
		"attribute: onload attribute will be removed",
	}, messages)
}

func TestToPlainText(t *testing.T) {
	text, err := ToPlainText(`<html><body><div id="` + html.PreviewSnippetID + `">preview</div><p>Hello <img src="a.png" alt="pic">world</p></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)
}
