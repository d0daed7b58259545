// Package inliner turns an HTML document and the stylesheet generated for
// its classes into email-safe HTML: inlinable declarations move into style
// attributes, the rest is kept in a <style> block under <head>.
package inliner

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"mailinline/internal/config"
	"mailinline/internal/css"
	"mailinline/internal/diag"
	"mailinline/internal/html"
	"mailinline/internal/resolver"
	"mailinline/internal/sanitize"
)

// Inliner is the CSS inlining engine for email HTML. It is safe for
// concurrent use when its Generator is.
type Inliner struct {
	config config.Config
	parser *css.Parser
	gen    Generator
	log    *zap.Logger
}

// New creates an inliner. A nil log discards output.
func New(cfg config.Config, gen Generator, log *zap.Logger) *Inliner {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("inliner")
	return &Inliner{
		config: cfg,
		parser: css.NewParser(log),
		gen:    gen,
		log:    log,
	}
}

// InlineResult contains the result of a render
type InlineResult struct {
	HTML            string          // Final HTML with inlined styles
	Warnings        []string        // Non-fatal findings
	PreservedRules  int             // Rules kept in the injected <style> block
	Converged       bool            // Variable resolution reached a fixed point
	ProcessingStats ProcessingStats // Processing statistics
}

// ProcessingStats contains metrics from the render
type ProcessingStats struct {
	CSSRulesParsed        int   // Rules in the generated stylesheet
	HTMLElementsProcessed int   // Elements visited by the resolver
	StylesWritten         int   // Elements whose style attribute was written
	ClassesInlined        int   // Class occurrences replaced by inline styles
	ClassesKept           int   // Class occurrences left in class attributes
	VariableIterations    int   // var() resolution passes
	ProcessingTimeMs      int64 // Processing time in milliseconds
}

// Add accumulates other into s, used for batch totals
func (s *ProcessingStats) Add(other ProcessingStats) {
	s.CSSRulesParsed += other.CSSRulesParsed
	s.HTMLElementsProcessed += other.HTMLElementsProcessed
	s.StylesWritten += other.StylesWritten
	s.ClassesInlined += other.ClassesInlined
	s.ClassesKept += other.ClassesKept
	s.VariableIterations += other.VariableIterations
	s.ProcessingTimeMs += other.ProcessingTimeMs
}

// Render inlines the stylesheet produced by the generator into document
func (i *Inliner) Render(ctx context.Context, document string) (*InlineResult, error) {
	start := time.Now()

	tree, err := html.Parse(document)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	if !i.config.KeepEventHandlers {
		tree.RemoveEventHandlers()
	}

	classes := ClassesInUse(tree)
	i.log.Debug("Collected classes", zap.Int("count", len(classes)))

	cssText, err := i.gen.Generate(ctx, classes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate stylesheet: %w", err)
	}

	stylesheet, err := i.parser.Parse(cssText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSS: %w", err)
	}

	result := &InlineResult{}
	stylesheet.WalkRules(func(*css.Node) { result.ProcessingStats.CSSRulesParsed++ })

	collector := diag.NewCollector(i.log)
	sres, err := sanitize.SanitizeStylesheet(stylesheet, sanitize.Options{
		BaseFontSize:          i.config.BaseFontSize,
		MaxVariableIterations: i.config.MaxVariableIterations,
	}, collector)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare stylesheet: %w", err)
	}
	result.Converged = sres.Converged
	result.ProcessingStats.VariableIterations = sres.Iterations

	rules := resolver.Rules{
		Classes:          css.ExtractRulesPerClass(stylesheet, classes),
		Global:           css.ExtractGlobalRules(stylesheet),
		CustomProperties: css.GetCustomProperties(stylesheet),
	}
	nonInlinable := rules.Classes.NonInlinable

	res := resolver.New(rules, i.config, collector, i.log)
	res.Apply(tree)

	stats := res.Stats()
	result.ProcessingStats.HTMLElementsProcessed = stats.ElementsProcessed
	result.ProcessingStats.StylesWritten = stats.StylesWritten
	result.ProcessingStats.ClassesInlined = stats.ClassesInlined
	result.ProcessingStats.ClassesKept = stats.ClassesKept

	if nonInlinable.Len() > 0 {
		head := tree.Find("head")
		if head == html.Deleted {
			collector.Flush()
			return nil, &MissingHeadError{Classes: nonInlinable.Classes()}
		}

		block := sanitize.NonInlinableStylesheet(nonInlinable.Rules())
		styleText := block.String()
		i.checkStyleBlock(styleText, nonInlinable.Rules(), collector)

		style := tree.NewNode(html.ElementNode, "style")
		tree.AppendChild(style, tree.NewNode(html.RawNode, styleText))
		tree.InsertChild(head, 0, style)

		result.PreservedRules = len(block.Nodes)
	}

	if !i.config.KeepComments {
		tree.RemoveComments()
	}
	if !i.config.KeepDoctype {
		tree.NormalizeDoctype()
	}

	out, err := tree.Render()
	if err != nil {
		return nil, err
	}

	collector.Flush()
	result.HTML = out
	result.Warnings = collector.Warnings()
	result.ProcessingStats.ProcessingTimeMs = time.Since(start).Milliseconds()

	i.log.Debug("Render complete",
		zap.Int("rules", result.ProcessingStats.CSSRulesParsed),
		zap.Int("elements", stats.ElementsProcessed),
		zap.Int("preserved", result.PreservedRules),
		zap.Int("warnings", len(result.Warnings)))

	return result, nil
}

// ClassesInUse lists class names of every element in document order,
// each once
func ClassesInUse(tree *html.Tree) []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range tree.Elements() {
		for _, class := range tree.Classes(id) {
			if !seen[class] {
				seen[class] = true
				out = append(out, class)
			}
		}
	}
	return out
}

var pseudoClassRegex = regexp.MustCompile(`:(hover|focus|active|visited)\b`)

// checkStyleBlock warns about injected CSS the target client will not honor
func (i *Inliner) checkStyleBlock(styleText string, rules []*css.Node, collector *diag.Collector) {
	client := i.config.TargetEmailClient
	profile := config.GetCompatibilityProfile(client)

	if profile.MaxStylesheetSize > 0 && len(styleText) > profile.MaxStylesheetSize {
		collector.Warnf("The injected <style> block is %d bytes, over the %d byte limit of %s",
			len(styleText), profile.MaxStylesheetSize, client)
	}

	reported := make(map[string]bool)
	for _, rule := range rules {
		if !profile.SupportsMediaQueries && !reported["@media"] {
			if at := css.ClosestConditionalAtRule(rule); at != nil && at.Name == "media" {
				reported["@media"] = true
				collector.Warnf("%s ignores media queries, responsive classes will have no effect", client)
			}
		}
		for _, m := range pseudoClassRegex.FindAllStringSubmatch(rule.Selector, -1) {
			pseudo := ":" + m[1]
			supported, known := profile.SupportsPseudoSelectors[pseudo]
			if known && !supported && !reported[pseudo] {
				reported[pseudo] = true
				collector.Warnf("%s does not support %s, rules using it will have no effect", client, pseudo)
			}
		}
	}
}

// Render is the primitive entry point: it inlines stylesheetCSS into
// documentHTML without a generator
func Render(documentHTML, stylesheetCSS string, cfg config.Config) (*InlineResult, error) {
	gen, err := NewStaticGenerator(stylesheetCSS, "")
	if err != nil {
		return nil, err
	}
	return New(cfg, gen, nil).Render(context.Background(), documentHTML)
}

// ToPlainText renders final HTML as plain text, skipping images and the
// hidden preview snippet
func ToPlainText(markup string) (string, error) {
	return html.ToPlainText(markup)
}
