package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"mailinline/internal/config"
	"mailinline/internal/state"
	"mailinline/pkg/inliner"
)

const stdinName = "-"

// renderOptions are render command switches which are not part of
// configuration
type renderOptions struct {
	text  bool
	stats bool
}

func runRender(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("render")

	cfg := config.Default()
	if env.Cfg != nil {
		cfg = *env.Cfg
	}
	if cmd.IsSet("base-font-size") {
		cfg.BaseFontSize = cmd.Float("base-font-size")
	}
	if cmd.IsSet("target") {
		cfg.TargetEmailClient = cmd.String("target")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("bad rendering options: %w", err)
	}

	gen, err := loadGenerator(cmd.StringSlice("css"), cmd.String("custom-css"))
	if err != nil {
		return err
	}
	engine := inliner.New(cfg, gen, env.Log)
	opts := renderOptions{text: cmd.Bool("text"), stats: cmd.Bool("stats")}

	src, dst := cmd.Args().Get(0), cmd.Args().Get(1)
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.String("target", cfg.TargetEmailClient))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	if src == "" || src == stdinName {
		return renderStream(ctx, engine, os.Stdin, "<stdin>", dst, opts)
	}

	fi, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("input source was not found: %w", err)
	}
	if fi.IsDir() {
		if dst == "" {
			return errors.New("destination directory is required when source is a directory")
		}
		return renderDir(ctx, engine, src, dst, opts, log)
	}
	return renderFile(ctx, engine, src, dst, opts)
}

// loadGenerator reads prebuilt stylesheet files in order and the optional
// custom CSS file
func loadGenerator(cssFiles []string, customFile string) (*inliner.StaticGenerator, error) {
	var sb strings.Builder
	for _, name := range cssFiles {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("unable to read stylesheet %q: %w", name, err)
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}

	var custom string
	if customFile != "" {
		data, err := os.ReadFile(customFile)
		if err != nil {
			return nil, fmt.Errorf("unable to read custom CSS %q: %w", customFile, err)
		}
		custom = string(data)
	}
	return inliner.NewStaticGenerator(sb.String(), custom)
}

func renderFile(ctx context.Context, engine *inliner.Inliner, src, dst string, opts renderOptions) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to read input file %s: %w", src, err)
	}
	defer f.Close()
	return renderStream(ctx, engine, f, src, dst, opts)
}

func renderStream(ctx context.Context, engine *inliner.Inliner, r io.Reader, name, dst string, opts renderOptions) error {
	result, out, err := renderDocument(ctx, engine, r, opts)
	if err != nil {
		return fmt.Errorf("unable to render %s: %w", name, err)
	}
	if err := writeOutput(out, dst); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if opts.stats {
		showProcessingStats(os.Stderr, result, name)
	}
	return nil
}

// renderDocument returns the render result and the text to be written out
func renderDocument(ctx context.Context, engine *inliner.Inliner, r io.Reader, opts renderOptions) (*inliner.InlineResult, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read input: %w", err)
	}

	result, err := engine.Render(ctx, string(data))
	if err != nil {
		return nil, "", err
	}
	if !opts.text {
		return result, result.HTML, nil
	}

	text, err := inliner.ToPlainText(result.HTML)
	if err != nil {
		return nil, "", err
	}
	return result, text, nil
}

// renderDir processes every HTML file under dir, keeping directory
// structure under dst. Failures of individual files do not stop processing.
func renderDir(ctx context.Context, engine *inliner.Inliner, dir, dst string, opts renderOptions, log *zap.Logger) (err error) {
	files, err := findHTMLFiles(dir)
	if err != nil {
		return fmt.Errorf("failed to find HTML files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no HTML files found in directory: %s", dir)
	}

	var total inliner.ProcessingStats
	processed := 0
	for i, src := range files {
		if er := ctx.Err(); er != nil {
			return multierr.Append(err, er)
		}
		log.Debug("Processing file", zap.Int("n", i+1), zap.Int("of", len(files)), zap.String("file", src))

		rel, er := filepath.Rel(dir, src)
		if er != nil {
			err = multierr.Append(err, er)
			continue
		}
		out := filepath.Join(dst, rel)
		if opts.text {
			out = strings.TrimSuffix(out, filepath.Ext(out)) + ".txt"
		}
		if er := os.MkdirAll(filepath.Dir(out), 0755); er != nil {
			err = multierr.Append(err, fmt.Errorf("failed to create output directory: %w", er))
			continue
		}

		result, er := renderFileTo(ctx, engine, src, out, opts)
		if er != nil {
			log.Error("Unable to process file", zap.String("file", src), zap.Error(er))
			err = multierr.Append(err, fmt.Errorf("%s: %w", src, er))
			continue
		}
		processed++
		total.Add(result.ProcessingStats)
	}

	if opts.stats {
		fmt.Fprintf(os.Stderr, "\nBatch Processing Summary:\n")
		fmt.Fprintf(os.Stderr, "Files processed: %d of %d\n", processed, len(files))
		writeStats(os.Stderr, total)
	}
	return err
}

func renderFileTo(ctx context.Context, engine *inliner.Inliner, src, dst string, opts renderOptions) (*inliner.InlineResult, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	result, out, err := renderDocument(ctx, engine, f, opts)
	if err != nil {
		return nil, err
	}
	if err := writeOutput(out, dst); err != nil {
		return nil, err
	}
	return result, nil
}

// writeOutput writes content to a file or stdout
func writeOutput(content, filename string) error {
	if filename == "" {
		_, err := io.WriteString(os.Stdout, content)
		return err
	}
	return os.WriteFile(filename, []byte(content), 0644)
}

// findHTMLFiles finds all HTML files under dir
func findHTMLFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			ext := strings.ToLower(filepath.Ext(path))
			if ext == ".html" || ext == ".htm" {
				files = append(files, path)
			}
		}
		return nil
	})

	return files, err
}

// showProcessingStats displays processing statistics of a single document
func showProcessingStats(w io.Writer, result *inliner.InlineResult, filename string) {
	fmt.Fprintf(w, "\nProcessing Statistics for %s:\n", filename)
	fmt.Fprintf(w, "  Preserved rules: %d\n", result.PreservedRules)
	fmt.Fprintf(w, "  Variables converged: %t\n", result.Converged)
	fmt.Fprintf(w, "  Warnings: %d\n", len(result.Warnings))
	writeStats(w, result.ProcessingStats)
}

func writeStats(w io.Writer, s inliner.ProcessingStats) {
	fmt.Fprintf(w, "  CSS rules parsed: %d\n", s.CSSRulesParsed)
	fmt.Fprintf(w, "  HTML elements processed: %d\n", s.HTMLElementsProcessed)
	fmt.Fprintf(w, "  Styles written: %d\n", s.StylesWritten)
	fmt.Fprintf(w, "  Classes inlined: %d, kept: %d\n", s.ClassesInlined, s.ClassesKept)
	fmt.Fprintf(w, "  Variable iterations: %d\n", s.VariableIterations)
	fmt.Fprintf(w, "  Processing time: %dms\n", s.ProcessingTimeMs)
}
