package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"mailinline/internal/config"
	"mailinline/internal/state"
	"mailinline/pkg/inliner"
)

func runValidate(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)

	cfg := config.Default()
	if env.Cfg != nil {
		cfg = *env.Cfg
	}

	src := cmd.Args().Get(0)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many sources", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	var (
		data []byte
		err  error
		name = src
	)
	if src == "" || src == stdinName {
		name = "<stdin>"
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	issues, err := inliner.New(cfg, &inliner.StaticGenerator{}, env.Log).Validate(string(data))
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	printIssues(os.Stdout, name, issues)
	return nil
}

func printIssues(w io.Writer, name string, issues []inliner.ValidationIssue) {
	if len(issues) == 0 {
		fmt.Fprintf(w, "%s: no email compatibility issues found\n", name)
		return
	}
	fmt.Fprintf(w, "%s: found %d email compatibility issues:\n", name, len(issues))
	for _, issue := range issues {
		fmt.Fprintf(w, "  [%s] %s: %s\n", strings.ToUpper(issue.Severity), issue.Element, issue.Message)
	}
}
