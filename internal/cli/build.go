package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sketchforge/sketchforge/pkg/forge"
	"github.com/sketchforge/sketchforge/pkg/observability"
	"github.com/sketchforge/sketchforge/pkg/project"
)

// buildCommand creates the "build" command.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		board       string
		budget      int
		noCache     bool
		tui         bool
		projectName string
	)

	cmd := &cobra.Command{
		Use:   "build [sketch.ino]",
		Short: "Compile a sketch, auto-fixing errors until it builds",
		Long: `Build runs the compile-fix loop: resolve the libraries the sketch needs,
compile, and on failure ask the model for a corrected source, up to the
retry budget. The sketch file is rewritten in place after every accepted
fix.`,
		Example: `  sketchforge build blink/blink.ino
  sketchforge build --project weather
  sketchforge build servo/servo.ino --board "Arduino Nano" --retries 8`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			sketchPath, boardName, err := resolveTarget(ctx, args, projectName, board, cfg.Defaults.Board)
			if err != nil {
				return err
			}
			profile, err := resolveBoard(cfg, boardName)
			if err != nil {
				return err
			}

			runner, cleanup, err := c.newRunner(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer cleanup()

			opts := forge.Options{
				SketchPath:  sketchPath,
				Board:       profile.Name,
				FQBN:        profile.FQBN,
				RetryBudget: pickBudget(budget, cfg.Defaults.RetryBudget),
				Logger:      loggerFromContext(ctx),
			}

			if tui {
				return c.runBuildTUI(ctx, runner, opts, projectName)
			}
			result, err := c.runBuildResult(ctx, runner, opts)
			if result != nil && projectName != "" {
				recordRun(ctx, projectName, result)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&board, "board", "b", "", "target board name (default from config or project)")
	cmd.Flags().IntVar(&budget, "retries", 0, "maximum compile attempts (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the metadata cache")
	cmd.Flags().BoolVar(&tui, "watch", false, "show a live progress view")
	cmd.Flags().StringVarP(&projectName, "project", "p", "", "build a named project instead of a path")

	return cmd
}

// resolveTarget picks the sketch path and board from args, project, and
// config, in that priority order.
func resolveTarget(ctx context.Context, args []string, projectName, boardFlag, boardDefault string) (string, string, error) {
	if projectName != "" {
		store, err := openProjects()
		if err != nil {
			return "", "", err
		}
		defer store.Close()
		p, err := store.Get(ctx, projectName)
		if err != nil {
			return "", "", err
		}
		board := boardFlag
		if board == "" {
			board = p.Board
		}
		return p.SketchPath, board, nil
	}
	if len(args) == 0 {
		return "", "", fmt.Errorf("a sketch path or --project is required")
	}
	board := boardFlag
	if board == "" {
		board = boardDefault
	}
	return args[0], board, nil
}

// runBuild executes the loop and prints a human-readable report.
func (c *CLI) runBuild(ctx context.Context, runner *forge.Runner, opts forge.Options) error {
	_, err := c.runBuildResult(ctx, runner, opts)
	return err
}

func (c *CLI) runBuildResult(ctx context.Context, runner *forge.Runner, opts forge.Options) (*forge.Result, error) {
	prog := newProgress(loggerFromContext(ctx))
	result, err := runner.Run(ctx, opts)
	if err != nil {
		return result, err
	}

	printNewline()
	for _, attempt := range result.Attempts {
		status := StyleSuccess.Render("ok")
		if !attempt.Succeeded {
			status = StyleWarning.Render("failed")
		}
		printInfo("attempt %d/%d %s", attempt.Index+1, opts.RetryBudget, status)
		for _, lib := range attempt.Libraries {
			printTier(lib.Library, string(lib.Tier), lib.Resolved())
		}
	}
	printNewline()

	if result.Success() {
		prog.done(fmt.Sprintf("Compiled after %d attempt(s)", len(result.Attempts)))
		printSuccess("Sketch compiles")
		printFile(opts.SketchPath)
		printNextStep("Upload it", fmt.Sprintf("sketchforge upload %s --board %q", opts.SketchPath, opts.Board))
		return result, nil
	}

	printError("Sketch still fails after %d attempts", len(result.Attempts))
	printDetail("%s", lastLines(result.LastOutput(), 15))
	return result, fmt.Errorf("compile failed after %d attempts", len(result.Attempts))
}

// runBuildTUI executes the loop with the bubbletea progress view attached via
// forge hooks.
func (c *CLI) runBuildTUI(ctx context.Context, runner *forge.Runner, opts forge.Options, projectName string) error {
	view := newBuildView(opts)
	observability.SetForgeHooks(view)
	defer observability.Reset()

	type runOutcome struct {
		result *forge.Result
		err    error
	}
	outcome := make(chan runOutcome, 1)
	go func() {
		result, err := runner.Run(ctx, opts)
		view.finish(result, err)
		outcome <- runOutcome{result, err}
	}()

	if err := view.wait(ctx); err != nil {
		return err
	}
	out := <-outcome
	if out.result != nil && projectName != "" {
		recordRun(ctx, projectName, out.result)
	}
	if out.err != nil {
		return out.err
	}
	if !out.result.Success() {
		return fmt.Errorf("compile failed after %d attempts", len(out.result.Attempts))
	}
	return nil
}

// lastLines returns the trailing n lines of s.
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// recordRun appends the run to a project's history, best effort.
func recordRun(ctx context.Context, projectName string, result *forge.Result) {
	logger := loggerFromContext(ctx)
	store, err := openProjects()
	if err != nil {
		logger.Warn("could not open project registry", "error", err)
		return
	}
	defer store.Close()
	rec := project.RunRecord{
		ID:       result.RunID,
		State:    string(result.State),
		Attempts: len(result.Attempts),
		Duration: result.Duration,
	}
	if err := store.RecordRun(ctx, projectName, rec); err != nil {
		logger.Warn("could not record run", "project", projectName, "error", err)
	}
}
