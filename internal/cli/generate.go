package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sketchforge/sketchforge/pkg/forge"
)

// generateCommand creates the "generate" command.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		board   string
		output  string
		noBuild bool
		noCache bool
		watch   bool
		budget  int
	)

	cmd := &cobra.Command{
		Use:   "generate <request...>",
		Short: "Generate a sketch from a natural-language request",
		Long: `Generate asks the model for complete sketch source satisfying the request,
writes it to disk, and (unless --no-build is given) immediately runs the
compile-fix loop so the result actually builds.`,
		Example: `  sketchforge generate "blink an LED on pin 13"
  sketchforge generate --board "Arduino Nano" -o servo/servo.ino "sweep a servo on pin 9"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			request := strings.Join(args, " ")

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if board == "" {
				board = cfg.Defaults.Board
			}
			profile, err := resolveBoard(cfg, board)
			if err != nil {
				return err
			}
			if output == "" {
				output = defaultSketchPath(cfg.Defaults.SketchDir, request)
			}

			runner, cleanup, err := c.newRunner(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer cleanup()

			sp := newSpinnerWithContext(ctx, "Asking the model for a sketch...")
			sp.Start()
			sk, err := runner.Generate(ctx, request, profile.Name, output)
			if err != nil {
				sp.StopWithError("Generation failed")
				return err
			}
			sp.StopWithSuccess("Sketch generated")
			printFile(sk.Path)

			if noBuild {
				printNextStep("Build it", fmt.Sprintf("sketchforge build %s --board %q", sk.Path, profile.Name))
				return nil
			}

			printNewline()
			opts := forge.Options{
				SketchPath:  sk.Path,
				Board:       profile.Name,
				FQBN:        profile.FQBN,
				RetryBudget: pickBudget(budget, cfg.Defaults.RetryBudget),
				Logger:      loggerFromContext(ctx),
			}
			if watch {
				return c.runBuildTUI(ctx, runner, opts, "")
			}
			return c.runBuild(ctx, runner, opts)
		},
	}

	cmd.Flags().StringVarP(&board, "board", "b", "", "target board name (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "sketch file to write (default derived from the request)")
	cmd.Flags().BoolVar(&noBuild, "no-build", false, "write the sketch without compiling it")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the metadata cache")
	cmd.Flags().BoolVar(&watch, "watch", false, "follow the compile-fix run in an interactive view")
	cmd.Flags().IntVar(&budget, "retries", 0, "maximum compile attempts (default from config)")

	return cmd
}

// defaultSketchPath derives a sketch location from the request text. Arduino
// requires the .ino to live in a directory of the same name.
func defaultSketchPath(baseDir, request string) string {
	name := slugify(request)
	if name == "" {
		name = "sketch"
	}
	return filepath.Join(baseDir, name, name+".ino")
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastUnderscore := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
		if b.Len() >= 40 {
			break
		}
	}
	return strings.Trim(b.String(), "_")
}

func pickBudget(flag, configured int) int {
	if flag > 0 {
		return flag
	}
	return configured
}
