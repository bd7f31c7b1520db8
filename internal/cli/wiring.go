package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sketchforge/sketchforge/pkg/sketch"
	"github.com/sketchforge/sketchforge/pkg/wiring"
)

// wiringCommand creates the "wiring" command.
func (c *CLI) wiringCommand() *cobra.Command {
	var (
		board  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "wiring <sketch.ino>",
		Short: "Suggest a hardware wiring plan for a sketch",
		Long: `Wiring asks the model for a pin-by-pin connection table for the sketch and
prints it. With --output, a Graphviz diagram is additionally rendered to the
given .svg, .png, or .dot file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
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

			sk, err := sketch.Load(args[0])
			if err != nil {
				return err
			}
			ora, err := c.newOracle(ctx, cfg)
			if err != nil {
				return err
			}

			sp := newSpinnerWithContext(ctx, "Analyzing the sketch...")
			sp.Start()
			diagram, err := wiring.Suggest(ctx, ora, sk.Source, profile.Name)
			if err != nil {
				sp.StopWithError("No wiring plan")
				return err
			}
			sp.Stop()

			printSuccess("Wiring for %s on %s", sk.Name(), profile.Name)
			for _, conn := range diagram.Connections {
				line := fmt.Sprintf("%s %s %s (%s)", conn.BoardPin, iconArrow, conn.Component, conn.Terminal)
				if conn.Purpose != "" {
					line += " " + StyleDim.Render("· "+conn.Purpose)
				}
				printDetail("%s", line)
			}
			for _, note := range diagram.Notes {
				printWarning("%s", note)
			}

			if output != "" {
				return writeDiagram(diagram, output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&board, "board", "b", "", "target board name (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "render a diagram to this file (.svg, .png, or .dot)")

	return cmd
}

func writeDiagram(d *wiring.Diagram, path string) error {
	dot := wiring.ToDOT(d)

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dot":
		data = []byte(dot)
	case ".svg":
		data, err = wiring.RenderSVG(dot)
	case ".png":
		data, err = wiring.RenderPNG(dot)
	default:
		return fmt.Errorf("unsupported diagram format %q (use .svg, .png, or .dot)", filepath.Ext(path))
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	printFile(path)
	return nil
}
