package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sketchforge/sketchforge/pkg/sketch"
)

// projectCommand creates the "project" command group.
func (c *CLI) projectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage named sketch projects",
	}

	cmd.AddCommand(c.projectNewCommand())
	cmd.AddCommand(c.projectListCommand())
	cmd.AddCommand(c.projectBoardCommand())
	cmd.AddCommand(c.projectHistoryCommand())
	cmd.AddCommand(c.projectDeleteCommand())

	return cmd
}

// projectNewCommand creates the "project new" subcommand.
func (c *CLI) projectNewCommand() *cobra.Command {
	var (
		board      string
		sketchPath string
	)

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a project and its sketch file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := args[0]

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if board == "" {
				board = cfg.Defaults.Board
			}
			if _, err := resolveBoard(cfg, board); err != nil {
				return err
			}
			if sketchPath == "" {
				sketchPath = defaultSketchPath(cfg.Defaults.SketchDir, name)
			}

			store, err := openProjects()
			if err != nil {
				return err
			}
			defer store.Close()

			p, err := store.Create(ctx, name, sketchPath, board)
			if err != nil {
				return err
			}

			// Seed an empty but valid sketch so build and the editor have
			// something to open.
			if _, statErr := os.Stat(p.SketchPath); os.IsNotExist(statErr) {
				sk, err := sketch.New(p.SketchPath, "void setup() {\n}\n\nvoid loop() {\n}\n")
				if err != nil {
					return err
				}
				if err := sk.Save(); err != nil {
					return err
				}
			}

			printSuccess("Created project %s", name)
			printKeyValue("sketch", p.SketchPath)
			printKeyValue("board", p.Board)
			printNextStep("Generate code for it", fmt.Sprintf("sketchforge generate -o %s \"...\"", p.SketchPath))
			return nil
		},
	}

	cmd.Flags().StringVarP(&board, "board", "b", "", "target board name (default from config)")
	cmd.Flags().StringVarP(&sketchPath, "sketch", "s", "", "sketch file location (default derived from the name)")

	return cmd
}

// projectListCommand creates the "project list" subcommand.
func (c *CLI) projectListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openProjects()
			if err != nil {
				return err
			}
			defer store.Close()

			projects, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				printInfo("No projects yet")
				printNextStep("Create one", "sketchforge project new <name>")
				return nil
			}
			for _, p := range projects {
				printKeyValue(p.Name, fmt.Sprintf("%s · %s", p.Board, p.SketchPath))
			}
			return nil
		},
	}
}

// projectBoardCommand creates the "project board" subcommand.
func (c *CLI) projectBoardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "board <name> <board>",
		Short: "Change a project's target board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if _, err := resolveBoard(cfg, args[1]); err != nil {
				return err
			}
			store, err := openProjects()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.SetBoard(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			printSuccess("Project %s now targets %s", args[0], args[1])
			return nil
		},
	}
}

// projectHistoryCommand creates the "project history" subcommand.
func (c *CLI) projectHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <name>",
		Short: "Show a project's run history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openProjects()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.History(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				printInfo("No runs recorded for %s", args[0])
				return nil
			}
			for _, r := range runs {
				status := StyleSuccess.Render(r.State)
				if r.State != "success" {
					status = StyleWarning.Render(r.State)
				}
				printDetail("%s  %s  %d attempt(s)  %s",
					r.CreatedAt.Local().Format(time.DateTime),
					status,
					r.Attempts,
					r.Duration.Round(time.Millisecond))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to show")

	return cmd
}

// projectDeleteCommand creates the "project delete" subcommand.
func (c *CLI) projectDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a project (the sketch file is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openProjects()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted project %s", args[0])
			return nil
		},
	}
}
