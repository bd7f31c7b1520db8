package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sketchforge/sketchforge/pkg/uploader"
)

// uploadCommand creates the "upload" command.
func (c *CLI) uploadCommand() *cobra.Command {
	var (
		board string
		port  string
	)

	cmd := &cobra.Command{
		Use:   "upload <sketch.ino>",
		Short: "Flash a sketch to the board",
		Long: `Upload flashes the sketch through arduino-cli. If no port is given (or the
given port fails), every serial port the OS reports is tried once until one
succeeds.`,
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

			u := uploader.New(c.newToolchain(cfg), nil, loggerFromContext(ctx))

			sp := newSpinnerWithContext(ctx, "Uploading...")
			sp.Start()
			usedPort, err := u.Upload(ctx, args[0], profile.FQBN, port)
			if err != nil {
				sp.StopWithError("Upload failed")
				return err
			}
			sp.StopWithSuccess(fmt.Sprintf("Uploaded via %s", usedPort))
			printNextStep("Watch serial output", fmt.Sprintf("sketchforge monitor --port %s", usedPort))
			return nil
		},
	}

	cmd.Flags().StringVarP(&board, "board", "b", "", "target board name (default from config)")
	cmd.Flags().StringVar(&port, "port", "", "serial port to try first")

	return cmd
}
