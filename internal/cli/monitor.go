package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sketchforge/sketchforge/pkg/serialmon"
)

// monitorCommand creates the "monitor" command.
func (c *CLI) monitorCommand() *cobra.Command {
	var (
		port string
		baud int
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Stream serial output from the board",
		Long: `Monitor opens the board's serial port and prints whatever the sketch
writes. Without --port, the first port that looks like an attached
Arduino-compatible board is used. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if port == "" {
				detected, err := serialmon.DetectPort()
				if err != nil {
					return err
				}
				port = detected
				printInfo("Using detected port %s", port)
			}

			p, err := serialmon.OpenPort(port, baud)
			if err != nil {
				return err
			}
			printInfo("Monitoring %s at %d baud (Ctrl-C to stop)", port, baud)
			return serialmon.New(p).Stream(ctx, os.Stdout)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "serial port (default: auto-detect)")
	cmd.Flags().IntVar(&baud, "baud", serialmon.DefaultBaudRate, "baud rate")

	return cmd
}
