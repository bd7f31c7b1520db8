package cli

import (
	"github.com/spf13/cobra"
)

// boardsCommand creates the "boards" command.
func (c *CLI) boardsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "boards",
		Short: "List supported boards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			for _, b := range newCatalog(cfg).All() {
				printKeyValue(b.Name, b.FQBN)
			}
			return nil
		},
	}
}
