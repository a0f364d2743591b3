// Package cli implements the depositd cobra command tree: serve, init,
// status, and deposit list — grounded on the teacher's own root.go
// command-registration shape.
package cli

import (
	"github.com/spf13/cobra"
)

var configPath string

// NewRoot builds the depositd root command.
func NewRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "depositd",
		Short: "Deposit finalization pipeline",
		RunE:  func(c *cobra.Command, _ []string) error { return c.Help() },
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "depositd.properties", "path to the properties configuration file")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newDepositCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}
