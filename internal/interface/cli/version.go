package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scidataarchive/depositd/internal/buildinfo"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the depositd version",
		RunE: func(c *cobra.Command, args []string) error {
			fmt.Fprintln(c.OutOrStdout(), buildinfo.String())
			return nil
		},
	}
}
