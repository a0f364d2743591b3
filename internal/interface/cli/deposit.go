package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scidataarchive/depositd/internal/adapter/index"
	"github.com/scidataarchive/depositd/internal/config"
)

func newDepositCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Query the deposit index",
	}
	cmd.AddCommand(newDepositListCmd())
	return cmd
}

func newDepositListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deposits known to the secondary index",
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.IndexDBPath() == "" {
				return fmt.Errorf("deposit list: index.db-path is empty; the deposit index is disabled")
			}
			idx, err := index.Open(cfg.IndexDBPath())
			if err != nil {
				return err
			}
			defer idx.Close()

			entries, err := idx.List(context.Background())
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(c.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			for _, e := range entries {
				fmt.Fprintf(c.OutOrStdout(), "%s\t%s\t%d bytes\t%s\n", e.DepositID, e.State, e.SizeBytes, e.ReceivedAt)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
