package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/scidataarchive/depositd/internal/adapter/properties"
	"github.com/scidataarchive/depositd/internal/config"
)

// statusOutput mirrors the teacher's JSON-output-flag convention for
// operator tooling.
type statusOutput struct {
	DepositID string `json:"depositId"`
	State     string `json:"state"`
	Message   string `json:"message"`
}

func newStatusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status <depositId>",
		Short: "Print the current state of a deposit",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			store := properties.New(afero.NewOsFs(), cfg.TempDir(), cfg.DepositsRoot())

			rec, err := store.GetState(context.Background(), args[0])
			if err != nil {
				return err
			}

			out := statusOutput{DepositID: args[0], State: string(rec.State), Message: rec.Description}
			if asJSON {
				enc := json.NewEncoder(c.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			fmt.Fprintf(c.OutOrStdout(), "%s: %s (%s)\n", out.DepositID, out.State, out.Message)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
