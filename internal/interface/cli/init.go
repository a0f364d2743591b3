package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	defaultTempDir      = "depositd-data/tmp"
	defaultDepositsRoot = "depositd-data/deposits"
)

const initTemplate = `tempdir=` + defaultTempDir + `
deposits-root=` + defaultDepositsRoot + `
base-url=http://localhost:8080
collection.iri=http://localhost:8080/collection
git.enabled=false
git.user=
git.email=
queue.capacity=64
index.db-path=depositd-data/index.db
replication.s3.bucket=
replication.s3.region=
replication.s3.prefix=
shutdown.grace-seconds=30
`

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a template properties configuration file and create its directories",
		RunE: func(c *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("%s already exists; pass --force to overwrite", configPath)
			}
			if err := os.WriteFile(configPath, []byte(initTemplate), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", configPath, err)
			}
			if err := os.MkdirAll(defaultTempDir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", defaultTempDir, err)
			}
			if err := os.MkdirAll(defaultDepositsRoot, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", defaultDepositsRoot, err)
			}
			fmt.Fprintf(c.OutOrStdout(), "wrote template configuration to %s\n", configPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	return cmd
}
