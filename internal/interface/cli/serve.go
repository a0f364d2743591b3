package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/scidataarchive/depositd/internal/adapter/index"
	"github.com/scidataarchive/depositd/internal/adapter/properties"
	"github.com/scidataarchive/depositd/internal/adapter/storage"
	"github.com/scidataarchive/depositd/internal/adapter/versioning"
	"github.com/scidataarchive/depositd/internal/application/finalize"
	"github.com/scidataarchive/depositd/internal/application/ingress"
	"github.com/scidataarchive/depositd/internal/application/queue"
	"github.com/scidataarchive/depositd/internal/application/recovery"
	"github.com/scidataarchive/depositd/internal/config"
	"github.com/scidataarchive/depositd/internal/domain/deposit"
	"github.com/scidataarchive/depositd/internal/domain/repository"
	"github.com/scidataarchive/depositd/internal/interface/httpapi"
	"github.com/scidataarchive/depositd/internal/logging"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the deposit finalization service",
		RunE: func(c *cobra.Command, args []string) error {
			return serve(c.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	return cmd
}

func serve(ctx context.Context, addr string) error {
	log := logging.NewStderrLogger(os.Stderr)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("serve: load config: %w", err)
	}

	if err := os.MkdirAll(cfg.TempDir(), 0o755); err != nil {
		return fmt.Errorf("serve: create tempdir: %w", err)
	}
	if err := os.MkdirAll(cfg.DepositsRoot(), 0o755); err != nil {
		return fmt.Errorf("serve: create deposits-root: %w", err)
	}

	rawStore := properties.New(afero.NewOsFs(), cfg.TempDir(), cfg.DepositsRoot())
	promoter := storage.NewPromoter(cfg.DepositsRoot())
	versioner := versioning.New(cfg.GitEnabled(), cfg.GitUser(), cfg.GitEmail())

	var replicator finalize.Replicator
	if cfg.ReplicationEnabled() {
		r, err := storage.NewReplicator(ctx, cfg.ReplicationBucket(), cfg.ReplicationRegion(), cfg.ReplicationPrefix(), log)
		if err != nil {
			return fmt.Errorf("serve: init replicator: %w", err)
		}
		replicator = r
	}

	var idx *index.Index
	var depositIndex repository.DepositIndex // left nil when index.db-path is blank (disables A4)
	if cfg.IndexDBPath() != "" {
		idx, err = index.Open(cfg.IndexDBPath())
		if err != nil {
			return fmt.Errorf("serve: open index: %w", err)
		}
		defer idx.Close()
		depositIndex = idx
	}

	store := properties.NewIndexedStore(rawStore, depositIndex, log)

	orchestrator := finalize.New(store, versioner, promoter, replicator, cfg.TempDir(), log)

	q := queue.New(cfg.QueueCapacity(), func(jobCtx context.Context, job deposit.Job) {
		orchestrator.Run(jobCtx, job)
	}, log)
	q.Start()

	if idx != nil {
		if err := index.RebuildFromDirs(ctx, idx, rawStore, cfg.TempDir(), cfg.DepositsRoot()); err != nil {
			log.Warn("serve: could not rebuild deposit index from filesystem: %v", err)
		}
	}

	if err := recovery.Run(ctx, cfg.TempDir(), store, q, promoter, versioner, log); err != nil {
		log.Warn("serve: startup recovery encountered an error: %v", err)
	}

	front := ingress.New(store, q, cfg.TempDir(), log)
	handler := httpapi.New(front, cfg.BaseURL(), log)

	srv := &http.Server{Addr: addr, Handler: handler}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("serve: listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("serve: http server: %w", err)
		}
	case <-sigCh:
		log.Info("serve: shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownGraceSeconds())*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("serve: http server did not shut down cleanly: %v", err)
	}
	if err := q.Shutdown(shutdownCtx); err != nil {
		log.Warn("serve: finalization queue did not drain within the grace period: %v", err)
	}
	return nil
}
