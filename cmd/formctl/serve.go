package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/formbuilder/internal/config"
	"github.com/alfredjeanlab/formbuilder/internal/events"
	"github.com/alfredjeanlab/formbuilder/internal/export"
	"github.com/alfredjeanlab/formbuilder/internal/formapi"
	"github.com/alfredjeanlab/formbuilder/internal/hooks"
	"github.com/alfredjeanlab/formbuilder/internal/render"
	"github.com/alfredjeanlab/formbuilder/internal/server"
	"github.com/alfredjeanlab/formbuilder/internal/store/postgres"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the formbuilder HTTP service",
	GroupID: "system",
	// Override PersistentPreRunE so we don't build an API client.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

		forms := formapi.New(cfg.FormAPIURL, cfg.UpstreamTimeout)
		opts := []server.Option{
			server.WithLogger(logger),
			server.WithFormatter(render.Formatter{Layout: cfg.DateLayout}),
		}

		var store *postgres.PostgresStore
		if cfg.DatabaseURL != "" {
			store, err = postgres.New(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			opts = append(opts, server.WithSessionStore(store))
			logger.Info("builder sessions persisted to postgres")
		} else {
			logger.Info("builder sessions kept in memory (FORMBUILDER_DATABASE_URL not set)")
		}

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				if store != nil {
					store.Close()
				}
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (FORMBUILDER_NATS_URL not set)")
		}

		srv, err := server.New(forms, publisher, opts...)
		if err != nil {
			publisher.Close()
			if store != nil {
				store.Close()
			}
			return err
		}
		srv.StartSessionReaper(cfg.SessionTTL)

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.NewHTTPHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr, "form_api", cfg.FormAPIURL)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		scheduler := startExportScheduler(cfg, forms, logger)
		hooksCancel := startHooks(cfg, logger)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		if hooksCancel != nil {
			hooksCancel()
			logger.Info("hooks subscriber stopped")
		}
		if scheduler != nil {
			scheduler.Stop()
			st := scheduler.Status()
			logger.Info("export scheduler stopped", "runs", st.Runs, "last_run", st.LastRun, "last_err", st.LastErr)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		srv.Close()
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if store != nil {
			if err := store.Close(); err != nil {
				logger.Error("error closing store", "err", err)
			}
		}

		logger.Info("shutdown complete")
		return nil
	},
}

// startExportScheduler starts the periodic S3 export when both an interval
// and a bucket are configured.
func startExportScheduler(cfg *config.Config, forms *formapi.Client, logger *slog.Logger) *export.Scheduler {
	if cfg.ExportInterval <= 0 || cfg.ExportS3Bucket == "" {
		return nil
	}
	dest, err := export.NewS3Destination(
		context.Background(),
		cfg.ExportS3Bucket,
		cfg.ExportS3Key,
		cfg.ExportS3Region,
		cfg.ExportS3Endpoint,
	)
	if err != nil {
		logger.Error("failed to create S3 export destination", "err", err)
		return nil
	}
	s := export.NewScheduler(forms, []export.Destination{dest}, cfg.ExportInterval, logger)
	s.Start()
	logger.Info("export scheduler started",
		"interval", cfg.ExportInterval, "bucket", cfg.ExportS3Bucket, "key", cfg.ExportS3Key)
	return s
}

const hooksQueueGroup = "formbuilder-hooks"

// startHooks runs the configured hooks against the event bus. Hooks need
// NATS; without it the file is ignored with a warning.
func startHooks(cfg *config.Config, logger *slog.Logger) context.CancelFunc {
	if cfg.HooksFile == "" {
		return nil
	}
	if cfg.NATSURL == "" {
		logger.Warn("hooks file ignored (FORMBUILDER_NATS_URL not set)", "file", cfg.HooksFile)
		return nil
	}
	hs, err := hooks.LoadFile(cfg.HooksFile)
	if err != nil {
		logger.Error("failed to load hooks", "err", err)
		return nil
	}
	sub, err := events.NewNATSSubscriber(cfg.NATSURL)
	if err != nil {
		logger.Error("failed to create hooks subscriber", "err", err)
		return nil
	}
	// Replicas share the group so each event runs its hooks once.
	sub.InQueue(hooksQueueGroup)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := hooks.NewHandler(hs, logger).StartSubscriber(ctx, sub); err != nil {
			logger.Error("hooks subscriber error", "err", err)
		}
		sub.Close()
	}()
	logger.Info("hooks subscriber started", "hooks", len(hs))
	return cancel
}
