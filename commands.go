package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"student-manager-go/db"
	"student-manager-go/handlers"
	"student-manager-go/i18n"
	"student-manager-go/manager"
	"student-manager-go/metrics"
)

const (
	sessionIdleTimeout = 30 * time.Minute
	shutdownTimeout    = 10 * time.Second
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the student page and API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}
}

func serve(ctx context.Context, opts *rootOptions) error {
	cfg, logger := opts.cfg, opts.logger

	store, err := openStore(ctx, opts)
	if err != nil {
		return err
	}
	defer store.Close()

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace)
		store = collector.Instrument(store)
	}

	printer := i18n.NewPrinter(cfg.Language)
	sessions := handlers.NewSessionStore(func() *manager.StudentManager {
		return manager.New(store, printer, logger.Named("manager"))
	})
	if collector != nil {
		sessions.OnCount = func(n int) { collector.ActiveSessions.Set(float64(n)) }
	}

	gin.SetMode(cfg.Server.Mode)
	router := handlers.NewRouter(handlers.RouterOptions{
		Page:        handlers.NewPageHandler(sessions, logger.Named("page")),
		API:         handlers.NewAPIHandler(store, logger.Named("api")),
		Logger:      logger.Named("http"),
		Metrics:     collector,
		MetricsPath: cfg.Metrics.Path,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting server", zap.String("addr", cfg.Server.Addr), zap.String("language", i18n.Match(cfg.Language).String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to run server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := sessions.Prune(sessionIdleTimeout); n > 0 {
					logger.Debug("Pruned idle sessions", zap.Int("count", n))
				}
			}
		}
	})
	return g.Wait()
}

// openStore opens the configured datastore and seeds it when enabled.
func openStore(ctx context.Context, opts *rootOptions) (db.DataStore, error) {
	store, err := db.Open(ctx, opts.cfg.DataStore, opts.logger)
	if err != nil {
		return nil, err
	}
	if opts.cfg.DataStore.Seed {
		if _, err := db.SeedIfEmpty(ctx, store, opts.logger.Named("seed")); err != nil {
			// Seeding is best effort; the page works on an empty table.
			opts.logger.Warn("Could not seed students", zap.Error(err))
		}
	}
	return store, nil
}

func newImportCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Import students from a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			store, err := db.Open(cmd.Context(), opts.cfg.DataStore, opts.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := db.ImportStudentsFromExcel(cmd.Context(), store, f, opts.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d students\n", n)
			return nil
		},
	}
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Export all students to a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := db.Open(cmd.Context(), opts.cfg.DataStore, opts.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			n, err := db.ExportStudentsToExcel(cmd.Context(), store, f, opts.logger)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d students\n", n)
			return nil
		},
	}
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample students into an empty table",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := db.Open(cmd.Context(), opts.cfg.DataStore, opts.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			seeded, err := db.SeedIfEmpty(cmd.Context(), store, opts.logger)
			if err != nil {
				return err
			}
			if seeded {
				fmt.Fprintln(cmd.OutOrStdout(), "sample students added")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "table not empty, nothing added")
			}
			return nil
		},
	}
}
