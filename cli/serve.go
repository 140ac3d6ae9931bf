package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/cashdrawer/api"
	"github.com/warp/cashdrawer/drawer"
	"github.com/warp/cashdrawer/observability"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API over the configured SQLite database.

On SIGINT/SIGTERM the server stops accepting connections, waits up to 30s
for active requests, stops the stale session monitor and closes the database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a)
		},
	}
	cmd.Flags().Int("port", 0, "HTTP server port")
	mustBind(a.v, "port", cmd.Flags().Lookup("port"))
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	if ctx == nil {
		ctx = context.Background()
	}
	metrics := observability.NewMetrics()

	engine, store, err := a.openEngine(drawer.WithObserver(metrics))
	if err != nil {
		return err
	}
	defer store.Close()

	loc, _ := a.cfg.Location()
	handler := api.NewHandler(engine, store, a.log)
	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: a.cfg.CORSOrigins,
		Metrics:        metrics.Handler(),
		Scenarios:      a.cfg.DemoScenarios,
	})
	if a.cfg.DemoScenarios {
		a.log.Warn().Msg("demo scenario routes enabled; POST /api/scenarios/reset deletes every session")
	}

	// Sessions opened before this process started count as open.
	open, err := engine.Sessions(ctx, drawer.SessionFilter{Status: drawer.StatusOpen})
	if err != nil {
		return err
	}
	metrics.SetOpen(open)

	monitor := api.NewStaleSessionMonitor(engine, a.log)
	monitor.Clock = drawer.SystemClock{Location: loc}
	monitor.CheckInterval = a.cfg.StaleCheckInterval
	monitor.OnCheck = metrics.SetStale
	monitor.OnOpen = metrics.SetOpen
	monitor.Start()
	defer monitor.Stop()

	server := &http.Server{
		Addr:         a.cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().
			Str("addr", server.Addr).
			Str("db", a.cfg.DatabasePath).
			Str("timezone", loc.String()).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.log.Info().Msg("server stopped")
	return nil
}
