// eventsd serves the event catalog API consumed by the eventhorizon client.
// It wires together all layers and starts the HTTP server.
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

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/Shivanand-hulikatti/eventhorizon/internal/config"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/database"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/handler"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/repository"
	"github.com/Shivanand-hulikatti/eventhorizon/internal/service"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "eventsd",
	Short: "Event catalog API server",
	Long: `eventsd serves the event catalog API over PostgreSQL.

Configuration is read from eventsd.yaml (or --config), then overridden by
EVENTSD_* environment variables. PORT and DB_* are honoured as well.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadServer(configFile)
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to eventsd.yaml")
}

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.WithError(err).Error("eventsd exited")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Server) error {
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	pool, err := database.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}
	log.WithField("host", cfg.DB.Host).Info("connected to PostgreSQL")

	// ── 2. Wire up layers ────────────────────────────────────────────────
	eventRepo := repository.NewEventRepository(pool)
	rsvpRepo := repository.NewRSVPRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)

	eventSvc := service.NewEventService(eventRepo, rsvpRepo)
	authSvc := service.NewAuthService(userRepo, tokenRepo, cfg.TokenTTL)

	limiter := handler.NewRateLimiter(rate.Limit(cfg.AuthRate), cfg.AuthBurst)
	go limiter.Run(ctx)

	// ── 3. Background jobs ───────────────────────────────────────────────
	jobs := cron.New()
	if _, err := jobs.AddFunc("@hourly", func() {
		n, err := tokenRepo.PurgeExpired(ctx)
		if err != nil {
			log.WithError(err).Warn("token purge failed")
			return
		}
		log.WithField("purged", n).Debug("expired tokens purged")
	}); err != nil {
		return fmt.Errorf("schedule token purge: %w", err)
	}
	jobs.Start()
	defer jobs.Stop()

	// ── 4. Build the router ───────────────────────────────────────────────
	router := handler.NewRouter(handler.RouterConfig{
		Events:        handler.NewEventHandler(eventSvc),
		Auth:          handler.NewAuthHandler(authSvc),
		Authenticator: authSvc,
		AuthLimiter:   limiter,
		AllowedOrigin: cfg.AllowedOrigin,
	})

	// ── 5. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}
