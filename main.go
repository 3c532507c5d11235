package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/isdelr/userdir/internal/api"
	"github.com/isdelr/userdir/internal/auth"
	"github.com/isdelr/userdir/internal/config"
	"github.com/isdelr/userdir/internal/database"
	"github.com/isdelr/userdir/internal/logger"
	"github.com/isdelr/userdir/internal/monitoring"
	"github.com/isdelr/userdir/internal/services"
	"github.com/isdelr/userdir/internal/store"
	"github.com/isdelr/userdir/internal/websocket"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "userdir",
		Short:         "User directory and authentication service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCmd(), newMigrateCmd())
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Apply migrations and start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			stores, err := openStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer stores.users.Close()
			log.Info().Str("driver", cfg.DatabaseDriver).Msg("Migrations applied")
			return nil
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return nil, err
	}
	logger.Init(cfg.LogLevel, cfg.LogPretty)
	return cfg, nil
}

type repositories struct {
	users  store.UserRepository
	events store.EventRepository
}

// openStores connects to the configured store and brings its schema up to date.
// Closing the user repository releases the shared connection pool.
func openStores(ctx context.Context, cfg *config.Config) (*repositories, error) {
	if cfg.DatabaseDriver == config.DriverMemory {
		return &repositories{users: store.NewMemoryUserRepository(), events: store.NewMemoryEventRepository()}, nil
	}

	db, err := database.New(cfg.DatabaseDriver, cfg.DataSource())
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize database")
		return nil, err
	}
	if err := database.Migrate(ctx, db, cfg.DatabaseDriver); err != nil {
		_ = db.Close()
		log.Error().Err(err).Msg("Failed to apply database migrations")
		return nil, err
	}
	users, err := store.NewSQLUserRepository(db, cfg.DatabaseDriver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	events, err := store.NewSQLEventRepository(db, cfg.DatabaseDriver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &repositories{users: users, events: events}, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	stores, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer stores.users.Close()

	// Background work stops before the HTTP server drains.
	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()

	// Live event feed
	hub := websocket.NewHub()
	go hub.Run(bgCtx)

	// Set up services
	tokens := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	eventService := services.NewEventService(stores.events, hub)
	userService := services.NewUserService(stores.users, auth.NewBcryptHasher(cfg.BcryptCost), tokens, eventService)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Start background jobs
	if cfg.StatsInterval > 0 {
		statUpdater := monitoring.NewStatUpdater(registry, monitoring.NewHostSampler(), userService, eventService, cfg.CPUAlertThreshold)
		go statUpdater.Run(bgCtx, cfg.StatsInterval)
	}
	if cfg.EventRetention > 0 {
		scheduler := monitoring.NewScheduler(eventService, cfg.EventRetention)
		if err := scheduler.Start(cfg.EventPruneSchedule); err != nil {
			log.Error().Err(err).Msg("Failed to start scheduler")
			return err
		}
		defer scheduler.Stop()
	}

	// Set up router
	router := api.NewRouter(hub, userService, eventService, tokens, api.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		Registry:       registry,
	})

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("driver", cfg.DatabaseDriver).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("ListenAndServe failed")
			return err
		}
	case <-quit:
	case <-ctx.Done():
	}
	log.Info().Msg("Shutting down server...")

	// Hijacked websocket connections are not tracked by Shutdown.
	stopBackground()
	<-hub.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return err
	}

	log.Info().Msg("Server exiting")
	return nil
}
