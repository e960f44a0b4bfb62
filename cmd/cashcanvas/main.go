package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/johnlangs/cashcanvas/internal/api"
	"github.com/johnlangs/cashcanvas/internal/app"
	"github.com/johnlangs/cashcanvas/internal/config"
	"github.com/johnlangs/cashcanvas/internal/logging"
	"github.com/johnlangs/cashcanvas/internal/plaidclient"
	"github.com/johnlangs/cashcanvas/internal/store"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	// The UI reads amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB init
	db, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to connect to database", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := store.Migrate(ctx, db); err != nil {
		logger.Error("unable to migrate database", "error", err)
		os.Exit(1)
	}
	logger.Info("database ready", "driver", cfg.DatabaseDriver)

	// Plaid client init
	plaidAPI := plaidclient.NewAPIClient(plaidclient.Config{
		ClientID:    cfg.PlaidClientID,
		Secret:      cfg.PlaidSecret,
		Environment: cfg.PlaidEnv,
	})
	plaidService := app.NewPlaidService(plaidclient.NewClient(plaidAPI), logger)

	links := app.NewLinkService(plaidService, store.NewRepository(db, store.LinkedItemTable), logger)
	stats := app.NewUserStatsService(store.NewUserStatsRepository(db))

	// HTTP handler
	router := api.NewRouter(api.NewHandler(links, stats, logger), api.RouterConfig{
		Auth:           api.NewAuthenticator(cfg.AuthJWTSecret, cfg.AuthJWTIssuer),
		Metrics:        api.NewMetrics(),
		Logger:         logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		StaticDir:      cfg.StaticDir,
	})

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr, "plaid_env", cfg.PlaidEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
