package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/tally/internal/adapters/http/api"
	"github.com/okian/tally/internal/adapters/http/site"
	"github.com/okian/tally/internal/adapters/identity"
	"github.com/okian/tally/internal/adapters/realtime"
	"github.com/okian/tally/internal/adapters/repository"
	"github.com/okian/tally/internal/app"
	"github.com/okian/tally/internal/config"
	"github.com/okian/tally/internal/domain/billing"
	"github.com/okian/tally/internal/domain/dedupe"
	"github.com/okian/tally/pkg/logger"
)

// HTTP server timeout constants. WriteTimeout is long because SSE
// streams hold the response open.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 0
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Store selection: empty DSN keeps everything in memory, a
	// postgres:// DSN uses Postgres, anything else is a sqlite path.
	var store repository.Store
	if cfg.DatabaseDSN == "" {
		log.Warn(ctx, "no database_dsn configured; using volatile in-memory store")
		store = repository.NewMemStore()
	} else {
		sqlStore, err := repository.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			log.Error(ctx, "failed to open store", logger.Error(err))
			return
		}
		defer sqlStore.Close()
		store = sqlStore
	}

	broker := realtime.NewBroker(realtime.WithLogger(log.Named("realtime")))
	defer func() {
		if err := broker.Close(); err != nil {
			log.Error(ctx, "broker close failed", logger.Error(err))
		}
	}()

	variants := make(billing.VariantTable, len(cfg.Variants))
	for id, v := range cfg.Variants {
		variants[id] = billing.Variant{Tier: v.Tier, Interval: v.Interval, PriceCents: v.PriceCents}
	}

	opts := []app.Option{
		app.WithLogger(log.Named("app")),
		app.WithPageSize(cfg.PageSize),
		app.WithPendingDeleteDelay(time.Duration(cfg.PendingDeleteDelayMS)*time.Millisecond),
		app.WithEntriesDebounce(time.Duration(cfg.EntriesDebounceMS)*time.Millisecond),
		app.WithKioskDefaults(
			time.Duration(cfg.KioskSlideDurationSec)*time.Second,
			time.Duration(cfg.KioskTransitionMS)*time.Millisecond),
		app.WithPinSecret(cfg.PinSecret),
		app.WithWebhookSecret(cfg.WebhookSecret),
		app.WithVariants(variants),
		app.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(cfg.WebhookDedupeSize))),
	}
	if cfg.IdentityURL != "" && cfg.IdentityDeleteKey != "" {
		opts = append(opts, app.WithIdentityDeleter(
			identity.New(cfg.IdentityURL, cfg.IdentityDeleteKey,
				identity.WithLogger(log.Named("identity")))))
	} else {
		log.Warn(ctx, "identity provider credentials not configured; account deletion will skip provider removal")
	}

	svc, err := app.New(store, broker, opts...)
	if err != nil {
		log.Error(ctx, "failed to build service", logger.Error(err))
		return
	}
	defer svc.Stop()

	apiServer := api.NewServer(svc, cfg.JWTSecret)
	router := apiServer.Router()
	router.Mount("/kiosk", http.StripPrefix("/kiosk", site.Handler()))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}
