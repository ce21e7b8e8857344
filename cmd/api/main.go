package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/lumenacademy/lumenpay-backend/api/controllers"
	"github.com/lumenacademy/lumenpay-backend/api/routes"
	"github.com/lumenacademy/lumenpay-backend/internal/confirmation"
	"github.com/lumenacademy/lumenpay-backend/internal/ledger"
	"github.com/lumenacademy/lumenpay-backend/internal/orders"
	"github.com/lumenacademy/lumenpay-backend/internal/reconcile"
	providerwebhook "github.com/lumenacademy/lumenpay-backend/internal/webhooks/provider"
	"github.com/lumenacademy/lumenpay-backend/pkg/config"
	"github.com/lumenacademy/lumenpay-backend/pkg/db"
	"github.com/lumenacademy/lumenpay-backend/pkg/logger"
	"github.com/lumenacademy/lumenpay-backend/pkg/metrics"
	"github.com/lumenacademy/lumenpay-backend/pkg/migrate"
	"github.com/lumenacademy/lumenpay-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logg := logger.New(logger.Options{
		ServiceName: "lumenpay-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api exited", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	ordersRepo := orders.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())
	eventsRepo := reconcile.NewEventRepository(dbClient.DB())

	ledgerSvc, err := ledger.NewService(ledgerRepo)
	if err != nil {
		return err
	}

	engine, err := reconcile.NewEngine(reconcile.EngineParams{
		Orders:            ordersRepo,
		Ledger:            ledgerRepo,
		Events:            eventsRepo,
		TransactionRunner: dbClient,
		ApplyTimeout:      cfg.Reconcile.ApplyTimeout,
	})
	if err != nil {
		return err
	}

	auditor, err := reconcile.NewAuditor(ordersRepo, ledgerRepo)
	if err != nil {
		return err
	}

	verifier, err := providerwebhook.NewVerifier(cfg.Provider.WebhookSecret)
	if err != nil {
		return err
	}

	guard, err := providerwebhook.NewGuard(redisClient, cfg.Provider.IdempotencyTTL, "payment-event")
	if err != nil {
		return err
	}

	gateway, err := confirmation.NewGateway(confirmation.GatewayParams{
		Verifier: verifier,
		Engine:   engine,
		Guard:    guard,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	webhookMetrics := metrics.NewWebhookMetrics(registry)

	router := routes.New(routes.RouterParams{
		Logger:          logg,
		Gateway:         gateway,
		Orders:          ordersRepo,
		Ledger:          ledgerSvc,
		Auditor:         auditor,
		Metrics:         webhookMetrics,
		Registry:        registry,
		SignatureHeader: cfg.Provider.SignatureHeader,
		Pingers: map[string]controllers.Pinger{
			"postgres": dbClient,
			"redis":    redisClient,
		},
	})

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "api listening on "+server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
