package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/portalfin/dashboard-bff-go/internal/config"
	"github.com/portalfin/dashboard-bff-go/internal/domain"
	"github.com/portalfin/dashboard-bff-go/internal/handler"
	"github.com/portalfin/dashboard-bff-go/internal/infra/cache"
	"github.com/portalfin/dashboard-bff-go/internal/infra/observability"
	"github.com/portalfin/dashboard-bff-go/internal/infra/portal"
	"github.com/portalfin/dashboard-bff-go/internal/infra/resilience"
	"github.com/portalfin/dashboard-bff-go/internal/infra/state"
	"github.com/portalfin/dashboard-bff-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("portal_base_url", cfg.PortalBaseURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.String("state_path", cfg.StatePath),
	)

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(context.Background(), cfg.OTLPEndpoint, "dashboard-bff")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdownTracer(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Credential store ---
	creds, err := state.Open(cfg.StatePath)
	if err != nil {
		logger.Fatal("failed to open credential store", zap.Error(err))
	}

	// --- Cache ---
	tenantCache := cache.New[domain.TenantData](cfg.CacheTTL)
	defer tenantCache.Close()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("portal")
	bulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Upstream client ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	portalClient := portal.NewClient(
		httpClient,
		cfg.PortalBaseURL,
		creds,
		cb,
		bulkhead,
		resilienceCfg,
		logger,
	)

	// --- Services ---
	tenants := service.NewTenantService(
		portalClient,
		creds,
		tenantCache,
		cfg.HTTPTimeout+5*time.Second,
		metrics,
		logger,
	)
	sessions := service.NewSessionService(
		creds,
		portalClient,
		tenants,
		cfg.JWTSecret,
		cfg.JWTAccessTTL,
		metrics,
		logger,
	)
	bookings := service.NewBookingService(logger)
	orders := service.NewOrderService(logger)
	invoices := service.NewInvoiceService(logger)

	// A token that survived a restart means the session resumes
	// authenticated; warm the tenant context right away.
	if token := creds.Token(); token != "" {
		logger.Info("resuming session from persisted token")
		tenants.TokenChanged(token)
	}

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Sessions: sessions,
		Tenants:  tenants,
		Bookings: bookings,
		Orders:   orders,
		Invoices: invoices,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
