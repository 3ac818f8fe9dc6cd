// AngelaMos | 2026
// serve.go

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis_rate/v10"
	"github.com/spf13/cobra"

	"github.com/carterperez-dev/platform-gateway/internal/admin"
	"github.com/carterperez-dev/platform-gateway/internal/apikey"
	"github.com/carterperez-dev/platform-gateway/internal/audit"
	"github.com/carterperez-dev/platform-gateway/internal/auth"
	"github.com/carterperez-dev/platform-gateway/internal/billing"
	"github.com/carterperez-dev/platform-gateway/internal/config"
	"github.com/carterperez-dev/platform-gateway/internal/core"
	"github.com/carterperez-dev/platform-gateway/internal/health"
	"github.com/carterperez-dev/platform-gateway/internal/identity"
	"github.com/carterperez-dev/platform-gateway/internal/middleware"
	"github.com/carterperez-dev/platform-gateway/internal/payment"
	"github.com/carterperez-dev/platform-gateway/internal/payments"
	"github.com/carterperez-dev/platform-gateway/internal/server"
	"github.com/carterperez-dev/platform-gateway/internal/tenant"
	"github.com/carterperez-dev/platform-gateway/internal/usage"
	"github.com/carterperez-dev/platform-gateway/internal/user"
	"github.com/carterperez-dev/platform-gateway/internal/webhook"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(resolvedConfigPath())
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)
	core.SetDebug(cfg.App.Debug)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized", "endpoint", cfg.Otel.Endpoint)
		}
	}

	metrics := core.NewMetrics(cfg.Otel.ServiceName)

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	rdb, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)

	keys := core.NewKeyStore(rdb.Client, cfg.Redis.KeyPrefix)
	idp := identity.NewClient(cfg.Identity, metrics)
	processor := payments.NewClient(cfg.Payments, metrics)

	auditRepo := audit.NewRepository(db.DB)
	recorder := audit.NewRecorder(auditRepo, logger)
	auditHandler := audit.NewHandler(auditRepo)

	tenantSvc := tenant.NewService(tenant.NewRepository(db.DB), recorder)
	tenantHandler := tenant.NewHandler(tenantSvc)

	userSvc := user.NewService(user.NewRepository(db.DB), idp, recorder)
	userHandler := user.NewHandler(userSvc)

	apikeySvc := apikey.NewService(apikey.NewRepository(db.DB), tenantSvc, recorder, logger)
	apikeyHandler := apikey.NewHandler(apikeySvc)

	usageSvc := usage.NewService(usage.NewRepository(db.DB), tenantSvc, logger)
	usageHandler := usage.NewHandler(usageSvc)

	billingSvc := billing.NewService(
		billing.NewRepository(db.DB),
		tenantSvc,
		processor,
		cfg.Payments.PriceIDs,
		recorder,
		logger,
	)
	billingHandler := billing.NewHandler(billingSvc)

	paymentHandler := payment.NewHandler(payment.NewService(processor, tenantSvc, cfg.Payments, recorder, logger))

	ingress := webhook.NewIngress(webhook.IngressConfig{
		Verifier:     processor,
		Dedupe:       keys,
		DedupeWindow: cfg.Auth.WebhookDedupe,
		Tenants:      tenantSvc,
		Billing:      billingSvc,
		Audit:        recorder,
		Metrics:      metrics,
		Logger:       logger,
	})
	webhookHandler := webhook.NewHandler(webhook.NewService(webhook.NewRepository(db.DB), recorder), ingress)

	authSvc := auth.NewService(idp, userSvc, keys, cfg.Auth, recorder, logger)
	authHandler := auth.NewHandler(authSvc)
	resolver := auth.NewResolver(idp, keys, userSvc, tenantSvc, apikeySvc)

	healthHandler := health.NewHandler(logger,
		health.Check{Name: "database", Checker: db},
		health.Check{Name: "redis", Checker: rdb},
		health.Check{Name: "identity", Checker: idp, Optional: true},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: rdb.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  rdb.Ping,
		Platform:   usageSvc,
		Logger:     logger,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	limiter := middleware.NewRateLimiter(rdb.Client, middleware.RateLimitConfig{
		Limit:   globalLimit(cfg.RateLimit),
		KeyFunc: middleware.KeyByIP,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	if cfg.Metrics.Enabled {
		router.Use(middleware.Metrics(metrics))
	}
	router.Use(limiter.Handler)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)
	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	authenticator := middleware.Authenticator(resolver, cfg.Auth.TenantOverride)

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			authHandler.RegisterRoutes(r, authenticator)
		})
		r.Route("/webhooks", webhookHandler.RegisterIngressRoutes)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Use(limiter.TenantHandler)

			r.Route("/dashboard", usageHandler.RegisterDashboardRoutes)
			r.Route("/tenant", func(r chi.Router) {
				tenantHandler.RegisterTenantRoutes(r)
				userHandler.RegisterTenantRoutes(r)
				auditHandler.RegisterTenantRoutes(r)
			})
			r.Route("/billing", func(r chi.Router) {
				billingHandler.RegisterRoutes(r)
				usageHandler.RegisterBillingRoutes(r)
			})
			r.Route("/payment", paymentHandler.RegisterRoutes)
			r.Route("/admin", func(r chi.Router) {
				tenantHandler.RegisterAdminRoutes(r)
				userHandler.RegisterAdminRoutes(r)
				auditHandler.RegisterAdminRoutes(r)
				apikeyHandler.RegisterAdminRoutes(r)
				webhookHandler.RegisterAdminRoutes(r)
				adminHandler.RegisterRoutes(r)
			})
		})
	})

	if err := srv.Listen(); err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	drainDelay := cfg.Server.DrainDelay
	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := rdb.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func globalLimit(cfg config.RateLimitConfig) redis_rate.Limit {
	period := cfg.Window
	if period <= 0 {
		period = time.Minute
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = cfg.Requests
	}
	return redis_rate.Limit{Rate: cfg.Requests, Burst: burst, Period: period}
}
