package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	appaudit "github.com/storefront/backend/internal/application/audit"
	appbilling "github.com/storefront/backend/internal/application/billing"
	appcatalog "github.com/storefront/backend/internal/application/catalog"
	appidentity "github.com/storefront/backend/internal/application/identity"
	apployalty "github.com/storefront/backend/internal/application/loyalty"
	appmarketing "github.com/storefront/backend/internal/application/marketing"
	apporder "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/billing"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/migration"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// gateway is both halves of the payment provider integration
type gateway interface {
	apporder.PaymentGateway
	appbilling.EventVerifier
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// OTLP log export is teed into the main logger
	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log, err := logger.New(logCfg, logProvider.Core(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting storefront backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}
	settlementMetrics, err := telemetry.NewSettlementMetrics(meterProvider.Meter())
	if err != nil {
		log.Fatal("Failed to register settlement metrics", zap.Error(err))
	}

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, log,
		logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.InstrumentDB(db.DB, cfg.Telemetry, log); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	if err := migrate(db, log); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Sessions and idempotency keys
	stores, err := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).Create(ctx)
	if err != nil {
		log.Fatal("Failed to initialize session store", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing stores", zap.Error(err))
		}
	}()

	// Loyalty program
	pointsCfg, err := cfg.Loyalty.PointsConfig()
	if err != nil {
		log.Fatal("Invalid loyalty configuration", zap.Error(err))
	}
	tiers, err := cfg.Loyalty.TierTable()
	if err != nil {
		log.Fatal("Invalid tier configuration", zap.Error(err))
	}

	// Repositories
	scope := persistence.NewGormTransactionScope(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	adminRepo := persistence.NewGormAdminUserRepository(db.DB)
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	auditRepo := persistence.NewGormAuditLogRepository(db.DB)
	contactRepo := persistence.NewGormContactRequestRepository(db.DB)

	// Domain events
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewIdempotentHandler(
		appaudit.NewTierChangedHandler(auditRepo, log),
		stores.Idempotency,
		log,
	))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Payment provider
	var payments gateway = billing.DisabledGateway{}
	currency := cfg.Stripe.Currency
	if cfg.Stripe.Enabled {
		stripeCfg := billing.NewStripeConfig(cfg.Stripe)
		adapter, err := billing.NewStripeAdapter(stripeCfg, log)
		if err != nil {
			log.Fatal("Failed to initialize Stripe", zap.Error(err))
		}
		payments = adapter
		currency = stripeCfg.Currency
		log.Info("Stripe enabled", zap.Bool("test_mode", stripeCfg.IsTestMode()))
	} else {
		log.Warn("Stripe disabled; checkout and webhooks are unavailable")
	}

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)

	authService := appidentity.NewAuthService(appidentity.AuthServiceDeps{
		Users:     userRepo,
		Admins:    adminRepo,
		Scope:     scope,
		Sessions:  stores.Sessions,
		Tokens:    jwtService,
		Hasher:    hasher,
		Points:    pointsCfg,
		Tiers:     tiers,
		Publisher: eventBus,
		Logger:    log,
	}, appidentity.AuthServiceConfig{
		SessionTTL:      cfg.Session.TTL,
		AdminSessionTTL: cfg.Session.AdminTTL,
	})
	userService := appidentity.NewUserService(userRepo, accountRepo, hasher, log)
	pointsService := apployalty.NewPointsService(accountRepo, ledgerRepo, orderRepo, scope, pointsCfg, tiers, currency, eventBus)
	checkoutService := apporder.NewCheckoutService(scope, productRepo, payments, pointsCfg, currency)
	settlementService := apporder.NewSettlementService(scope, pointsCfg, tiers, eventBus,
		apporder.WithSettlementRecorder(settlementMetrics))
	orderService := apporder.NewOrderService(orderRepo, scope, tiers, eventBus, settlementMetrics)
	webhookService := appbilling.NewStripeWebhookService(appbilling.StripeWebhookServiceConfig{
		Verifier:    payments,
		Settler:     settlementService,
		Canceller:   orderService,
		Orders:      orderRepo,
		Idempotency: stores.Idempotency,
		Logger:      log,
	})
	newsletterService := appmarketing.NewNewsletterService(scope, pointsCfg, tiers, eventBus, log)
	contactService := appmarketing.NewContactService(contactRepo, log)
	productService := appcatalog.NewProductService(productRepo, currency)
	auditService := appaudit.NewAuditService(auditRepo)

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	var rateLimiter, authRateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Stop()
	}
	if cfg.HTTP.AuthRateLimitEnabled {
		authRateLimiter = middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		defer authRateLimiter.Stop()
	}

	engine, err := router.NewEngine(router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Profile:   handler.NewProfileHandler(userService),
		Points:    handler.NewPointsHandler(pointsService),
		Checkout:  handler.NewCheckoutHandler(checkoutService),
		Order:     handler.NewOrderHandler(orderService),
		Webhook:   handler.NewWebhookHandler(webhookService),
		Marketing: handler.NewMarketingHandler(newsletterService, contactService),
		Product:   handler.NewProductHandler(productService),
		Audit:     handler.NewAuditHandler(auditService),
		System: handler.NewSystemHandler(cfg.App.Name, version, map[string]handler.HealthCheck{
			"database": func(context.Context) error { return db.Ping() },
			"cache":    stores.Ping,
		}),
	}, router.Options{
		ServiceName:     cfg.Telemetry.ServiceName,
		TracingEnabled:  tracerProvider.IsEnabled(),
		HTTP:            cfg.HTTP,
		Logger:          log,
		Authenticator:   middleware.NewAuthenticator(jwtService, stores.Sessions, log),
		RateLimiter:     rateLimiter,
		AuthRateLimiter: authRateLimiter,
	})
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           engine,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down log provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// migrate applies the embedded schema migrations on the open pool
func migrate(db *persistence.Database, log *zap.Logger) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, "", log)
	if err != nil {
		return err
	}
	// Closing the migrator would close the shared pool
	return m.Up()
}
