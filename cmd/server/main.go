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
	"github.com/mtax/backend/internal/application/ledger"
	"github.com/mtax/backend/internal/infrastructure/auth"
	"github.com/mtax/backend/internal/infrastructure/cache"
	"github.com/mtax/backend/internal/infrastructure/config"
	"github.com/mtax/backend/internal/infrastructure/logger"
	"github.com/mtax/backend/internal/infrastructure/migration"
	"github.com/mtax/backend/internal/infrastructure/payment"
	"github.com/mtax/backend/internal/infrastructure/persistence"
	"github.com/mtax/backend/internal/infrastructure/storage"
	"github.com/mtax/backend/internal/infrastructure/telemetry"
	"github.com/mtax/backend/internal/interfaces/http/handler"
	"github.com/mtax/backend/internal/interfaces/http/middleware"
	"github.com/mtax/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/mtax/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			MTax Ledger API
//	@version		1.0
//	@description	Financial ledger of the municipal tax system: adjustments, payment distribution and reconciliation

//	@contact.name	Revenue IT Cell

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

const appVersion = "1.0.0"

var _ ledger.Metrics = (*telemetry.LedgerMetrics)(nil)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLogCfg := logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(baseLogCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// OTLP log export tees the console/json output into the collector
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	if logProvider.IsEnabled() {
		baseCore, err := logger.NewCore(baseLogCfg)
		if err != nil {
			log.Fatal("Failed to build log core", zap.Error(err))
		}
		level, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			level = zapcore.InfoLevel
		}
		log = telemetry.NewBridgedLogger(baseCore,
			telemetry.NewZapOTELCore(logProvider, cfg.Telemetry.ServiceName, level),
			zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	}
	defer logger.Sync(log)

	log.Info("Starting MTax ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	if err := migrateSchema(cfg, db, log); err != nil {
		log.Fatal("Failed to migrate schema", zap.Error(err))
	}

	// Stores shared by the services
	idempotency, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	proofStorage, err := newProofStorage(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize proof storage", zap.Error(err))
	}
	verifier := payment.NewHMACVerifier(cfg.Gateway.KeySecret, cfg.Gateway.WebhookSecret)
	ledgerMetrics, err := telemetry.NewLedgerMetrics(meterProvider.Meter("mtax/ledger"), log)
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}

	// Application services
	scope := persistence.NewGormTransactionScope(db.DB)
	auditSink := persistence.NewGormAuditSink(db.DB)
	demandRepo := persistence.NewGormDemandRepository(db.DB)

	distributionService := ledger.NewDistributionService(ledger.DistributionServiceConfig{
		Scope:              scope,
		DemandRepo:         demandRepo,
		AuditSink:          auditSink,
		Metrics:            ledgerMetrics,
		Logger:             log,
		SkipIntegrityCheck: !cfg.Ledger.IntegrityCheckAfterPayment,
	})
	adjustmentService := ledger.NewAdjustmentService(ledger.AdjustmentServiceConfig{
		Scope:          scope,
		AdjustmentRepo: persistence.NewGormAdjustmentRepository(db.DB),
		Metrics:        ledgerMetrics,
		Logger:         log,
	})
	paymentService := ledger.NewPaymentService(ledger.PaymentServiceConfig{
		Scope:          scope,
		DemandRepo:     demandRepo,
		PaymentRepo:    persistence.NewGormPaymentRepository(db.DB),
		AuditSink:      auditSink,
		Distribution:   distributionService,
		Verifier:       verifier,
		Idempotency:    idempotency,
		IdempotencyTTL: cfg.Gateway.IdempotencyTTL,
		Metrics:        ledgerMetrics,
		Logger:         log,
	})
	documentService := ledger.NewDocumentService(ledger.DocumentServiceConfig{
		Storage:       proofStorage,
		AuditSink:     auditSink,
		MaxSize:       cfg.Ledger.MaxProofSize,
		PresignExpiry: cfg.Storage.PresignExpiration,
		Logger:        log,
	})

	middleware.SetupValidator()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	tracingCfg := middleware.DefaultTracingConfig()
	tracingCfg.ServiceName = cfg.Telemetry.ServiceName
	tracingCfg.Enabled = tracerProvider.IsEnabled()
	tracingCfg.MeterProvider = meterProvider.Provider()

	profilingCfg := middleware.DefaultProfilingConfig()
	profilingCfg.Enabled = profiler.IsEnabled()

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	jwtCfg := middleware.DefaultJWTConfig(auth.NewJWTService(cfg.JWT))
	jwtCfg.AllowDevUserHeader = cfg.HTTP.DevUserHeader && !cfg.IsProduction()
	jwtCfg.Logger = log

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		middleware.TracingWithConfig(tracingCfg),
		middleware.ProfilingWithConfig(profilingCfg),
		middleware.Secure(),
		middleware.CORSWithConfig(corsCfg),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		middleware.JWTAuthMiddlewareWithConfig(jwtCfg),
		middleware.TracingAttributeInjector(),
		middleware.SpanErrorCode(),
	)

	systemHandler := handler.NewSystemHandler(cfg.App.Name, appVersion, db)
	engine.GET("/health", systemHandler.Health)

	callbackLimiter, err := newCallbackLimiter(cfg, log)
	if err != nil {
		log.Fatal("Failed to create callback rate limiter", zap.Error(err))
	}
	router.NewRouter(engine).
		Register(router.NewLedgerRoutes(router.LedgerHandlers{
			Adjustments:  handler.NewAdjustmentHandler(adjustmentService),
			Payments:     handler.NewPaymentHandler(paymentService),
			Distribution: handler.NewDistributionHandler(distributionService),
			Documents:    handler.NewDocumentHandler(documentService, cfg.Ledger.MaxProofSize),
			Callback:     handler.NewGatewayCallbackHandler(paymentService, verifier),
		}, middleware.RateLimit(callbackLimiter))).
		Register(router.NewSystemRoutes(systemHandler)).
		Setup()

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:    cfg.HTTP.SwaggerEnabled,
			AllowedIPs: cfg.HTTP.SwaggerAllowedIPs,
		}, nil),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if closer, ok := idempotency.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Warn("Error closing idempotency store", zap.Error(err))
		}
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down metrics", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down tracing", zap.Error(err))
	}
	log.Info("Server exited gracefully")
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error shutting down log export", zap.Error(err))
	}
}

// migrateSchema applies the embedded SQL migrations on PostgreSQL. SQLite
// runs in local mode and gets its tables from the GORM models.
func migrateSchema(cfg *config.Config, db *persistence.Database, log *zap.Logger) error {
	if cfg.Database.Driver == "sqlite" {
		return migration.AutoMigrate(db.DB, log)
	}
	sqlDB, err := db.SQL()
	if err != nil {
		return err
	}
	m, err := migration.NewEmbedded(sqlDB, log)
	if err != nil {
		return err
	}
	// Closing the migrator would close the shared *sql.DB
	return m.Up()
}

func newProofStorage(cfg *config.Config, log *zap.Logger) (ledger.ProofStorage, error) {
	if !cfg.Storage.Enabled {
		log.Warn("Object storage disabled, proof documents are kept in memory")
		return storage.NewMemoryProofStorage(cfg.Storage.PublicURL), nil
	}
	s3, err := storage.NewS3ProofStorage(&cfg.Storage,
		storage.WithLogger(log),
		storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
	)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s3.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s3, nil
}

// newCallbackLimiter shares the callback quota across instances through
// Redis when it is configured.
func newCallbackLimiter(cfg *config.Config, log *zap.Logger) (*limiter.Limiter, error) {
	rate := limiter.Rate{
		Period: cfg.HTTP.CallbackRateWindow,
		Limit:  int64(cfg.HTTP.CallbackRateLimit),
	}
	if cfg.Redis.Host == "" {
		return limiter.New(limitermemory.NewStore(), rate), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: "mtax:ratelimit",
	})
	if err != nil {
		return nil, err
	}
	log.Info("Callback rate limit backed by Redis", zap.String("addr", cfg.Redis.Addr()))
	return limiter.New(store, rate), nil
}
