package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bizdocs/backend/internal/application/command"
	"github.com/bizdocs/backend/internal/application/company"
	appdoc "github.com/bizdocs/backend/internal/application/document"
	appparty "github.com/bizdocs/backend/internal/application/party"
	"github.com/bizdocs/backend/internal/infrastructure/auth"
	"github.com/bizdocs/backend/internal/infrastructure/cache"
	"github.com/bizdocs/backend/internal/infrastructure/config"
	"github.com/bizdocs/backend/internal/infrastructure/delivery"
	"github.com/bizdocs/backend/internal/infrastructure/event"
	"github.com/bizdocs/backend/internal/infrastructure/logger"
	"github.com/bizdocs/backend/internal/infrastructure/metrics"
	"github.com/bizdocs/backend/internal/infrastructure/persistence"
	"github.com/bizdocs/backend/internal/infrastructure/printing"
	"github.com/bizdocs/backend/internal/infrastructure/storage"
	"github.com/bizdocs/backend/internal/infrastructure/telemetry"
	"github.com/bizdocs/backend/internal/interfaces/http/handler"
	"github.com/bizdocs/backend/internal/interfaces/http/middleware"
	"github.com/bizdocs/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting document service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Environment:       cfg.App.Env,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithIgnoreRecordNotFoundError(true),
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if db.Driver == "sqlite" {
		// PostgreSQL schemas are managed by cmd/migrate
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to create sqlite schema", zap.Error(err))
		}
	}
	dbSystem := "postgresql"
	if db.Driver == "sqlite" {
		dbSystem = "sqlite"
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:  cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem: dbSystem,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", db.Driver))

	// Repositories
	documentRepo := persistence.NewGormDocumentRepository(db.DB)
	clientRepo := persistence.NewGormClientRepository(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	settingsRepo := persistence.NewGormSettingsRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Events
	recorder := metrics.NewRecorder()
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))
	eventBus.Subscribe(recorder)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Application services
	documentService := appdoc.NewService(documentRepo, clientRepo, supplierRepo, settingsRepo, txScope, log, appdoc.Config{
		MaxAttempts:   cfg.Numbering.MaxAttempts,
		PublicBaseURL: cfg.App.PublicBaseURL,
	})
	documentService.SetEventPublisher(eventBus)
	clientService := appparty.NewClientService(clientRepo, log)
	supplierService := appparty.NewSupplierService(supplierRepo, log)
	settingsService := company.NewSettingsService(settingsRepo, log)

	// Renderer
	if cfg.Renderer.Enabled {
		engine, err := printing.NewTemplateEngine()
		if err != nil {
			log.Fatal("Failed to parse document template", zap.Error(err))
		}
		if cfg.Renderer.TemplateDir != "" {
			loaded, err := engine.LoadDir(cfg.Renderer.TemplateDir)
			if err != nil {
				log.Fatal("Failed to load document template", zap.Error(err))
			}
			log.Info("Document template", zap.Bool("custom", loaded), zap.String("dir", cfg.Renderer.TemplateDir))
		}
		chrome := printing.NewChromedpRenderer(&printing.ChromedpConfig{
			DefaultTimeout: cfg.Renderer.Timeout,
			ExecPath:       cfg.Renderer.ChromePath,
			NoSandbox:      true,
			Logger:         log,
		})
		defer func() {
			_ = chrome.Close()
		}()
		documentService.SetRenderer(printing.NewDocumentRenderer(engine, chrome, log))
	} else {
		log.Warn("Renderer disabled, PDF download and sending are unavailable")
	}

	// Artifact storage
	switch cfg.Storage.Type {
	case "s3":
		store, err := storage.NewS3ArtifactStore(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create artifact store", zap.Error(err))
		}
		if err := store.EnsureBucket(ctx); err != nil {
			log.Fatal("Artifact bucket unavailable", zap.String("bucket", store.Bucket()), zap.Error(err))
		}
		documentService.SetArtifactStore(store)
	default:
		log.Info("Using in-memory artifact store")
		documentService.SetArtifactStore(storage.NewMemoryArtifactStore())
	}

	// Delivery
	if cfg.Mail.Enabled {
		smtpDelivery, err := delivery.NewSMTPDelivery(&cfg.Mail, log)
		if err != nil {
			log.Fatal("Failed to configure mail delivery", zap.Error(err))
		}
		documentService.SetDelivery(smtpDelivery)
	} else {
		log.Info("Mail disabled, sent documents are logged only")
		documentService.SetDelivery(delivery.NewLogDelivery(log))
	}

	// Command executor
	sessionStore, err := cache.NewSessionStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithKeyPrefix(cfg.Session.KeyPrefix),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create command session store", zap.Error(err))
	}
	defer func() {
		if err := sessionStore.Close(); err != nil {
			log.Error("Error closing session store", zap.Error(err))
		}
	}()
	executor := command.NewExecutor(documentService, clientService, sessionStore, log, command.Config{
		SessionTTL: cfg.Session.TTL,
	})
	command.RegisterDelegated(executor, command.Delegates{
		Clients:   clientService,
		Suppliers: supplierService,
		Reports:   documentService,
	})

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.SpanEnricher())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFrom(cfg.HTTP)))
	engine.Use(middleware.Secure())
	if cfg.Metrics.Enabled {
		engine.Use(recorder.GinMiddleware())
		engine.GET(cfg.Metrics.Path, gin.WrapH(recorder.Handler()))
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	if cfg.JWT.AllowHeaderActor {
		log.Warn("Actor headers accepted without a token; do not enable in production")
	}
	actor := middleware.ActorMiddleware(middleware.ActorConfig{
		Tokens:       jwtService,
		AllowHeaders: cfg.JWT.AllowHeaderActor,
		Logger:       log,
	})
	verifyLimiter := middleware.NewRateLimiter(ctx, cfg.HTTP.VerifyRateLimit, cfg.HTTP.VerifyRateWindow)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewDocumentHandler(documentService).Routes(actor)).
		Register(handler.NewClientHandler(clientService).Routes(actor)).
		Register(handler.NewSupplierHandler(supplierService).Routes(actor)).
		Register(handler.NewSettingsHandler(settingsService).Routes(actor)).
		Register(handler.NewCommandHandler(executor).Routes(actor)).
		Register(handler.NewVerifyHandler(documentService).Routes(middleware.RateLimit(verifyLimiter)))
	r.Setup()
	log.Debug("API routes mounted", zap.Int("count", len(r.Routes())))

	handler.NewSystemHandler(version, db.Ping).RegisterRoutes(&engine.RouterGroup)

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

	<-ctx.Done()
	stop()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}
