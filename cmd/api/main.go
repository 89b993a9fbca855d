package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"medsecure/docs"
	"medsecure/internal/auth"
	"medsecure/internal/config"
	"medsecure/internal/database"
	"medsecure/internal/database/migration"
	"medsecure/internal/envelope"
	handlers "medsecure/internal/http/handler"
	"medsecure/internal/http/middleware"
	"medsecure/internal/otel"
	"medsecure/internal/repository/postgres"
	"medsecure/internal/service"
	"medsecure/internal/storage"
)

// @title MedSecure API
// @version 1.0
// @BasePath /
func main() {
	// Configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		logger.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer shutdownTracing(ctx)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	vault, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		logger.Fatal("failed to initialize vault storage", zap.Error(err))
	}

	// Repositories and services
	userRepo := postgres.NewUserPostgres(db)
	requestRepo := postgres.NewRequestPostgres(db)
	auditRepo := postgres.NewAuditPostgres(db)

	auditSvc := service.NewAuditService(auditRepo, logger)
	codec := envelope.NewCodec(cfg.Crypto.EncryptionKey)
	fileSvc := service.NewFileService(codec, vault, auditSvc)
	accessSvc := service.NewAccessService(userRepo, requestRepo, auditSvc)
	analysisSvc := service.NewAnalysisService(cfg.Analysis, auditSvc)

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    64 * 1024 * 1024,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMiddleware, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())
	app.Use(promMiddleware.Handler())

	// Unauthenticated surface: probes, metrics, API docs
	handlers.RegisterHealthRoutes(app, db)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	// Everything else requires a verified bearer token
	app.Use(middleware.Authenticate(verifier, userRepo))
	handlers.RegisterRoutes(app, handlers.Services{
		Files:    fileSvc,
		Access:   accessSvc,
		Audit:    auditSvc,
		Analysis: analysisSvc,
	})

	addr := ":" + cfg.Port
	logger.Info("starting server", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
