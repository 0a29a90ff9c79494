package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/agrovista/agrovista-engine/pkg/adapters/weather"
	"github.com/agrovista/agrovista-engine/pkg/auth"
	"github.com/agrovista/agrovista-engine/pkg/config"
	"github.com/agrovista/agrovista-engine/pkg/database"
	"github.com/agrovista/agrovista-engine/pkg/handlers"
	"github.com/agrovista/agrovista-engine/pkg/logging"
	"github.com/agrovista/agrovista-engine/pkg/middleware"
	"github.com/agrovista/agrovista-engine/pkg/repositories"
	"github.com/agrovista/agrovista-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL())),
		zap.String("default_provider", cfg.Weather.DefaultProvider.String()))

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database",
			zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	// Migrations require a database/sql connection.
	sqlDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		logger.Fatal("Failed to open migration connection",
			zap.String("error", logging.SanitizeError(err)))
	}
	if err := database.RunMigrations(sqlDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations",
			zap.String("error", logging.SanitizeError(err)))
	}
	_ = sqlDB.Close()

	jwksClient, err := auth.NewJWKSClient(ctx, &auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	authMiddleware := auth.NewMiddleware(jwksClient, logger)

	// Repositories
	validationRepo := repositories.NewValidationRepository(db)
	calibrationRepo := repositories.NewCalibrationRepository(db)
	performanceRepo := repositories.NewProviderPerformanceRepository(db)
	sensorRepo := repositories.NewSensorReadingRepository(db)

	// Services
	clock := clockwork.NewRealClock()
	calibrationService := services.NewCalibrationService(validationRepo, calibrationRepo, clock, logger)
	performanceService := services.NewProviderPerformanceService(validationRepo, performanceRepo, clock, logger)
	validationService := services.NewValidationService(validationRepo, calibrationService, performanceService, logger)
	accuracyService := services.NewAccuracyService(validationRepo, sensorRepo, logger)
	sensorService := services.NewSensorReadingService(sensorRepo, logger)
	providerManager := weather.NewHTTPManager(cfg.Weather.ManagerURL, logger)
	estimateService := services.NewEstimateService(providerManager, calibrationService, performanceService, logger)

	// Handlers
	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewValidationHandler(validationService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewCalibrationHandler(calibrationService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewProviderHandler(performanceService, cfg, logger).RegisterRoutes(mux)
	handlers.NewAccuracyHandler(accuracyService, logger).RegisterRoutes(mux)
	handlers.NewSensorReadingHandler(sensorService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewEToHandler(calibrationService, estimateService, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting agrovista-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// newLogger builds a production logger outside local development, where a
// human-readable development logger is friendlier.
func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
