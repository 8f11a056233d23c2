package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/launchgate-inc/launchgate-engine/pkg/audit"
	"github.com/launchgate-inc/launchgate-engine/pkg/auth"
	"github.com/launchgate-inc/launchgate-engine/pkg/cache"
	"github.com/launchgate-inc/launchgate-engine/pkg/config"
	"github.com/launchgate-inc/launchgate-engine/pkg/database"
	"github.com/launchgate-inc/launchgate-engine/pkg/handlers"
	"github.com/launchgate-inc/launchgate-engine/pkg/kvstore"
	"github.com/launchgate-inc/launchgate-engine/pkg/logging"
	"github.com/launchgate-inc/launchgate-engine/pkg/middleware"
	"github.com/launchgate-inc/launchgate-engine/pkg/models"
	"github.com/launchgate-inc/launchgate-engine/pkg/repositories"
	"github.com/launchgate-inc/launchgate-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

const migrationsPath = "migrations"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	store, closeStore, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer closeStore()

	// Every store operation goes through the retry decorator; drivers
	// stay dumb and sentinel errors pass through untouched.
	store = kvstore.NewRetryingStore(store, nil)

	partnerRepo := repositories.NewPartnerRepository(store)
	templateRepo := repositories.NewTemplateRepository(store)
	submissionRepo := repositories.NewSubmissionRepository(store)

	auditor := audit.NewPipelineAuditor(logger)
	templateCache := cache.NewTemplateCache(time.Duration(cfg.Templates.CacheTTLMinutes) * time.Minute)
	templateCache.StartCleanup(time.Minute)

	templateService := services.NewTemplateService(templateRepo, templateCache, auditor, logger)
	gateService := services.NewGateService(partnerRepo, submissionRepo, auditor, logger)
	partnerService := services.NewPartnerService(partnerRepo, auditor, logger)
	submissionService := services.NewSubmissionService(submissionRepo, partnerRepo, templateService, gateService, auditor, logger)

	if err := templateService.Seed(ctx, cfg.Templates.SeedPath); err != nil {
		logger.Fatal("Failed to seed questionnaire templates", zap.Error(err))
	}

	authService := auth.NewService(auth.Options{
		Secret:             cfg.Auth.SessionSecret,
		SessionTTL:         time.Duration(cfg.Auth.SessionTTLMinutes) * time.Minute,
		Cookie:             auth.DeriveCookieSettings(cfg.BaseURL, cfg.CookieDomain),
		EnableVerification: cfg.Auth.EnableVerification,
		DevUser: models.AuthUser{
			ID:    cfg.Auth.DevUserEmail,
			Email: cfg.Auth.DevUserEmail,
			Name:  cfg.Auth.DevUserName,
			Role:  models.Role(cfg.Auth.DevUserRole),
		},
	}, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAuthHandler(authService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewPartnersHandler(partnerService, gateService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewSubmissionsHandler(submissionService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewTemplatesHandler(templateService, logger).RegisterRoutes(mux, authMiddleware)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting launchgate-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("storage", cfg.Storage.Driver),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification))

	if cfg.TLSCertPath != "" {
		err = http.ListenAndServeTLS(addr, cfg.TLSCertPath, cfg.TLSKeyPath, handler)
	} else {
		err = http.ListenAndServe(addr, handler)
	}
	if err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// buildStore constructs the configured storage driver and returns it with
// its shutdown function. The postgres driver also applies pending schema
// migrations before serving.
func buildStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (kvstore.Store, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		connStr := cfg.Database.ConnectionString()

		sqlDB, err := sql.Open("pgx", connStr)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open migration connection: %w", err)
		}
		if err := database.RunMigrations(sqlDB, migrationsPath, logger); err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
		_ = sqlDB.Close()

		db, err := database.NewConnection(ctx, &database.Config{
			URL:            connStr,
			MaxConnections: cfg.Database.MaxConnections,
		})
		if err != nil {
			return nil, nil, err
		}
		return kvstore.NewPostgresStore(db), db.Close, nil

	case config.DriverRedis:
		client, err := database.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return kvstore.NewRedisStore(client), func() { _ = client.Close() }, nil

	default:
		logger.Warn("Using in-memory storage; records will not survive a restart")
		return kvstore.NewMemoryStore(), func() {}, nil
	}
}
