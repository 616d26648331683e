package main

import (
	"context"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/garagehq/garage-engine/pkg/config"
	"github.com/garagehq/garage-engine/pkg/database"
	"github.com/garagehq/garage-engine/pkg/dvla"
	"github.com/garagehq/garage-engine/pkg/handlers"
	"github.com/garagehq/garage-engine/pkg/logging"
	"github.com/garagehq/garage-engine/pkg/messaging"
	"github.com/garagehq/garage-engine/pkg/middleware"
	"github.com/garagehq/garage-engine/pkg/mot"
	"github.com/garagehq/garage-engine/pkg/repositories"
	"github.com/garagehq/garage-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
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
		zap.String("environment", cfg.Env),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL())),
		zap.Bool("messaging_enabled", cfg.Messaging.Enabled()),
		zap.Bool("reconciliation_auto_apply", cfg.Reconciliation.AutoApply))

	ctx := context.Background()

	db, err := database.Connect(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// golang-migrate needs a database/sql handle rather than the pgx pool.
	sqlDB, err := database.OpenStdlib(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	// Repositories
	customerRepo := repositories.NewCustomerRepository(db)
	vehicleRepo := repositories.NewVehicleRepository(db)
	documentRepo := repositories.NewDocumentRepository(db)
	reminderRepo := repositories.NewReminderRepository(db)

	// Upstream clients, enabled only when their credentials are present
	var lookup services.VehicleLookup
	if cfg.DVLA.APIKey != "" {
		lookup = dvla.NewClient(&cfg.DVLA)
	}
	var motHistory services.MOTHistoryLookup
	if cfg.MOT.APIKey != "" {
		motHistory = mot.NewClient(&cfg.MOT)
	}
	var sender services.MessageSender
	if cfg.Messaging.Enabled() {
		sender = messaging.NewClient(&cfg.Messaging)
	}

	// Services
	vehicleService := services.NewVehicleService(vehicleRepo, lookup, motHistory, logger)
	documentService := services.NewDocumentService(documentRepo, cfg.Numbering, logger)
	reconciliationService := services.NewReconciliationService(documentRepo, vehicleRepo, cfg.Reconciliation, logger)
	reminderService := services.NewReminderService(vehicleRepo, customerRepo, reminderRepo, sender, cfg.Reconciliation, logger)

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewCustomersHandler(customerRepo, logger).RegisterRoutes(mux)
	handlers.NewVehiclesHandler(vehicleService, logger).RegisterRoutes(mux)
	handlers.NewDocumentsHandler(documentService, logger).RegisterRoutes(mux)
	handlers.NewReconciliationHandler(reconciliationService, logger).RegisterRoutes(mux)
	handlers.NewRemindersHandler(reminderService, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting garage-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
