//	@title			Organization Management API
//	@version		1.0
//	@description	A multi-tenant organization management service where every organization owns an isolated storage unit and a single admin identity.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/orgstack/org-management-service/internal/api"
	"github.com/orgstack/org-management-service/internal/auth"
	"github.com/orgstack/org-management-service/internal/config"
	"github.com/orgstack/org-management-service/internal/events"
	"github.com/orgstack/org-management-service/internal/repository"
	"github.com/orgstack/org-management-service/internal/services/tenancy"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting organization management service")

	// Initialize database
	db, err := repository.NewDatabase(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	if err := db.InitSchema(context.Background()); err != nil {
		logger.Fatal("Failed to initialize master schema", zap.Error(err))
	}

	// Initialize repositories
	registry := repository.NewOrganizationRegistry(db.Pool(), logger)
	admins := repository.NewAdminRepository(db.Pool(), logger)
	provisioner := repository.NewStorageProvisioner(db.Pool(), logger)

	// Initialize token service
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)

	// Initialize lifecycle event publisher (optional)
	var publisher tenancy.EventPublisher
	var amqpPublisher *events.Publisher
	if cfg.RabbitMQ.URL != "" {
		amqpPublisher = events.NewPublisher(cfg.RabbitMQ.URL, logger)
		if err := amqpPublisher.Connect(); err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	}

	// Initialize lifecycle orchestrator
	manager := tenancy.NewManager(registry, admins, provisioner, tokens, publisher, logger)

	// Initialize API server
	server := api.NewServer(cfg, manager, tokens, db, logger)
	server.SetupRoutes()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: server.GetRouter(),
	}

	go func() {
		logger.Info("Server starting", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create shutdown context
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
	defer cancel()

	// Shutdown HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

func initLogger(level, format string) (*zap.Logger, error) {
	return loggerConfig(level, format).Build()
}

func loggerConfig(level, format string) zap.Config {
	var zapConfig zap.Config

	if format == "console" {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	switch level {
	case "debug":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapConfig
}
