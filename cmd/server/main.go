package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/cgtracker/internal/api"
	"github.com/rongwang/cgtracker/internal/backup"
	"github.com/rongwang/cgtracker/internal/config"
	"github.com/rongwang/cgtracker/internal/repository"
	"github.com/rongwang/cgtracker/internal/service"
	"github.com/rongwang/cgtracker/internal/utils"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	logger, err := utils.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("JWT_SECRET must be set")
	}

	// Set up database connection
	db, err := config.SetupDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to set up database", zap.Error(err))
	}
	defer db.Close()

	// Create repository
	repo := repository.NewSQLRepository(db)

	backups := backup.NewManager(cfg.Backup, repo, logger)
	if _, err := backups.Prune(); err != nil {
		logger.Warn("Failed to prune old backups", zap.Error(err))
	}

	// Create service
	svc := service.NewDefaultService(repo, cfg.Auth, logger,
		service.WithBackups(backups),
		service.WithPurgePassword(cfg.Maintenance.PurgePassword),
	)
	if err := svc.EnsureAdmin(context.Background()); err != nil {
		logger.Fatal("Failed to seed admin user", zap.Error(err))
	}

	// Create API handler
	handler := api.NewHandler(svc, cfg.Auth.JWTSecret, logger)

	// Set up Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// Set up routes
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("Server starting", zap.String("addr", srv.Addr), zap.String("db_driver", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
