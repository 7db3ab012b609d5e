package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/lessonlens/observation-service/internal/cache"
	"github.com/lessonlens/observation-service/internal/config"
	"github.com/lessonlens/observation-service/internal/events"
	"github.com/lessonlens/observation-service/internal/handlers"
	"github.com/lessonlens/observation-service/internal/narrative"
	"github.com/lessonlens/observation-service/internal/repositories/postgres"
	"github.com/lessonlens/observation-service/internal/services"
	"github.com/lessonlens/observation-service/internal/utils"
	"github.com/lessonlens/observation-service/internal/validator"
	"github.com/lessonlens/observation-service/pkg"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	var appLogger utils.Logger
	if cfg.Environment == "production" {
		appLogger = utils.NewDefaultLogger()
	} else {
		appLogger = utils.NewDevelopmentLogger()
	}
	logger := utils.ToSlogLogger(appLogger)

	zapLogger, err := newZapLogger(cfg.Environment)
	if err != nil {
		logger.Error("Failed to initialise store logger", "error", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		logger.Error("Failed to create event publisher, falling back to mock", "error", err)
		publisher = events.NewMockEventPublisher(logger)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close event publisher", "error", err)
		}
	}()

	authClient := casdoorsdk.NewClient(
		cfg.Casdoor.Endpoint,
		cfg.Casdoor.ClientID,
		cfg.Casdoor.ClientSecret,
		cfg.Casdoor.Certificate,
		cfg.Casdoor.Organization,
		cfg.Casdoor.Application,
	)

	var generator narrative.Generator
	if cfg.NarrativeAPIURL != "" {
		generator = narrative.NewHTTPGenerator(narrative.Config{
			Endpoint: cfg.NarrativeAPIURL,
			APIKey:   cfg.NarrativeAPIKey,
			Timeout:  cfg.NarrativeTimeout,
			Logger:   logger,
		})
	} else {
		// Statistics-only reports when no narrative backend is configured.
		logger.Warn("Narrative backend not configured, reports will omit generated prose")
		generator = &narrative.MockGenerator{}
	}

	repo := postgres.NewRepository(db)
	reportStore := cache.NewRedisReportStore(redisClient, cfg.ReportTTL, zapLogger)
	v := validator.New()

	analyticsService := services.NewAnalyticsService(repo, logger, v)
	insightService := services.NewInsightService(repo, logger, v)
	exportService := services.NewExportService(logger)
	reportService := services.NewReportService(repo, insightService, generator, reportStore, publisher, logger, v)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(utils.LoggerMiddleware(appLogger))
	router.Use(utils.ContextLogger(appLogger))
	router.Use(gin.Recovery())

	handlerManager := handlers.NewHandlerManager(
		analyticsService,
		insightService,
		reportService,
		exportService,
		authClient,
		v,
		appLogger,
	)
	handlerManager.SetupRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Observation service listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Observation service stopped")
}

func newZapLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
