package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang-stock-recommender/internal/entity"
	"golang-stock-recommender/internal/tracker/config"
	delivery "golang-stock-recommender/internal/tracker/delivery/http"
	_ "golang-stock-recommender/internal/tracker/docs"
	"golang-stock-recommender/internal/tracker/repository"
	"golang-stock-recommender/internal/tracker/service"
	"golang-stock-recommender/internal/tracker/storage"
	"golang-stock-recommender/pkg/common"
	"golang-stock-recommender/pkg/decoder"
	"golang-stock-recommender/pkg/logger"
	"golang-stock-recommender/pkg/postgres"
	"golang-stock-recommender/pkg/redis"
	"golang-stock-recommender/pkg/telegram"
	"golang-stock-recommender/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	swagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the recommendation tracker service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Recommendation Tracker Service", logger.Field("name", cfg.App.Name))

	// Initialize storage backend
	var store storage.Storage
	switch cfg.Storage.Backend {
	case common.StorageBackendExcel:
		store, err = storage.NewExcelStorage(cfg.Storage.ExcelPath, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize Excel storage", logger.ErrorField(err))
		}
	case common.StorageBackendDocument:
		postgresCfg := postgres.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			DBName:          cfg.Database.DBName,
			SSLMode:         cfg.Database.SSLMode,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		}
		db, err := postgres.NewDB(postgresCfg)
		if err != nil {
			appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
		}
		if sqlDB, err := db.DB.DB(); err == nil {
			defer sqlDB.Close()
		}
		store = storage.NewDocumentStorage(db.DB, appLogger)
	default:
		appLogger.Fatal("Invalid storage backend specified in config", zap.String("backend", cfg.Storage.Backend))
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	// Initialize extraction client
	genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.Gemini.APIKey,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize Gemini AI client", zap.Error(err))
	}

	var notifier telegram.Notifier
	if cfg.Telegram.Enabled {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", zap.Error(err))
		}
	}

	// Initialize decoder
	gbkDecoder := decoder.NewGBKDecoder(appLogger)

	// Initialize repositories
	extractionRepo, err := repository.NewGeminiExtractionRepository(cfg, appLogger, genAiClient)
	if err != nil {
		appLogger.Fatal("Failed to initialize extraction repository", zap.Error(err))
	}
	lookupRepo := repository.NewSinaLookupRepository(cfg, appLogger, gbkDecoder)
	priceRepo := repository.NewKlineRepository(cfg, appLogger)
	feedRepo := repository.NewFeedRepository(cfg, appLogger)

	// Initialize services
	resolver := service.NewCodeResolver(store, lookupRepo, appLogger)
	priceSync := service.NewPriceSyncEngine(store, priceRepo, appLogger)
	aggregator := service.NewStatsAggregator(store, cfg, appLogger)
	reporting := service.NewReportingService(store, lookupRepo, appLogger)
	orchestrator := service.NewOrchestrator(cfg, store, extractionRepo, resolver, priceSync, aggregator, reporting, redisClient, notifier, appLogger)
	ingestion := service.NewFeedIngestionService(store, feedRepo, appLogger)

	// Scheduled pipeline and feed ingestion runs
	scheduler := cron.New(cron.WithLocation(utils.LocationCST()))
	if cfg.Pipeline.CronSpec != "" {
		_, err := scheduler.AddFunc(cfg.Pipeline.CronSpec, func() {
			weekID := entity.WeekOf(utils.TimeNowCST()).String()
			if _, err := orchestrator.Run(ctx, weekID); err != nil {
				appLogger.Error("Scheduled pipeline run failed",
					logger.StringField("week_id", weekID), logger.ErrorField(err))
			}
		})
		if err != nil {
			appLogger.Fatal("Invalid pipeline cron spec", logger.ErrorField(err))
		}
	}
	if cfg.Pipeline.FeedCronSpec != "" {
		_, err := scheduler.AddFunc(cfg.Pipeline.FeedCronSpec, func() {
			if _, err := ingestion.IngestCurrentWeek(ctx); err != nil {
				appLogger.Error("Scheduled feed ingestion failed", logger.ErrorField(err))
			}
		})
		if err != nil {
			appLogger.Fatal("Invalid feed cron spec", logger.ErrorField(err))
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	// Initialize handlers and routes
	apiV1 := e.Group("/api/v1")

	weekHandler := delivery.NewWeekHandler(orchestrator, ingestion, reporting, appLogger)
	weeksGroup := apiV1.Group("/weeks")
	weekHandler.RegisterRoutes(weeksGroup)

	recommenderHandler := delivery.NewRecommenderHandler(reporting, orchestrator, appLogger)
	recommendersGroup := apiV1.Group("/recommenders")
	recommenderHandler.RegisterRoutes(recommendersGroup)

	stockHandler := delivery.NewStockHandler(reporting, appLogger)
	stocksGroup := apiV1.Group("/stocks")
	stockHandler.RegisterRoutes(stocksGroup)

	e.GET("/swagger/*", swagger.WrapHandler)

	// Start server
	utils.GoSafe(func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	})

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	// Gracefully shutdown the server
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

// @title Weekly Recommendation Tracker API
// @version 1.0
// @description Tracks weekly stock recommendations, resolves their codes, syncs prices and scores recommenders.
// @BasePath /api/v1
func main() {
	rootCmd := &cobra.Command{Use: "tracker-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing tracker-service CLI: %s\n", err)
		os.Exit(1)
	}
}
