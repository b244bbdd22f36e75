package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/richxcame/creator-reviews/internal/fraud"
	"github.com/richxcame/creator-reviews/pkg/common"
	"github.com/richxcame/creator-reviews/pkg/config"
	"github.com/richxcame/creator-reviews/pkg/database"
	"github.com/richxcame/creator-reviews/pkg/eventbus"
	"github.com/richxcame/creator-reviews/pkg/logger"
	"github.com/richxcame/creator-reviews/pkg/middleware"
	"github.com/richxcame/creator-reviews/pkg/redis"
	"go.uber.org/zap"
)

const serviceVersion = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load("antifraud")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Run database migrations
	if err := runMigrations(cfg); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Connect to PostgreSQL
	pool, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(pool)
	logger.Info("Connected to PostgreSQL database")

	// Connect to Redis (used to cache the creator duplicate scan)
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis")

	// Wire the fraud evaluators
	repo := fraud.NewRepository(pool, redisClient)
	ledger := fraud.NewLedgerUpdater(repo, cfg.Business.ReviewRewardAmount)
	creatorService := fraud.NewCreatorService(repo, time.Duration(cfg.Business.CreatorVelocityWindow)*time.Minute)
	reviewService := fraud.NewReviewService(repo, ledger, time.Duration(cfg.Business.ReviewVelocityWindow)*time.Minute)
	handler := fraud.NewHandler(creatorService, reviewService)

	// Subscribe to submission events
	if cfg.NATS.Enabled {
		bus, err := eventbus.Connect(cfg.NATS.URL)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer bus.Close()

		eventHandler := fraud.NewEventHandler(reviewService, bus)
		if err := eventHandler.RegisterSubscriptions(context.Background(), bus); err != nil {
			logger.Fatal("Failed to register event subscriptions", zap.Error(err))
		}
	}

	// Set up Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics(cfg.Server.ServiceName))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", middleware.CorrelationIDHeader}
	router.Use(cors.New(corsConfig))

	// Health check and metrics (no auth required)
	router.GET("/healthz", common.HealthCheckWithDeps(cfg.Server.ServiceName, serviceVersion, map[string]func() error{
		"database": func() error { return pool.Ping(context.Background()) },
		"redis":    func() error { return redisClient.Ping(context.Background()).Err() },
	}))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Evaluations are bounded-latency; a caller hitting the deadline gets a
	// failed evaluation and falls back to manual review, never auto-approval.
	evalTimeout := timeout.New(
		timeout.WithTimeout(time.Duration(cfg.Server.WriteTimeout)*time.Second),
		timeout.WithHandler(func(c *gin.Context) { c.Next() }),
		timeout.WithResponse(func(c *gin.Context) {
			common.ErrorResponse(c, http.StatusServiceUnavailable, "evaluation timed out")
		}),
	)

	api := router.Group("/api/v1")
	{
		api.POST("/fraud/creator-check",
			middleware.AuthMiddleware(cfg.JWT.Secret),
			evalTimeout,
			handler.CheckCreator,
		)

		// Internal endpoint for service-to-service review moderation
		internal := api.Group("/internal")
		{
			internal.POST("/fraud/review-check", evalTimeout, handler.CheckReview)
		}
	}

	// Start server
	addr := ":" + cfg.Server.Port
	logger.Info("Anti-fraud service starting", zap.String("port", cfg.Server.Port))
	if err := router.Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func runMigrations(cfg *config.Config) error {
	m, err := migrate.New("file://migrations", cfg.Database.URL())
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
