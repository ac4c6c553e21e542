package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hookbucket/service-analytics/internal/auth"
	"github.com/hookbucket/service-analytics/internal/clients"
	"github.com/hookbucket/service-analytics/internal/config"
	"github.com/hookbucket/service-analytics/internal/events"
	"github.com/hookbucket/service-analytics/internal/handlers"
	"github.com/hookbucket/service-analytics/internal/logger"
	"github.com/hookbucket/service-analytics/internal/middleware"
	"github.com/hookbucket/service-analytics/internal/routes"
	"github.com/hookbucket/service-analytics/internal/services"
	"github.com/hookbucket/service-analytics/internal/storage"
)

func main() {
	// Load .env file in development
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	zlog, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	// Connect to the blob store
	s3Store, err := storage.NewS3Store(storage.S3Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		Bucket:    cfg.S3.Bucket,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}, zlog)
	if err != nil {
		zlog.Fatal("Failed to initialize blob store", zap.Error(err))
	}
	store := storage.NewRetryingStore(s3Store, storage.DefaultRetryPolicy())

	// Connect to Redis (optional - snapshot cache only)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			zlog.Warn("Failed to connect to Redis, snapshot cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			zlog.Info("Connected to Redis", zap.String("host", cfg.Redis.Host))
		}
	}

	// Connect to NATS (optional - ingest notifications only)
	var publisher *events.Publisher
	if cfg.NATS.URL != "" {
		natsConn, err := nats.Connect(cfg.NATS.URL)
		if err != nil {
			zlog.Warn("Failed to connect to NATS, ingest notifications disabled", zap.Error(err))
		} else {
			zlog.Info("Connected to NATS", zap.String("url", cfg.NATS.URL))
			publisher = events.NewPublisher(natsConn, zlog)
		}
	}

	// Initialize JWT manager for auth middleware
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TokenTTL)

	// Initialize services
	ingestService := services.NewIngestService(store, publisher, zlog)
	collector := services.NewCollector(store, zlog)
	snapshotCache := services.NewSnapshotCache(redisClient, cfg.Cache.SnapshotTTL, zlog)
	snapshotService := services.NewSnapshotService(collector, snapshotCache, zlog)

	// Rebuild the dedup gate from blob keys already in storage so
	// duplicate suppression survives restarts.
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	if err := ingestService.SeedGate(seedCtx, services.MaxEventBlobs); err != nil {
		zlog.Warn("Failed to seed dedup gate from storage", zap.Error(err))
	}
	cancelSeed()

	// Initialize Shopify Admin API client
	shopifyClient := clients.NewShopifyClient(cfg.Shopify.ShopName, cfg.Shopify.APIVersion, cfg.Shopify.AccessToken, zlog)

	// Initialize handlers
	webhookHandler := handlers.NewWebhookHandler(ingestService, &handlers.WebhookConfig{
		ShopifySecret: cfg.Shopify.WebhookSecret,
	}, zlog)
	analyticsHandler := handlers.NewAnalyticsHandler(snapshotService, zlog)
	productHandler := handlers.NewProductHandler(shopifyClient, zlog)

	// Set Gin mode
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(zlog))
	router.Use(middleware.CORSWithOrigins(cfg.CORS.AllowedOrigins))

	// Rate limiting (50 requests per second, burst 100)
	rateLimiter := middleware.NewRateLimiter(50, 100)
	rateLimiter.CleanupLimiters()
	router.Use(rateLimiter.Middleware())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": cfg.App.Name,
			"time":    time.Now().UTC(),
		})
	})

	// Setup routes using the routes package
	routes.SetupRoutes(router, &routes.RouteConfig{
		WebhookHandler:   webhookHandler,
		AnalyticsHandler: analyticsHandler,
		ProductHandler:   productHandler,
		JWTManager:       jwtManager,
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		zlog.Info("Analytics service starting on port " + cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zlog.Info("Server exited")
}
