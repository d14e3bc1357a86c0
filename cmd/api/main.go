package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/glimmershop/store_api/internal/cache"
	"github.com/glimmershop/store_api/internal/config"
	"github.com/glimmershop/store_api/internal/database"
	"github.com/glimmershop/store_api/internal/handler"
	"github.com/glimmershop/store_api/internal/middleware"
	"github.com/glimmershop/store_api/internal/repository"
	"github.com/glimmershop/store_api/internal/service"
	"github.com/glimmershop/store_api/internal/worker"
	"github.com/glimmershop/store_api/pkg/resend"
)

// main is the application entrypoint for the storefront API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting store api")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	stockCache := cache.NewStockCache(redisClient)

	// 4. Initialize repositories
	webhookLogRepo := repository.NewWebhookLogRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	productRepo := repository.NewProductRepository(db)

	// 5. Initialize notifier (optional; absence disables credential emails)
	var notifier service.Notifier
	if cfg.Mail.ResendAPIKey != "" {
		notifier = service.NewMailNotifier(resend.NewClient(cfg.Mail.ResendAPIKey), cfg.Mail.FromAddress)
		log.Info().Msg("Credential email notifier enabled")
	} else {
		log.Warn().Msg("RESEND_API_KEY not configured - credential emails disabled")
	}

	// 6. Initialize services
	fulfillmentSvc := service.NewFulfillmentService(orderRepo, accountRepo, notifier, stockCache)
	webhookSvc := service.NewWebhookService(webhookLogRepo, orderRepo, fulfillmentSvc, cfg.GGCheckout.WebhookSecret)
	orderSvc := service.NewOrderService(orderRepo)
	catalogSvc := service.NewCatalogService(productRepo, accountRepo, stockCache)

	if cfg.GGCheckout.WebhookSecret == "" {
		log.Warn().Msg("GGCHECKOUT_WEBHOOK_SECRET not configured - signature verification disabled")
	}

	// 7. Initialize handlers
	handlers := &Handlers{
		Health:  handler.NewHealthHandler(db),
		Webhook: handler.NewWebhookHandler(webhookSvc, cfg.Webhook.ProcessTimeout),
		Order:   handler.NewOrderHandler(orderSvc),
		Product: handler.NewProductHandler(catalogSvc),
	}

	// 8. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers)

	// 9. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 10. Start delivery retry worker
	go worker.NewDeliveryRetryWorker(
		orderRepo, fulfillmentSvc,
		cfg.Worker.DeliveryRetryInterval,
		cfg.Worker.DeliveryRetryBatch,
	).Start(ctx)

	// 11. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 13. Cancel context to stop workers
	cancel()

	// 14. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health  *handler.HealthHandler
	Webhook *handler.WebhookHandler
	Order   *handler.OrderHandler
	Product *handler.ProductHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers) {
	// Payment provider webhook
	router.POST("/webhook/ggcheckout", handlers.Webhook.HandleGGCheckout)

	router.GET("/v1/health", handlers.Health.GetHealth)

	// Storefront read API
	v1 := router.Group("/v1")
	{
		v1.GET("/products", handlers.Product.GetProducts)
		v1.GET("/orders", handlers.Order.ListByEmail)
		v1.GET("/orders/:externalId", handlers.Order.GetByExternalID)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
