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

	"github.com/trovehq/trove_api/internal/cache"
	"github.com/trovehq/trove_api/internal/config"
	"github.com/trovehq/trove_api/internal/database"
	"github.com/trovehq/trove_api/internal/handler"
	"github.com/trovehq/trove_api/internal/metrics"
	"github.com/trovehq/trove_api/internal/middleware"
	"github.com/trovehq/trove_api/internal/repository"
	"github.com/trovehq/trove_api/internal/service"
	"github.com/trovehq/trove_api/internal/worker"
	"github.com/trovehq/trove_api/pkg/marketplace"
)

// main is the application entrypoint for the Trove API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting trove api")

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

	// 3c. Initialize catalog page cache
	catalogCache := cache.NewCatalogCache(redisClient, cfg.Catalog.CacheTTL)

	// 4. Initialize marketplace gateway client
	mpClient := marketplace.NewClient(marketplace.Config{
		Endpoint:      cfg.Search.Endpoint,
		Timeout:       cfg.Search.LookupTimeout,
		RatePerSecond: cfg.Search.LookupRatePerSecond,
	})

	// 5. Initialize repositories
	productRepo := repository.NewProductRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)
	clickRepo := repository.NewAffiliateClickRepository(db)

	// 6. Initialize services
	searchSvc := service.NewSearchService(cfg.Search.MinQueryLen, cfg.Search.SubmissionMinQueryLen)
	for _, name := range marketplace.DefaultMarketplaces() {
		searchSvc.RegisterMarketplace(name, service.NewClientLookup(mpClient, name))
	}
	log.Info().Strs("marketplaces", searchSvc.Marketplaces()).Msg("marketplace lookups registered")

	catalogSvc := service.NewCatalogService(productRepo, catalogCache, cfg.Catalog.PageSize, cfg.Catalog.FetchRetries)
	submissionSvc := service.NewSubmissionService(productRepo, searchSvc)
	moderationSvc := service.NewModerationService(productRepo, catalogCache)
	affiliateSvc := service.NewAffiliateService(clickRepo, cfg.Affiliate.Tags)
	adminAuthSvc := service.NewAdminAuthService(adminRepo)
	dealSvc := service.NewDealService(productRepo, searchSvc)

	// 7. Initialize handlers
	authLimiter := middleware.NewInvalidAuthRateLimiter()
	handlers := &Handlers{
		Health:     handler.NewHealthHandler(db),
		Catalog:    handler.NewCatalogHandler(catalogSvc),
		Search:     handler.NewSearchHandler(searchSvc),
		Submission: handler.NewSubmissionHandler(submissionSvc),
		Moderation: handler.NewModerationHandler(moderationSvc),
		Affiliate:  handler.NewAffiliateHandler(affiliateSvc),
		Auth:       handler.NewAuthHandler(adminAuthSvc, authLimiter),
	}

	// 8. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware()

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw)

	// 10. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 11. Start workers
	go worker.NewDealSyncWorker(dealSvc, cfg.Worker.DealSyncInterval).Start(ctx)
	go worker.NewClickFlushWorker(affiliateSvc, cfg.Worker.ClickFlushInterval).Start(ctx)

	// 12. Start HTTP server
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

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health     *handler.HealthHandler
	Catalog    *handler.CatalogHandler
	Search     *handler.SearchHandler
	Submission *handler.SubmissionHandler
	Moderation *handler.ModerationHandler
	Affiliate  *handler.AffiliateHandler
	Auth       *handler.AuthHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Public storefront routes
	router.GET("/v1/catalog", handlers.Catalog.GetCatalog)
	router.GET("/v1/catalog/categories", handlers.Catalog.GetCategories)
	router.GET("/v1/catalog/:id", handlers.Catalog.GetProduct)
	router.GET("/v1/search", handlers.Search.Search)
	router.POST("/v1/submissions", handlers.Submission.Submit)
	router.POST("/v1/out", handlers.Affiliate.Outbound)

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.POST("/auth/login", handlers.Auth.Login)
	admin.Use(jwtMiddleware.Handle())
	{
		// Moderation queue
		admin.GET("/submissions", handlers.Moderation.ListSubmissions)
		admin.POST("/submissions/:id/approve", handlers.Moderation.Approve)
		admin.POST("/submissions/:id/reject", handlers.Moderation.Reject)

		// Product management
		admin.GET("/products", handlers.Moderation.ListProducts)
		admin.DELETE("/products/:id", handlers.Moderation.DeleteProduct)

		// Affiliate click totals
		admin.GET("/clicks", handlers.Affiliate.ClickStats)
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
