package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/pricing_api/internal/cache"
	"github.com/GTDGit/pricing_api/internal/config"
	"github.com/GTDGit/pricing_api/internal/database"
	"github.com/GTDGit/pricing_api/internal/handler"
	"github.com/GTDGit/pricing_api/internal/middleware"
	"github.com/GTDGit/pricing_api/internal/pricing"
	"github.com/GTDGit/pricing_api/internal/repository"
	"github.com/GTDGit/pricing_api/internal/service"
	"github.com/GTDGit/pricing_api/internal/worker"
)

// main is the application entrypoint for the SKU pricing API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().
		Str("env", cfg.Env).
		Str("retailer_store", cfg.Pricing.RetailerStore).
		Str("timezone", cfg.Pricing.TimeZone).
		Msg("starting pricing api")

	// Prices are rendered as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	// 3. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Connect database
	db, err := database.Connect(ctx, &cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 4a. Run migrations
	if cfg.RunMigrations {
		if err := database.Migrate(db.DB, cfg.MigrationsPath); err != nil {
			log.Error().Err(err).Msg("migration failed")
			fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
			os.Exit(1)
		}
		log.Info().Msg("migrations completed successfully")
	}

	// 4b. Connect to Redis. The cache is optional.
	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable - filter options will not be cached")
		} else {
			defer redisClient.Close()
			log.Info().Msg("redis connected successfully")
		}
	}

	// 5. Initialize repositories
	catalogRepo := repository.NewCatalogRepository(db)

	// 6. Initialize services
	analyzer := pricing.NewAnalyzer(catalogRepo, pricing.AnalyzerConfig{
		RetailerStore: cfg.Pricing.RetailerStore,
		Location:      cfg.Pricing.Location,
	})

	var (
		optionsStore   service.FilterOptionsStore
		refreshClaimer worker.RefreshClaimer
	)
	if redisClient != nil {
		optionsCache := cache.NewFilterOptionsCache(redisClient, cfg.Pricing.RetailerStore, cfg.Cache.FilterOptionsTTL)
		optionsStore = optionsCache
		refreshClaimer = optionsCache
	}
	pricingSvc := service.NewPricingService(analyzer, catalogRepo, optionsStore, cfg.Pricing.RetailerStore)

	// 7. Initialize handlers
	health := handler.NewHealthHandler().AddCheck("database", catalogRepo, true)
	if redisClient != nil {
		health.AddCheck("redis", redisClient, false)
	}
	handlers := &Handlers{
		Health:  health,
		Pricing: handler.NewPricingHandler(pricingSvc),
	}

	// 8. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware(cfg.JWTSecret)
	if !jwtMw.Enabled() {
		log.Warn().Msg("JWT_SECRET not set - pricing endpoints are public")
	}

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.AllowedHosts))
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw, cfg.Pricing.RequestTimeout)

	// 10. Start workers
	if redisClient != nil {
		go worker.NewFilterOptionsWorker(pricingSvc, refreshClaimer, cfg.Cache.FilterOptionsRefresh).Start(ctx)
	}

	// 11. Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Pricing.RequestTimeout + 10*time.Second,
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
	Pricing *handler.PricingHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware, requestTimeout time.Duration) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Liveness stays outside auth so probes do not need a token
	router.GET("/api/pricing/sku/health", handlers.Pricing.Health)

	sku := router.Group("/api/pricing/sku")
	sku.Use(jwtMiddleware.Handle())
	sku.Use(middleware.TimeoutMiddleware(requestTimeout))
	{
		sku.GET("", handlers.Pricing.GetAnalysis)
		sku.GET("/detalle/:sku", handlers.Pricing.GetDetail)
		sku.GET("/stats", handlers.Pricing.GetStats)
		sku.GET("/export", handlers.Pricing.Export)
		sku.GET("/filtros", handlers.Pricing.GetFilterOptions)
	}
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
