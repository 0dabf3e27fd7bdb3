package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pantry-rest-api/internal/cache"
	"pantry-rest-api/internal/config"
	"pantry-rest-api/internal/handler"
	"pantry-rest-api/internal/middleware"
	"pantry-rest-api/internal/repository"
	"pantry-rest-api/internal/router"
	"pantry-rest-api/internal/service"

	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Pantry API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize pantry repository based on config. Both backends also
	// serve as the user repository.
	var pantryRepo repository.PantryRepository
	var userRepo repository.UserRepository
	switch cfg.PantryDB.Type {
	case "mysql":
		mysqlRepo, err := repository.NewMySQLPantryRepository(cfg.PantryDB.MySQLDSN())
		if err != nil {
			log.Fatalf("Failed to initialize MySQL: %v", err)
		}
		pantryRepo = mysqlRepo
		userRepo = mysqlRepo
		log.Println("MySQL pantry repository initialized")
	default: // sqlite
		sqliteRepo, err := repository.NewSQLitePantryRepository(cfg.PantryDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		pantryRepo = sqliteRepo
		userRepo = sqliteRepo
		log.Println("SQLite pantry repository initialized")
	}
	defer pantryRepo.Close()

	// Initialize Redis client (sessions + advisory cache)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddress(),
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed: %v", err)
		redisClient = nil
	} else {
		log.Println("Redis client initialized")
	}
	cancel()
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Advisory alert cache: Redis when configured and reachable, otherwise
	// in-memory.
	var alertCache cache.Cache
	if cfg.Cache.Type == "redis" && redisClient != nil {
		alertCache = cache.NewRedisCache(redisClient, "pantry:cache:")
	} else {
		alertCache = cache.NewMemoryCache()
	}
	defer alertCache.Close()

	// Initialize services
	var stockService *service.StockService
	if cfg.App.LegacyShortfall {
		stockService = service.NewLegacyStockService(pantryRepo)
		log.Println("Stock service initialized (legacy shortfall mode)")
	} else {
		stockService = service.NewStockService(pantryRepo)
	}

	alertService := service.NewAlertService(pantryRepo, alertCache, cfg.Cache.TTL, cfg.Alerts.ExpiryHorizonDays)
	recipeService := service.NewRecipeService(pantryRepo)

	var tokenService *service.TokenService
	if redisClient != nil {
		tokenService = service.NewTokenService(redisClient)
	} else {
		log.Println("Warning: sessions disabled, authenticated routes unavailable")
	}

	sweeper := service.NewAlertSweeper(pantryRepo, service.SweeperConfig{
		Interval:          cfg.Alerts.SweepInterval,
		ExpiryHorizonDays: cfg.Alerts.ExpiryHorizonDays,
	})
	if cfg.Alerts.SweepEnabled {
		sweeper.Start()
	}

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version)
	pantryHandler := handler.NewPantryHandler(stockService)
	alertHandler := handler.NewAlertHandler(alertService)
	recipeHandler := handler.NewRecipeHandler(recipeService)

	var authHandler *handler.AuthHandler
	if tokenService != nil {
		authHandler = handler.NewAuthHandler(tokenService, userRepo)
	}

	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		TokenService: tokenService,
	})

	// Create router
	r := router.New(router.Config{
		Handler:        healthHandler,
		AuthHandler:    authHandler,
		PantryHandler:  pantryHandler,
		AlertHandler:   alertHandler,
		RecipeHandler:  recipeHandler,
		AuthMiddleware: authMiddleware,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	sweeper.Stop()

	ctx, cancel = context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
