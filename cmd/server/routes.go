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
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/Vandana-1812/tracechain-backend/config"
	"github.com/Vandana-1812/tracechain-backend/internal/database"
	"github.com/Vandana-1812/tracechain-backend/internal/gateway/handlers"
	"github.com/Vandana-1812/tracechain-backend/internal/gateway/middleware"
	"github.com/Vandana-1812/tracechain-backend/internal/ledger"
	"github.com/Vandana-1812/tracechain-backend/internal/qrcode"
)

func main() {
	godotenv.Load()
	cfg := config.LoadConfig()

	ctx := context.Background()

	store, cleanup := newStore(ctx, cfg)
	defer cleanup()

	var cache *redis.Client
	if cfg.Redis.Enabled {
		client, err := config.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Printf("Warning: Redis unavailable, running uncached: %v", err)
		} else {
			log.Printf("Redis connected: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
			cache = client
			defer cache.Close()
		}
	}

	productLedger := ledger.New(store, qrcode.NewGenerator(), ledger.Options{
		BaseURL:      cfg.Server.BaseURL,
		Cache:        cache,
		StoreTimeout: time.Duration(cfg.Store.TimeoutSeconds) * time.Second,
	})

	productHandler := handlers.NewProductHTTPHandler(productLedger)
	analyticsHandler := handlers.NewAnalyticsHTTPHandler(productLedger)
	healthHandler := handlers.NewHealthHTTPHandler(productLedger)

	r := gin.Default()

	r.Use(middleware.CORS(cfg.CORS.Origins))
	r.Use(middleware.RateLimit(cfg.RateLimit))

	r.GET("/", healthHandler.Root)

	api := r.Group("/api")
	{
		api.GET("/message", healthHandler.Message)
		api.GET("/health", healthHandler.Health)
		api.GET("/health/database", healthHandler.DatabaseHealth)

		products := api.Group("/products")
		{
			products.POST("/register", productHandler.RegisterProduct)
			products.GET("", productHandler.ListProducts)
			products.GET("/:productId", productHandler.GetProduct)
			products.PUT("/:productId/update", productHandler.UpdateProduct)
			products.PATCH("/:productId", productHandler.UpdateProduct)
		}

		analytics := api.Group("/analytics")
		{
			analytics.GET("/dashboard", analyticsHandler.Dashboard)
			analytics.GET("/supply-chain", analyticsHandler.SupplyChain)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Printf("TraceChain backend listening at http://localhost:%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

// newStore builds the persistence backend from config. The memory driver is
// an explicit choice for sandboxing and tests; storage failures on the mongo
// driver are fatal at boot rather than silently degraded.
func newStore(ctx context.Context, cfg config.Config) (ledger.Store, func()) {
	switch cfg.Store.Driver {
	case "memory":
		log.Println("Using in-memory store (no persistence)")
		return ledger.NewMemStore(), func() {}

	case "mongo":
		client, err := database.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}

		store := ledger.NewMongoStore(client.Database(cfg.Mongo.DBName))

		indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := store.EnsureIndexes(indexCtx); err != nil {
			log.Fatalf("Failed to ensure indexes: %v", err)
		}

		log.Printf("Connected to MongoDB, database %q", cfg.Mongo.DBName)
		return store, func() { database.Disconnect(client) }

	default:
		log.Fatalf("Unknown store driver %q (want mongo or memory)", cfg.Store.Driver)
		return nil, nil
	}
}
