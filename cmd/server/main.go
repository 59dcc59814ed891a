package main

import (
	"context"   // context package is needed for Redis operations and shutdown
	"errors"    // Error inspection
	"net/http"  // HTTP server
	"os"        // Process signals
	"os/signal" // Signal notification
	"syscall"   // SIGTERM
	"time"      // Shutdown timeout

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library

	"github.com/kingsloob1/snipfair-app-sub000/internal/api"      // HTTP handlers and routes
	"github.com/kingsloob1/snipfair-app-sub000/internal/booking"  // Booking service
	"github.com/kingsloob1/snipfair-app-sub000/internal/config"   // Configuration
	"github.com/kingsloob1/snipfair-app-sub000/internal/events"   // Realtime notifications
	"github.com/kingsloob1/snipfair-app-sub000/internal/gateway"  // Payment gateway
	"github.com/kingsloob1/snipfair-app-sub000/internal/jobs"     // Scheduled settlement
	"github.com/kingsloob1/snipfair-app-sub000/internal/metrics"  // Prometheus collectors
	"github.com/kingsloob1/snipfair-app-sub000/internal/settings" // Platform settings
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	// Connect to the database
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	// Realtime fan-out across instances
	hub := events.NewHub(redisClient)
	go hub.Run(ctx)

	store := settings.NewStore(db, redisClient)
	bookings := booking.NewService(db, redisClient, store, hub)
	gw := gateway.NewService(db, redisClient, gateway.Config{
		MerchantID:  cfg.GatewayMerchantID,
		MerchantKey: cfg.GatewayMerchantKey,
		Passphrase:  cfg.GatewayPassphrase,
		ProcessURL:  cfg.GatewayProcessURL,
		NotifyURL:   cfg.GatewayNotifyURL,
		ReturnURL:   cfg.GatewayReturnURL,
	}, hub)

	// Pouch release and pending expiry
	scheduler, err := jobs.NewScheduler(bookings, cfg.PouchReleaseSpec, cfg.PendingExpirySpec)
	if err != nil {
		logrus.Fatalf("failed to schedule jobs: %v", err)
	}
	scheduler.Start()

	r := api.NewRouter(api.Deps{
		DB:        db,
		Redis:     redisClient,
		JWTSecret: cfg.JWTSecret,
		Settings:  store,
		Booking:   bookings,
		Gateway:   gw,
		Hub:       hub,
	})
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{Addr: ":" + cfg.AppPort, Handler: r}
	go func() {
		logrus.Info("Server running on " + cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("server shutdown: %v", err)
	}
}
