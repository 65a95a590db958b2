package main

import (
	"context"   // Context for startup and shutdown
	"errors"    // Error inspection
	"net/http"  // HTTP server
	"os"        // Signals
	"os/signal" // Signal handling
	"syscall"   // SIGTERM
	"time"      // Timeouts

	"shop_system/internal/api"     // HTTP handlers and router
	"shop_system/internal/config"  // Custom package for configuration
	"shop_system/internal/db"      // Database open, migrate, seed
	"shop_system/internal/metrics" // Prometheus collectors
	"shop_system/internal/session" // Redis session store

	"github.com/alicebob/miniredis/v2" // Embedded Redis for development
	"github.com/gin-gonic/gin"         // Gin web framework
	"github.com/gorilla/securecookie"  // Random signing keys
	"github.com/redis/go-redis/v9"     // Redis client
	"github.com/sirupsen/logrus"       // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode) // Set Mode to Release if in production
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to the database, migrate and seed the administrator
	conn, err := db.Open(cfg.DBDriver, cfg.DSN(), !cfg.IsProd)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(conn); err != nil {
		logrus.Fatalf("failed to migrate DB: %v", err)
	}
	if err := db.SeedAdmin(ctx, conn); err != nil {
		logrus.Fatalf("failed to seed admin: %v", err)
	}

	// Setup Redis client
	redisClient, closeRedis := connectRedis(ctx, cfg)
	defer closeRedis()

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = securecookie.GenerateRandomKey(32)
		logrus.Warn("SESSION_SECRET not set; sessions will not survive a restart")
	}
	store := session.NewRedisStore(redisClient, cfg.SessionIdleMinutes*60, secret)
	if cfg.IsProd {
		opts := store.DefaultOptions()
		opts.Secure = true
		store.Options(opts)
	}

	router, err := api.NewRouter(api.Deps{
		DB:             conn,
		Redis:          redisClient,
		Sessions:       store,
		Metrics:        metrics.New(),
		CacheTTL:       time.Duration(cfg.CacheTTLSeconds) * time.Second,
		TrustedProxies: []string{"127.0.0.1"},
	})
	if err != nil {
		logrus.Fatalf("failed to build router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.WithField("port", cfg.AppPort).Info("Server running") // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
	if sqlDB, err := conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// connectRedis dials REDIS_ADDR, or starts an embedded miniredis when it is
// empty. The returned func releases both.
func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, func()) {
	addr := cfg.RedisAddr
	var embedded *miniredis.Miniredis
	if addr == "" {
		var err error
		embedded, err = miniredis.Run()
		if err != nil {
			logrus.Fatalf("failed to start embedded Redis: %v", err)
		}
		addr = embedded.Addr()
		go advanceClock(ctx, embedded)
		logrus.WithField("addr", addr).Warn("REDIS_ADDR not set; using embedded Redis")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,          // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	// Test Redis connection
	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}
	return client, func() {
		_ = client.Close()
		if embedded != nil {
			embedded.Close()
		}
	}
}

// advanceClock expires keys in the embedded Redis, whose TTLs only move when
// told to.
func advanceClock(ctx context.Context, m *miniredis.Miniredis) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.FastForward(time.Second)
		}
	}
}
