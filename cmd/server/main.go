/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Warp Leave Engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from environment (LEAVE_* variables)
  2. Initialize SQLite store
  3. Wire auth and leave services
  4. Configure HTTP router
  5. Start server with graceful shutdown

CONFIGURATION:
  LEAVE_ADDR        Listen address (default: :8080)
  LEAVE_DB_PATH     SQLite database path (default: leave.db)
                    Use ":memory:" for in-memory database
  LEAVE_JWT_SECRET  HMAC secret for bearer tokens (required)
  See config/config.go for the full list.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/auth"
	"github.com/warp/leave-engine/config"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	// Initialize store
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer db.Close()

	// Wire services
	hours := leave.WorkingHours{
		HalfDay:    cfg.HalfDayHours,
		QuarterDay: cfg.QuarterDayHours,
	}
	leaveSvc := leave.NewService(db, db, hours, log)

	tokens := auth.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	authSvc := auth.NewService(db, leaveSvc, tokens, log)

	// Create router
	router := api.NewRouter(api.RouterOptions{
		Handler: api.NewHandler(authSvc, leaveSvc, log),
		Tokens:  tokens,
		Limiter: api.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.WithField("addr", cfg.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server stopped")
}
