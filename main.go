package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"spendlog/internal/api"
	"spendlog/internal/config"
	"spendlog/internal/database"
	"spendlog/internal/logger"
	"spendlog/internal/services"
	"spendlog/internal/session"
)

func main() {
	// A missing .env file is fine; real env vars still apply.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.AppEnv)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up sessions
	sessionStore := session.NewMemoryStore()
	sessionManager := session.NewManager(sessionStore, cfg.SessionSecret, cfg.SessionTTL)

	janitor, err := session.NewJanitor(sessionStore, "@every 5m")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up session janitor")
	}
	janitor.Run()

	// Set up services
	userService := services.NewUserService(db)
	expenseService := services.NewExpenseService(db)

	// Set up router
	router := api.NewRouter(userService, expenseService, sessionManager, cfg.AppEnv == "production")

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	janitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
