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

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hydroman/server/internal/auth"
	"github.com/hydroman/server/internal/config"
	"github.com/hydroman/server/internal/db"
	httphandler "github.com/hydroman/server/internal/http"
	"github.com/hydroman/server/internal/http/handlers"
	"github.com/hydroman/server/internal/otp"
	"github.com/hydroman/server/internal/repo"
	syncsvc "github.com/hydroman/server/internal/sync"

	_ "github.com/lib/pq"
)

func main() {
	_ = godotenv.Load(".env")

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer database.Close()

	if err := runMigrations(database); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Repositories
	userRepo := repo.NewUserRepo(database)
	otpRepo := repo.NewOtpRepo(database)
	waterLogRepo := repo.NewWaterLogRepo(database)
	reminderRepo := repo.NewReminderRepo(database)

	// Services
	provider := otp.NewMsg91Widget(otp.Msg91Config{
		AuthKey:  cfg.Msg91AuthKey,
		WidgetID: cfg.Msg91WidgetID,
		BaseURL:  cfg.Msg91BaseURL,
		Timeout:  cfg.Msg91Timeout,
	})
	otpStore := otp.NewStore(otpRepo, provider)
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry)
	authService := auth.NewService(otpStore, userRepo, jwtService)
	syncService := syncsvc.NewService(waterLogRepo, reminderRepo)

	router := httphandler.NewRouter(httphandler.Handlers{
		Auth:      handlers.NewAuthHandler(authService, userRepo),
		Profile:   handlers.NewProfileHandler(userRepo),
		WaterLogs: handlers.NewWaterLogHandler(syncService),
		Reminders: handlers.NewReminderHandler(syncService),
	}, jwtService)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

// runMigrations runs database migrations using goose
func runMigrations(database *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	migrationDir := "internal/db/migrations"
	if info, err := os.Stat(migrationDir); err != nil || !info.IsDir() {
		return fmt.Errorf("migrations directory not found (run from the module root)")
	}

	if err := goose.Up(database, migrationDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
