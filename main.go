package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	database "github.com/FACorreiaa/go-travel-assistant/app/db"
	appLogger "github.com/FACorreiaa/go-travel-assistant/app/logger"
	"github.com/FACorreiaa/go-travel-assistant/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-assistant/app/tracer"
	"github.com/FACorreiaa/go-travel-assistant/config"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/country"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/destinations"
	generativeAI "github.com/FACorreiaa/go-travel-assistant/internal/api/generative_ai"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/photos"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/realtime"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/session"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/travel"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/weather"
	"github.com/FACorreiaa/go-travel-assistant/internal/router"
)

func main() {
	// --- Initial Loading ---
	// Use standard log until slog is configured, in case godotenv fails
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	// --- Logger Setup ---
	logger := setupLogger()
	slog.SetDefault(logger) // Set globally after initialization

	// --- Application Context & Shutdown ---
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Observability ---
	tracer.InitTracingAndMetrics()
	metrics.InitAppMetrics()

	// --- Optional Turn Archive (Postgres) ---
	// The in-memory store is authoritative; the archive only persists completed
	// turns. Disabled entirely when postgres is off in config.
	var archive session.Repository
	if cfg.Repositories.Postgres.Enabled {
		dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
		if err != nil {
			logger.Error("Failed to generate database config", slog.Any("error", err))
			os.Exit(1)
		}

		// Run migrations *before* initializing the main pool
		if err = database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
			logger.Error("Failed to run database migrations", slog.Any("error", err))
			os.Exit(1)
		}

		pool, err := database.Init(dbConfig.ConnectionURL, logger)
		if err != nil {
			logger.Error("Failed to initialize database pool", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()

		if !database.WaitForDB(ctx, pool, logger) {
			logger.Error("Database not ready after waiting, exiting.")
			os.Exit(1)
		}
		archive = session.NewPostgresRepository(pool, logger)
	} else {
		logger.Info("Postgres archive disabled, running fully in memory")
	}

	// --- Dependency Injection ---
	aiClient, err := generativeAI.NewAIClient(ctx, os.Getenv("GEMINI_API_KEY"), cfg.Gemini.Model)
	if err != nil {
		logger.Error("Failed to initialize Gemini client", slog.Any("error", err))
		os.Exit(1)
	}

	store := session.NewStore(cfg.Session.MaxMessages, logger)
	countryResolver := country.NewResolver(countryGenerator{aiClient}, logger)
	weatherService := weather.NewService(os.Getenv("OPENWEATHER_API_KEY"), cfg.Weather.BaseURL, cfg.Weather.CacheTTL, logger)
	photoService := photos.NewService(os.Getenv("UNSPLASH_ACCESS_KEY"), cfg.Photos.BaseURL, logger)
	realtimeService := realtime.NewService(cfg.Realtime.RatesURL, countryResolver, logger)

	travelService := travel.NewServiceImpl(
		store, aiClient, weatherService, photoService, realtimeService,
		archive, metrics.Get(), logger,
	)
	travelHandler := travel.NewTravelHandler(travelService, store, logger)

	destinationsService := destinations.NewServiceImpl(aiClient, countryResolver, logger)
	destinationsHandler := destinations.NewDestinationsHandler(destinationsService, logger)
	weatherHandler := weather.NewWeatherHandler(weatherService, countryResolver, logger)

	// --- Router Setup ---
	mainRouter := router.SetupRouter(&router.Config{
		TravelHandler:       travelHandler,
		DestinationsHandler: destinationsHandler,
		WeatherHandler:      weatherHandler,
		AllowedOrigins:      cfg.Server.AllowedOrigins,
	})

	mux := chi.NewMux()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(appLogger.StructuredLogger(logger)) // slog request logging
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.StripSlashes)
	mux.Use(middleware.Timeout(60 * time.Second))
	mux.Use(middleware.Compress(5, "application/json")) // Compress JSON responses
	mux.Mount("/", mainRouter)

	// --- HTTP Server Setup ---
	serverAddress := cfg.Server.HTTPPort
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM answers can take a while
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError), // Pipe server errors to slog
	}

	// --- Start Server Goroutine ---
	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel() // Trigger shutdown if server fails unexpectedly
		}
	}()

	// --- Wait for Shutdown Signal ---
	<-ctx.Done() // Block until context is cancelled (Ctrl+C, SIGTERM)

	// --- Graceful Shutdown ---
	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}

	logger.Info("Application shut down complete.")
}

// countryGenerator adapts the AI client to the single-method surface the
// country resolver needs.
type countryGenerator struct {
	client *generativeAI.AIClient
}

func (g countryGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	return g.client.GenerateContent(ctx, prompt, nil)
}

// setupLogger configures and returns the application logger.
func setupLogger() *slog.Logger {
	var logger *slog.Logger
	env := os.Getenv("APP_ENV")

	if env == "development" || env == "" { // Default to development if not set
		// Colored logs for development
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug, // More verbose in dev
			TimeFormat: time.Kitchen,
			AddSource:  true, // Show file:line
		}
		logger = slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)") // Use standard log before slog default is set
	} else {
		// JSON logs for production or other environments
		jsonOpts := &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: false, // Don't add source in prod unless needed for specific errors
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
		log.Println("Initialized production logger (JSON)")
	}
	return logger
}
