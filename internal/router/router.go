// internal/router/router.go
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FACorreiaa/go-travel-assistant/internal/api/destinations"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/travel"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/weather"
)

// Config contains dependencies needed for the router setup
type Config struct {
	TravelHandler       *travel.Handler
	DestinationsHandler *destinations.Handler
	WeatherHandler      *weather.Handler
	AllowedOrigins      []string
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (like logger, requestID, recoverer) are expected
// to be applied *before* mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Heartbeat/Health check endpoint
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	// Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/travel", func(r chi.Router) {
			r.Post("/", cfg.TravelHandler.PlanTravel)
			r.Post("/confirm-destination", cfg.TravelHandler.ConfirmDestination)
			r.Get("/realtime-info", cfg.TravelHandler.GetRealtimeInfo)

			r.Post("/session", cfg.TravelHandler.CreateSession)
			r.Route("/session/{sessionID}", func(r chi.Router) {
				r.Get("/history", cfg.TravelHandler.GetSessionHistory)
				r.Post("/clear", cfg.TravelHandler.ClearSession)
				r.Delete("/", cfg.TravelHandler.DeleteSession)
			})
		})

		r.Route("/destinations", func(r chi.Router) {
			r.Get("/popular", cfg.DestinationsHandler.GetPopular)
			r.Post("/search", cfg.DestinationsHandler.SearchDestinations)
		})

		// Cache administration for the weather and country-code caches.
		r.Route("/weather", func(r chi.Router) {
			r.Get("/cache/stats", cfg.WeatherHandler.GetCacheStats)
			r.Post("/cache/clear", cfg.WeatherHandler.ClearCache)
			r.Get("/country-codes/stats", cfg.WeatherHandler.GetCountryCodeStats)
			r.Post("/country-codes/clear", cfg.WeatherHandler.ClearCountryCodeCache)
		})
	})

	return r
}
