package weather

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-assistant/internal/api"
)

// CountryCodeCache is the admin surface of the country-code resolver.
type CountryCodeCache interface {
	CacheEntries() int
	ClearCache()
}

// Handler exposes the cache-admin endpoints for the weather and country-code
// caches.
type Handler struct {
	logger    *slog.Logger
	service   Service
	countries CountryCodeCache
}

func NewWeatherHandler(service Service, countries CountryCodeCache, logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		countries: countries,
	}
}

// GetCacheStats handles GET /weather/cache/stats.
func (h *Handler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	_, span := otel.Tracer("WeatherHandler").Start(r.Context(), "GetCacheStats",
		trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]any{
		"cache_stats": h.service.CacheStats(),
	})
}

// ClearCache handles POST /weather/cache/clear.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("WeatherHandler").Start(r.Context(), "ClearCache",
		trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	h.service.ClearCache()
	h.logger.InfoContext(ctx, "Weather cache cleared")
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]any{
		"message": "Cache limpiado exitosamente",
		"cleared": true,
	})
}

// GetCountryCodeStats handles GET /weather/country-codes/stats.
func (h *Handler) GetCountryCodeStats(w http.ResponseWriter, r *http.Request) {
	_, span := otel.Tracer("WeatherHandler").Start(r.Context(), "GetCountryCodeStats",
		trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]any{
		"cache_stats": map[string]any{"entries": h.countries.CacheEntries()},
	})
}

// ClearCountryCodeCache handles POST /weather/country-codes/clear.
func (h *Handler) ClearCountryCodeCache(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("WeatherHandler").Start(r.Context(), "ClearCountryCodeCache",
		trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	h.countries.ClearCache()
	h.logger.InfoContext(ctx, "Country-code cache cleared")
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]any{
		"message": "Cache de códigos de países limpiado exitosamente",
		"cleared": true,
	})
}
