package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// openWeatherResponse mirrors the fields we consume from the API payload.
type openWeatherResponse struct {
	Name    string `json:"name"`
	Weather []struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
	Visibility int `json:"visibility"`
}

// ServiceImpl fetches current weather from OpenWeatherMap with a short-lived
// cache. A failed key or exhausted quota latches the service unavailable for
// the rest of the process lifetime: no retries, by design.
type ServiceImpl struct {
	apiKey      string
	baseURL     string
	client      *http.Client
	cache       *cache.Cache
	unavailable atomic.Bool
	logger      *slog.Logger
}

var _ Service = (*ServiceImpl)(nil)

// Service is the weather lookup contract consumed by the turn orchestrator
// and the cache-admin endpoints.
type Service interface {
	GetWeather(ctx context.Context, city, countryCode string) (*types.WeatherSnapshot, error)
	FormatMessage(snapshot *types.WeatherSnapshot) string
	IsAvailable() bool
	CacheStats() CacheStats
	ClearCache()
}

// CacheStats summarizes the weather cache for the admin endpoint.
type CacheStats struct {
	Entries      int  `json:"entries"`
	APIAvailable bool `json:"api_available"`
}

// NewService builds the OpenWeather client. cacheTTL <= 0 defaults to 30 minutes.
func NewService(apiKey, baseURL string, cacheTTL time.Duration, logger *slog.Logger) *ServiceImpl {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Minute
	}
	return &ServiceImpl{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache.New(cacheTTL, 10*time.Minute),
		logger:  logger,
	}
}

// IsAvailable reports whether the service has a key and has not been latched off.
func (s *ServiceImpl) IsAvailable() bool {
	return s.apiKey != "" && !s.unavailable.Load()
}

// CacheStats reports the current cache size and service availability.
func (s *ServiceImpl) CacheStats() CacheStats {
	return CacheStats{
		Entries:      s.cache.ItemCount(),
		APIAvailable: s.IsAvailable(),
	}
}

// ClearCache drops every cached snapshot. The unavailable latch is not reset.
func (s *ServiceImpl) ClearCache() {
	s.cache.Flush()
}

// GetWeather returns the current weather for a city, serving from cache when
// fresh. Unavailability and lookup misses come back as errors the caller is
// expected to degrade on, never to retry.
func (s *ServiceImpl) GetWeather(ctx context.Context, city, countryCode string) (*types.WeatherSnapshot, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("openweather API key not configured")
	}
	if s.unavailable.Load() {
		return nil, fmt.Errorf("openweather API marked unavailable")
	}

	query := city
	if countryCode != "" {
		query = city + "," + countryCode
	}
	cacheKey := strings.ToLower(query)
	if cached, ok := s.cache.Get(cacheKey); ok {
		snapshot := cached.(types.WeatherSnapshot)
		return &snapshot, nil
	}

	snapshot, err := s.fetch(ctx, query)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(cacheKey, *snapshot)
	return snapshot, nil
}

func (s *ServiceImpl) fetch(ctx context.Context, query string) (*types.WeatherSnapshot, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("appid", s.apiKey)
	params.Set("units", "metric")
	params.Set("lang", "es")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.unavailable.Store(true)
		return nil, fmt.Errorf("weather request for %q: %w", query, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusUnauthorized, http.StatusTooManyRequests:
		s.unavailable.Store(true)
		return nil, fmt.Errorf("openweather rejected the request (status %d), service latched off", resp.StatusCode)
	case http.StatusNotFound:
		// City not found is not a service outage.
		return nil, fmt.Errorf("city not found: %s", query)
	default:
		return nil, fmt.Errorf("openweather returned status %d for %q", resp.StatusCode, query)
	}

	var payload openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}

	snapshot := &types.WeatherSnapshot{
		City:        payload.Name,
		Country:     payload.Sys.Country,
		Temperature: round1(payload.Main.Temp),
		FeelsLike:   round1(payload.Main.FeelsLike),
		Humidity:    payload.Main.Humidity,
		// API reports m/s; the UI speaks km/h.
		WindSpeedKmh:  round1(payload.Wind.Speed * 3.6),
		WindDirection: payload.Wind.Deg,
		Pressure:      payload.Main.Pressure,
	}
	if payload.Visibility > 0 {
		snapshot.VisibilityKm = round1(float64(payload.Visibility) / 1000)
	}
	if len(payload.Weather) > 0 {
		snapshot.Description = capitalize(payload.Weather[0].Description)
		snapshot.Icon = payload.Weather[0].Icon
	}
	return snapshot, nil
}

// FormatMessage renders the snapshot as the user-facing Spanish summary block.
func (s *ServiceImpl) FormatMessage(snapshot *types.WeatherSnapshot) string {
	if snapshot == nil {
		return ""
	}
	location := snapshot.City
	if snapshot.Country != "" {
		location += ", " + snapshot.Country
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🌤️ **Clima Actual en %s:**\n", location)
	fmt.Fprintf(&b, "• T: %.1f°C / ST: %.1f°C\n", snapshot.Temperature, snapshot.FeelsLike)
	fmt.Fprintf(&b, "• Condiciones: %s\n", snapshot.Description)
	fmt.Fprintf(&b, "• Humedad: %d%%\n", snapshot.Humidity)
	if snapshot.WindSpeedKmh > 0 {
		fmt.Fprintf(&b, "• Viento: %.1f km/h\n", snapshot.WindSpeedKmh)
	}
	return b.String()
}

func round1(v float64) float64 {
	if v < 0 {
		return float64(int(v*10-0.5)) / 10
	}
	return float64(int(v*10+0.5)) / 10
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}
