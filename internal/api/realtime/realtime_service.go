// Package realtime assembles live facts about a destination: exchange rate
// against USD and the time difference with the traveller's reference clock.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-travel-assistant/internal/api/destination"
	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

const defaultRatesURL = "https://api.exchangerate-api.com/v4/latest/USD"

// countryCurrency maps ISO country codes to their ISO 4217 currency code.
var countryCurrency = map[string]string{
	"ES": "EUR", "FR": "EUR", "IT": "EUR", "DE": "EUR", "AT": "EUR",
	"PT": "EUR", "GR": "EUR", "NL": "EUR", "IE": "EUR", "BE": "EUR",
	"FI": "EUR", "GB": "GBP", "US": "USD", "JP": "JPY", "ID": "IDR",
	"TH": "THB", "AE": "AED", "AU": "AUD", "CZ": "CZK", "TR": "TRY",
	"RU": "RUB", "AR": "ARS", "BR": "BRL", "MX": "MXN", "CA": "CAD",
	"CH": "CHF", "CN": "CNY", "IN": "INR", "KR": "KRW", "HR": "EUR",
	"PL": "PLN", "SE": "SEK", "NO": "NOK", "DK": "DKK", "HU": "HUF",
	"EG": "EGP", "MA": "MAD", "ZA": "ZAR", "SG": "SGD", "VN": "VND",
	"PE": "PEN", "CL": "CLP", "CO": "COP", "UY": "UYU",
}

// countryTimezone maps ISO country codes to a representative IANA zone. Big
// multi-zone countries get the zone of their main tourist gateway.
var countryTimezone = map[string]string{
	"ES": "Europe/Madrid", "FR": "Europe/Paris", "IT": "Europe/Rome",
	"DE": "Europe/Berlin", "AT": "Europe/Vienna", "PT": "Europe/Lisbon",
	"GR": "Europe/Athens", "NL": "Europe/Amsterdam", "GB": "Europe/London",
	"US": "America/New_York", "JP": "Asia/Tokyo", "ID": "Asia/Makassar",
	"TH": "Asia/Bangkok", "AE": "Asia/Dubai", "AU": "Australia/Sydney",
	"CZ": "Europe/Prague", "TR": "Europe/Istanbul", "RU": "Europe/Moscow",
	"AR": "America/Argentina/Buenos_Aires", "BR": "America/Sao_Paulo",
	"MX": "America/Mexico_City", "CA": "America/Toronto", "CH": "Europe/Zurich",
	"CN": "Asia/Shanghai", "IN": "Asia/Kolkata", "KR": "Asia/Seoul",
	"HR": "Europe/Zagreb", "PL": "Europe/Warsaw", "SE": "Europe/Stockholm",
	"NO": "Europe/Oslo", "DK": "Europe/Copenhagen", "HU": "Europe/Budapest",
	"EG": "Africa/Cairo", "MA": "Africa/Casablanca", "ZA": "Africa/Johannesburg",
	"SG": "Asia/Singapore", "VN": "Asia/Ho_Chi_Minh", "PE": "America/Lima",
	"CL": "America/Santiago", "CO": "America/Bogota", "UY": "America/Montevideo",
}

type ratesResponse struct {
	Base        string             `json:"base"`
	Date        string             `json:"date"`
	Rates       map[string]float64 `json:"rates"`
	TimeLastUTC string             `json:"time_last_updated_utc,omitempty"`
}

// CountryResolver turns a country name into an ISO code. Satisfied by the
// country package's resolver.
type CountryResolver interface {
	Resolve(ctx context.Context, countryName string) (string, bool)
}

// Service produces the realtime block for a destination.
type Service interface {
	GetRealtimeInfo(ctx context.Context, dest string) (*types.RealtimeInfo, error)
}

// ServiceImpl fetches the USD rate table (cached for an hour) and computes
// time differences from the zone database.
type ServiceImpl struct {
	ratesURL  string
	client    *http.Client
	cache     *cache.Cache
	countries CountryResolver
	logger    *slog.Logger
	now       func() time.Time
}

var _ Service = (*ServiceImpl)(nil)

// NewService builds the realtime client. countries may be nil, restricting
// country resolution to the static name table.
func NewService(ratesURL string, countries CountryResolver, logger *slog.Logger) *ServiceImpl {
	if ratesURL == "" {
		ratesURL = defaultRatesURL
	}
	return &ServiceImpl{
		ratesURL:  ratesURL,
		client:    &http.Client{Timeout: 5 * time.Second},
		cache:     cache.New(time.Hour, 10*time.Minute),
		countries: countries,
		logger:    logger,
		now:       time.Now,
	}
}

// GetRealtimeInfo resolves the destination's country and attaches whatever
// facts could be computed. Partial results are normal: a destination with no
// known currency still gets its time difference, and vice versa.
func (s *ServiceImpl) GetRealtimeInfo(ctx context.Context, dest string) (*types.RealtimeInfo, error) {
	city, countryName := destination.Split(dest)
	if city == "" {
		return nil, fmt.Errorf("empty destination")
	}

	info := &types.RealtimeInfo{Destination: dest, City: city}

	code, ok := destination.CountryCode(countryName)
	if !ok && s.countries != nil && countryName != "" {
		code, ok = s.countries.Resolve(ctx, countryName)
	}
	if !ok {
		return info, nil
	}
	info.CountryCode = code

	if rate, err := s.exchangeRate(ctx, code); err != nil {
		s.logger.WarnContext(ctx, "Exchange rate lookup failed",
			slog.String("country", code), slog.Any("error", err))
	} else {
		info.ExchangeRate = rate
	}

	if diff, err := s.timeDifference(code); err != nil {
		s.logger.WarnContext(ctx, "Time difference lookup failed",
			slog.String("country", code), slog.Any("error", err))
	} else {
		info.TimeDifference = diff
	}

	return info, nil
}

func (s *ServiceImpl) exchangeRate(ctx context.Context, countryCode string) (*types.ExchangeRate, error) {
	currency, ok := countryCurrency[countryCode]
	if !ok {
		return nil, fmt.Errorf("no currency mapping for country %s", countryCode)
	}
	if currency == "USD" {
		return &types.ExchangeRate{CurrencyCode: "USD", USDToDest: 1, DestToUSD: 1}, nil
	}

	table, err := s.ratesTable(ctx)
	if err != nil {
		return nil, err
	}
	rate, ok := table.Rates[currency]
	if !ok || rate == 0 {
		return nil, fmt.Errorf("currency %s missing from rate table", currency)
	}
	return &types.ExchangeRate{
		CurrencyCode: currency,
		USDToDest:    rate,
		DestToUSD:    math.Round(1/rate*10000) / 10000,
		LastUpdated:  table.Date,
	}, nil
}

// ratesTable fetches the full USD table once per hour; every currency shares
// the single cache entry.
func (s *ServiceImpl) ratesTable(ctx context.Context) (*ratesResponse, error) {
	const key = "usd-rates"
	if cached, ok := s.cache.Get(key); ok {
		table := cached.(ratesResponse)
		return &table, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.ratesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build rates request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate API returned status %d", resp.StatusCode)
	}

	var table ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&table); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	if len(table.Rates) == 0 {
		return nil, fmt.Errorf("rate API returned an empty table")
	}
	s.cache.SetDefault(key, table)
	return &table, nil
}

func (s *ServiceImpl) timeDifference(countryCode string) (*types.TimeDifference, error) {
	zoneName, ok := countryTimezone[countryCode]
	if !ok {
		return nil, fmt.Errorf("no timezone mapping for country %s", countryCode)
	}
	loc, err := time.LoadLocation(zoneName)
	if err != nil {
		return nil, fmt.Errorf("load zone %s: %w", zoneName, err)
	}

	now := s.now()
	destTime := now.In(loc)
	utcTime := now.UTC()

	_, destOffset := destTime.Zone()
	diffHours := float64(destOffset) / 3600

	return &types.TimeDifference{
		Timezone:         zoneName,
		DestinationTime:  destTime.Format("15:04"),
		LocalTime:        utcTime.Format("15:04"),
		DifferenceHours:  diffHours,
		DifferenceString: formatDifference(diffHours),
	}, nil
}

func formatDifference(hours float64) string {
	switch {
	case hours == 0:
		return "Sin diferencia"
	case hours > 0:
		return fmt.Sprintf("+%sh", trimHours(hours))
	default:
		return fmt.Sprintf("-%sh", trimHours(-hours))
	}
}

// trimHours renders 5.5 as "5.5" and 2.0 as "2".
func trimHours(h float64) string {
	s := fmt.Sprintf("%.1f", h)
	return strings.TrimSuffix(s, ".0")
}
