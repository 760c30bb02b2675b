// Package photos searches Unsplash for destination imagery. Lookups are
// best-effort decoration on a travel answer, so every failure degrades to an
// empty result rather than failing the turn.
package photos

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

const (
	defaultBaseURL = "https://api.unsplash.com/search/photos"
	// DefaultCount is the number of photos attached to a structured answer.
	DefaultCount = 3
)

type unsplashResponse struct {
	Results []struct {
		ID          string `json:"id"`
		Description string `json:"description"`
		AltText     string `json:"alt_description"`
		URLs        struct {
			Small   string `json:"small"`
			Regular string `json:"regular"`
		} `json:"urls"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
		User struct {
			Name  string `json:"name"`
			Links struct {
				HTML string `json:"html"`
			} `json:"links"`
		} `json:"user"`
	} `json:"results"`
}

// Service searches photos for a free-text destination query.
type Service interface {
	Search(ctx context.Context, query string, count int) ([]types.Photo, error)
	IsAvailable() bool
}

// ServiceImpl talks to the Unsplash search API. Like the weather client it
// latches itself unavailable on auth or quota failures.
type ServiceImpl struct {
	accessKey   string
	baseURL     string
	client      *http.Client
	unavailable atomic.Bool
	logger      *slog.Logger
}

var _ Service = (*ServiceImpl)(nil)

func NewService(accessKey, baseURL string, logger *slog.Logger) *ServiceImpl {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &ServiceImpl{
		accessKey: strings.TrimSpace(accessKey),
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
	}
}

func (s *ServiceImpl) IsAvailable() bool {
	return s.accessKey != "" && !s.unavailable.Load()
}

// Search returns up to count landscape photos matching the query. count <= 0
// falls back to DefaultCount.
func (s *ServiceImpl) Search(ctx context.Context, query string, count int) ([]types.Photo, error) {
	if s.accessKey == "" {
		return nil, fmt.Errorf("unsplash access key not configured")
	}
	if s.unavailable.Load() {
		return nil, fmt.Errorf("unsplash API marked unavailable")
	}
	if count <= 0 {
		count = DefaultCount
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(count))
	params.Set("orientation", "landscape")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build photo request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+s.accessKey)

	resp, err := s.client.Do(req)
	if err != nil {
		s.unavailable.Store(true)
		return nil, fmt.Errorf("photo search for %q: %w", query, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		s.unavailable.Store(true)
		return nil, fmt.Errorf("unsplash rejected the request (status %d), service latched off", resp.StatusCode)
	default:
		return nil, fmt.Errorf("unsplash returned status %d for %q", resp.StatusCode, query)
	}

	var payload unsplashResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode photo response: %w", err)
	}

	photos := make([]types.Photo, 0, len(payload.Results))
	for _, r := range payload.Results {
		description := r.Description
		if description == "" {
			description = r.AltText
		}
		photos = append(photos, types.Photo{
			ID:          r.ID,
			Description: description,
			URLSmall:    r.URLs.Small,
			URLRegular:  r.URLs.Regular,
			Author:      r.User.Name,
			AuthorLink:  r.User.Links.HTML,
			Link:        r.Links.HTML,
		})
	}
	return photos, nil
}
