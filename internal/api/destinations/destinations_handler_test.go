package destinations

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

type stubService struct {
	popular []string
	search  []string
	query   string
}

func (s *stubService) Popular(context.Context) ([]string, error) {
	return s.popular, nil
}

func (s *stubService) Search(_ context.Context, query string) ([]string, error) {
	s.query = query
	return s.search, nil
}

func TestGetPopularHandler(t *testing.T) {
	svc := &stubService{popular: []string{"París, Francia", "Tokio, Japón"}}
	h := NewDestinationsHandler(svc, slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/destinations/popular", nil)
	rec := httptest.NewRecorder()
	h.GetPopular(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp types.DestinationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, svc.popular, resp.Destinations)
}

func TestSearchDestinationsHandler(t *testing.T) {
	svc := &stubService{search: []string{"París, Francia"}}
	h := NewDestinationsHandler(svc, slog.Default())

	body := strings.NewReader(`{"query": "par"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/destinations/search", body)
	rec := httptest.NewRecorder()
	h.SearchDestinations(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "par", svc.query)
	var resp types.DestinationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, svc.search, resp.Destinations)
}

func TestSearchDestinationsHandlerRejectsBadBody(t *testing.T) {
	h := NewDestinationsHandler(&stubService{}, slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/destinations/search", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.SearchDestinations(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
