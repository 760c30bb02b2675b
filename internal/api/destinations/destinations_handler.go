package destinations

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-assistant/internal/api"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/security"
	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

type Handler struct {
	logger  *slog.Logger
	service Service
}

func NewDestinationsHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// GetPopular handles GET /destinations/popular.
func (h *Handler) GetPopular(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DestinationsHandler").Start(r.Context(), "GetPopular",
		trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	dests, err := h.service.Popular(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Popular destinations failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Popular destinations failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "No se pudieron obtener los destinos populares")
		return
	}

	span.SetStatus(codes.Ok, "Popular destinations returned")
	api.WriteJSONResponse(w, r, http.StatusOK, types.DestinationsResponse{Destinations: dests})
}

// SearchDestinations handles POST /destinations/search.
func (h *Handler) SearchDestinations(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DestinationsHandler").Start(r.Context(), "SearchDestinations",
		trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	l := h.logger.With(slog.String("method", "SearchDestinations"))

	var query types.DestinationSearchQuery
	if err := api.DecodeJSONBody(w, r, &query); err != nil {
		l.WarnContext(ctx, "Invalid request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	query.Query = security.SanitizeInput(query.Query, 200)
	dests, err := h.service.Search(ctx, query.Query)
	if err != nil {
		l.ErrorContext(ctx, "Destination search failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Destination search failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "No se pudo buscar destinos")
		return
	}

	span.SetStatus(codes.Ok, "Destination search returned")
	api.WriteJSONResponse(w, r, http.StatusOK, types.DestinationsResponse{Destinations: dests})
}
