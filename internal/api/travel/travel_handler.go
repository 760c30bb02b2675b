package travel

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-travel-assistant/internal/api"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/security"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/session"
	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

type Handler struct {
	logger  *slog.Logger
	service Service
	store   *session.Store
}

func NewTravelHandler(service Service, store *session.Store, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		store:   store,
	}
}

// PlanTravel handles POST /travel - one conversation turn.
func (h *Handler) PlanTravel(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelHandler").Start(r.Context(), "PlanTravel")
	defer span.End()

	l := h.logger.With(slog.String("method", "PlanTravel"))

	var query types.TravelQuery
	if err := api.DecodeJSONBody(w, r, &query); err != nil {
		l.WarnContext(ctx, "Invalid request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	query.Question = security.SanitizeInput(query.Question, security.MaxInputLength)
	if query.Question == "" {
		l.WarnContext(ctx, "Empty question")
		span.SetStatus(codes.Error, "Empty question")
		api.ErrorResponse(w, r, http.StatusBadRequest, "La pregunta no puede estar vacía")
		return
	}
	if injected, reason := security.DetectPromptInjection(query.Question); injected {
		l.WarnContext(ctx, "Prompt injection attempt blocked", slog.String("reason", reason))
		span.SetStatus(codes.Error, "Prompt injection blocked")
		api.ErrorResponse(w, r, http.StatusBadRequest, "La pregunta contiene contenido no permitido")
		return
	}
	if query.Destination != nil {
		sanitized := security.SanitizeInput(*query.Destination, 200)
		query.Destination = &sanitized
	}

	resp, err := h.service.ProcessTurn(ctx, query)
	if err != nil {
		l.ErrorContext(ctx, "Turn processing failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Turn processing failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "No se pudo procesar la solicitud")
		return
	}

	l.InfoContext(ctx, "Turn completed",
		slog.String("session_id", resp.SessionID.String()),
		slog.String("decision", string(resp.Decision)),
		slog.String("format", string(resp.ResponseFormat)))
	span.SetStatus(codes.Ok, "Turn completed")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// ConfirmDestination handles POST /travel/confirm-destination.
func (h *Handler) ConfirmDestination(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelHandler").Start(r.Context(), "ConfirmDestination")
	defer span.End()

	l := h.logger.With(slog.String("method", "ConfirmDestination"))

	var req types.DestinationConfirmation
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.SessionID == uuid.Nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "session_id es obligatorio")
		return
	}
	req.NewDestination = security.SanitizeInput(req.NewDestination, 200)
	req.OriginalQuestion = security.SanitizeInput(req.OriginalQuestion, security.MaxInputLength)
	if req.Confirmed && req.NewDestination == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "new_destination es obligatorio al confirmar")
		return
	}

	resp, err := h.service.ConfirmDestination(ctx, req)
	if err != nil {
		l.ErrorContext(ctx, "Confirmation failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Confirmation failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "No se pudo procesar la confirmación")
		return
	}

	span.SetStatus(codes.Ok, "Confirmation processed")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// CreateSession handles POST /travel/session - explicit session creation so a
// frontend can hold an ID before the first turn.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelHandler").Start(r.Context(), "CreateSession")
	defer span.End()

	sessionID := h.store.CreateSession()
	h.logger.InfoContext(ctx, "Session created", slog.String("session_id", sessionID.String()))
	api.WriteJSONResponse(w, r, http.StatusCreated, map[string]any{
		"session_id": sessionID,
		"message":    "Sesión de conversación creada exitosamente",
	})
}

// GetSessionHistory handles GET /travel/session/{sessionID}/history.
func (h *Handler) GetSessionHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelHandler").Start(r.Context(), "GetSessionHistory")
	defer span.End()

	sessionID, ok := h.sessionIDFromURL(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Invalid session ID")
		return
	}
	if !h.store.Exists(sessionID) {
		api.ErrorResponse(w, r, http.StatusNotFound, "Sesión no encontrada")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	history := h.store.GetHistory(sessionID, limit)
	h.logger.InfoContext(ctx, "Session history returned",
		slog.String("session_id", sessionID.String()), slog.Int("messages", len(history)))
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   history,
		"stats":      h.store.Stats(sessionID),
	})
}

// ClearSession handles POST /travel/session/{sessionID}/clear - empties the
// history but keeps destination and confirmation state.
func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelHandler").Start(r.Context(), "ClearSession")
	defer span.End()

	sessionID, ok := h.sessionIDFromURL(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Invalid session ID")
		return
	}
	if !h.store.Exists(sessionID) {
		api.ErrorResponse(w, r, http.StatusNotFound, "Sesión no encontrada")
		return
	}

	h.store.ClearMessages(sessionID)
	h.logger.InfoContext(ctx, "Session history cleared", slog.String("session_id", sessionID.String()))
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]any{
		"status":     "cleared",
		"session_id": sessionID,
	})
}

// DeleteSession handles DELETE /travel/session/{sessionID}.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelHandler").Start(r.Context(), "DeleteSession")
	defer span.End()

	sessionID, ok := h.sessionIDFromURL(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Invalid session ID")
		return
	}
	if !h.store.Exists(sessionID) {
		api.ErrorResponse(w, r, http.StatusNotFound, "Sesión no encontrada")
		return
	}

	h.store.DeleteSession(sessionID)
	h.logger.InfoContext(ctx, "Session deleted", slog.String("session_id", sessionID.String()))
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

// GetRealtimeInfo handles GET /travel/realtime-info?destination=Ciudad,País.
func (h *Handler) GetRealtimeInfo(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TravelHandler").Start(r.Context(), "GetRealtimeInfo")
	defer span.End()

	dest := security.SanitizeInput(r.URL.Query().Get("destination"), 200)
	if dest == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "El parámetro 'destination' es obligatorio")
		return
	}

	info, err := h.service.RealtimeInfo(ctx, dest)
	if err != nil {
		h.logger.ErrorContext(ctx, "Realtime info failed",
			slog.String("destination", dest), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Realtime info failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "No se pudo obtener la información en tiempo real")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, info)
}

func (h *Handler) sessionIDFromURL(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "sessionID")
	sessionID, err := uuid.Parse(raw)
	if err != nil {
		h.logger.Warn("Invalid session ID in URL", slog.String("raw", raw))
		api.ErrorResponse(w, r, http.StatusBadRequest, "ID de sesión inválido")
		return uuid.Nil, false
	}
	return sessionID, true
}
