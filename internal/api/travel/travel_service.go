// Package travel owns the conversation state machine: one turn in, one
// decision out. The heuristics live in internal/api/destination; this package
// sequences them against the session store and the collaborators.
package travel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-travel-assistant/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/destination"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/session"
	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

const historyPromptLimit = 10

// AnswerGenerator is the LLM surface the orchestrator depends on. Satisfied by
// generative_ai.AIClient.
type AnswerGenerator interface {
	GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error)
}

// WeatherProvider decorates answers with current weather. Satisfied by
// weather.ServiceImpl.
type WeatherProvider interface {
	GetWeather(ctx context.Context, city, countryCode string) (*types.WeatherSnapshot, error)
	FormatMessage(snapshot *types.WeatherSnapshot) string
	IsAvailable() bool
}

// PhotoProvider decorates answers with destination photos. Satisfied by
// photos.ServiceImpl.
type PhotoProvider interface {
	Search(ctx context.Context, query string, count int) ([]types.Photo, error)
	IsAvailable() bool
}

// RealtimeProvider supplies exchange-rate and timezone facts. Satisfied by
// realtime.ServiceImpl.
type RealtimeProvider interface {
	GetRealtimeInfo(ctx context.Context, dest string) (*types.RealtimeInfo, error)
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	ProcessTurn(ctx context.Context, query types.TravelQuery) (*types.TravelResponse, error)
	ConfirmDestination(ctx context.Context, req types.DestinationConfirmation) (*types.TravelResponse, error)
	RealtimeInfo(ctx context.Context, dest string) (*types.RealtimeInfo, error)
}

// ServiceImpl is the turn orchestrator. All collaborators except the store and
// the generator are optional; a missing one just disables its enrichment.
type ServiceImpl struct {
	logger    *slog.Logger
	store     *session.Store
	generator AnswerGenerator
	weather   WeatherProvider
	photos    PhotoProvider
	realtime  RealtimeProvider
	archive   session.Repository
	metrics   *metrics.AppMetrics
}

func NewServiceImpl(
	store *session.Store,
	generator AnswerGenerator,
	weather WeatherProvider,
	photos PhotoProvider,
	realtime RealtimeProvider,
	archive session.Repository,
	appMetrics *metrics.AppMetrics,
	logger *slog.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		store:     store,
		generator: generator,
		weather:   weather,
		photos:    photos,
		realtime:  realtime,
		archive:   archive,
		metrics:   appMetrics,
	}
}

// turnState carries the resolved facts of one turn through the pipeline.
type turnState struct {
	sessionID     uuid.UUID
	question      string
	current       string // destination under discussion, "" when none
	destString    string // destination used for enrichment, "" disables it
	detected      string
	decision      types.TurnDecision
	questionSaved bool
}

// ProcessTurn runs the full state machine for one inbound message.
func (s *ServiceImpl) ProcessTurn(ctx context.Context, query types.TravelQuery) (*types.TravelResponse, error) {
	ctx, span := otel.Tracer("TravelService").Start(ctx, "ProcessTurn")
	defer span.End()

	// Unknown or absent session ID means a fresh conversation.
	var sessionID uuid.UUID
	if query.SessionID != nil && s.store.Exists(*query.SessionID) {
		sessionID = *query.SessionID
	} else {
		sessionID = s.store.CreateSession()
		s.logger.InfoContext(ctx, "New session created", slog.String("session_id", sessionID.String()))
	}
	span.SetAttributes(attribute.String("session.id", sessionID.String()))

	// One turn at a time per session; other sessions proceed in parallel.
	s.store.LockSession(sessionID)
	defer s.store.UnlockSession(sessionID)

	state := &turnState{sessionID: sessionID, question: query.Question}
	isFormSubmission := query.Destination != nil && *query.Destination != ""

	if early := s.resolvePending(ctx, state); early != nil {
		s.countTurn(ctx, state.decision)
		return early, nil
	}

	if state.current == "" {
		state.current = s.store.GetCurrentDestination(sessionID)
	}

	switch {
	case state.decision == types.DecisionConfirmedChange:
		// Destination and question already rewritten by resolvePending.
	case isFormSubmission:
		s.store.SetCurrentDestination(sessionID, *query.Destination)
		state.current = *query.Destination
		state.destString = *query.Destination
		state.decision = types.DecisionFormSubmission
	default:
		if early := s.detectChange(ctx, state); early != nil {
			s.countTurn(ctx, state.decision)
			return early, nil
		}
	}

	prompt := s.buildPrompt(state)

	start := time.Now()
	answer, err := s.generator.GenerateContent(ctx, prompt, nil)
	if s.metrics != nil {
		s.metrics.LLMGenerationDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}
	if err != nil {
		span.SetStatus(codes.Error, "generation failed")
		span.RecordError(err)
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	// Form submissions record the question only after a successful answer, so
	// a failed LLM call leaves no half-written turn behind.
	if !state.questionSaved {
		s.store.AddMessage(sessionID, types.RoleUser, state.question)
	}
	s.store.AddMessage(sessionID, types.RoleAssistant, answer)

	resp := &types.TravelResponse{
		Answer:         answer,
		SessionID:      sessionID,
		ResponseFormat: types.FormatContextual,
		Decision:       state.decision,
	}
	if state.decision.StructuredMode() {
		resp.ResponseFormat = types.FormatStructured
	}
	if state.current != "" {
		current := state.current
		resp.CurrentDestination = &current
	}

	s.enrich(ctx, state, resp)
	s.archiveTurn(ctx, state, answer)
	s.countTurn(ctx, state.decision)
	return resp, nil
}

// resolvePending handles the reply-to-confirmation branch. A non-nil response
// ends the turn (clarification); otherwise the state carries the outcome
// forward.
func (s *ServiceImpl) resolvePending(ctx context.Context, state *turnState) *types.TravelResponse {
	pending := s.store.GetPendingConfirmation(state.sessionID)
	if pending == nil {
		return nil
	}

	isResponse, confirmed := destination.InterpretReply(
		state.question, pending.DetectedDestination, pending.CurrentDestination)
	if !isResponse {
		// Fresh question: the user moved on, drop the stale confirmation.
		s.store.ClearPendingConfirmation(state.sessionID)
		return nil
	}

	s.store.AddMessage(state.sessionID, types.RoleUser, state.question)
	state.questionSaved = true

	switch {
	case confirmed == nil:
		msg := clarificationMessage(pending.DetectedDestination, pending.CurrentDestination)
		s.store.AddMessage(state.sessionID, types.RoleAssistant, msg)
		state.decision = types.DecisionClarification
		current := pending.CurrentDestination
		return &types.TravelResponse{
			Answer:             msg,
			SessionID:          state.sessionID,
			CurrentDestination: &current,
			ResponseFormat:     types.FormatConfirmation,
			Decision:           types.DecisionClarification,
		}
	case *confirmed:
		s.store.SetCurrentDestination(state.sessionID, pending.DetectedDestination)
		s.store.ClearPendingConfirmation(state.sessionID)
		// Replay the question that triggered the change; it is already in the
		// history from the turn that detected it.
		state.question = pending.OriginalQuestion
		state.current = pending.DetectedDestination
		state.destString = pending.DetectedDestination
		state.decision = types.DecisionConfirmedChange
		s.logger.InfoContext(ctx, "Destination change confirmed",
			slog.String("session_id", state.sessionID.String()),
			slog.String("destination", pending.DetectedDestination))
	default:
		s.store.ClearPendingConfirmation(state.sessionID)
		state.current = pending.CurrentDestination
		state.destString = pending.CurrentDestination
		state.decision = types.DecisionRejectedChange
		s.logger.InfoContext(ctx, "Destination change rejected",
			slog.String("session_id", state.sessionID.String()),
			slog.String("kept", pending.CurrentDestination))
	}
	return nil
}

// detectChange classifies a plain chat question. A non-nil response ends the
// turn (implicit change awaiting confirmation).
func (s *ServiceImpl) detectChange(ctx context.Context, state *turnState) *types.TravelResponse {
	if state.decision == types.DecisionRejectedChange {
		// The rejection reply itself is answered contextually; no re-detection
		// on a bare "no".
		return nil
	}

	if !state.questionSaved {
		s.store.AddMessage(state.sessionID, types.RoleUser, state.question)
		state.questionSaved = true
	}

	isChange, detected, isExplicit := destination.DetectChange(state.current, state.question)
	state.detected = detected

	switch {
	case isChange && !isExplicit:
		msg := confirmationMessage(detected, state.current)
		s.store.SetPendingConfirmation(state.sessionID, detected, state.current, state.question)
		s.store.AddMessage(state.sessionID, types.RoleAssistant, msg)
		if s.metrics != nil {
			s.metrics.PendingConfirmationsTotal.Add(ctx, 1)
		}
		state.decision = types.DecisionImplicitChangePending
		current := state.current
		return &types.TravelResponse{
			Answer:              msg,
			SessionID:           state.sessionID,
			DetectedDestination: &detected,
			CurrentDestination:  &current,
			ResponseFormat:      types.FormatConfirmation,
			Decision:            types.DecisionImplicitChangePending,
		}
	case isChange && isExplicit:
		s.store.SetCurrentDestination(state.sessionID, detected)
		state.current = detected
		state.destString = detected
		state.decision = types.DecisionExplicitChange
	case state.current == "" && detected != "":
		s.store.SetCurrentDestination(state.sessionID, detected)
		state.current = detected
		state.destString = detected
		state.decision = types.DecisionFirstDestination
	case state.current == "":
		state.decision = types.DecisionChatNoDestination
	default:
		state.destString = state.current
		state.decision = types.DecisionSameDestination
	}
	return nil
}

func (s *ServiceImpl) buildPrompt(state *turnState) string {
	if state.decision.StructuredMode() {
		return buildStructuredPrompt(state.question, state.current)
	}

	current := state.current
	if current == "" {
		current = s.store.ExtractLastDestination(state.sessionID)
	}
	history := s.store.ConversationContext(state.sessionID, historyPromptLimit)
	return buildContextualPrompt(state.question, current, history)
}

// enrich attaches weather, photos and realtime facts in parallel. Strictly
// best-effort: failures are logged and counted, never surfaced.
func (s *ServiceImpl) enrich(ctx context.Context, state *turnState, resp *types.TravelResponse) {
	if state.destString == "" {
		return
	}

	g, gctx := errgroup.WithContext(ctx)

	if s.weather != nil && s.weather.IsAvailable() {
		g.Go(func() error {
			city, country := destination.Split(state.destString)
			if code, ok := destination.CountryCode(country); ok {
				country = code
			}
			snapshot, err := s.weather.GetWeather(gctx, city, country)
			if err != nil {
				s.noteEnrichmentError(gctx, "weather", err)
				return nil
			}
			msg := s.weather.FormatMessage(snapshot)
			resp.Weather = &msg
			return nil
		})
	}

	if s.photos != nil && s.photos.IsAvailable() {
		g.Go(func() error {
			found, err := s.photos.Search(gctx, state.destString, 0)
			if err != nil {
				s.noteEnrichmentError(gctx, "photos", err)
				return nil
			}
			resp.Photos = found
			return nil
		})
	}

	if s.realtime != nil {
		g.Go(func() error {
			info, err := s.realtime.GetRealtimeInfo(gctx, state.destString)
			if err != nil {
				s.noteEnrichmentError(gctx, "realtime", err)
				return nil
			}
			resp.Realtime = info
			return nil
		})
	}

	_ = g.Wait() // tasks swallow their own errors
}

func (s *ServiceImpl) noteEnrichmentError(ctx context.Context, kind string, err error) {
	s.logger.WarnContext(ctx, "Enrichment failed",
		slog.String("kind", kind), slog.Any("error", err))
	if s.metrics != nil {
		s.metrics.EnrichmentErrorsTotal.Add(ctx, 1)
	}
}

// archiveTurn persists the completed turn. The in-memory store is
// authoritative; archival must never delay or fail the response.
func (s *ServiceImpl) archiveTurn(ctx context.Context, state *turnState, answer string) {
	if s.archive == nil {
		return
	}
	var dest *string
	if state.current != "" {
		d := state.current
		dest = &d
	}
	sessionID, question := state.sessionID, state.question

	go func() {
		archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.archive.ArchiveTurn(archiveCtx, sessionID, question, answer, dest); err != nil {
			s.logger.Warn("Turn archival failed",
				slog.String("session_id", sessionID.String()), slog.Any("error", err))
		}
	}()
}

func (s *ServiceImpl) countTurn(ctx context.Context, decision types.TurnDecision) {
	if s.metrics == nil {
		return
	}
	s.metrics.TravelTurnsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("decision", string(decision))))
}

// ConfirmDestination is the explicit confirm/reject endpoint. Confirming with
// an original question replays it as a form submission for the new destination.
func (s *ServiceImpl) ConfirmDestination(ctx context.Context, req types.DestinationConfirmation) (*types.TravelResponse, error) {
	ctx, span := otel.Tracer("TravelService").Start(ctx, "ConfirmDestination")
	defer span.End()

	if !req.Confirmed {
		s.store.LockSession(req.SessionID)
		s.store.ClearPendingConfirmation(req.SessionID)
		current := s.store.GetCurrentDestination(req.SessionID)
		s.store.UnlockSession(req.SessionID)

		resp := &types.TravelResponse{
			Answer:         fmt.Sprintf("Se mantiene el destino actual: %s. Puedes continuar con tu pregunta.", current),
			SessionID:      req.SessionID,
			ResponseFormat: types.FormatContextual,
			Decision:       types.DecisionRejectedChange,
		}
		if current != "" {
			resp.CurrentDestination = &current
		}
		s.countTurn(ctx, types.DecisionRejectedChange)
		return resp, nil
	}

	s.store.LockSession(req.SessionID)
	s.store.SetCurrentDestination(req.SessionID, req.NewDestination)
	s.store.ClearPendingConfirmation(req.SessionID)
	s.store.UnlockSession(req.SessionID)

	if req.OriginalQuestion != "" {
		sessionID := req.SessionID
		dest := req.NewDestination
		return s.ProcessTurn(ctx, types.TravelQuery{
			Question:    req.OriginalQuestion,
			Destination: &dest,
			SessionID:   &sessionID,
		})
	}

	dest := req.NewDestination
	s.countTurn(ctx, types.DecisionConfirmedChange)
	return &types.TravelResponse{
		Answer:             fmt.Sprintf("Destino cambiado a %s. Puedes hacer tu pregunta ahora.", dest),
		SessionID:          req.SessionID,
		CurrentDestination: &dest,
		ResponseFormat:     types.FormatContextual,
		Decision:           types.DecisionConfirmedChange,
	}, nil
}

// RealtimeInfo serves the standalone realtime-info endpoint.
func (s *ServiceImpl) RealtimeInfo(ctx context.Context, dest string) (*types.RealtimeInfo, error) {
	if s.realtime == nil {
		return nil, fmt.Errorf("realtime service not configured")
	}
	return s.realtime.GetRealtimeInfo(ctx, dest)
}
