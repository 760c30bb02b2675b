package travel

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-travel-assistant/internal/api/session"
	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	args := m.Called(ctx, prompt, config)
	return args.String(0), args.Error(1)
}

type MockWeather struct {
	mock.Mock
}

func (m *MockWeather) GetWeather(ctx context.Context, city, countryCode string) (*types.WeatherSnapshot, error) {
	args := m.Called(ctx, city, countryCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.WeatherSnapshot), args.Error(1)
}

func (m *MockWeather) FormatMessage(snapshot *types.WeatherSnapshot) string {
	return m.Called(snapshot).String(0)
}

func (m *MockWeather) IsAvailable() bool {
	return m.Called().Bool(0)
}

type MockPhotos struct {
	mock.Mock
}

func (m *MockPhotos) Search(ctx context.Context, query string, count int) ([]types.Photo, error) {
	args := m.Called(ctx, query, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Photo), args.Error(1)
}

func (m *MockPhotos) IsAvailable() bool {
	return m.Called().Bool(0)
}

type MockRealtime struct {
	mock.Mock
}

func (m *MockRealtime) GetRealtimeInfo(ctx context.Context, dest string) (*types.RealtimeInfo, error) {
	args := m.Called(ctx, dest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RealtimeInfo), args.Error(1)
}

func newTestService(gen *MockGenerator) (*ServiceImpl, *session.Store) {
	store := session.NewStore(0, slog.Default())
	svc := NewServiceImpl(store, gen, nil, nil, nil, nil, nil, slog.Default())
	return svc, store
}

func promptMentioning(parts ...string) any {
	return mock.MatchedBy(func(prompt string) bool {
		for _, p := range parts {
			if !strings.Contains(prompt, p) {
				return false
			}
		}
		return true
	})
}

func TestProcessTurnFormSubmission(t *testing.T) {
	gen := new(MockGenerator)
	svc, store := newTestService(gen)
	dest := "Madrid, España"

	gen.On("GenerateContent", mock.Anything, promptMentioning("Madrid, España", "Qué ver y hacer"), (*genai.GenerateContentConfig)(nil)).
		Return("Plan para Madrid.", nil).Once()

	resp, err := svc.ProcessTurn(context.Background(), types.TravelQuery{
		Question:    "Quiero planear un viaje",
		Destination: &dest,
	})
	require.NoError(t, err)
	assert.Equal(t, types.FormatStructured, resp.ResponseFormat)
	assert.Equal(t, types.DecisionFormSubmission, resp.Decision)
	require.NotNil(t, resp.CurrentDestination)
	assert.Equal(t, dest, *resp.CurrentDestination)

	assert.Equal(t, dest, store.GetCurrentDestination(resp.SessionID))
	history := store.GetHistory(resp.SessionID, 0)
	require.Len(t, history, 2)
	assert.Equal(t, types.RoleUser, history[0].Role)
	assert.Equal(t, types.RoleAssistant, history[1].Role)
	gen.AssertExpectations(t)
}

func TestProcessTurnSameDestinationIsContextual(t *testing.T) {
	gen := new(MockGenerator)
	svc, store := newTestService(gen)

	sessionID := store.CreateSession()
	store.SetCurrentDestination(sessionID, "Madrid, España")
	store.AddMessage(sessionID, types.RoleUser, "Quiero planear un viaje a Madrid, España")
	store.AddMessage(sessionID, types.RoleAssistant, "Plan para Madrid.")

	gen.On("GenerateContent", mock.Anything, promptMentioning("Estamos hablando sobre: Madrid, España", "¿Qué museos me recomiendas?"), (*genai.GenerateContentConfig)(nil)).
		Return("El Prado y el Reina Sofía.", nil).Once()

	resp, err := svc.ProcessTurn(context.Background(), types.TravelQuery{
		Question:  "¿Qué museos me recomiendas?",
		SessionID: &sessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, types.FormatContextual, resp.ResponseFormat)
	assert.Equal(t, types.DecisionSameDestination, resp.Decision)
	assert.Equal(t, "Madrid, España", store.GetCurrentDestination(sessionID))
	gen.AssertExpectations(t)
}

func TestProcessTurnImplicitChangeAsksConfirmation(t *testing.T) {
	gen := new(MockGenerator) // must not be called
	svc, store := newTestService(gen)

	sessionID := store.CreateSession()
	store.SetCurrentDestination(sessionID, "Madrid, España")

	resp, err := svc.ProcessTurn(context.Background(), types.TravelQuery{
		Question:  "¿Qué tiempo hace en Venecia?",
		SessionID: &sessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, types.FormatConfirmation, resp.ResponseFormat)
	assert.Equal(t, types.DecisionImplicitChangePending, resp.Decision)
	assert.Contains(t, resp.Answer, "Venecia, Italia")
	assert.Contains(t, resp.Answer, "Madrid, España")
	require.NotNil(t, resp.DetectedDestination)
	assert.Equal(t, "Venecia, Italia", *resp.DetectedDestination)

	pending := store.GetPendingConfirmation(sessionID)
	require.NotNil(t, pending)
	assert.Equal(t, "¿Qué tiempo hace en Venecia?", pending.OriginalQuestion)
	// Destination is unchanged until the user confirms.
	assert.Equal(t, "Madrid, España", store.GetCurrentDestination(sessionID))
	gen.AssertExpectations(t)
}

func TestProcessTurnConfirmReplaysOriginalQuestion(t *testing.T) {
	gen := new(MockGenerator)
	svc, store := newTestService(gen)

	sessionID := store.CreateSession()
	store.SetCurrentDestination(sessionID, "Madrid, España")

	_, err := svc.ProcessTurn(context.Background(), types.TravelQuery{
		Question:  "¿Qué tiempo hace en Venecia?",
		SessionID: &sessionID,
	})
	require.NoError(t, err)

	gen.On("GenerateContent", mock.Anything, promptMentioning("Venecia, Italia", "¿Qué tiempo hace en Venecia?"), (*genai.GenerateContentConfig)(nil)).
		Return("Venecia en primavera es preciosa.", nil).Once()

	resp, err := svc.ProcessTurn(context.Background(), types.TravelQuery{
		Question:  "sí",
		SessionID: &sessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, types.FormatStructured, resp.ResponseFormat)
	assert.Equal(t, types.DecisionConfirmedChange, resp.Decision)
	assert.Equal(t, "Venecia, Italia", store.GetCurrentDestination(sessionID))
	assert.Nil(t, store.GetPendingConfirmation(sessionID))

	// History: original question, confirmation prompt, "sí", answer. The
	// replayed question must not appear twice.
	history := store.GetHistory(sessionID, 0)
	var questionCount int
	for _, msg := range history {
		if msg.Content == "¿Qué tiempo hace en Venecia?" {
			questionCount++
		}
	}
	assert.Equal(t, 1, questionCount)
	gen.AssertExpectations(t)
}

func TestProcessTurnRejectKeepsDestination(t *testing.T) {
	gen := new(MockGenerator)
	svc, store := newTestService(gen)

	sessionID := store.CreateSession()
	store.SetCurrentDestination(sessionID, "Madrid, España")

	_, err := svc.ProcessTurn(context.Background(), types.TravelQuery{
		Question:  "¿Qué tiempo hace en Venecia?",
		SessionID: &sessionID,
	})
	require.NoError(t, err)

	gen.On("GenerateContent", mock.Anything, promptMentioning("Madrid, España"), (*genai.GenerateContentConfig)(nil)).
		Return("Seguimos con Madrid entonces.", nil).Once()

	resp, err := svc.ProcessTurn(context.Background(), types.TravelQuery{
		Question:  "no, prefiero el actual",
		SessionID: &sessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, types.FormatContextual, resp.ResponseFormat)
	assert.Equal(t, types.DecisionRejectedChange, resp.Decision)
	assert.Equal(t, "Madrid, España", store.GetCurrentDestination(sessionID))
	assert.Nil(t, store.GetPendingConfirmation(sessionID))
	gen.AssertExpectations(t)
}

func TestProcessTurnAmbiguousReplyAsksAgain(t *testing.T) {
	gen := new(MockGenerator) // must not be called
	svc, store := newTestService(gen)

	sessionID := store.CreateSession()
	store.SetCurrentDestination(sessionID, "Madrid, España")

	_, err := svc.ProcessTurn(context.Background(), types.TravelQuery{
		Question:  "¿Qué tiempo hace en Venecia?",
		SessionID: &sessionID,
	})
	require.NoError(t, err)

	resp, err := svc.ProcessTurn(context.Background(), types.TravelQuery{
		Question:  "sí y no",
		SessionID: &sessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, types.FormatConfirmation, resp.ResponseFormat)
	assert.Equal(t, types.DecisionClarification, resp.Decision)
	assert.Contains(t, resp.Answer, "No estoy seguro de tu respuesta")
	// Pending stays so the next reply can still resolve it.
	assert.NotNil(t, store.GetPendingConfirmation(sessionID))
	gen.AssertExpectations(t)
}

func TestProcessTurnFreshQuestionDropsStalePending(t *testing.T) {
	gen := new(MockGenerator)
	svc, store := newTestService(gen)

	sessionID := store.CreateSession()
	store.SetCurrentDestination(sessionID, "Madrid, España")

	_, err := svc.ProcessTurn(context.Background(), types.TravelQuery{
		Question:  "¿Qué tiempo hace en Venecia?",
		SessionID: &sessionID,
	})
	require.NoError(t, err)

	gen.On("GenerateContent", mock.Anything, mock.Anything, (*genai.GenerateContentConfig)(nil)).
		Return("La mejor época es la primavera.", nil).Once()

	resp, err := svc.ProcessTurn(context.Background(), types.TravelQuery{
		Question:  "¿cuál es la mejor época del año para viajar?",
		SessionID: &sessionID,
	})
	require.NoError(t, err)
	assert.Nil(t, store.GetPendingConfirmation(sessionID))
	assert.Equal(t, types.DecisionSameDestination, resp.Decision)
	gen.AssertExpectations(t)
}

func TestProcessTurnExplicitChange(t *testing.T) {
	gen := new(MockGenerator)
	svc, store := newTestService(gen)

	sessionID := store.CreateSession()
	store.SetCurrentDestination(sessionID, "Madrid, España")

	gen.On("GenerateContent", mock.Anything, promptMentioning("Lisboa, Portugal", "Qué ver y hacer"), (*genai.GenerateContentConfig)(nil)).
		Return("Plan para Lisboa.", nil).Once()

	resp, err := svc.ProcessTurn(context.Background(), types.TravelQuery{
		Question:  "Ahora quiero ir a Lisboa, Portugal",
		SessionID: &sessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, types.FormatStructured, resp.ResponseFormat)
	assert.Equal(t, types.DecisionExplicitChange, resp.Decision)
	assert.Equal(t, "Lisboa, Portugal", store.GetCurrentDestination(sessionID))
	gen.AssertExpectations(t)
}

func TestProcessTurnFirstDestinationFromChat(t *testing.T) {
	gen := new(MockGenerator)
	svc, store := newTestService(gen)

	gen.On("GenerateContent", mock.Anything, promptMentioning("Roma, Italia"), (*genai.GenerateContentConfig)(nil)).
		Return("Plan para Roma.", nil).Once()

	resp, err := svc.ProcessTurn(context.Background(), types.TravelQuery{
		Question: "Me gustaría visitar Roma",
	})
	require.NoError(t, err)
	assert.Equal(t, types.FormatStructured, resp.ResponseFormat)
	assert.Equal(t, types.DecisionFirstDestination, resp.Decision)
	assert.Equal(t, "Roma, Italia", store.GetCurrentDestination(resp.SessionID))
	gen.AssertExpectations(t)
}

func TestProcessTurnChatWithoutAnyDestination(t *testing.T) {
	gen := new(MockGenerator)
	svc, _ := newTestService(gen)

	gen.On("GenerateContent", mock.Anything, mock.Anything, (*genai.GenerateContentConfig)(nil)).
		Return("Cuéntame a dónde te gustaría ir.", nil).Once()

	resp, err := svc.ProcessTurn(context.Background(), types.TravelQuery{
		Question: "quiero unas vacaciones tranquilas",
	})
	require.NoError(t, err)
	assert.Equal(t, types.FormatStructured, resp.ResponseFormat)
	assert.Equal(t, types.DecisionChatNoDestination, resp.Decision)
	assert.Nil(t, resp.CurrentDestination)
	gen.AssertExpectations(t)
}

func TestProcessTurnUnknownSessionGetsNewOne(t *testing.T) {
	gen := new(MockGenerator)
	svc, store := newTestService(gen)

	gen.On("GenerateContent", mock.Anything, mock.Anything, (*genai.GenerateContentConfig)(nil)).
		Return("respuesta", nil).Once()

	unknown := store.CreateSession()
	store.DeleteSession(unknown)

	resp, err := svc.ProcessTurn(context.Background(), types.TravelQuery{
		Question:  "Me gustaría visitar Roma",
		SessionID: &unknown,
	})
	require.NoError(t, err)
	assert.NotEqual(t, unknown, resp.SessionID)
	assert.True(t, store.Exists(resp.SessionID))
}

func TestProcessTurnGenerationFailureLeavesNoHalfTurn(t *testing.T) {
	gen := new(MockGenerator)
	svc, store := newTestService(gen)
	dest := "Madrid, España"

	gen.On("GenerateContent", mock.Anything, mock.Anything, (*genai.GenerateContentConfig)(nil)).
		Return("", errors.New("quota exceeded")).Once()

	_, err := svc.ProcessTurn(context.Background(), types.TravelQuery{
		Question:    "Quiero planear un viaje",
		Destination: &dest,
	})
	require.Error(t, err)

	// The form-submission question is only recorded after a successful answer.
	for _, id := range store.SessionIDs() {
		assert.Empty(t, store.GetHistory(id, 0))
	}
}

func TestProcessTurnEnrichment(t *testing.T) {
	gen := new(MockGenerator)
	weather := new(MockWeather)
	photoSvc := new(MockPhotos)
	realtimeSvc := new(MockRealtime)

	store := session.NewStore(0, slog.Default())
	svc := NewServiceImpl(store, gen, weather, photoSvc, realtimeSvc, nil, nil, slog.Default())

	dest := "Madrid, España"
	snapshot := &types.WeatherSnapshot{City: "Madrid", Temperature: 25}
	foundPhotos := []types.Photo{{ID: "p1"}, {ID: "p2"}}
	info := &types.RealtimeInfo{Destination: dest, City: "Madrid", CountryCode: "ES"}

	gen.On("GenerateContent", mock.Anything, mock.Anything, (*genai.GenerateContentConfig)(nil)).
		Return("Plan para Madrid.", nil).Once()
	weather.On("IsAvailable").Return(true)
	weather.On("GetWeather", mock.Anything, "Madrid", "ES").Return(snapshot, nil).Once()
	weather.On("FormatMessage", snapshot).Return("🌤️ **Clima Actual en Madrid:**").Once()
	photoSvc.On("IsAvailable").Return(true)
	photoSvc.On("Search", mock.Anything, dest, 0).Return(foundPhotos, nil).Once()
	realtimeSvc.On("GetRealtimeInfo", mock.Anything, dest).Return(info, nil).Once()

	resp, err := svc.ProcessTurn(context.Background(), types.TravelQuery{
		Question:    "Quiero planear un viaje",
		Destination: &dest,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Weather)
	assert.Contains(t, *resp.Weather, "Clima Actual en Madrid")
	assert.Len(t, resp.Photos, 2)
	require.NotNil(t, resp.Realtime)
	assert.Equal(t, "ES", resp.Realtime.CountryCode)
	gen.AssertExpectations(t)
	weather.AssertExpectations(t)
	photoSvc.AssertExpectations(t)
	realtimeSvc.AssertExpectations(t)
}

func TestProcessTurnEnrichmentFailuresDoNotFailTurn(t *testing.T) {
	gen := new(MockGenerator)
	weather := new(MockWeather)
	photoSvc := new(MockPhotos)

	store := session.NewStore(0, slog.Default())
	svc := NewServiceImpl(store, gen, weather, photoSvc, nil, nil, nil, slog.Default())

	dest := "Madrid, España"
	gen.On("GenerateContent", mock.Anything, mock.Anything, (*genai.GenerateContentConfig)(nil)).
		Return("Plan para Madrid.", nil).Once()
	weather.On("IsAvailable").Return(true)
	weather.On("GetWeather", mock.Anything, "Madrid", "ES").Return(nil, errors.New("latched off")).Once()
	photoSvc.On("IsAvailable").Return(false)

	resp, err := svc.ProcessTurn(context.Background(), types.TravelQuery{
		Question:    "Quiero planear un viaje",
		Destination: &dest,
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Weather)
	assert.Empty(t, resp.Photos)
	assert.Equal(t, "Plan para Madrid.", resp.Answer)
}

func TestConfirmDestinationEndpoint(t *testing.T) {
	t.Run("Confirmed with original question replays it", func(t *testing.T) {
		gen := new(MockGenerator)
		svc, store := newTestService(gen)
		sessionID := store.CreateSession()
		store.SetCurrentDestination(sessionID, "Madrid, España")
		store.SetPendingConfirmation(sessionID, "Lisboa, Portugal", "Madrid, España", "¿Qué ver en Lisboa?")

		gen.On("GenerateContent", mock.Anything, promptMentioning("Lisboa, Portugal"), (*genai.GenerateContentConfig)(nil)).
			Return("Plan para Lisboa.", nil).Once()

		resp, err := svc.ConfirmDestination(context.Background(), types.DestinationConfirmation{
			SessionID:        sessionID,
			NewDestination:   "Lisboa, Portugal",
			Confirmed:        true,
			OriginalQuestion: "¿Qué ver en Lisboa?",
		})
		require.NoError(t, err)
		assert.Equal(t, types.FormatStructured, resp.ResponseFormat)
		assert.Equal(t, "Lisboa, Portugal", store.GetCurrentDestination(sessionID))
		assert.Nil(t, store.GetPendingConfirmation(sessionID))
		gen.AssertExpectations(t)
	})

	t.Run("Confirmed without question just switches", func(t *testing.T) {
		gen := new(MockGenerator)
		svc, store := newTestService(gen)
		sessionID := store.CreateSession()

		resp, err := svc.ConfirmDestination(context.Background(), types.DestinationConfirmation{
			SessionID:      sessionID,
			NewDestination: "Lisboa, Portugal",
			Confirmed:      true,
		})
		require.NoError(t, err)
		assert.Contains(t, resp.Answer, "Destino cambiado a Lisboa, Portugal")
		assert.Equal(t, "Lisboa, Portugal", store.GetCurrentDestination(sessionID))
	})

	t.Run("Rejected keeps the current destination", func(t *testing.T) {
		gen := new(MockGenerator)
		svc, store := newTestService(gen)
		sessionID := store.CreateSession()
		store.SetCurrentDestination(sessionID, "Madrid, España")
		store.SetPendingConfirmation(sessionID, "Lisboa, Portugal", "Madrid, España", "q")

		resp, err := svc.ConfirmDestination(context.Background(), types.DestinationConfirmation{
			SessionID: sessionID,
			Confirmed: false,
		})
		require.NoError(t, err)
		assert.Contains(t, resp.Answer, "Se mantiene el destino actual: Madrid, España")
		assert.Equal(t, "Madrid, España", store.GetCurrentDestination(sessionID))
		assert.Nil(t, store.GetPendingConfirmation(sessionID))
	})
}

func TestProcessTurnFullConversationFlow(t *testing.T) {
	gen := new(MockGenerator)
	svc, store := newTestService(gen)
	dest := "Madrid, España"

	gen.On("GenerateContent", mock.Anything, promptMentioning("Madrid, España", "Qué ver y hacer"), (*genai.GenerateContentConfig)(nil)).
		Return("Plan para Madrid.", nil).Once()
	gen.On("GenerateContent", mock.Anything, promptMentioning("Estamos hablando sobre: Madrid, España", "tapas"), (*genai.GenerateContentConfig)(nil)).
		Return("Prueba La Latina.", nil).Once()
	gen.On("GenerateContent", mock.Anything, promptMentioning("Lisboa, Portugal", "Qué ver y hacer"), (*genai.GenerateContentConfig)(nil)).
		Return("Plan para Lisboa.", nil).Once()

	first, err := svc.ProcessTurn(context.Background(), types.TravelQuery{
		Question:    "Quiero planear un viaje de tres días",
		Destination: &dest,
	})
	require.NoError(t, err)
	assert.Equal(t, types.DecisionFormSubmission, first.Decision)
	sessionID := first.SessionID

	second, err := svc.ProcessTurn(context.Background(), types.TravelQuery{
		Question:  "¿Dónde puedo comer buenas tapas por la noche?",
		SessionID: &sessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, types.DecisionSameDestination, second.Decision)
	assert.Equal(t, types.FormatContextual, second.ResponseFormat)
	assert.Equal(t, "Madrid, España", store.GetCurrentDestination(sessionID))

	third, err := svc.ProcessTurn(context.Background(), types.TravelQuery{
		Question:  "Ahora quiero ir a Lisboa, Portugal",
		SessionID: &sessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, types.DecisionExplicitChange, third.Decision)
	assert.Equal(t, types.FormatStructured, third.ResponseFormat)
	assert.Equal(t, "Lisboa, Portugal", store.GetCurrentDestination(sessionID))

	history := store.GetHistory(sessionID, 0)
	assert.Len(t, history, 6)
	gen.AssertExpectations(t)
}
