package destinations

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-travel-assistant/internal/api/destination"
)

// maxSuggestions caps every suggestion list.
const maxSuggestions = 5

// defaultDestinations answer the popular endpoint when the model response is
// missing or unparseable. The list is always usable.
var defaultDestinations = []string{
	"París, Francia",
	"Tokio, Japón",
	"Nueva York, Estados Unidos",
	"Bali, Indonesia",
	"Barcelona, España",
}

const popularPrompt = `Eres un asistente de viajes. Lista los 5 destinos turísticos más populares y recomendados del mundo en este momento.

Responde ÚNICAMENTE con la lista, un destino por línea, cada uno como "Ciudad, País" en español.
Sin números, sin viñetas, sin texto adicional.`

const searchPromptTemplate = `Eres un asistente de viajes. El usuario está escribiendo el nombre de un destino: "%s"

Sugiere hasta 5 destinos turísticos que coincidan con lo que está escribiendo.

Responde ÚNICAMENTE con la lista, un destino por línea, cada uno como "Ciudad, País" en español.
Sin números, sin viñetas, sin texto adicional.`

// Generator is the single LLM capability the suggester needs.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error)
}

// CountryResolver warms the country-code cache for suggested destinations so a
// later weather lookup is instant.
type CountryResolver interface {
	Resolve(ctx context.Context, countryName string) (string, bool)
}

// Service suggests destinations via the LLM. Both operations degrade instead
// of failing: popular falls back to the default list, search to an empty one.
type Service interface {
	Popular(ctx context.Context) ([]string, error)
	Search(ctx context.Context, query string) ([]string, error)
}

var _ Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	logger    *slog.Logger
	generator Generator
	countries CountryResolver
}

// NewServiceImpl builds the suggester. countries may be nil, skipping the
// cache warm-up.
func NewServiceImpl(generator Generator, countries CountryResolver, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		generator: generator,
		countries: countries,
	}
}

// Popular returns the model's current top destinations, or the default list
// when generation or parsing fails. Never errors.
func (s *ServiceImpl) Popular(ctx context.Context) ([]string, error) {
	ctx, span := otel.Tracer("DestinationsService").Start(ctx, "Popular")
	defer span.End()

	text, err := s.generator.GenerateContent(ctx, popularPrompt, nil)
	if err != nil {
		s.logger.WarnContext(ctx, "Popular destinations generation failed, serving defaults",
			slog.Any("error", err))
		return s.withWarmCache(ctx, defaultDestinations), nil
	}

	dests := ParseList(text)
	if len(dests) == 0 {
		s.logger.WarnContext(ctx, "Popular destinations response unparseable, serving defaults")
		return s.withWarmCache(ctx, defaultDestinations), nil
	}
	if len(dests) > maxSuggestions {
		dests = dests[:maxSuggestions]
	}
	span.SetAttributes(attribute.Int("destinations", len(dests)))
	return s.withWarmCache(ctx, dests), nil
}

// Search suggests destinations matching partial user input. An empty query or
// any failure yields an empty list, never an error.
func (s *ServiceImpl) Search(ctx context.Context, query string) ([]string, error) {
	ctx, span := otel.Tracer("DestinationsService").Start(ctx, "Search")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return []string{}, nil
	}

	text, err := s.generator.GenerateContent(ctx, fmt.Sprintf(searchPromptTemplate, query), nil)
	if err != nil {
		s.logger.WarnContext(ctx, "Destination search generation failed",
			slog.String("query", query), slog.Any("error", err))
		return []string{}, nil
	}

	dests := ParseList(text)
	if len(dests) > maxSuggestions {
		dests = dests[:maxSuggestions]
	}
	if dests == nil {
		dests = []string{}
	}
	span.SetAttributes(attribute.Int("destinations", len(dests)))
	return s.withWarmCache(ctx, dests), nil
}

// withWarmCache resolves each destination's country code so the permanent
// cache is primed before the user picks one. Best-effort, misses are fine.
func (s *ServiceImpl) withWarmCache(ctx context.Context, dests []string) []string {
	if s.countries == nil {
		return dests
	}
	for _, dest := range dests {
		if _, country := destination.Split(dest); country != "" {
			s.countries.Resolve(ctx, country)
		}
	}
	return dests
}
