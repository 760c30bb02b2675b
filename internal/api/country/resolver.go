// Package country resolves country names to ISO 3166-1 alpha-2 codes. Static
// table first, then a Gemini lookup; results (including misses) are cached for
// the lifetime of the process.
package country

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-travel-assistant/internal/api/destination"
)

const notFound = "NOT_FOUND"

// Generator is the single LLM capability the resolver needs.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type Resolver struct {
	generator Generator
	cache     *cache.Cache
	logger    *slog.Logger
}

// NewResolver builds a resolver. generator may be nil, in which case only the
// static table answers.
func NewResolver(generator Generator, logger *slog.Logger) *Resolver {
	return &Resolver{
		generator: generator,
		cache:     cache.New(cache.NoExpiration, cache.NoExpiration),
		logger:    logger,
	}
}

// Resolve returns the ISO code for a country name, or ("", false). Negative
// answers are cached too so an unknown name costs at most one LLM round trip.
func (r *Resolver) Resolve(ctx context.Context, countryName string) (string, bool) {
	countryName = strings.TrimSpace(countryName)
	if countryName == "" {
		return "", false
	}

	if code, ok := destination.CountryCode(countryName); ok {
		return code, true
	}

	key := strings.ToLower(countryName)
	if cached, ok := r.cache.Get(key); ok {
		code := cached.(string)
		return code, code != notFound
	}

	if r.generator == nil {
		r.cache.Set(key, notFound, cache.NoExpiration)
		return "", false
	}

	code, err := r.askGemini(ctx, countryName)
	if err != nil {
		r.logger.WarnContext(ctx, "Country code lookup failed",
			slog.String("country", countryName), slog.Any("error", err))
		r.cache.Set(key, notFound, cache.NoExpiration)
		return "", false
	}

	r.cache.Set(key, code, cache.NoExpiration)
	return code, code != notFound
}

// CacheEntries reports how many country names are cached, negatives included.
func (r *Resolver) CacheEntries() int {
	return r.cache.ItemCount()
}

// ClearCache drops every cached code.
func (r *Resolver) ClearCache() {
	r.cache.Flush()
}

func (r *Resolver) askGemini(ctx context.Context, countryName string) (string, error) {
	prompt := fmt.Sprintf(`Dado el nombre de un país, devuelve SOLO su código ISO 3166-1 alpha-2 (2 letras).

País: %s

Responde ÚNICAMENTE con el código ISO de 2 letras en mayúsculas, sin explicaciones, sin puntos, sin espacios.
Si no conoces el país o no existe, responde exactamente: NOT_FOUND

Ejemplos:
- España → ES
- France → FR
- United States → US
- Japan → JP
- Países que no existen → NOT_FOUND`, countryName)

	text, err := r.generator.GenerateText(ctx, prompt)
	if err != nil {
		return "", err
	}

	code := strings.ToUpper(strings.TrimSpace(text))
	code = strings.NewReplacer(".", "", " ", "").Replace(code)
	if code == notFound {
		return notFound, nil
	}
	if len(code) != 2 || !isAlpha(code) {
		return "", fmt.Errorf("unexpected country code response %q", text)
	}
	return code, nil
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
