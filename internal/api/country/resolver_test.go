package country

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func TestResolveStaticTable(t *testing.T) {
	resolver := NewResolver(nil, slog.Default())
	ctx := context.Background()

	tests := []struct {
		name     string
		country  string
		expected string
		found    bool
	}{
		{"Spanish name", "España", "ES", true},
		{"English name", "France", "FR", true},
		{"Case insensitive", "ITALIA", "IT", true},
		{"Empty", "", "", false},
		{"Unknown without generator", "Wakanda", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, ok := resolver.Resolve(ctx, tc.country)
			assert.Equal(t, tc.found, ok)
			assert.Equal(t, tc.expected, code)
		})
	}
}

func TestResolveViaGemini(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid code is cached", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("GenerateText", ctx, mock.Anything).Return("HR", nil).Once()
		resolver := NewResolver(gen, slog.Default())

		code, ok := resolver.Resolve(ctx, "Croacia")
		assert.True(t, ok)
		assert.Equal(t, "HR", code)

		// Second call must hit the cache, not the generator.
		code, ok = resolver.Resolve(ctx, "croacia")
		assert.True(t, ok)
		assert.Equal(t, "HR", code)
		gen.AssertExpectations(t)
	})

	t.Run("Messy response is cleaned", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("GenerateText", ctx, mock.Anything).Return(" hr. ", nil).Once()
		resolver := NewResolver(gen, slog.Default())

		code, ok := resolver.Resolve(ctx, "Croacia")
		assert.True(t, ok)
		assert.Equal(t, "HR", code)
	})

	t.Run("NOT_FOUND is cached negatively", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("GenerateText", ctx, mock.Anything).Return("NOT_FOUND", nil).Once()
		resolver := NewResolver(gen, slog.Default())

		_, ok := resolver.Resolve(ctx, "Wakanda")
		assert.False(t, ok)
		_, ok = resolver.Resolve(ctx, "Wakanda")
		assert.False(t, ok)
		gen.AssertExpectations(t)
	})

	t.Run("Generator error degrades to not found", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("GenerateText", ctx, mock.Anything).Return("", errors.New("quota exceeded")).Once()
		resolver := NewResolver(gen, slog.Default())

		_, ok := resolver.Resolve(ctx, "Atlantis")
		assert.False(t, ok)
	})

	t.Run("Garbage response is treated as miss", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("GenerateText", ctx, mock.Anything).Return("the code is ES", nil).Once()
		resolver := NewResolver(gen, slog.Default())

		_, ok := resolver.Resolve(ctx, "Esperanto")
		assert.False(t, ok)
	})
}

func TestCacheEntriesAndClear(t *testing.T) {
	ctx := context.Background()
	gen := new(MockGenerator)
	gen.On("GenerateText", ctx, mock.Anything).Return("HR", nil).Twice()
	resolver := NewResolver(gen, slog.Default())

	assert.Equal(t, 0, resolver.CacheEntries())

	_, ok := resolver.Resolve(ctx, "Croacia")
	assert.True(t, ok)
	assert.Equal(t, 1, resolver.CacheEntries())

	resolver.ClearCache()
	assert.Equal(t, 0, resolver.CacheEntries())

	// With the cache empty the next lookup goes back to the generator.
	_, ok = resolver.Resolve(ctx, "Croacia")
	assert.True(t, ok)
	gen.AssertExpectations(t)
}
