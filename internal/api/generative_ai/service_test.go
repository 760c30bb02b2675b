package generativeAI

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFreeModel(t *testing.T) {
	tests := []struct {
		model string
		free  bool
	}{
		{"gemini-2.0-flash", true},
		{"gemini-2.5-flash", true},
		{"gemini-2.0-flash-lite", true},
		{"GEMINI-FLASH-LATEST", true},
		{"gemini-pro-latest", true},
		{"models/gemini-pro-latest", true},
		{"gemini-2.5-pro", false},
		{"gemini-2.0-pro", false},
		{"gpt-4", false},
	}

	for _, tc := range tests {
		t.Run(tc.model, func(t *testing.T) {
			assert.Equal(t, tc.free, IsFreeModel(tc.model))
		})
	}
}

func TestNewAIClientRejectsBadConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing API key", func(t *testing.T) {
		_, err := NewAIClient(ctx, "", DefaultModel)
		assert.Error(t, err)
	})

	t.Run("Paid model", func(t *testing.T) {
		_, err := NewAIClient(ctx, "test-key", "gemini-2.5-pro")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not allowed")
	})
}
