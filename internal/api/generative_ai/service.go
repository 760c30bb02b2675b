package generativeAI

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultModel = "gemini-2.0-flash"

// freeModels is the allowlist of no-cost Gemini models. Paid Pro models are
// rejected at startup so a config typo cannot generate billable traffic.
var freeModels = []string{
	"gemini-2.0-flash",
	"gemini-2.5-flash",
	"gemini-2.0-flash-lite",
	"gemini-flash-latest",
	"gemini-pro-latest",
}

// AIClient wraps the Gemini client behind the small surface the rest of the
// application needs.
type AIClient struct {
	client *genai.Client
	model  string
}

// NewAIClient connects to the Gemini API. An empty model falls back to the
// default free model; non-free models are rejected.
func NewAIClient(ctx context.Context, apiKey, model string) (*AIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is not configured")
	}
	if model == "" {
		model = DefaultModel
	}
	if !IsFreeModel(model) {
		return nil, fmt.Errorf("model %q is not allowed, only free Gemini models are permitted: %s",
			model, strings.Join(freeModels, ", "))
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &AIClient{client: client, model: model}, nil
}

// IsFreeModel reports whether the model name is on the free tier. Any "flash"
// variant qualifies, plus gemini-pro-latest which is free with limits.
func IsFreeModel(model string) bool {
	m := strings.ToLower(model)
	return strings.Contains(m, "flash") ||
		m == "gemini-pro-latest" ||
		m == "models/gemini-pro-latest"
}

// GenerateContent sends the prompt and returns the plain-text answer.
func (ai *AIClient) GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	result, err := ai.client.Models.GenerateContent(ctx, ai.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return text, nil
}

// Model returns the configured model name.
func (ai *AIClient) Model() string {
	return ai.model
}
