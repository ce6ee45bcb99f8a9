package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

// Backend ids accepted by the synthesizer.
const (
	ModelOpenAI = "openai"
	ModelGemini = "gemini"
)

// Default model names per backend.
const (
	defaultOpenAIModel = "gpt-3.5-turbo"
	defaultGeminiModel = "gemini-1.5-flash"
)

var (
	// ErrOpenAIKeyMissing reports an unconfigured OpenAI backend.
	ErrOpenAIKeyMissing = errors.New("OpenAI API key not configured")
	// ErrGeminiKeyMissing reports an unconfigured Gemini backend.
	ErrGeminiKeyMissing = errors.New("Gemini API key not configured")
)

// OpenAIGenerator answers prompts with the OpenAI chat API. The client is
// created per call so that a bad credential surfaces as a generation error,
// not a construction failure.
type OpenAIGenerator struct {
	apiKey string
	model  string
}

// NewOpenAIGenerator creates the OpenAI backend.
func NewOpenAIGenerator(apiKey string) *OpenAIGenerator {
	return &OpenAIGenerator{apiKey: apiKey, model: defaultOpenAIModel}
}

// Generate implements Generator.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", ErrOpenAIKeyMissing
	}
	client, err := openai.New(
		openai.WithModel(g.model),
		openai.WithToken(g.apiKey),
	)
	if err != nil {
		return "", fmt.Errorf("initialize openai client: %w", err)
	}
	response, err := llms.GenerateFromSinglePrompt(ctx, client, prompt,
		llms.WithMaxTokens(500),
		llms.WithTemperature(0.3),
	)
	if err != nil {
		return "", fmt.Errorf("openai generation: %w", err)
	}
	return response, nil
}

// GeminiGenerator answers prompts with the Google Gemini API.
type GeminiGenerator struct {
	apiKey string
	model  string
}

// NewGeminiGenerator creates the Gemini backend.
func NewGeminiGenerator(apiKey string) *GeminiGenerator {
	return &GeminiGenerator{apiKey: apiKey, model: defaultGeminiModel}
}

// Generate implements Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", ErrGeminiKeyMissing
	}
	client, err := googleai.New(ctx,
		googleai.WithAPIKey(g.apiKey),
		googleai.WithDefaultModel(g.model),
	)
	if err != nil {
		return "", fmt.Errorf("initialize gemini client: %w", err)
	}
	response, err := llms.GenerateFromSinglePrompt(ctx, client, prompt)
	if err != nil {
		return "", fmt.Errorf("gemini generation: %w", err)
	}
	return response, nil
}
