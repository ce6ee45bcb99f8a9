// Package embedder wraps the embedding backend behind a narrow interface so
// the index can be tested with deterministic fakes.
package embedder

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder turns text into vectors. Distances over these vectors define the
// semantic search ranking.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Config holds the embedding backend configuration, injected explicitly
// rather than read from the environment inside the package.
type Config struct {
	// APIKey for the OpenAI embeddings API.
	APIKey string
	// Model is the embedding model name, e.g. "text-embedding-3-small".
	Model string
}

// OpenAI is an Embedder backed by the OpenAI embeddings API via langchaingo.
type OpenAI struct {
	impl embeddings.Embedder
}

// NewOpenAI constructs the OpenAI embedder.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	opts := []openai.Option{}
	if cfg.Model != "" {
		opts = append(opts, openai.WithEmbeddingModel(cfg.Model))
	}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize openai client: %w", err)
	}
	impl, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("construct openai embedder: %w", err)
	}
	return &OpenAI{impl: impl}, nil
}

// EmbedDocuments embeds a batch of document texts.
func (e *OpenAI) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (e *OpenAI) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vector, nil
}
