// Package rag assembles retrieved transcript chunks into grounded context
// and asks a language backend for a cited answer.
package rag

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"podcast-rag/pkg/domain"
)

// Generator is one language backend. A failed generation returns an error;
// the synthesizer converts it into a displayable message and never lets it
// escape Answer.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SearchInfo describes how an answer was produced.
type SearchInfo struct {
	Strategy    string `json:"strategy"`
	Model       string `json:"model"`
	ResultCount int    `json:"results_count"`
}

// Answer is the synthesizer's output. Sources always carry the retrieval
// result, even when generation failed: retrieval success is independent of
// generation success.
type Answer struct {
	Response   string              `json:"response"`
	Sources    domain.SearchResult `json:"sources"`
	SearchInfo SearchInfo          `json:"search_info"`
}

// Config holds the synthesizer's injected configuration. Credentials are
// passed in explicitly so tests can swap fake backends.
type Config struct {
	OpenAIKey    string
	GeminiKey    string
	DefaultModel string
}

// Synthesizer dispatches answer generation to a registered backend by id.
type Synthesizer struct {
	generators   map[string]Generator
	defaultModel string
}

// New builds a synthesizer with the two standard backends registered under
// the ids "openai" and "gemini". Backends with missing credentials are
// still registered; they report the missing key as an error message at
// call time rather than failing construction.
func New(cfg Config) *Synthesizer {
	defaultModel := cfg.DefaultModel
	if defaultModel == "" {
		defaultModel = ModelGemini
	}
	s := &Synthesizer{
		generators:   make(map[string]Generator),
		defaultModel: defaultModel,
	}
	s.Register(ModelOpenAI, NewOpenAIGenerator(cfg.OpenAIKey))
	s.Register(ModelGemini, NewGeminiGenerator(cfg.GeminiKey))
	return s
}

// Register adds or replaces a backend under the given id.
func (s *Synthesizer) Register(id string, gen Generator) {
	s.generators[id] = gen
}

// AvailableModels lists the registered backend ids, sorted.
func (s *Synthesizer) AvailableModels() []string {
	ids := make([]string, 0, len(s.generators))
	for id := range s.generators {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Answer formats the retrieved chunks into grounded context and asks the
// selected backend for a response. Every failure becomes a displayable
// "Error: ..." response; Answer never returns an error.
func (s *Synthesizer) Answer(ctx context.Context, query string, results domain.SearchResult, strategy, model string) Answer {
	if model == "" {
		model = s.defaultModel
	}

	answer := Answer{
		Sources: results,
		SearchInfo: SearchInfo{
			Strategy:    strategy,
			Model:       model,
			ResultCount: results.Len(),
		},
	}

	gen, ok := s.generators[model]
	if !ok {
		answer.Response = fmt.Sprintf("Error: Unknown model '%s'. Available models: %s",
			model, strings.Join(s.AvailableModels(), ", "))
		return answer
	}

	prompt := buildPrompt(query, FormatContext(results))
	response, err := gen.Generate(ctx, prompt)
	if err != nil {
		log.Printf("Error generating response with %s: %v", model, err)
		answer.Response = fmt.Sprintf("Error: %v", err)
		return answer
	}

	answer.Response = response
	return answer
}

// FormatContext renders the retrieved chunks as numbered source blocks for
// the prompt. Pairs with an empty document or metadata are skipped.
func FormatContext(results domain.SearchResult) string {
	if results.Len() == 0 {
		return "No relevant content found."
	}

	var parts []string
	for i := 0; i < results.Len(); i++ {
		doc := results.Documents[i]
		if doc == "" || i >= len(results.Metadatas) {
			continue
		}
		meta := results.Metadatas[i]

		title := meta.EpisodeTitle
		if title == "" {
			title = "Unknown Episode"
		}
		speaker := meta.Speaker
		if speaker == "" {
			speaker = "Unknown Speaker"
		}

		parts = append(parts, fmt.Sprintf("Source %d - %s (%s - %s)\nSpeaker: %s\nContent: %s",
			i+1, title, FormatTimestamp(meta.StartTime), FormatTimestamp(meta.EndTime), speaker, doc))
	}

	if len(parts) == 0 {
		return "No relevant content found."
	}
	return strings.Join(parts, "\n\n")
}

// buildPrompt applies the fixed instruction template. The instructions do
// not vary by search strategy.
func buildPrompt(query, context string) string {
	return fmt.Sprintf(`You are an AI assistant that helps users find information from podcast transcripts.
Based on the provided context from podcast episodes, answer the user's question accurately and provide specific timestamps when possible.

Context from podcast transcripts:
%s

User Question: %s

Instructions:
1. Answer based only on the provided context
2. Include specific episode titles and timestamps in your response
3. If the context doesn't contain enough information, say so
4. Provide direct quotes when relevant
5. Format timestamps as MM:SS
6. Mention speakers when relevant
7. If searching across multiple episodes, highlight patterns or differences

Answer:`, context, query)
}

// FormatTimestamp renders seconds as MM:SS, flooring both fields. Negative
// or non-finite input formats as "00:00".
func FormatTimestamp(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "00:00"
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
