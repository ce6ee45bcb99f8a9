package rag

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"podcast-rag/pkg/domain"
)

type fakeGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func sampleResults() domain.SearchResult {
	return domain.SearchResult{
		IDs:       []string{"ep1_chunk_0", "ep1_chunk_1"},
		Documents: []string{"we discussed generics at length", "then we argued about error handling"},
		Metadatas: []domain.ChunkMetadata{
			{EpisodeID: "ep1", EpisodeTitle: "Go Time 100", StartTime: 125, EndTime: 150, Speaker: "Speaker_0", ChunkIndex: 0},
			{EpisodeID: "ep1", EpisodeTitle: "Go Time 100", StartTime: 150, EndTime: 185, Speaker: "Speaker_1", ChunkIndex: 1},
		},
		Distances: []float64{0.1, 0.2},
	}
}

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{125, "02:05"},
		{0, "00:00"},
		{59.9, "00:59"},
		{60, "01:00"},
		{3599, "59:59"},
		{-1, "00:00"},
		{math.NaN(), "00:00"},
		{math.Inf(1), "00:00"},
	}
	for _, tc := range cases {
		if got := FormatTimestamp(tc.seconds); got != tc.want {
			t.Errorf("FormatTimestamp(%v): expected %q, got %q", tc.seconds, tc.want, got)
		}
	}
}

func TestFormatContext(t *testing.T) {
	context := FormatContext(sampleResults())

	for _, want := range []string{
		"Source 1 - Go Time 100 (02:05 - 02:30)",
		"Speaker: Speaker_0",
		"Content: we discussed generics at length",
		"Source 2 - Go Time 100 (02:30 - 03:05)",
		"Speaker: Speaker_1",
	} {
		if !strings.Contains(context, want) {
			t.Errorf("Context missing %q:\n%s", want, context)
		}
	}
}

func TestFormatContext_Empty(t *testing.T) {
	if got := FormatContext(domain.EmptySearchResult()); got != "No relevant content found." {
		t.Errorf("Expected 'No relevant content found.', got %q", got)
	}
}

func TestFormatContext_MissingMetadataDefaults(t *testing.T) {
	results := domain.SearchResult{
		IDs:       []string{"x_chunk_0"},
		Documents: []string{"some content"},
		Metadatas: []domain.ChunkMetadata{{}},
		Distances: []float64{0.5},
	}
	context := FormatContext(results)
	if !strings.Contains(context, "Unknown Episode") {
		t.Errorf("Expected Unknown Episode fallback:\n%s", context)
	}
	if !strings.Contains(context, "Unknown Speaker") {
		t.Errorf("Expected Unknown Speaker fallback:\n%s", context)
	}
}

func TestAnswer_GroundedPrompt(t *testing.T) {
	s := New(Config{})
	gen := &fakeGenerator{response: "They discussed generics at 02:05."}
	s.Register("fake", gen)

	answer := s.Answer(context.Background(), "what did they discuss?", sampleResults(), "semantic", "fake")

	if answer.Response != "They discussed generics at 02:05." {
		t.Errorf("Unexpected response: %q", answer.Response)
	}
	if answer.SearchInfo.Strategy != "semantic" || answer.SearchInfo.Model != "fake" {
		t.Errorf("Unexpected search info: %+v", answer.SearchInfo)
	}
	if answer.SearchInfo.ResultCount != 2 {
		t.Errorf("Expected result count 2, got %d", answer.SearchInfo.ResultCount)
	}

	// The prompt carries the formatted context and the fixed instructions.
	for _, want := range []string{
		"Go Time 100",
		"02:05 - 02:30",
		"User Question: what did they discuss?",
		"Answer based only on the provided context",
	} {
		if !strings.Contains(gen.lastPrompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
}

func TestAnswer_PromptIndependentOfStrategy(t *testing.T) {
	s := New(Config{})
	gen := &fakeGenerator{response: "ok"}
	s.Register("fake", gen)
	ctx := context.Background()

	s.Answer(ctx, "q", sampleResults(), "semantic", "fake")
	semanticPrompt := gen.lastPrompt
	s.Answer(ctx, "q", sampleResults(), "hybrid", "fake")

	if gen.lastPrompt != semanticPrompt {
		t.Error("Prompt changed with search strategy; it must not")
	}
}

func TestAnswer_UnknownModel(t *testing.T) {
	s := New(Config{})

	answer := s.Answer(context.Background(), "query", sampleResults(), "semantic", "claude")

	if !strings.HasPrefix(answer.Response, "Error: Unknown model 'claude'") {
		t.Errorf("Unexpected unknown-model response: %q", answer.Response)
	}
	if !strings.Contains(answer.Response, "gemini") || !strings.Contains(answer.Response, "openai") {
		t.Errorf("Expected available models listed, got %q", answer.Response)
	}
	if answer.Sources.Len() != 2 {
		t.Errorf("Sources must survive an unknown model, got %d", answer.Sources.Len())
	}
}

func TestAnswer_GenerationFailureBecomesErrorString(t *testing.T) {
	s := New(Config{})
	s.Register("fake", &fakeGenerator{err: errors.New("rate limited")})

	answer := s.Answer(context.Background(), "query", sampleResults(), "keyword", "fake")

	if !strings.HasPrefix(answer.Response, "Error: ") {
		t.Errorf("Expected Error-prefixed response, got %q", answer.Response)
	}
	if !strings.Contains(answer.Response, "rate limited") {
		t.Errorf("Expected cause in response, got %q", answer.Response)
	}
	if answer.Sources.Len() != 2 {
		t.Errorf("Sources must survive a generation failure, got %d", answer.Sources.Len())
	}
	if answer.SearchInfo.ResultCount != 2 {
		t.Errorf("Search info must survive a generation failure, got %+v", answer.SearchInfo)
	}
}

func TestAnswer_MissingCredentials(t *testing.T) {
	// No keys injected: the standard backends answer with a configuration
	// error instead of raising.
	s := New(Config{})
	ctx := context.Background()

	openaiAnswer := s.Answer(ctx, "query", sampleResults(), "semantic", ModelOpenAI)
	if !strings.HasPrefix(openaiAnswer.Response, "Error: ") ||
		!strings.Contains(openaiAnswer.Response, "OpenAI API key not configured") {
		t.Errorf("Unexpected missing-key response: %q", openaiAnswer.Response)
	}

	geminiAnswer := s.Answer(ctx, "query", sampleResults(), "semantic", ModelGemini)
	if !strings.Contains(geminiAnswer.Response, "Gemini API key not configured") {
		t.Errorf("Unexpected missing-key response: %q", geminiAnswer.Response)
	}
}

func TestAnswer_DefaultModel(t *testing.T) {
	s := New(Config{DefaultModel: "fake"})
	s.Register("fake", &fakeGenerator{response: "from default"})

	answer := s.Answer(context.Background(), "query", sampleResults(), "semantic", "")
	if answer.Response != "from default" {
		t.Errorf("Expected default model to serve the request, got %q", answer.Response)
	}
	if answer.SearchInfo.Model != "fake" {
		t.Errorf("Expected model 'fake' in search info, got %q", answer.SearchInfo.Model)
	}
}

func TestAnswer_EmptyResults(t *testing.T) {
	s := New(Config{})
	gen := &fakeGenerator{response: "I don't have enough context."}
	s.Register("fake", gen)

	answer := s.Answer(context.Background(), "query", domain.EmptySearchResult(), "semantic", "fake")

	if !strings.Contains(gen.lastPrompt, "No relevant content found.") {
		t.Error("Expected empty-context marker in prompt")
	}
	if answer.SearchInfo.ResultCount != 0 {
		t.Errorf("Expected result count 0, got %d", answer.SearchInfo.ResultCount)
	}
}
