package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"podcast-rag/pkg/domain"
)

const openAITranscriptionURL = "https://api.openai.com/v1/audio/transcriptions"

// OpenAIBackend transcribes audio through the OpenAI audio.transcriptions
// API, requesting verbose JSON so segment and word timestamps come back.
type OpenAIBackend struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAIBackend creates the backend. Model defaults to "whisper-1".
func NewOpenAIBackend(apiKey, model string) *OpenAIBackend {
	if model == "" {
		model = "whisper-1"
	}
	return &OpenAIBackend{
		apiKey:  apiKey,
		model:   model,
		baseURL: openAITranscriptionURL,
		// Long-running uploads: transcription of an hour-long episode
		// can take minutes.
		client: &http.Client{Timeout: 30 * time.Minute},
	}
}

type openAIWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type openAISegment struct {
	Start float64      `json:"start"`
	End   float64      `json:"end"`
	Text  string       `json:"text"`
	Words []openAIWord `json:"words"`
}

type openAIResponse struct {
	Text     string          `json:"text"`
	Duration float64         `json:"duration"`
	Segments []openAISegment `json:"segments"`
	Words    []openAIWord    `json:"words"`
}

// Transcribe uploads the audio file and converts the verbose JSON response
// into a Transcript. An empty segment list is an error.
func (b *OpenAIBackend) Transcribe(ctx context.Context, audioPath string) (*domain.Transcript, error) {
	if b.apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not configured")
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := map[string]string{
		"model":                     b.model,
		"response_format":           "verbose_json",
		"timestamp_granularities[]": "segment",
	}
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", key, err)
		}
	}
	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(fw, file); err != nil {
		return nil, fmt.Errorf("copy audio into request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL, &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("transcription API status %d: %s", resp.StatusCode, string(data))
	}

	var parsed openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode transcription response: %w", err)
	}
	if len(parsed.Segments) == 0 {
		return nil, ErrNoSegments
	}

	transcript := &domain.Transcript{
		Duration: parsed.Duration,
		Text:     parsed.Text,
	}
	for _, seg := range parsed.Segments {
		segment := domain.TranscriptSegment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		}
		for _, w := range seg.Words {
			segment.Words = append(segment.Words, domain.Word{Word: w.Word, Start: w.Start, End: w.End})
		}
		transcript.Segments = append(transcript.Segments, segment)
	}
	return transcript, nil
}
