// Package feedingest turns a podcast RSS feed into indexed, queryable
// episodes: discover episodes, obtain a transcript for each (published
// file, inline page content, or audio transcription), and run them through
// the processing engine.
package feedingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"podcast-rag/pkg/content"
	"podcast-rag/pkg/db"
	"podcast-rag/pkg/domain"
	"podcast-rag/pkg/engine"
	"podcast-rag/pkg/feed"
	"podcast-rag/pkg/httpclient"
	"podcast-rag/pkg/transcribe"
)

var (
	ErrEmptyFeedURL    = errors.New("feed URL is empty")
	ErrEmptyEpisodeURL = errors.New("episode URL is empty")
	ErrNoTranscript    = errors.New("no transcript could be obtained for episode")
	ErrNilEngine       = errors.New("processing engine is required")
)

// Service ingests podcast episodes discovered via RSS feeds.
type Service struct {
	feed    *feed.Parser
	client  *httpclient.HTTPClient
	engine  *engine.Engine
	archive *db.Client         // optional: skip-already-seen plus durable episode records
	backend transcribe.Backend // optional: audio transcription fallback
	workers int
}

// Config wires the ingest dependencies. Engine is required; Archive and
// Backend are optional.
type Config struct {
	Engine  *engine.Engine
	Archive *db.Client
	Backend transcribe.Backend
	Client  *httpclient.HTTPClient
}

// New creates a new feed ingest service.
func New(cfg Config) (*Service, error) {
	if cfg.Engine == nil {
		return nil, ErrNilEngine
	}
	client := cfg.Client
	if client == nil {
		client = httpclient.NewClient(httpclient.BrowserClient)
	}
	return &Service{
		feed:    feed.NewParser(),
		client:  client,
		engine:  cfg.Engine,
		archive: cfg.Archive,
		backend: cfg.Backend,
		workers: 4,
	}, nil
}

// SetWorkers sets the number of parallel workers used to process episodes.
// If workers <= 0, it will be coerced to 1.
func (s *Service) SetWorkers(workers int) {
	if workers <= 0 {
		s.workers = 1
		return
	}
	s.workers = workers
}

// IngestFromFeed discovers episodes from the feed, then processes each one:
// obtain a transcript, chunk and index it, and record the episode.
//
// max limits the number of episodes processed. If max <= 0, every episode in
// the feed is processed. Individual episode failures are logged and skipped.
func (s *Service) IngestFromFeed(ctx context.Context, feedURL string, max int) error {
	if feedURL == "" {
		return ErrEmptyFeedURL
	}

	refs, err := s.feed.ParseFromURL(feedURL)
	if err != nil {
		return fmt.Errorf("parse feed: %w", err)
	}

	if max > 0 && len(refs) > max {
		refs = refs[:max]
	}

	// Filter out episodes whose page URL is already archived.
	if s.archive != nil {
		urls := make([]string, 0, len(refs))
		for _, ref := range refs {
			urls = append(urls, ref.PageURL)
		}
		if existing, err := s.archive.GetExistingSourceURLs(ctx, urls); err == nil && len(existing) > 0 {
			filtered := refs[:0]
			for _, ref := range refs {
				if !existing[ref.PageURL] {
					filtered = append(filtered, ref)
				}
			}
			refs = filtered
		}
	}

	return s.processEpisodesInParallel(ctx, refs)
}

func (s *Service) processEpisodesInParallel(ctx context.Context, refs []domain.EpisodeRef) error {
	if len(refs) == 0 {
		return nil
	}

	jobs := make(chan domain.EpisodeRef)

	var wg sync.WaitGroup
	wg.Add(s.workers)

	for i := 0; i < s.workers; i++ {
		go func() {
			defer wg.Done()
			for ref := range jobs {
				if err := s.ProcessEpisode(ctx, ref); err != nil {
					log.Printf("Skipping episode %q: %v", ref.Title, err)
				}
			}
		}()
	}

	for _, ref := range refs {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- ref:
		}
	}

	close(jobs)
	wg.Wait()
	return nil
}

// ProcessEpisode obtains a transcript for one discovered episode and runs it
// through the engine. Transcript sources are tried in order of timing
// quality: a published transcript file, then inline page content, then
// audio transcription.
func (s *Service) ProcessEpisode(ctx context.Context, ref domain.EpisodeRef) error {
	if strings.TrimSpace(ref.PageURL) == "" {
		return ErrEmptyEpisodeURL
	}

	title := strings.TrimSpace(ref.Title)
	transcriptURL := strings.TrimSpace(ref.TranscriptURL)

	var pageHTML string
	if transcriptURL == "" || title == "" {
		body, _, err := s.fetch(ctx, ref.PageURL)
		if err != nil {
			return fmt.Errorf("fetch episode page: %w", err)
		}
		pageHTML = string(body)

		if title == "" {
			if extracted, err := content.ExtractTitle(pageHTML); err == nil {
				title = extracted
			}
		}
		if transcriptURL == "" {
			if found, err := content.FindTranscriptURL(pageHTML); err == nil {
				if resolved, err := resolveAgainst(ref.PageURL, found); err == nil {
					transcriptURL = resolved
				}
			}
		}
	}
	if title == "" {
		title = ref.PageURL
	}

	transcript, err := s.obtainTranscript(ctx, transcriptURL, pageHTML, ref.AudioURL)
	if err != nil {
		return err
	}

	episodeID := uuid.NewString()
	result, err := s.engine.Ingest(ctx, transcript, episodeID, title)
	if err != nil {
		return fmt.Errorf("ingest episode: %w", err)
	}

	if s.archive != nil {
		episode := &domain.Episode{
			ID:         episodeID,
			Title:      title,
			Chunks:     result.ChunksIndexed,
			Duration:   transcript.Duration,
			Speakers:   result.Speakers,
			SourceFile: ref.PageURL,
		}
		if err := s.archive.SaveEpisode(ctx, episode); err != nil {
			return fmt.Errorf("archive episode: %w", err)
		}
	}

	return nil
}

// obtainTranscript tries each transcript source in turn.
func (s *Service) obtainTranscript(ctx context.Context, transcriptURL, pageHTML, audioURL string) (*domain.Transcript, error) {
	if transcriptURL != "" {
		transcript, err := s.downloadTranscript(ctx, transcriptURL)
		if err == nil {
			return transcript, nil
		}
		log.Printf("Transcript download failed for %s: %v", transcriptURL, err)
	}

	if pageHTML != "" {
		if text, err := content.ExtractInlineTranscript(pageHTML); err == nil && text != "" {
			return transcriptFromPlainText(text), nil
		}
	}

	if audioURL != "" && s.backend != nil {
		transcript, err := s.transcribeAudio(ctx, audioURL)
		if err == nil {
			return transcript, nil
		}
		log.Printf("Audio transcription failed for %s: %v", audioURL, err)
	}

	return nil, ErrNoTranscript
}

// downloadTranscript fetches a transcript file and parses it according to
// its format. Subtitle formats keep their timing; flat documents become a
// single untimed segment.
func (s *Service) downloadTranscript(ctx context.Context, transcriptURL string) (*domain.Transcript, error) {
	body, contentType, err := s.fetch(ctx, transcriptURL)
	if err != nil {
		return nil, err
	}

	switch content.ClassifyTranscriptHref(transcriptURL) {
	case content.KindTimestamped:
		return transcribe.ParseSRT(string(body))
	case content.KindPlainDocument:
		if strings.HasSuffix(strings.ToLower(urlPath(transcriptURL)), ".pdf") {
			text, err := content.ExtractTextFromPDFReader(bytes.NewReader(body))
			if err != nil {
				return nil, err
			}
			return transcriptFromPlainText(text), nil
		}
		return transcriptFromPlainText(string(body)), nil
	}

	// Unknown extension: decide by content type.
	lct := strings.ToLower(contentType)
	switch {
	case strings.Contains(lct, "subrip") || strings.Contains(lct, "vtt"):
		return transcribe.ParseSRT(string(body))
	case strings.Contains(lct, "application/pdf"):
		text, err := content.ExtractTextFromPDFReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		return transcriptFromPlainText(text), nil
	case strings.Contains(lct, "text/plain"):
		return transcriptFromPlainText(string(body)), nil
	default:
		return nil, fmt.Errorf("unsupported transcript content type %q", contentType)
	}
}

// transcribeAudio downloads the audio enclosure to a temp file and runs the
// transcription backend over it.
func (s *Service) transcribeAudio(ctx context.Context, audioURL string) (*domain.Transcript, error) {
	resp, err := s.client.GetContext(ctx, audioURL)
	if err != nil {
		return nil, fmt.Errorf("fetch audio: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "episode-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("create temp audio file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("download audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close temp audio file: %w", err)
	}

	return s.backend.Transcribe(ctx, tmp.Name())
}

func (s *Service) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	resp, err := s.client.GetContext(ctx, rawURL)
	if err != nil {
		return nil, "", err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != 200 {
		return nil, "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// transcriptFromPlainText wraps untimed transcript text as a single
// zero-duration segment. The chunker still produces a searchable chunk;
// its timestamps just carry no information.
func transcriptFromPlainText(text string) *domain.Transcript {
	text = strings.Join(strings.Fields(text), " ")
	return &domain.Transcript{
		Segments: []domain.TranscriptSegment{{Start: 0, End: 0, Text: text}},
		Text:     text,
	}
}

func resolveAgainst(baseURL, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty reference URL")
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(u).String(), nil
}

func urlPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}

func drainAndClose(rc io.ReadCloser) {
	if rc == nil {
		return
	}
	_, _ = io.Copy(io.Discard, rc)
	_ = rc.Close()
}
