package feedingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"podcast-rag/pkg/chunker"
	"podcast-rag/pkg/diarize"
	"podcast-rag/pkg/domain"
	"podcast-rag/pkg/engine"
	"podcast-rag/pkg/episodes"
	"podcast-rag/pkg/index"
	"podcast-rag/pkg/rag"
	"podcast-rag/pkg/vectorstore"
)

type flatEmbedder struct{}

func (flatEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0}
	}
	return vectors, nil
}

func (flatEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func newTestService(t *testing.T) (*Service, *engine.Engine) {
	t.Helper()
	eng := engine.New(
		diarize.NewPauseSegmenter(),
		chunker.New(),
		index.New(flatEmbedder{}, vectorstore.NewMemory()),
		episodes.NewStore(t.TempDir()),
		rag.New(rag.Config{}),
	)
	service, err := New(Config{Engine: eng})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return service, eng
}

const episodeSRT = `1
00:00:00,000 --> 00:00:05,000
Welcome back to the show.

2
00:00:08,000 --> 00:00:12,000
Thanks for having me.
`

func TestProcessEpisode_PublishedTranscript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".srt") {
			w.Write([]byte(episodeSRT))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	service, eng := newTestService(t)

	ref := domain.EpisodeRef{
		Title:         "Episode 42",
		PageURL:       server.URL + "/episodes/42",
		TranscriptURL: server.URL + "/transcripts/42.srt",
	}
	if err := service.ProcessEpisode(context.Background(), ref); err != nil {
		t.Fatalf("ProcessEpisode failed: %v", err)
	}

	stats, err := eng.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Index.TotalEpisodes != 1 || stats.Index.TotalChunks == 0 {
		t.Errorf("expected indexed episode, got %+v", stats.Index)
	}
}

func TestProcessEpisode_DiscoversTranscriptOnPage(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, ".srt"):
			w.Write([]byte(episodeSRT))
		case strings.Contains(r.URL.Path, "/episodes/"):
			w.Write([]byte(`<html><head><title>Episode 42</title></head>
<body><h1>Episode 42</h1>
<p><a href="/transcripts/42.srt">Transcript</a></p>
</body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	service, eng := newTestService(t)

	// No transcript URL in the feed: the page must be fetched and the
	// relative link resolved.
	ref := domain.EpisodeRef{PageURL: server.URL + "/episodes/42"}
	if err := service.ProcessEpisode(context.Background(), ref); err != nil {
		t.Fatalf("ProcessEpisode failed: %v", err)
	}

	stats, err := eng.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Index.TotalEpisodes != 1 {
		t.Errorf("expected 1 indexed episode, got %+v", stats.Index)
	}
	// Title came from the page.
	for _, title := range stats.Index.EpisodeTitles {
		if title != "Episode 42" {
			t.Errorf("unexpected episode title: %q", title)
		}
	}
}

func TestProcessEpisode_PlainTextTranscript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("A   flat transcript\nwith odd   whitespace."))
	}))
	defer server.Close()

	service, eng := newTestService(t)

	ref := domain.EpisodeRef{
		Title:         "Episode 41",
		PageURL:       server.URL + "/episodes/41",
		TranscriptURL: server.URL + "/transcripts/41.txt",
	}
	if err := service.ProcessEpisode(context.Background(), ref); err != nil {
		t.Fatalf("ProcessEpisode failed: %v", err)
	}

	answer := eng.QueryEpisode(context.Background(), firstEpisodeID(t, eng), "", 10, "missing-model")
	if answer.Sources.Len() != 1 {
		t.Fatalf("expected 1 chunk, got %d", answer.Sources.Len())
	}
	if answer.Sources.Documents[0] != "A flat transcript with odd whitespace." {
		t.Errorf("unexpected chunk text: %q", answer.Sources.Documents[0])
	}
}

func firstEpisodeID(t *testing.T, eng *engine.Engine) string {
	t.Helper()
	stats, err := eng.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if len(stats.Index.EpisodeIDs) == 0 {
		t.Fatal("no episodes indexed")
	}
	return stats.Index.EpisodeIDs[0]
}

func TestProcessEpisode_NoTranscriptAnywhere(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Episode 40</title></head><body><p>show notes only</p></body></html>`))
	}))
	defer server.Close()

	service, _ := newTestService(t)

	ref := domain.EpisodeRef{PageURL: server.URL + "/episodes/40"}
	if err := service.ProcessEpisode(context.Background(), ref); !errors.Is(err, ErrNoTranscript) {
		t.Fatalf("expected ErrNoTranscript, got %v", err)
	}
}

func TestIngestFromFeed(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/feed.xml":
			feedXML := `<?xml version="1.0"?>
<rss version="2.0" xmlns:podcast="https://podcastindex.org/namespace/1.0">
<channel><title>Show</title>
<item><title>Ep 1</title><link>` + server.URL + `/episodes/1</link>
<podcast:transcript url="` + server.URL + `/transcripts/1.srt" type="application/x-subrip"/></item>
<item><title>Ep 2</title><link>` + server.URL + `/episodes/2</link>
<podcast:transcript url="` + server.URL + `/transcripts/2.srt" type="application/x-subrip"/></item>
</channel></rss>`
			w.Write([]byte(feedXML))
		case strings.HasSuffix(r.URL.Path, ".srt"):
			w.Write([]byte(episodeSRT))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	service, eng := newTestService(t)
	service.SetWorkers(2)

	if err := service.IngestFromFeed(context.Background(), server.URL+"/feed.xml", 0); err != nil {
		t.Fatalf("IngestFromFeed failed: %v", err)
	}

	stats, err := eng.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Index.TotalEpisodes != 2 {
		t.Errorf("expected 2 indexed episodes, got %+v", stats.Index)
	}
}

func TestIngestFromFeed_MaxLimit(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/feed.xml":
			feedXML := `<?xml version="1.0"?>
<rss version="2.0" xmlns:podcast="https://podcastindex.org/namespace/1.0">
<channel><title>Show</title>
<item><title>Ep 1</title><link>` + server.URL + `/episodes/1</link>
<podcast:transcript url="` + server.URL + `/transcripts/1.srt" type="application/x-subrip"/></item>
<item><title>Ep 2</title><link>` + server.URL + `/episodes/2</link>
<podcast:transcript url="` + server.URL + `/transcripts/2.srt" type="application/x-subrip"/></item>
</channel></rss>`
			w.Write([]byte(feedXML))
		case strings.HasSuffix(r.URL.Path, ".srt"):
			w.Write([]byte(episodeSRT))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	service, eng := newTestService(t)

	if err := service.IngestFromFeed(context.Background(), server.URL+"/feed.xml", 1); err != nil {
		t.Fatalf("IngestFromFeed failed: %v", err)
	}

	stats, err := eng.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Index.TotalEpisodes != 1 {
		t.Errorf("expected max to cap at 1 episode, got %+v", stats.Index)
	}
}

func TestIngestFromFeed_EmptyURL(t *testing.T) {
	service, _ := newTestService(t)
	if err := service.IngestFromFeed(context.Background(), "", 0); !errors.Is(err, ErrEmptyFeedURL) {
		t.Fatalf("expected ErrEmptyFeedURL, got %v", err)
	}
}

func TestTranscriptFromPlainText(t *testing.T) {
	transcript := transcriptFromPlainText("  hello\n\n  world  ")
	if transcript.Text != "hello world" {
		t.Errorf("expected normalized text, got %q", transcript.Text)
	}
	if len(transcript.Segments) != 1 || transcript.Segments[0].End != 0 {
		t.Errorf("expected one untimed segment, got %+v", transcript.Segments)
	}
}
