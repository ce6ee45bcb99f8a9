package content

import (
	"strings"
	"testing"
)

const episodePageHTML = `<!DOCTYPE html>
<html>
<head>
<title>Episode 42: Streaming Systems | The Data Show</title>
<meta property="og:title" content="Episode 42: Streaming Systems">
</head>
<body>
<h1>Episode 42: Streaming Systems</h1>
<article>
<p>In this episode we talk with a guest about streaming systems, watermarks,
and the tradeoffs of exactly-once processing. The discussion covers state
management, checkpointing, and how production teams operate these systems
at scale.</p>
<p>Further reading and show notes are available on the episode page.</p>
</article>
</body>
</html>`

func TestExtractTitle(t *testing.T) {
	title, err := ExtractTitle(episodePageHTML)
	if err != nil {
		t.Fatalf("ExtractTitle returned error: %v", err)
	}
	if !strings.Contains(title, "Streaming Systems") {
		t.Fatalf("unexpected title: %q", title)
	}
}

func TestExtractTitle_FallsBackToH1(t *testing.T) {
	html := `<html><body><h1>Only Heading Here</h1><p>body</p></body></html>`
	title, err := ExtractTitle(html)
	if err != nil {
		t.Fatalf("ExtractTitle returned error: %v", err)
	}
	if title != "Only Heading Here" {
		t.Fatalf("unexpected title: %q", title)
	}
}

func TestExtractText(t *testing.T) {
	text, err := ExtractText(episodePageHTML)
	if err != nil {
		t.Fatalf("ExtractText returned error: %v", err)
	}
	if !strings.Contains(text, "streaming systems") {
		t.Fatalf("expected article text, got %q", text)
	}
}

func TestExtractInlineTranscript(t *testing.T) {
	html := `<html><body>
<div id="transcriptTab">
<a class="transcriptUtterance">Welcome back to the show.</a>
<a class="transcriptUtterance">Thanks for having me.</a>
</div>
</body></html>`

	transcript, err := ExtractInlineTranscript(html)
	if err != nil {
		t.Fatalf("ExtractInlineTranscript returned error: %v", err)
	}
	want := "Welcome back to the show. Thanks for having me."
	if transcript != want {
		t.Fatalf("ExtractInlineTranscript = %q, want %q", transcript, want)
	}
}

func TestExtractInlineTranscript_Missing(t *testing.T) {
	if _, err := ExtractInlineTranscript("<html><body><p>no transcript here</p></body></html>"); err == nil {
		t.Fatal("expected error when no transcript container exists")
	}
}

func TestInlineTranscriptExtractor_FallsBack(t *testing.T) {
	extractor := NewInlineTranscriptExtractor()
	text, err := extractor.ExtractText(episodePageHTML)
	if err != nil {
		t.Fatalf("ExtractText returned error: %v", err)
	}
	if !strings.Contains(text, "streaming systems") {
		t.Fatalf("expected fallback to page text, got %q", text)
	}
}
