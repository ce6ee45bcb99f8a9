package content

import (
	"errors"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	errEmptyHTML         = errors.New("empty HTML content")
	errNoTranscriptLink  = errors.New("no transcript link found in HTML")
	errFailedToParseHTML = errors.New("failed to parse HTML for transcript link")
)

// TranscriptKind classifies a transcript link by the timing information its
// format carries.
type TranscriptKind int

const (
	// KindUnknown is a link we could not classify.
	KindUnknown TranscriptKind = iota
	// KindTimestamped is a subtitle file (.srt/.vtt) with per-cue timing.
	KindTimestamped
	// KindPlainDocument is a flat document (.pdf/.txt) without timing.
	KindPlainDocument
)

// FindTranscriptURL attempts to locate a transcript link in the HTML content
// of a podcast episode page.
//
// The strategy is:
//   - Parse the HTML with goquery
//   - Collect all <a> elements with an href
//   - Rank them by how much they look like a transcript link:
//     1) href is a timestamped subtitle file (.srt/.vtt)
//     2) Anchor text mentions "transcript" and href looks like a document
//     3) href looks like a document (.pdf/.txt)
//     4) Anchor text mentions "transcript"
//   - Return the best-matching href, or an error if none are found.
//
// Timestamped formats rank first because they feed the chunker real segment
// timing; flat documents only yield searchable text. The caller is
// responsible for resolving relative URLs against any base URL, if needed.
func FindTranscriptURL(html string) (string, error) {
	html = strings.TrimSpace(html)
	if html == "" {
		return "", errEmptyHTML
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", errors.Join(errFailedToParseHTML, err)
	}

	type candidate struct {
		href string
		text string
	}

	var (
		timestamped    []candidate // href is a subtitle file
		highPriority   []candidate // text mentions transcript AND href is document-like
		mediumPriority []candidate // href is document-like
		lowPriority    []candidate // text mentions transcript
	)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists {
			return
		}

		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		text := strings.TrimSpace(sel.Text())

		kind := ClassifyTranscriptHref(href)
		textMentionsTranscript := anchorTextMentionsTranscript(text)

		c := candidate{href: href, text: text}

		switch {
		case kind == KindTimestamped:
			timestamped = append(timestamped, c)
		case kind == KindPlainDocument && textMentionsTranscript:
			highPriority = append(highPriority, c)
		case kind == KindPlainDocument:
			mediumPriority = append(mediumPriority, c)
		case textMentionsTranscript:
			lowPriority = append(lowPriority, c)
		}
	})

	if len(timestamped) > 0 {
		return timestamped[0].href, nil
	}
	if len(highPriority) > 0 {
		return highPriority[0].href, nil
	}
	if len(mediumPriority) > 0 {
		return mediumPriority[0].href, nil
	}
	if len(lowPriority) > 0 {
		return lowPriority[0].href, nil
	}

	return "", errNoTranscriptLink
}

// ClassifyTranscriptHref reports what kind of transcript document the href
// points at, judged by its file extension.
func ClassifyTranscriptHref(href string) TranscriptKind {
	p := href
	if parsed, err := url.Parse(href); err == nil {
		p = parsed.Path
	}

	switch strings.ToLower(path.Ext(p)) {
	case ".srt", ".vtt":
		return KindTimestamped
	case ".pdf", ".txt":
		return KindPlainDocument
	default:
		return KindUnknown
	}
}

// anchorTextMentionsTranscript returns true if the anchor text clearly refers to
// a transcript link.
func anchorTextMentionsTranscript(text string) bool {
	if text == "" {
		return false
	}

	lower := strings.ToLower(text)
	return strings.Contains(lower, "transcript")
}
