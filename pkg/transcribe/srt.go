package transcribe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"podcast-rag/pkg/domain"
)

// ErrEmptyTranscriptFile reports an SRT/VTT payload with no usable cues.
var ErrEmptyTranscriptFile = errors.New("transcript file contains no cues")

// ParseSRT converts SRT or WebVTT subtitle text into a timestamped
// transcript. Each cue becomes one segment:
//
//	1
//	00:00:00,000 --> 00:00:01,830
//	I'm happy to
//	have you here today.
//
// Sequence numbers, the WEBVTT header, and NOTE blocks are skipped. Cue
// text lines between one timestamp line and the next are joined with
// spaces.
func ParseSRT(text string) (*domain.Transcript, error) {
	lines := strings.Split(text, "\n")

	var segments []domain.TranscriptSegment
	var current *domain.TranscriptSegment
	inNote := false

	flush := func() {
		if current != nil && strings.TrimSpace(current.Text) != "" {
			current.Text = strings.TrimSpace(current.Text)
			segments = append(segments, *current)
		}
		current = nil
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)

		switch {
		case line == "":
			inNote = false
			continue
		case strings.HasPrefix(line, "WEBVTT"):
			continue
		case strings.HasPrefix(line, "NOTE"):
			inNote = true
			continue
		case inNote:
			continue
		case isDigitsOnly(line):
			// SRT sequence number
			continue
		case strings.Contains(line, "-->"):
			flush()
			start, end, err := parseCueTiming(line)
			if err != nil {
				continue // Skip malformed timing lines
			}
			current = &domain.TranscriptSegment{Start: start, End: end}
		case current != nil:
			if current.Text != "" {
				current.Text += " "
			}
			current.Text += line
		}
	}
	flush()

	if len(segments) == 0 {
		return nil, ErrEmptyTranscriptFile
	}

	var parts []string
	for _, seg := range segments {
		parts = append(parts, seg.Text)
	}
	return &domain.Transcript{
		Segments: segments,
		Duration: segments[len(segments)-1].End,
		Text:     strings.Join(parts, " "),
	}, nil
}

// parseCueTiming parses "HH:MM:SS,mmm --> HH:MM:SS,mmm" (SRT) or
// "[HH:]MM:SS.mmm --> [HH:]MM:SS.mmm" (WebVTT). Cue settings after the end
// timestamp are ignored.
func parseCueTiming(line string) (float64, float64, error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed timing line: %s", line)
	}

	start, err := parseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}

	endField := strings.Fields(strings.TrimSpace(parts[1]))
	if len(endField) == 0 {
		return 0, 0, fmt.Errorf("missing end timestamp: %s", line)
	}
	end, err := parseTimestamp(endField[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// parseTimestamp converts "HH:MM:SS,mmm", "HH:MM:SS.mmm", or "MM:SS.mmm"
// into seconds.
func parseTimestamp(stamp string) (float64, error) {
	stamp = strings.ReplaceAll(stamp, ",", ".")
	fields := strings.Split(stamp, ":")
	if len(fields) < 2 || len(fields) > 3 {
		return 0, fmt.Errorf("malformed timestamp: %s", stamp)
	}

	var total float64
	for _, field := range fields {
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed timestamp %s: %w", stamp, err)
		}
		total = total*60 + value
	}
	return total, nil
}

func isDigitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
