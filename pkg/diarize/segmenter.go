package diarize

import (
	"fmt"

	"podcast-rag/pkg/domain"
)

// Segmenter assigns a speaker label to every transcript segment.
//
// Implementations are heuristics, not acoustic diarization: the default
// pause-based variant cannot tell apart two speakers who interrupt each
// other without a pause, and will over-segment a single speaker who pauses
// for dramatic effect. Callers must treat an empty assignment as "label
// every chunk Unknown", never as a fatal condition.
type Segmenter interface {
	AssignSpeakers(segments []domain.TranscriptSegment) (domain.SpeakerAssignment, error)
}

// DefaultPauseThreshold is the inter-segment silence, in seconds, above
// which the pause segmenter assumes the speaker changed.
const DefaultPauseThreshold = 2.0

// PauseSegmenter labels speakers from inter-segment pause duration: a new
// label is opened whenever the gap between consecutive segments exceeds the
// threshold. Labels are "Speaker_N" with N strictly increasing; a label is
// never reused once the counter has advanced past it.
type PauseSegmenter struct {
	// PauseThreshold in seconds. Zero or negative falls back to
	// DefaultPauseThreshold.
	PauseThreshold float64
}

// NewPauseSegmenter returns a pause segmenter with the default threshold.
func NewPauseSegmenter() *PauseSegmenter {
	return &PauseSegmenter{PauseThreshold: DefaultPauseThreshold}
}

// AssignSpeakers performs a single linear scan over the segments. Segment 0
// is always Speaker_0; segment i gets a new label when
// segments[i].Start - segments[i-1].End exceeds the threshold, otherwise it
// inherits the previous segment's label. Empty input yields an empty
// assignment and no error.
func (s *PauseSegmenter) AssignSpeakers(segments []domain.TranscriptSegment) (domain.SpeakerAssignment, error) {
	assignment := domain.SpeakerAssignment{}
	if len(segments) == 0 {
		return assignment, nil
	}

	threshold := s.PauseThreshold
	if threshold <= 0 {
		threshold = DefaultPauseThreshold
	}

	speakerCount := 0
	assignment[0] = speakerLabel(speakerCount)

	for i := 1; i < len(segments); i++ {
		pause := segments[i].Start - segments[i-1].End
		if pause > threshold {
			speakerCount++
			assignment[i] = speakerLabel(speakerCount)
		} else {
			assignment[i] = assignment[i-1]
		}
	}

	return assignment, nil
}

func speakerLabel(n int) string {
	return fmt.Sprintf("Speaker_%d", n)
}
