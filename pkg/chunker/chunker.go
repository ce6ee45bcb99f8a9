// Package chunker merges transcript segments into retrievable chunks bounded
// by a duration threshold and speaker continuity.
package chunker

import (
	"strings"

	"podcast-rag/pkg/domain"
)

// DefaultChunkDuration is the soft duration bound, in seconds, at which an
// accumulating chunk is closed.
const DefaultChunkDuration = 30.0

// UnknownSpeaker labels segments with no speaker assignment.
const UnknownSpeaker = "Unknown"

// Chunker splits a transcript into time-based, speaker-coherent chunks.
//
// A chunk is closed as soon as its span reaches or exceeds ChunkDuration,
// measured after the triggering segment has been absorbed, so a chunk may
// overshoot the bound by at most one segment's length. Segments are never
// split. A speaker change always closes the current chunk regardless of
// duration. The same input always yields the same chunk sequence.
type Chunker struct {
	// ChunkDuration in seconds. Zero or negative falls back to
	// DefaultChunkDuration.
	ChunkDuration float64
}

// New returns a chunker with the default duration bound.
func New() *Chunker {
	return &Chunker{ChunkDuration: DefaultChunkDuration}
}

// accumulator is the chunk-in-progress. It is a value type with explicit
// open/absorb/close transitions so partial state is never aliased.
type accumulator struct {
	open      bool
	speaker   string
	startTime float64
	endTime   float64
	parts     []string
	words     []domain.Word
}

func (a *accumulator) openWith(seg domain.TranscriptSegment, speaker string) {
	a.open = true
	a.speaker = speaker
	a.startTime = seg.Start
	a.endTime = seg.End
	a.parts = a.parts[:0]
	a.absorb(seg)
}

func (a *accumulator) absorb(seg domain.TranscriptSegment) {
	a.endTime = seg.End
	if text := strings.TrimSpace(seg.Text); text != "" {
		a.parts = append(a.parts, text)
	}
	a.words = append(a.words, seg.Words...)
}

func (a *accumulator) span() float64 {
	return a.endTime - a.startTime
}

func (a *accumulator) text() string {
	return strings.Join(a.parts, " ")
}

// close emits the accumulated chunk and resets the accumulator. Chunks whose
// accumulated text is empty are discarded.
func (a *accumulator) close() (domain.Chunk, bool) {
	chunk := domain.Chunk{
		Text:      a.text(),
		StartTime: a.startTime,
		EndTime:   a.endTime,
		Speaker:   a.speaker,
		Words:     a.words,
	}
	*a = accumulator{}
	if chunk.Text == "" {
		return domain.Chunk{}, false
	}
	return chunk, true
}

// Chunk merges the transcript's segments into an ordered chunk sequence.
// Speakers come from the assignment when present, defaulting to Unknown.
// A nil or empty assignment labels every chunk Unknown.
func (c *Chunker) Chunk(segments []domain.TranscriptSegment, speakers domain.SpeakerAssignment) []domain.Chunk {
	maxDuration := c.ChunkDuration
	if maxDuration <= 0 {
		maxDuration = DefaultChunkDuration
	}

	chunks := []domain.Chunk{}
	var acc accumulator

	for i, seg := range segments {
		speaker := UnknownSpeaker
		if s, ok := speakers[i]; ok && s != "" {
			speaker = s
		}

		switch {
		case !acc.open:
			acc.openWith(seg, speaker)
		case speaker != acc.speaker && acc.text() != "":
			// A speaker change closes the chunk with the prior
			// speaker's content only; the new segment opens the
			// next chunk.
			if chunk, ok := acc.close(); ok {
				chunks = append(chunks, chunk)
			}
			acc.openWith(seg, speaker)
		default:
			acc.absorb(seg)
		}

		if acc.span() >= maxDuration {
			if chunk, ok := acc.close(); ok {
				chunks = append(chunks, chunk)
			}
		}
	}

	if acc.open {
		if chunk, ok := acc.close(); ok {
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}
