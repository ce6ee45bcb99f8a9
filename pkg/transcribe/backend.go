// Package transcribe is the speech-to-text boundary: a pluggable backend
// interface plus parsers for transcript files that already carry timing.
package transcribe

import (
	"context"
	"errors"

	"podcast-rag/pkg/domain"
)

// ErrNoSegments reports a transcription that produced no segments. A
// transcript without segments is a total failure, not a partial result.
var ErrNoSegments = errors.New("transcription returned no segments")

// Backend is a pluggable transcription backend.
type Backend interface {
	Transcribe(ctx context.Context, audioPath string) (*domain.Transcript, error)
}
