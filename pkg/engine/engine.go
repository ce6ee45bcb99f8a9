// Package engine wires the processing stages together: speaker
// segmentation, temporal chunking, indexing, episode persistence, and
// answer synthesis behind one facade.
package engine

import (
	"context"
	"fmt"
	"log"

	"podcast-rag/pkg/chunker"
	"podcast-rag/pkg/diarize"
	"podcast-rag/pkg/domain"
	"podcast-rag/pkg/episodes"
	"podcast-rag/pkg/index"
	"podcast-rag/pkg/rag"
)

// Engine orchestrates one episode's journey from transcript to answers.
type Engine struct {
	segmenter diarize.Segmenter
	chunker   *chunker.Chunker
	index     *index.Index
	store     *episodes.Store
	synth     *rag.Synthesizer
}

// New assembles an engine from its stages. All arguments are required
// except store, which may be nil for an index-only engine.
func New(segmenter diarize.Segmenter, ch *chunker.Chunker, ix *index.Index, store *episodes.Store, synth *rag.Synthesizer) *Engine {
	return &Engine{
		segmenter: segmenter,
		chunker:   ch,
		index:     ix,
		store:     store,
		synth:     synth,
	}
}

// IngestResult summarizes what Ingest produced for one episode.
type IngestResult struct {
	EpisodeID     string `json:"episode_id"`
	ChunksCreated int    `json:"chunks_created"`
	ChunksIndexed int    `json:"chunks_indexed"`
	Speakers      int    `json:"speakers"`
}

// Ingest runs a transcript through segmentation, chunking, and indexing,
// then persists the episode record and raw transcript. Speaker
// segmentation failure is non-fatal: chunking proceeds with every chunk
// labeled Unknown.
func (e *Engine) Ingest(ctx context.Context, transcript *domain.Transcript, episodeID, title string) (IngestResult, error) {
	result := IngestResult{EpisodeID: episodeID}
	if transcript == nil || len(transcript.Segments) == 0 {
		return result, fmt.Errorf("transcript for episode %s has no segments", episodeID)
	}

	speakers, err := e.segmenter.AssignSpeakers(transcript.Segments)
	if err != nil {
		log.Printf("Speaker segmentation failed for episode %s: %v", episodeID, err)
		speakers = nil
	}

	chunks := e.chunker.Chunk(transcript.Segments, speakers)
	result.ChunksCreated = len(chunks)
	result.Speakers = countSpeakers(chunks)

	indexed, err := e.index.Add(ctx, chunks, episodeID, title)
	if err != nil {
		return result, fmt.Errorf("index episode %s: %w", episodeID, err)
	}
	result.ChunksIndexed = indexed

	if e.store != nil {
		episode := domain.Episode{
			ID:       episodeID,
			Title:    title,
			Chunks:   indexed,
			Duration: transcript.Duration,
			Speakers: result.Speakers,
		}
		if err := e.store.SaveEpisode(episode); err != nil {
			return result, fmt.Errorf("save episode %s: %w", episodeID, err)
		}
		if err := e.store.SaveTranscript(episodeID, transcript); err != nil {
			return result, fmt.Errorf("save transcript %s: %w", episodeID, err)
		}
	}

	log.Printf("Ingested episode %q: %d chunks, %d speakers", title, indexed, result.Speakers)
	return result, nil
}

// Query retrieves the top n chunks under the given strategy and asks the
// selected model for an answer. It never returns an error; failures show
// up in the answer's response text.
func (e *Engine) Query(ctx context.Context, query string, n int, strategy index.Strategy, model string) rag.Answer {
	results := e.index.Search(ctx, query, n, strategy)
	return e.synth.Answer(ctx, query, results, string(strategy), model)
}

// QueryEpisode is Query scoped to a single episode.
func (e *Engine) QueryEpisode(ctx context.Context, episodeID, query string, n int, model string) rag.Answer {
	results := e.index.SearchWithinEpisode(ctx, episodeID, query, n)
	return e.synth.Answer(ctx, query, results, string(index.StrategySemantic), model)
}

// Stats combines index-side and storage-side views of the system.
type Stats struct {
	Index   index.Stats           `json:"index"`
	Storage episodes.StorageStats `json:"storage"`
}

// Stats reports combined system stats. Storage stats are zero when no
// store is configured.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Index: e.index.Stats(ctx)}
	if e.store != nil {
		storage, err := e.store.Stats()
		if err != nil {
			return stats, fmt.Errorf("storage stats: %w", err)
		}
		stats.Storage = storage
	}
	return stats, nil
}

// Clear wipes the index and, when configured, the episode store.
func (e *Engine) Clear(ctx context.Context) error {
	if err := e.index.Clear(ctx); err != nil {
		return err
	}
	if e.store != nil {
		if err := e.store.Clear(); err != nil {
			return err
		}
	}
	return nil
}

func countSpeakers(chunks []domain.Chunk) int {
	seen := make(map[string]bool)
	for _, chunk := range chunks {
		seen[chunk.Speaker] = true
	}
	return len(seen)
}
