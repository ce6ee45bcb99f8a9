// Package episodes persists processed episode records and raw transcripts
// as JSON files. Durability guarantees stop at "write valid JSON, read it
// back".
package episodes

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"podcast-rag/pkg/domain"
)

// MaxEpisodes is a soft safety limit; exceeding it logs a warning but does
// not reject the write.
const MaxEpisodes = 100

// ErrTranscriptNotFound is returned when no transcript file exists for an
// episode id.
var ErrTranscriptNotFound = errors.New("transcript not found")

// Store is a file-backed episode store: one JSON file mapping episode id to
// record, plus one transcript JSON file per episode. All operations are
// safe for concurrent use; the feed ingest workers share one Store.
type Store struct {
	mu             sync.Mutex
	episodesFile   string
	transcriptsDir string
}

// NewStore creates a store rooted at dataDir.
func NewStore(dataDir string) *Store {
	return &Store{
		episodesFile:   filepath.Join(dataDir, "processed_episodes.json"),
		transcriptsDir: filepath.Join(dataDir, "transcripts"),
	}
}

// SaveEpisode upserts the episode record, stamping ProcessedAt.
func (s *Store) SaveEpisode(episode domain.Episode) error {
	if episode.ID == "" {
		return fmt.Errorf("episode id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.loadEpisodes()
	if err != nil {
		return err
	}

	episode.ProcessedAt = time.Now()
	existing[episode.ID] = episode

	if len(existing) > MaxEpisodes {
		log.Printf("Storage limit reached (%d episodes). Consider clearing old episodes.", len(existing))
	}

	if err := os.MkdirAll(filepath.Dir(s.episodesFile), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("encode episodes: %w", err)
	}
	if err := writeFileAtomic(s.episodesFile, data); err != nil {
		return fmt.Errorf("write episodes file: %w", err)
	}

	log.Printf("Saved episode data for %q. Total episodes: %d", episode.Title, len(existing))
	return nil
}

// Episodes loads every stored episode record keyed by id. A missing file is
// an empty store, not an error.
func (s *Store) Episodes() (map[string]domain.Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadEpisodes()
}

// loadEpisodes reads the episodes file. Callers must hold the lock.
func (s *Store) loadEpisodes() (map[string]domain.Episode, error) {
	data, err := os.ReadFile(s.episodesFile)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]domain.Episode{}, nil
		}
		return nil, fmt.Errorf("read episodes file: %w", err)
	}

	episodes := map[string]domain.Episode{}
	if err := json.Unmarshal(data, &episodes); err != nil {
		return nil, fmt.Errorf("decode episodes file: %w", err)
	}
	return episodes, nil
}

// SaveTranscript writes the raw transcript for an episode.
func (s *Store) SaveTranscript(episodeID string, transcript *domain.Transcript) error {
	if episodeID == "" {
		return fmt.Errorf("episode id is required")
	}
	if transcript == nil {
		return fmt.Errorf("transcript is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.transcriptsDir, 0o755); err != nil {
		return fmt.Errorf("create transcripts directory: %w", err)
	}
	data, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := writeFileAtomic(s.transcriptPath(episodeID), data); err != nil {
		return fmt.Errorf("write transcript file: %w", err)
	}
	return nil
}

// LoadTranscript reads an episode's raw transcript back.
func (s *Store) LoadTranscript(episodeID string) (*domain.Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.transcriptPath(episodeID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTranscriptNotFound
		}
		return nil, fmt.Errorf("read transcript file: %w", err)
	}

	var transcript domain.Transcript
	if err := json.Unmarshal(data, &transcript); err != nil {
		return nil, fmt.Errorf("decode transcript file: %w", err)
	}
	return &transcript, nil
}

// StorageStats summarizes the stored episodes.
type StorageStats struct {
	TotalEpisodes   int              `json:"total_episodes"`
	TotalDuration   float64          `json:"total_duration"`
	TotalChunks     int              `json:"total_chunks"`
	Episodes        []domain.Episode `json:"episodes"`
	StorageCapacity string           `json:"storage_capacity"`
}

// Stats aggregates counts and durations across stored episodes.
func (s *Store) Stats() (StorageStats, error) {
	stats := StorageStats{
		Episodes:        []domain.Episode{},
		StorageCapacity: "Ready for more episodes",
	}

	episodes, err := s.Episodes()
	if err != nil {
		return stats, err
	}

	for _, episode := range episodes {
		stats.Episodes = append(stats.Episodes, episode)
		stats.TotalDuration += episode.Duration
		stats.TotalChunks += episode.Chunks
	}
	stats.TotalEpisodes = len(episodes)

	switch {
	case stats.TotalEpisodes >= 3:
		stats.StorageCapacity = fmt.Sprintf("Successfully storing %d episodes", stats.TotalEpisodes)
	case stats.TotalEpisodes == 2:
		stats.StorageCapacity = "Ready for 3rd episode"
	case stats.TotalEpisodes == 1:
		stats.StorageCapacity = "Ready for 2nd and 3rd episodes"
	}
	return stats, nil
}

// Clear removes the episodes file and every stored transcript.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.episodesFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove episodes file: %w", err)
	}
	if err := os.RemoveAll(s.transcriptsDir); err != nil {
		return fmt.Errorf("remove transcripts directory: %w", err)
	}
	log.Printf("Cleared all stored episode data")
	return nil
}

func (s *Store) transcriptPath(episodeID string) string {
	return filepath.Join(s.transcriptsDir, episodeID+"_transcript.json")
}

// writeFileAtomic writes to a temp file in the target directory and renames
// it into place, so a reader never observes a half-written file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
