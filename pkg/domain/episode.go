package domain

import "time"

// Episode is the persisted record of one processed episode. The engine
// produces the counts; persistence belongs to the episode store.
type Episode struct {
	ID          string    `bson:"id" json:"id"`
	Title       string    `bson:"title" json:"title"`
	Chunks      int       `bson:"chunks" json:"chunks"`
	Duration    float64   `bson:"duration" json:"duration"`
	Speakers    int       `bson:"speakers" json:"speakers"`
	SourceFile  string    `bson:"source_file,omitempty" json:"source_file,omitempty"`
	ProcessedAt time.Time `bson:"processed_at" json:"processed_at"`
}

// EpisodeRef is an episode discovered in a podcast feed before it has been
// downloaded or processed.
type EpisodeRef struct {
	Title         string
	PageURL       string
	AudioURL      string
	TranscriptURL string
}
