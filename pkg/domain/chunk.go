package domain

// Chunk is the retrievable unit: a contiguous, speaker-homogeneous,
// duration-bounded span of transcript text. Chunks are produced once per
// episode ingestion and are immutable afterwards.
type Chunk struct {
	Text      string  `bson:"text" json:"text"`
	StartTime float64 `bson:"start_time" json:"start_time"`
	EndTime   float64 `bson:"end_time" json:"end_time"`
	Speaker   string  `bson:"speaker" json:"speaker"`
	Words     []Word  `bson:"words,omitempty" json:"words,omitempty"`
}

// ChunkMetadata identifies an indexed chunk within its episode. It is stored
// alongside the chunk text under the composite id "{episode_id}_chunk_{i}".
type ChunkMetadata struct {
	EpisodeID    string  `bson:"episode_id" json:"episode_id"`
	EpisodeTitle string  `bson:"episode_title" json:"episode_title"`
	StartTime    float64 `bson:"start_time" json:"start_time"`
	EndTime      float64 `bson:"end_time" json:"end_time"`
	Speaker      string  `bson:"speaker" json:"speaker"`
	ChunkIndex   int     `bson:"chunk_index" json:"chunk_index"`
}
