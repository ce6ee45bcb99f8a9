// Package vectorstore persists embedded chunk documents and answers
// nearest-neighbour queries over them.
package vectorstore

import (
	"context"
	"errors"
	"math"

	"podcast-rag/pkg/domain"
)

var (
	// ErrVectorLengthMismatch is returned when two vectors of different
	// dimension are compared.
	ErrVectorLengthMismatch = errors.New("different length vectors")
	errZeroVector           = errors.New("zero-norm vector")
)

// Document is an embedded chunk as stored in the index.
type Document struct {
	ID        string               `bson:"_id"`
	Text      string               `bson:"text"`
	Metadata  domain.ChunkMetadata `bson:"metadata"`
	Embedding []float32            `bson:"embedding"`
}

// Match is a document with its query distance. Lower is more similar.
type Match struct {
	Document
	Distance float64
}

// Filter restricts a query or scan to a subset of documents.
type Filter struct {
	// EpisodeID, when non-empty, keeps only documents from that episode.
	EpisodeID string
}

func (f *Filter) matches(doc Document) bool {
	if f == nil {
		return true
	}
	if f.EpisodeID != "" && doc.Metadata.EpisodeID != f.EpisodeID {
		return false
	}
	return true
}

// Store is the embedding-similarity backend boundary. Inserts are keyed by
// document id and idempotent; deletion is all-or-nothing.
type Store interface {
	// Upsert inserts or replaces documents by id.
	Upsert(ctx context.Context, docs []Document) error
	// Query returns the k nearest documents to the embedding by ascending
	// cosine distance, optionally filtered.
	Query(ctx context.Context, embedding []float32, k int, filter *Filter) ([]Match, error)
	// GetAll returns every stored document matching the filter, in
	// insertion order.
	GetAll(ctx context.Context, filter *Filter) ([]Document, error)
	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)
	// DeleteAll removes every stored document.
	DeleteAll(ctx context.Context) error
}

// CosineDistance computes 1 - cosine similarity, so identical directions
// score 0 and opposite directions score 2.
func CosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, ErrVectorLengthMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, errZeroVector
	}

	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)), nil
}
