package vectorstore

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Store. It keeps documents in insertion order and
// answers queries with a brute-force cosine scan, which is the intended
// scale for a per-user index of at most a few hundred episodes.
type Memory struct {
	mu   sync.RWMutex
	docs []Document
	byID map[string]int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{byID: make(map[string]int)}
}

// Upsert inserts or replaces documents by id.
func (m *Memory) Upsert(_ context.Context, docs []Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range docs {
		if i, ok := m.byID[doc.ID]; ok {
			m.docs[i] = doc
			continue
		}
		m.byID[doc.ID] = len(m.docs)
		m.docs = append(m.docs, doc)
	}
	return nil
}

// Query returns the k nearest documents by ascending cosine distance.
// Documents whose embedding cannot be compared to the query are skipped.
func (m *Memory) Query(_ context.Context, embedding []float32, k int, filter *Filter) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]Match, 0, len(m.docs))
	for _, doc := range m.docs {
		if !filter.matches(doc) {
			continue
		}
		distance, err := CosineDistance(embedding, doc.Embedding)
		if err != nil {
			continue
		}
		matches = append(matches, Match{Document: doc, Distance: distance})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// GetAll returns matching documents in insertion order.
func (m *Memory) GetAll(_ context.Context, filter *Filter) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Document, 0, len(m.docs))
	for _, doc := range m.docs {
		if filter.matches(doc) {
			out = append(out, doc)
		}
	}
	return out, nil
}

// Count returns the number of stored documents.
func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs), nil
}

// DeleteAll removes every stored document.
func (m *Memory) DeleteAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = nil
	m.byID = make(map[string]int)
	return nil
}
