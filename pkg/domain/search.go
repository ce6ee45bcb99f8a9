package domain

// SearchResult is one ranked result set for a single query. The three slices
// are parallel; Distances[i] is the dissimilarity of Documents[i] (lower is
// more relevant). Results are recomputed per query, never persisted.
type SearchResult struct {
	IDs       []string        `json:"ids"`
	Documents []string        `json:"documents"`
	Metadatas []ChunkMetadata `json:"metadatas"`
	Distances []float64       `json:"distances"`
}

// EmptySearchResult returns the canonical empty-shaped result used whenever
// a search fails or matches nothing.
func EmptySearchResult() SearchResult {
	return SearchResult{
		IDs:       []string{},
		Documents: []string{},
		Metadatas: []ChunkMetadata{},
		Distances: []float64{},
	}
}

// Len returns the number of ranked documents.
func (r SearchResult) Len() int {
	return len(r.Documents)
}
