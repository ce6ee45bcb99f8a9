// Package index stores transcript chunks under an embedding-similarity
// store and exposes semantic, keyword, and hybrid search over them.
//
// Keyword search is a substring filter over the semantic candidate pool,
// not an independent full-text index: it cannot find a keyword match the
// embedding backend fails to surface as semantically near. That is an
// intentional recall/cost tradeoff.
package index

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"podcast-rag/pkg/domain"
	"podcast-rag/pkg/embedder"
	"podcast-rag/pkg/vectorstore"
)

// Strategy selects how a query is ranked.
type Strategy string

const (
	StrategySemantic Strategy = "semantic"
	StrategyKeyword  Strategy = "keyword"
	StrategyHybrid   Strategy = "hybrid"
)

// Index is the content index over transcript chunks.
type Index struct {
	embedder embedder.Embedder
	store    vectorstore.Store
}

// New creates an index over the given embedding backend and store.
func New(emb embedder.Embedder, store vectorstore.Store) *Index {
	return &Index{embedder: emb, store: store}
}

// ChunkID builds the composite id under which a chunk is stored. The format
// is stable; the episode store cross-references it.
func ChunkID(episodeID string, chunkIndex int) string {
	return fmt.Sprintf("%s_chunk_%d", episodeID, chunkIndex)
}

// Add embeds and inserts the chunks for one episode. Chunks with blank text
// are skipped silently. Returns the number of chunks actually indexed.
func (ix *Index) Add(ctx context.Context, chunks []domain.Chunk, episodeID, episodeTitle string) (int, error) {
	var texts []string
	var metas []domain.ChunkMetadata
	var ids []string

	for i, chunk := range chunks {
		text := strings.TrimSpace(chunk.Text)
		if text == "" {
			continue
		}
		texts = append(texts, text)
		metas = append(metas, domain.ChunkMetadata{
			EpisodeID:    episodeID,
			EpisodeTitle: episodeTitle,
			StartTime:    chunk.StartTime,
			EndTime:      chunk.EndTime,
			Speaker:      chunk.Speaker,
			ChunkIndex:   i,
		})
		ids = append(ids, ChunkID(episodeID, i))
	}

	if len(texts) == 0 {
		log.Printf("No valid chunks found for episode %q", episodeTitle)
		return 0, nil
	}

	vectors, err := ix.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks for episode %s: %w", episodeID, err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("embedding backend returned %d vectors for %d chunks", len(vectors), len(texts))
	}

	docs := make([]vectorstore.Document, len(texts))
	for i := range texts {
		docs[i] = vectorstore.Document{
			ID:        ids[i],
			Text:      texts[i],
			Metadata:  metas[i],
			Embedding: vectors[i],
		}
	}
	if err := ix.store.Upsert(ctx, docs); err != nil {
		return 0, fmt.Errorf("index chunks for episode %s: %w", episodeID, err)
	}

	log.Printf("Added %d chunks for episode %q", len(docs), episodeTitle)
	return len(docs), nil
}

// Search runs the query under the given strategy. Any unrecognized strategy
// behaves as semantic. Backend failures degrade to an empty result, never
// an error: retrieval returning nothing is a valid state.
func (ix *Index) Search(ctx context.Context, query string, n int, strategy Strategy) domain.SearchResult {
	switch strategy {
	case StrategyKeyword:
		return ix.keywordSearch(ctx, query, n)
	case StrategyHybrid:
		return ix.hybridSearch(ctx, query, n)
	default:
		return ix.semanticSearch(ctx, query, n)
	}
}

func (ix *Index) semanticSearch(ctx context.Context, query string, n int) domain.SearchResult {
	return ix.scopedSemanticSearch(ctx, query, n, nil)
}

func (ix *Index) scopedSemanticSearch(ctx context.Context, query string, n int, filter *vectorstore.Filter) domain.SearchResult {
	vector, err := ix.embedder.EmbedQuery(ctx, query)
	if err != nil {
		log.Printf("Semantic search error: %v", err)
		return domain.EmptySearchResult()
	}

	matches, err := ix.store.Query(ctx, vector, n, filter)
	if err != nil {
		log.Printf("Semantic search error: %v", err)
		return domain.EmptySearchResult()
	}
	return resultFromMatches(matches)
}

// keywordSearch requests twice the asked-for semantic candidates, keeps
// only those containing at least one query term as a literal substring, and
// truncates to n.
func (ix *Index) keywordSearch(ctx context.Context, query string, n int) domain.SearchResult {
	candidates := ix.semanticSearch(ctx, query, n*2)

	terms := strings.Fields(strings.ToLower(query))
	filtered := domain.EmptySearchResult()

	for i, doc := range candidates.Documents {
		docLower := strings.ToLower(doc)
		matched := false
		for _, term := range terms {
			if strings.Contains(docLower, term) {
				matched = true
				break
			}
		}
		if matched {
			filtered.IDs = append(filtered.IDs, candidates.IDs[i])
			filtered.Documents = append(filtered.Documents, doc)
			filtered.Metadatas = append(filtered.Metadatas, candidates.Metadatas[i])
			filtered.Distances = append(filtered.Distances, candidates.Distances[i])
		}
		if len(filtered.Documents) >= n {
			break
		}
	}

	return filtered
}

// hybridSearch takes every semantic hit in rank order, then backfills with
// keyword hits not already present, stopping at n. Semantic hits are never
// displaced. Deduplication is by chunk id, so two chunks with identical
// wording stay distinct.
func (ix *Index) hybridSearch(ctx context.Context, query string, n int) domain.SearchResult {
	semantic := ix.semanticSearch(ctx, query, n)
	keyword := ix.keywordSearch(ctx, query, n)

	combined := domain.EmptySearchResult()
	seen := make(map[string]bool)

	appendHit := func(r domain.SearchResult, i int) {
		combined.IDs = append(combined.IDs, r.IDs[i])
		combined.Documents = append(combined.Documents, r.Documents[i])
		combined.Metadatas = append(combined.Metadatas, r.Metadatas[i])
		combined.Distances = append(combined.Distances, r.Distances[i])
		seen[r.IDs[i]] = true
	}

	for i := range semantic.Documents {
		if !seen[semantic.IDs[i]] {
			appendHit(semantic, i)
		}
	}
	for i := range keyword.Documents {
		if len(combined.Documents) >= n {
			break
		}
		if !seen[keyword.IDs[i]] {
			appendHit(keyword, i)
		}
	}

	if len(combined.Documents) > n {
		combined.IDs = combined.IDs[:n]
		combined.Documents = combined.Documents[:n]
		combined.Metadatas = combined.Metadatas[:n]
		combined.Distances = combined.Distances[:n]
	}
	return combined
}

// SearchWithinEpisode restricts retrieval to one episode. An empty query
// returns every chunk of the episode at distance 0.0 (a direct retrieval,
// not a ranking).
func (ix *Index) SearchWithinEpisode(ctx context.Context, episodeID, query string, n int) domain.SearchResult {
	filter := &vectorstore.Filter{EpisodeID: episodeID}

	if strings.TrimSpace(query) == "" {
		docs, err := ix.store.GetAll(ctx, filter)
		if err != nil {
			log.Printf("Error searching by episode: %v", err)
			return domain.EmptySearchResult()
		}
		result := domain.EmptySearchResult()
		for _, doc := range docs {
			result.IDs = append(result.IDs, doc.ID)
			result.Documents = append(result.Documents, doc.Text)
			result.Metadatas = append(result.Metadatas, doc.Metadata)
			result.Distances = append(result.Distances, 0.0)
		}
		return result
	}

	return ix.scopedSemanticSearch(ctx, query, n, filter)
}

// Stats describes the indexed content.
type Stats struct {
	TotalChunks    int               `json:"total_chunks"`
	TotalEpisodes  int               `json:"total_episodes"`
	EpisodeIDs     []string          `json:"episode_ids"`
	EpisodeTitles  map[string]string `json:"episode_titles"`
	CapacityStatus string            `json:"capacity_status"`
}

// Stats reports chunk and episode counts across all stored metadata. Errors
// degrade to zeroed stats.
func (ix *Index) Stats(ctx context.Context) Stats {
	stats := Stats{
		EpisodeIDs:     []string{},
		EpisodeTitles:  map[string]string{},
		CapacityStatus: capacityStatus(0),
	}

	count, err := ix.store.Count(ctx)
	if err != nil {
		log.Printf("Error getting index stats: %v", err)
		return stats
	}
	stats.TotalChunks = count

	docs, err := ix.store.GetAll(ctx, nil)
	if err != nil {
		log.Printf("Error getting index stats: %v", err)
		return stats
	}

	seen := make(map[string]bool)
	for _, doc := range docs {
		id := doc.Metadata.EpisodeID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		stats.EpisodeIDs = append(stats.EpisodeIDs, id)
		stats.EpisodeTitles[id] = doc.Metadata.EpisodeTitle
	}
	sort.Strings(stats.EpisodeIDs)

	stats.TotalEpisodes = len(stats.EpisodeIDs)
	stats.CapacityStatus = capacityStatus(stats.TotalEpisodes)
	return stats
}

// capacityStatus is presentation-only; the brackets carry no correctness
// weight.
func capacityStatus(episodes int) string {
	switch {
	case episodes >= 3:
		return fmt.Sprintf("Successfully indexing %d episodes", episodes)
	case episodes == 2:
		return "Ready for 3rd episode"
	case episodes == 1:
		return "Ready for 2nd and 3rd episodes"
	default:
		return "Ready for more episodes"
	}
}

// Clear deletes all indexed content unconditionally.
func (ix *Index) Clear(ctx context.Context) error {
	if err := ix.store.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	log.Printf("Index cleared")
	return nil
}

func resultFromMatches(matches []vectorstore.Match) domain.SearchResult {
	result := domain.EmptySearchResult()
	for _, match := range matches {
		result.IDs = append(result.IDs, match.ID)
		result.Documents = append(result.Documents, match.Text)
		result.Metadatas = append(result.Metadatas, match.Metadata)
		result.Distances = append(result.Distances, match.Distance)
	}
	return result
}
