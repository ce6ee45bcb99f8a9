package vectorstore

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo is a Store backed by a MongoDB collection. Each document holds the
// chunk text, its metadata, and the embedding vector. Nearest-neighbour
// queries stream the collection and rank by cosine distance in-process,
// which keeps the collection schema plain and is adequate at this scale.
type Mongo struct {
	collection *mongo.Collection
}

// NewMongo wraps an existing collection as a vector store.
func NewMongo(collection *mongo.Collection) *Mongo {
	return &Mongo{collection: collection}
}

// Upsert inserts or replaces documents keyed by their composite chunk id.
func (s *Mongo) Upsert(ctx context.Context, docs []Document) error {
	if s.collection == nil {
		return fmt.Errorf("collection not initialized")
	}

	for _, doc := range docs {
		filter := bson.M{"_id": doc.ID}
		update := bson.M{"$set": doc}
		opts := options.Update().SetUpsert(true)
		if _, err := s.collection.UpdateOne(ctx, filter, update, opts); err != nil {
			return fmt.Errorf("upsert chunk %s: %w", doc.ID, err)
		}
	}
	return nil
}

// Query scans the collection and returns the k nearest documents by
// ascending cosine distance.
func (s *Mongo) Query(ctx context.Context, embedding []float32, k int, filter *Filter) ([]Match, error) {
	if s.collection == nil {
		return nil, fmt.Errorf("collection not initialized")
	}

	cursor, err := s.collection.Find(ctx, mongoFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer cursor.Close(ctx)

	var matches []Match
	for cursor.Next(ctx) {
		var doc Document
		if err := cursor.Decode(&doc); err != nil {
			continue // Skip invalid documents
		}
		distance, err := CosineDistance(embedding, doc.Embedding)
		if err != nil {
			continue
		}
		matches = append(matches, Match{Document: doc, Distance: distance})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// GetAll returns every stored document matching the filter.
func (s *Mongo) GetAll(ctx context.Context, filter *Filter) ([]Document, error) {
	if s.collection == nil {
		return nil, fmt.Errorf("collection not initialized")
	}

	cursor, err := s.collection.Find(ctx, mongoFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []Document
	for cursor.Next(ctx) {
		var doc Document
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return docs, nil
}

// Count returns the number of stored documents.
func (s *Mongo) Count(ctx context.Context) (int, error) {
	if s.collection == nil {
		return 0, fmt.Errorf("collection not initialized")
	}
	count, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return int(count), nil
}

// DeleteAll removes every stored document.
func (s *Mongo) DeleteAll(ctx context.Context) error {
	if s.collection == nil {
		return fmt.Errorf("collection not initialized")
	}
	if _, err := s.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	return nil
}

func mongoFilter(filter *Filter) bson.M {
	if filter == nil || filter.EpisodeID == "" {
		return bson.M{}
	}
	return bson.M{"metadata.episode_id": filter.EpisodeID}
}
