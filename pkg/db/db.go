package db

import (
	"context"
	"fmt"

	"podcast-rag/pkg/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Client wraps the MongoDB client and the episode archive collection
type Client struct {
	mongoClient *mongo.Client
	database    *mongo.Database
	collection  *mongo.Collection
}

// NewClient creates a new episode archive client
func NewClient(connectionString, databaseName, collectionName string) *Client {
	clientOptions := options.Client().ApplyURI(connectionString)
	mongoClient, err := mongo.Connect(context.Background(), clientOptions)
	if err != nil {
		// Return client with nil - error will be caught during Connect()
		return &Client{}
	}

	database := mongoClient.Database(databaseName)
	collection := database.Collection(collectionName)

	return &Client{
		mongoClient: mongoClient,
		database:    database,
		collection:  collection,
	}
}

// Connect establishes connection to MongoDB
func (c *Client) Connect(ctx context.Context) error {
	if c.mongoClient == nil {
		return fmt.Errorf("mongo client not initialized")
	}
	return c.mongoClient.Ping(ctx, nil)
}

// Close closes the MongoDB connection
func (c *Client) Close(ctx context.Context) error {
	if c.mongoClient == nil {
		return nil
	}
	return c.mongoClient.Disconnect(ctx)
}

// Collection exposes the underlying collection, e.g. for the vector store
// which shares the same database.
func (c *Client) Collection(name string) *mongo.Collection {
	if c.database == nil {
		return nil
	}
	return c.database.Collection(name)
}

// SaveEpisode upserts an episode record into the archive, keyed by id
func (c *Client) SaveEpisode(ctx context.Context, episode *domain.Episode) error {
	if c.collection == nil {
		return fmt.Errorf("collection not initialized")
	}
	if episode.ID == "" {
		return fmt.Errorf("episode id is required")
	}

	filter := bson.M{"id": episode.ID}
	update := bson.M{"$set": episode}
	opts := options.Update().SetUpsert(true)

	_, err := c.collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// GetAllEpisodes fetches every archived episode record
func (c *Client) GetAllEpisodes(ctx context.Context) ([]domain.Episode, error) {
	if c.collection == nil {
		return nil, fmt.Errorf("collection not initialized")
	}

	cursor, err := c.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query episodes: %w", err)
	}
	defer cursor.Close(ctx)

	var episodes []domain.Episode
	for cursor.Next(ctx) {
		var episode domain.Episode
		if err := cursor.Decode(&episode); err != nil {
			continue // Skip invalid documents
		}
		if episode.ID != "" {
			episodes = append(episodes, episode)
		}
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return episodes, nil
}

// GetAllEpisodeIDs fetches all archived episode ids as a set
func (c *Client) GetAllEpisodeIDs(ctx context.Context) (map[string]bool, error) {
	if c.collection == nil {
		return nil, fmt.Errorf("collection not initialized")
	}

	// Query to get only the id field from all documents
	cursor, err := c.collection.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"id": 1, "_id": 0}))
	if err != nil {
		return nil, fmt.Errorf("failed to query episode ids: %w", err)
	}
	defer cursor.Close(ctx)

	idSet := make(map[string]bool)
	for cursor.Next(ctx) {
		var result struct {
			ID string `bson:"id"`
		}
		if err := cursor.Decode(&result); err != nil {
			continue // Skip invalid documents
		}
		if result.ID != "" {
			idSet[result.ID] = true
		}
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return idSet, nil
}

// GetExistingSourceURLs checks which of the given episode page URLs already
// have an archived episode, so the ingest flow can skip them
func (c *Client) GetExistingSourceURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	if c.collection == nil {
		return nil, fmt.Errorf("collection not initialized")
	}
	if len(urls) == 0 {
		return map[string]bool{}, nil
	}

	cursor, err := c.collection.Find(ctx,
		bson.M{"source_file": bson.M{"$in": urls}},
		options.Find().SetProjection(bson.M{"source_file": 1, "_id": 0}))
	if err != nil {
		return nil, fmt.Errorf("failed to query source urls: %w", err)
	}
	defer cursor.Close(ctx)

	set := make(map[string]bool)
	for cursor.Next(ctx) {
		var result struct {
			SourceFile string `bson:"source_file"`
		}
		if err := cursor.Decode(&result); err != nil {
			continue
		}
		if result.SourceFile != "" {
			set[result.SourceFile] = true
		}
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return set, nil
}
