package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"podcast-rag/pkg/chunker"
	"podcast-rag/pkg/db"
	"podcast-rag/pkg/diarize"
	"podcast-rag/pkg/domain"
	"podcast-rag/pkg/embedder"
	"podcast-rag/pkg/engine"
	"podcast-rag/pkg/episodes"
	"podcast-rag/pkg/feedingest"
	"podcast-rag/pkg/index"
	"podcast-rag/pkg/rag"
	"podcast-rag/pkg/replication"
	"podcast-rag/pkg/transcribe"
	"podcast-rag/pkg/vectorstore"
)

func main() {
	var (
		ingestPath = flag.String("ingest", "", "Transcript file to ingest (.srt/.vtt/.json)")
		audioPath  = flag.String("ingest-audio", "", "Audio file to transcribe and ingest")
		feedURL    = flag.String("feed", "", "Podcast RSS feed URL to ingest episodes from")
		maxItems   = flag.Int("max", 10, "Max episodes to process from a feed (<=0 means no limit)")
		workers    = flag.Int("workers", 4, "Number of parallel workers for feed ingest")
		title      = flag.String("title", "", "Episode title for -ingest (defaults to the file name)")

		query    = flag.String("query", "", "Question to answer from indexed episodes")
		strategy = flag.String("strategy", "hybrid", "Search strategy: semantic, keyword, or hybrid")
		model    = flag.String("model", "", "Answer model: openai or gemini (default gemini)")
		topK     = flag.Int("k", 5, "Number of chunks to retrieve")

		showStats = flag.Bool("stats", false, "Print index and storage stats")
		clear     = flag.Bool("clear", false, "Delete all indexed and stored episode data")
		replicate = flag.Bool("replicate", false, "Replicate the Mongo episode archive to Postgres")

		dataDir       = flag.String("data", "data", "Directory for episode records and transcripts")
		pauseSeconds  = flag.Float64("pause", diarize.DefaultPauseThreshold, "Pause length in seconds that starts a new speaker turn")
		chunkSeconds  = flag.Float64("chunk", chunker.DefaultChunkDuration, "Target chunk duration in seconds")
		embedModel    = flag.String("embed-model", "", "OpenAI embedding model override")
		whisperModel  = flag.String("whisper-model", "", "OpenAI transcription model override")
		mongoURI      = flag.String("mongo-uri", "", "MongoDB connection string (empty: in-memory index, no archive)")
		mongoDatabase = flag.String("db", "podcastrag", "MongoDB database name")
		postgresDSN   = flag.String("postgres-dsn", "", "Postgres DSN for -replicate")
		supabaseURL   = flag.String("supabase-url", "", "Supabase project URL for -replicate (alternative to -postgres-dsn)")
		supabaseKey   = flag.String("supabase-key", "", "Supabase API key")
		supabasePass  = flag.String("supabase-password", "", "Supabase database password")
	)
	flag.Parse()

	ctx := context.Background()

	openAIKey := os.Getenv("OPENAI_API_KEY")
	geminiKey := os.Getenv("GEMINI_API_KEY")

	var archive *db.Client
	var store vectorstore.Store = vectorstore.NewMemory()
	if *mongoURI != "" {
		archive = db.NewClient(*mongoURI, *mongoDatabase, "episodes")
		if err := archive.Connect(ctx); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer archive.Close(ctx)
		store = vectorstore.NewMongo(archive.Collection("chunks"))
	}

	if *replicate {
		runReplication(ctx, archive, *postgresDSN, *supabaseURL, *supabaseKey, *supabasePass)
		return
	}

	emb, err := embedder.NewOpenAI(embedder.Config{APIKey: openAIKey, Model: *embedModel})
	if err != nil {
		log.Fatalf("Failed to create embedding backend: %v", err)
	}

	eng := engine.New(
		&diarize.PauseSegmenter{PauseThreshold: *pauseSeconds},
		&chunker.Chunker{ChunkDuration: *chunkSeconds},
		index.New(emb, store),
		episodes.NewStore(*dataDir),
		rag.New(rag.Config{OpenAIKey: openAIKey, GeminiKey: geminiKey}),
	)

	switch {
	case *clear:
		if err := eng.Clear(ctx); err != nil {
			log.Fatalf("Clear failed: %v", err)
		}
		log.Printf("All episode data cleared")

	case *showStats:
		stats, err := eng.Stats(ctx)
		if err != nil {
			log.Fatalf("Stats failed: %v", err)
		}
		printJSON(stats)

	case *ingestPath != "":
		ingestFile(ctx, eng, *ingestPath, *title)

	case *audioPath != "":
		ingestAudio(ctx, eng, transcribe.NewOpenAIBackend(openAIKey, *whisperModel), *audioPath, *title)

	case *feedURL != "":
		service, err := feedingest.New(feedingest.Config{
			Engine:  eng,
			Archive: archive,
			Backend: transcribe.NewOpenAIBackend(openAIKey, *whisperModel),
		})
		if err != nil {
			log.Fatalf("Failed to create ingest service: %v", err)
		}
		service.SetWorkers(*workers)

		start := time.Now()
		log.Printf("Ingesting episodes from feed: %s (max=%d)", *feedURL, *maxItems)
		if err := service.IngestFromFeed(ctx, *feedURL, *maxItems); err != nil {
			log.Fatalf("Feed ingest failed: %v", err)
		}
		log.Printf("Done. Duration: %s", time.Since(start))

	case *query != "":
		answer := eng.Query(ctx, *query, *topK, index.Strategy(*strategy), *model)
		fmt.Println(answer.Response)
		for i := 0; i < answer.Sources.Len(); i++ {
			meta := answer.Sources.Metadatas[i]
			fmt.Printf("  [%d] %s (%s - %s, %s)\n", i+1, meta.EpisodeTitle,
				rag.FormatTimestamp(meta.StartTime), rag.FormatTimestamp(meta.EndTime), meta.Speaker)
		}

	default:
		flag.Usage()
		os.Exit(2)
	}
}

// ingestFile runs a local transcript file through the engine. Subtitle files
// keep their cue timing; .json files must contain a previously saved
// transcript.
func ingestFile(ctx context.Context, eng *engine.Engine, path, title string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read transcript file: %v", err)
	}

	var transcript *domain.Transcript
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt", ".vtt":
		transcript, err = transcribe.ParseSRT(string(data))
	case ".json":
		transcript = &domain.Transcript{}
		err = json.Unmarshal(data, transcript)
	default:
		log.Fatalf("Unsupported transcript format: %s", filepath.Ext(path))
	}
	if err != nil {
		log.Fatalf("Failed to parse transcript: %v", err)
	}

	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	episodeID := strings.ReplaceAll(strings.ToLower(title), " ", "-")

	result, err := eng.Ingest(ctx, transcript, episodeID, title)
	if err != nil {
		log.Fatalf("Ingest failed: %v", err)
	}
	printJSON(result)
}

// ingestAudio transcribes a local audio file and runs the result through
// the engine.
func ingestAudio(ctx context.Context, eng *engine.Engine, backend *transcribe.OpenAIBackend, path, title string) {
	log.Printf("Transcribing %s ...", path)
	transcript, err := backend.Transcribe(ctx, path)
	if err != nil {
		log.Fatalf("Transcription failed: %v", err)
	}

	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	episodeID := strings.ReplaceAll(strings.ToLower(title), " ", "-")

	result, err := eng.Ingest(ctx, transcript, episodeID, title)
	if err != nil {
		log.Fatalf("Ingest failed: %v", err)
	}
	printJSON(result)
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
	fmt.Println(string(data))
}

func runReplication(ctx context.Context, archive *db.Client, dsn, sbURL, sbKey, sbPass string) {
	if archive == nil {
		log.Fatalf("-replicate requires -mongo-uri")
	}

	var provider db.DBProvider
	switch {
	case dsn != "":
		pg := db.NewPostgresClient(db.PostgresConfig{DSN: dsn})
		if err := pg.Connect(ctx); err != nil {
			log.Fatalf("Failed to connect to postgres: %v", err)
		}
		defer pg.Close()
		provider = pg
	case sbURL != "":
		sb := db.NewSupabaseClient(db.SupabaseConfig{
			SupabaseURL: sbURL,
			SupabaseKey: sbKey,
			Password:    sbPass,
		})
		if err := sb.Connect(ctx); err != nil {
			log.Fatalf("Failed to connect to supabase: %v", err)
		}
		defer sb.Close()
		provider = sb
	default:
		log.Fatalf("-replicate requires -postgres-dsn or -supabase-url")
	}

	replicator, err := replication.NewReplicator(replication.Config{Mongo: archive, Postgres: provider})
	if err != nil {
		log.Fatalf("Failed to create replicator: %v", err)
	}
	if err := replicator.ReplicateEpisodesMongoToPostgres(ctx); err != nil {
		log.Fatalf("Replication failed: %v", err)
	}
}
