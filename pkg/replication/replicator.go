package replication

import (
	"context"
	"crypto/md5"
	"database/sql"
	"fmt"
	"log"
	"sync"

	"podcast-rag/pkg/db"
	"podcast-rag/pkg/domain"
)

// Config wires the replication dependencies.
type Config struct {
	Mongo    *db.Client
	Postgres db.DBProvider
}

// Replicator replicates the episode archive from MongoDB to Postgres.
//
// This is intentionally a one-shot, "copy everything" flow.
type Replicator struct {
	mongo *db.Client
	pg    db.DBProvider
}

func NewReplicator(cfg Config) (*Replicator, error) {
	if cfg.Mongo == nil {
		return nil, fmt.Errorf("mongo client is required")
	}
	if cfg.Postgres == nil {
		return nil, fmt.Errorf("postgres client is required")
	}
	return &Replicator{
		mongo: cfg.Mongo,
		pg:    cfg.Postgres,
	}, nil
}

// ReplicateEpisodesMongoToPostgres reads all episode records from Mongo and
// inserts them into the Postgres `episode` table.
//
// Behavior: if an episode id already exists in Postgres, we skip inserting
// it. Processes episodes in batches to avoid loading all ids into memory at
// once.
func (r *Replicator) ReplicateEpisodesMongoToPostgres(ctx context.Context) error {
	if err := r.ensureEpisodeSchema(ctx); err != nil {
		return err
	}

	episodes, err := r.mongo.GetAllEpisodes(ctx)
	if err != nil {
		return err
	}

	log.Printf("Loaded %d episodes from Mongo, processing in batches...", len(episodes))

	totalProcessed, totalInserted, err := r.processBatches(ctx, episodes)
	if err != nil {
		return err
	}

	log.Printf("Replication complete: processed %d episodes, inserted %d new episodes", totalProcessed, totalInserted)
	return nil
}

// processBatches processes all episodes in parallel batches and returns
// total processed and inserted counts.
func (r *Replicator) processBatches(ctx context.Context, episodes []domain.Episode) (int, int, error) {
	const processBatchSize = 100
	const numWorkers = 5

	type batchJob struct {
		batch []domain.Episode
		start int
		end   int
	}

	type batchResult struct {
		processed int
		inserted  int
		err       error
	}

	numBatches := (len(episodes) + processBatchSize - 1) / processBatchSize
	jobs := make(chan batchJob, numBatches)
	results := make(chan batchResult, numBatches)

	for start := 0; start < len(episodes); start += processBatchSize {
		end := min(start+processBatchSize, len(episodes))
		jobs <- batchJob{batch: episodes[start:end], start: start, end: end}
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				inserted, err := r.processBatch(ctx, job.batch, job.start, job.end)
				results <- batchResult{
					processed: len(job.batch),
					inserted:  inserted,
					err:       err,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	totalProcessed := 0
	totalInserted := 0

	for result := range results {
		if result.err != nil {
			return totalProcessed, totalInserted, result.err
		}
		totalProcessed += result.processed
		totalInserted += result.inserted
	}

	return totalProcessed, totalInserted, nil
}

// processBatch processes a single batch: checks existing ids, filters new
// episodes, and inserts them.
func (r *Replicator) processBatch(ctx context.Context, batch []domain.Episode, start, end int) (int, error) {
	log.Printf("Processing batch [%d:%d] (%d episodes)...", start, end, len(batch))

	existing, err := r.checkIDsExistInPostgres(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("check existing ids for batch [%d:%d]: %w", start, end, err)
	}

	toInsert := filterNewEpisodesByID(batch, existing)
	if len(toInsert) == 0 {
		return 0, nil
	}

	if err := r.insertEpisodesTx(ctx, toInsert); err != nil {
		return 0, fmt.Errorf("insert batch [%d:%d]: %w", start, end, err)
	}

	return len(toInsert), nil
}

func (r *Replicator) ensureEpisodeSchema(ctx context.Context) error {
	if r.pg.DB() == nil {
		return fmt.Errorf("postgres DB not connected")
	}

	// Keep schema simple: id is the primary key, which also gives us
	// uniqueness. processed_at defaults to now() so older archive docs
	// missing the field can still be inserted.
	const ddl = `
CREATE TABLE IF NOT EXISTS episode (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  chunks INTEGER NOT NULL DEFAULT 0,
  duration DOUBLE PRECISION NOT NULL DEFAULT 0,
  speakers INTEGER NOT NULL DEFAULT 0,
  source_file TEXT NOT NULL DEFAULT '',
  processed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

	if _, err := r.pg.DB().ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create episode table: %w", err)
	}
	return nil
}

// checkIDsExistInPostgres checks which episode ids from the given batch
// already exist in Postgres.
func (r *Replicator) checkIDsExistInPostgres(ctx context.Context, batch []domain.Episode) (map[string]bool, error) {
	if r.pg.DB() == nil {
		return nil, fmt.Errorf("postgres DB not connected")
	}
	if len(batch) == 0 {
		return map[string]bool{}, nil
	}

	ids := make([]interface{}, 0, len(batch))
	for _, e := range batch {
		if e.ID != "" {
			ids = append(ids, e.ID)
		}
	}
	if len(ids) == 0 {
		return map[string]bool{}, nil
	}

	query, args := buildIDInQuery(ids)
	return r.executeIDQuery(ctx, query, args)
}

// buildIDInQuery builds a SQL query with an IN clause. A unique comment
// prefix keyed on the batch prevents prepared statement cache conflicts when
// batches run in parallel.
func buildIDInQuery(ids []interface{}) (string, []interface{}) {
	var hashSuffix string
	if len(ids) > 0 {
		if idStr, ok := ids[0].(string); ok {
			hash := md5.Sum([]byte(idStr))
			hashSuffix = fmt.Sprintf("%x", hash[:4])
		}
	}
	query := fmt.Sprintf(`/* q_%d_%s */ SELECT id FROM episode WHERE id IN (`, len(ids), hashSuffix)
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		if i > 0 {
			query += ", "
		}
		query += fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query += ")"
	return query, args
}

func (r *Replicator) executeIDQuery(ctx context.Context, query string, args []interface{}) (map[string]bool, error) {
	rows, err := r.pg.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query existing ids: %w", err)
	}
	defer rows.Close()

	set := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		if id != "" {
			set[id] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return set, nil
}

func filterNewEpisodesByID(all []domain.Episode, existing map[string]bool) []domain.Episode {
	if existing == nil {
		existing = map[string]bool{}
	}

	out := make([]domain.Episode, 0, len(all))
	for _, e := range all {
		if e.ID == "" {
			continue
		}
		if existing[e.ID] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// insertEpisodesTx inserts a batch of episodes within a transaction.
func (r *Replicator) insertEpisodesTx(ctx context.Context, batch []domain.Episode) error {
	tx, err := r.pg.DB().BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const insertQuery = `
INSERT INTO episode (id, title, chunks, duration, speakers, source_file, processed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING`

	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range batch {
		if e.ID == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.Title, e.Chunks, e.Duration, e.Speakers, e.SourceFile, e.ProcessedAt); err != nil {
			return fmt.Errorf("insert episode id=%q: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
