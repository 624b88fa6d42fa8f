// Package store persists chunk embeddings in Postgres with the pgvector
// extension and answers nearest-neighbor queries over them.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

// Entry is one indexed chunk: the embedding plus the metadata needed to turn
// a search hit back into citable evidence.
type Entry struct {
	ID        string
	Embedding []float32
	Text      string
	Parent    string
	Source    string
	URL       string
	Diseases  string
}

// Result is a search hit with cosine similarity in [0, 1].
type Result struct {
	Entry
	Similarity float32
}

// Config configures the index connection.
type Config struct {
	// URL is the Postgres connection string.
	URL string
	// Table is the chunk table name, default "medrag_chunks".
	Table string
	// Dimension is the embedding width, fixed by the embedding model.
	Dimension int
}

// Index is a chunk embedding index. Read-only after build; safe to share
// across sequential queries.
type Index struct {
	pool  *pgxpool.Pool
	table string
	dim   int
}

// Open connects to Postgres and registers pgvector types on each connection.
func Open(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.Table == "" {
		cfg.Table = "medrag_chunks"
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = 384
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("couldn't create connection pool: %w", err)
	}
	return &Index{pool: pool, table: cfg.Table, dim: cfg.Dimension}, nil
}

// Init creates the extension, chunk table and ANN index if missing.
func (idx *Index) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			parent TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			diseases TEXT NOT NULL DEFAULT '',
			chunk_text TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, idx.table, idx.dim),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx
			ON %s USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
			idx.table, idx.table),
	}
	for _, stmt := range stmts {
		if _, err := idx.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init index: %w", err)
		}
	}
	return nil
}

// Add upserts a batch of entries keyed by chunk id.
func (idx *Index) Add(ctx context.Context, entries []Entry) error {
	batch := &pgx.Batch{}
	stmt := fmt.Sprintf(`INSERT INTO %s (id, parent, source, url, diseases, chunk_text, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			parent = EXCLUDED.parent,
			source = EXCLUDED.source,
			url = EXCLUDED.url,
			diseases = EXCLUDED.diseases,
			chunk_text = EXCLUDED.chunk_text,
			embedding = EXCLUDED.embedding`, idx.table)
	for _, e := range entries {
		batch.Queue(stmt, e.ID, e.Parent, e.Source, e.URL, e.Diseases, e.Text, pgvector.NewVector(e.Embedding))
	}
	results := idx.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert chunk: %w", err)
		}
	}
	return nil
}

// Query returns the k nearest entries by cosine distance, most similar first.
// The distance operator must match the one the ANN index was built with.
func (idx *Index) Query(ctx context.Context, embedding []float32, k int) ([]Result, error) {
	stmt := fmt.Sprintf(`SELECT id, parent, source, url, diseases, chunk_text,
			1 - (embedding <=> $1) AS similarity
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`, idx.table)
	rows, err := idx.pool.Query(ctx, stmt, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Parent, &r.Source, &r.URL, &r.Diseases, &r.Text, &r.Similarity); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Count reports the number of indexed chunks.
func (idx *Index) Count(ctx context.Context) (int64, error) {
	var n int64
	err := idx.pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, idx.table)).Scan(&n)
	return n, err
}

func (idx *Index) Close() {
	idx.pool.Close()
}
