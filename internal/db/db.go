// Package db is the optional Postgres/pgvector storage backend for the
// vector index, selected with `store: postgres` in the config. The default
// in-memory backend lives in internal/vectordb.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"pdfchat/internal/config"
	"pdfchat/internal/models"
	"pdfchat/internal/vectordb"
)

type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Content       string    `bun:"content,notnull"`
	Embedding     []float32 `bun:"embedding,notnull,type:vector(768)"`
	Source        string    `bun:"source"`
	Page          int       `bun:"page"`
	ChunkID       int       `bun:"chunk_id"`
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.URL + "?sslmode=disable"
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Key))), nil
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// Store implements vectordb.Store on a documents table ordered with the
// pgvector distance operator.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// Reset recreates the documents table; the backend holds one document's
// chunks at a time, like the in-memory store.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.NewDropTable().Model((*Document)(nil)).IfExists().Exec(ctx); err != nil {
		return fmt.Errorf("drop documents: %w", err)
	}
	if _, err := s.db.NewCreateTable().Model((*Document)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create documents: %w", err)
	}
	return nil
}

func (s *Store) Add(ctx context.Context, records []vectordb.Record) error {
	docs := make([]Document, len(records))
	for i, r := range records {
		docs[i] = Document{
			Content:   r.Chunk.Content,
			Embedding: r.Embedding,
			Source:    r.Chunk.Source,
			Page:      r.Chunk.Page,
			ChunkID:   r.Chunk.ChunkID,
		}
	}
	if _, err := s.db.NewInsert().Model(&docs).Exec(ctx); err != nil {
		return fmt.Errorf("store documents: %w", err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, embedding []float32, k int) ([]vectordb.Result, error) {
	var docs []Document
	err := s.db.NewSelect().
		Model(&docs).
		Column("content", "embedding", "source", "page", "chunk_id").
		OrderExpr("embedding <-> ?", pgdialect.Array(embedding)).
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}

	results := make([]vectordb.Result, len(docs))
	for i, d := range docs {
		results[i] = vectordb.Result{
			Chunk: models.Chunk{
				Content: d.Content,
				Page:    d.Page,
				Source:  d.Source,
				ChunkID: d.ChunkID,
			},
			Embedding:  d.Embedding,
			Similarity: vectordb.CosineSimilarity(embedding, d.Embedding),
		}
	}
	return results, nil
}
