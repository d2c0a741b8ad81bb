package vectordb

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"pdfchat/internal/helper"
	"pdfchat/internal/models"
)

// MemoryStore keeps chunk embeddings in an in-memory chromem collection.
// Embeddings are always supplied by the caller, so the collection never
// invokes a server-side embedding function.
type MemoryStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() (*MemoryStore, error) {
	id, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	s := &MemoryStore{db: chromem.NewDB(), name: "chunks-" + id}
	c, err := s.db.GetOrCreateCollection(s.name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	s.collection = c
	return s, nil
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("drop collection: %w", err)
	}
	c, err := s.db.GetOrCreateCollection(s.name, nil, nil)
	if err != nil {
		return fmt.Errorf("recreate collection: %w", err)
	}
	s.collection = c
	return nil
}

func (s *MemoryStore) Add(ctx context.Context, records []Record) error {
	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		docs[i] = chromem.Document{
			ID:        fmt.Sprintf("%d-p%d-c%d", i, r.Chunk.Page, r.Chunk.ChunkID),
			Content:   r.Chunk.Content,
			Embedding: r.Embedding,
			Metadata: map[string]string{
				"source": r.Chunk.Source,
				"page":   strconv.Itoa(r.Chunk.Page),
				"chunk":  strconv.Itoa(r.Chunk.ChunkID),
			},
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, embedding []float32, k int) ([]Result, error) {
	// chromem rejects nResults above the collection size
	if count := s.collection.Count(); k > count {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}

	hits, err := s.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: embedding,
		NResults:       k,
	})
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	results := make([]Result, len(hits))
	for i, h := range hits {
		page, _ := strconv.Atoi(h.Metadata["page"])
		chunkID, _ := strconv.Atoi(h.Metadata["chunk"])
		results[i] = Result{
			Chunk: models.Chunk{
				Content: h.Content,
				Page:    page,
				Source:  h.Metadata["source"],
				ChunkID: chunkID,
			},
			Embedding:  h.Embedding,
			Similarity: h.Similarity,
		}
	}
	return results, nil
}
