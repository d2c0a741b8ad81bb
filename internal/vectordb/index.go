package vectordb

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"pdfchat/internal/config"
	"pdfchat/internal/embedding"
	"pdfchat/internal/models"
)

// Index embeds chunks into a store and hands out retrievers over them.
// Exactly one document's chunks live in an index; a session swaps in a
// whole new index when a new document arrives.
type Index struct {
	store    Store
	embedder embeddings.Embedder
	cfg      *config.RAGConfig
	built    bool
}

func NewIndex(store Store, embedder embeddings.Embedder, cfg *config.RAGConfig) *Index {
	return &Index{store: store, embedder: embedder, cfg: cfg}
}

// Build embeds every chunk and stores the pairs. All-or-nothing: on any
// failure the index stays unbuilt and no retriever can be created from it.
func (ix *Index) Build(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("%w: no chunks to index", ErrIndex)
	}

	if err := ix.store.Reset(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrIndex, err)
	}

	vectors, err := embedding.EmbedChunks(ctx, ix.embedder, chunks)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIndex, err)
	}

	records := make([]Record, len(chunks))
	for i, c := range chunks {
		records[i] = Record{Chunk: c, Embedding: vectors[i]}
	}
	if err := ix.store.Add(ctx, records); err != nil {
		return fmt.Errorf("%w: %w", ErrIndex, err)
	}

	ix.built = true
	log.Debug().Int("chunks", len(chunks)).Msg("vector index built")
	return nil
}

// Retriever returns a search handle over the built index. k <= 0 and an
// empty strategy fall back to the configured defaults (k=7, mmr).
func (ix *Index) Retriever(k int, strategy Strategy) (*Retriever, error) {
	if !ix.built {
		return nil, ErrNotBuilt
	}
	if k <= 0 {
		k = ix.cfg.TopK
	}
	if strategy == "" {
		strategy = Strategy(ix.cfg.SearchType)
	}
	if strategy != StrategySimilarity && strategy != StrategyMMR {
		return nil, fmt.Errorf("unknown search strategy %q", strategy)
	}

	fetchK := ix.cfg.FetchK
	if fetchK < k {
		fetchK = k
	}
	return &Retriever{
		store:    ix.store,
		embedder: ix.embedder,
		k:        k,
		fetchK:   fetchK,
		lambda:   ix.cfg.Lambda,
		strategy: strategy,
	}, nil
}
