// Package vectordb owns the per-document vector index: embedding storage,
// similarity search and the retriever handed to the QA engine.
package vectordb

import (
	"context"
	"errors"
	"math"

	"pdfchat/internal/models"
)

var (
	// ErrIndex reports that embedding or storage failed during a build;
	// the index stays unbuilt
	ErrIndex = errors.New("index build failed")

	// ErrNotBuilt reports that a retriever was requested before any
	// successful build
	ErrNotBuilt = errors.New("index not built")
)

// Strategy selects how the retriever ranks results
type Strategy string

const (
	// StrategySimilarity is plain nearest-neighbour top-k
	StrategySimilarity Strategy = "similarity"
	// StrategyMMR is max-marginal-relevance: relevance to the query
	// balanced against diversity among the returned chunks
	StrategyMMR Strategy = "mmr"
)

// Record is one chunk with its embedding, ready for storage
type Record struct {
	Chunk     models.Chunk
	Embedding []float32
}

// Result is one search hit. Embedding is the stored vector, kept so the
// retriever can re-rank without another store round trip.
type Result struct {
	Chunk      models.Chunk
	Embedding  []float32
	Similarity float32
}

// Store is a vector storage backend. Reset drops everything held for the
// previous document; Query returns up to k hits ordered most similar first.
type Store interface {
	Reset(ctx context.Context) error
	Add(ctx context.Context, records []Record) error
	Query(ctx context.Context, embedding []float32, k int) ([]Result, error)
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Zero-length or zero-norm input yields 0.
func CosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
