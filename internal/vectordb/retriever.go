package vectordb

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"

	"pdfchat/internal/models"
)

// Retriever searches the index with a fixed policy: result count and
// ranking strategy are set when the retriever is created.
type Retriever struct {
	store    Store
	embedder embeddings.Embedder
	k        int
	fetchK   int
	lambda   float32
	strategy Strategy
}

// Search returns up to k chunks relevant to the query, most relevant
// first. Under mmr the ranking also penalises redundancy among the
// returned chunks.
func (r *Retriever) Search(ctx context.Context, query string) ([]models.Chunk, error) {
	queryVec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	if r.strategy == StrategySimilarity {
		results, err := r.store.Query(ctx, queryVec, r.k)
		if err != nil {
			return nil, err
		}
		return chunksOf(results), nil
	}

	// mmr: over-fetch, then greedily re-rank for diversity
	candidates, err := r.store.Query(ctx, queryVec, r.fetchK)
	if err != nil {
		return nil, err
	}
	return chunksOf(maxMarginalRelevance(candidates, r.k, r.lambda)), nil
}

// maxMarginalRelevance greedily picks k candidates maximising
// lambda*sim(query,c) - (1-lambda)*max_selected sim(c,s). Candidates arrive
// ordered by query similarity, so the first pick is the most relevant one.
func maxMarginalRelevance(candidates []Result, k int, lambda float32) []Result {
	if k > len(candidates) {
		k = len(candidates)
	}

	selected := make([]Result, 0, k)
	remaining := make([]Result, len(candidates))
	copy(remaining, candidates)

	for len(selected) < k {
		bestIdx := -1
		bestScore := float32(0)
		for i, cand := range remaining {
			var maxSim float32
			for _, s := range selected {
				if sim := CosineSimilarity(cand.Embedding, s.Embedding); sim > maxSim {
					maxSim = sim
				}
			}
			score := lambda*cand.Similarity - (1-lambda)*maxSim
			if bestIdx == -1 || score > bestScore {
				bestIdx = i
				bestScore = score
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}

func chunksOf(results []Result) []models.Chunk {
	chunks := make([]models.Chunk, len(results))
	for i, r := range results {
		chunks[i] = r.Chunk
	}
	return chunks
}
