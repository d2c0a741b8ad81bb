package vectordb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/config"
	"pdfchat/internal/models"
)

// fakeEmbedder maps text to a deterministic letter-frequency vector, with a
// constant bias dimension so no vector is ever zero. Optional fixed vectors
// take precedence, and errors can be injected.
type fakeEmbedder struct {
	fixed map[string][]float32
	fail  bool
}

func (f *fakeEmbedder) embed(text string) []float32 {
	if v, ok := f.fixed[text]; ok {
		return v
	}
	vec := make([]float32, 27)
	vec[26] = 1
	for _, r := range text {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	return vec
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if f.fail {
		return nil, errors.New("embedding service down")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.embed(t)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.fail {
		return nil, errors.New("embedding service down")
	}
	return f.embed(text), nil
}

func testChunks(texts ...string) []models.Chunk {
	chunks := make([]models.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = models.Chunk{Content: t, Page: i + 1, Source: "doc.pdf", ChunkID: 1}
	}
	return chunks
}

func newTestIndex(t *testing.T, emb *fakeEmbedder) *Index {
	t.Helper()
	store, err := NewMemoryStore()
	require.NoError(t, err)
	cfg := config.DefaultConfig()
	return NewIndex(store, emb, &cfg.RAG)
}

func TestRetrieverBeforeBuild(t *testing.T) {
	ix := newTestIndex(t, &fakeEmbedder{})
	_, err := ix.Retriever(7, StrategyMMR)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotBuilt)
}

func TestBuildEmpty(t *testing.T) {
	ix := newTestIndex(t, &fakeEmbedder{})
	err := ix.Build(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndex)
}

func TestBuildEmbeddingFailureLeavesIndexUnbuilt(t *testing.T) {
	ix := newTestIndex(t, &fakeEmbedder{fail: true})
	err := ix.Build(context.Background(), testChunks("some text"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndex)

	_, err = ix.Retriever(7, StrategySimilarity)
	assert.ErrorIs(t, err, ErrNotBuilt)
}

func TestSimilaritySearchOrdering(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t, &fakeEmbedder{})
	require.NoError(t, ix.Build(ctx, testChunks(
		"alpha alpha alpha",
		"bravo bravo bravo",
		"zulu zulu zulu",
	)))

	r, err := ix.Retriever(2, StrategySimilarity)
	require.NoError(t, err)

	chunks, err := r.Search(ctx, "alpha")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "alpha alpha alpha", chunks[0].Content)
	assert.LessOrEqual(t, len(chunks), 2)
}

func TestSearchResultCountBound(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t, &fakeEmbedder{})
	require.NoError(t, ix.Build(ctx, testChunks("alpha", "bravo")))

	// k larger than the collection is clamped, not an error
	r, err := ix.Retriever(7, StrategySimilarity)
	require.NoError(t, err)
	chunks, err := r.Search(ctx, "alpha")
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestRetrieverDefaults(t *testing.T) {
	ctx := context.Background()
	ix := newTestIndex(t, &fakeEmbedder{})
	require.NoError(t, ix.Build(ctx, testChunks("alpha")))

	r, err := ix.Retriever(0, "")
	require.NoError(t, err)
	assert.Equal(t, 7, r.k)
	assert.Equal(t, StrategyMMR, r.strategy)

	_, err = ix.Retriever(3, Strategy("nearest"))
	require.Error(t, err)
}

func TestMaxMarginalRelevancePrefersDiversity(t *testing.T) {
	// a and b are near-duplicates close to the query, c is distinct but
	// still relevant; mmr must pick c over b for the second slot
	a := Result{Chunk: models.Chunk{Content: "a"}, Embedding: []float32{0.98, 0.199, 0}, Similarity: 0.98}
	b := Result{Chunk: models.Chunk{Content: "b"}, Embedding: []float32{0.97, 0.24, 0}, Similarity: 0.97}
	c := Result{Chunk: models.Chunk{Content: "c"}, Embedding: []float32{0.8, -0.6, 0}, Similarity: 0.8}

	picked := maxMarginalRelevance([]Result{a, b, c}, 2, 0.5)
	require.Len(t, picked, 2)
	assert.Equal(t, "a", picked[0].Chunk.Content)
	assert.Equal(t, "c", picked[1].Chunk.Content)
}

func TestMMRSearchEndToEnd(t *testing.T) {
	ctx := context.Background()
	emb := &fakeEmbedder{fixed: map[string][]float32{
		"query text": {1, 0, 0},
		"chunk a":    {0.98, 0.199, 0},
		"chunk b":    {0.97, 0.24, 0},
		"chunk c":    {0.8, -0.6, 0},
	}}
	ix := newTestIndex(t, emb)
	require.NoError(t, ix.Build(ctx, testChunks("chunk a", "chunk b", "chunk c")))

	r, err := ix.Retriever(2, StrategyMMR)
	require.NoError(t, err)
	chunks, err := r.Search(ctx, "query text")
	require.NoError(t, err)

	require.Len(t, chunks, 2)
	assert.Equal(t, "chunk a", chunks[0].Content)
	assert.Equal(t, "chunk c", chunks[1].Content)
}

func TestMemoryStoreReset(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore()
	require.NoError(t, err)

	emb := &fakeEmbedder{}
	vec := emb.embed("alpha")
	require.NoError(t, store.Add(ctx, []Record{{Chunk: models.Chunk{Content: "alpha", Page: 1, ChunkID: 1}, Embedding: vec}}))

	hits, err := store.Query(ctx, vec, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "alpha", hits[0].Chunk.Content)
	assert.Equal(t, 1, hits[0].Chunk.Page)

	require.NoError(t, store.Reset(ctx))
	hits, err = store.Query(ctx, vec, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	assert.Equal(t, float32(0), CosineSimilarity(nil, []float32{1}))
}
