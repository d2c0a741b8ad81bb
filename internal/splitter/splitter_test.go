package splitter

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/config"
	"pdfchat/internal/models"
)

func newTestSplitter() *Splitter {
	cfg := config.DefaultConfig()
	return NewSplitter(&cfg.RAG)
}

// distinctWords builds a non-repetitive text so chunk positions in the
// original are unambiguous.
func distinctWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("word%04d", i)
	}
	return strings.Join(words, " ")
}

func TestSplitShortPassageSingleChunk(t *testing.T) {
	s := newTestSplitter()
	chunks, err := s.Split([]models.Passage{{Content: "short passage", Page: 3, Source: "a.pdf"}})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short passage", chunks[0].Content)
	assert.Equal(t, 3, chunks[0].Page)
	assert.Equal(t, "a.pdf", chunks[0].Source)
	assert.Equal(t, 1, chunks[0].ChunkID)
}

func TestSplitLongPassageProducesMultipleChunks(t *testing.T) {
	// 100 repetitions of a 14-character phrase, >1000 chars
	text := strings.Repeat("test content  ", 100)
	s := newTestSplitter()
	chunks, err := s.Split([]models.Passage{{Content: text, Page: 1, Source: "a.pdf"}})
	require.NoError(t, err)
	assert.Greater(t, len(chunks), 1)
}

func TestSplitChunkSizeBound(t *testing.T) {
	s := newTestSplitter()
	inputs := []string{
		distinctWords(400),
		strings.Repeat("test content  ", 100),
		strings.Repeat("x", 5000), // no split boundary at all, hard cut
	}
	for _, text := range inputs {
		chunks, err := s.Split([]models.Passage{{Content: text, Page: 1, Source: "a.pdf"}})
		require.NoError(t, err)
		for _, c := range chunks {
			assert.LessOrEqual(t, utf8.RuneCountInString(c.Content), 1000)
		}
	}
}

func TestSplitCoversWholePassage(t *testing.T) {
	text := distinctWords(400) // ~3600 chars, unique words
	s := newTestSplitter()
	chunks, err := s.Split([]models.Passage{{Content: text, Page: 1, Source: "a.pdf"}})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// walk the chunks left to right: each must sit in the original with no
	// gap (beyond whitespace dropped at chunk edges) and at most the
	// configured overlap shared with its predecessor
	prevEnd := 0
	for i, c := range chunks {
		start := strings.Index(text, c.Content)
		require.GreaterOrEqual(t, start, 0, "chunk %d not found in source", i)
		if start > prevEnd {
			gap := text[prevEnd:start]
			assert.Empty(t, strings.TrimSpace(gap), "gap before chunk %d", i)
		} else {
			assert.LessOrEqual(t, prevEnd-start, 40, "overlap before chunk %d exceeds bound", i)
		}
		if end := start + len(c.Content); end > prevEnd {
			prevEnd = end
		}
	}
	assert.Empty(t, strings.TrimSpace(text[prevEnd:]), "tail of passage not covered")
}

func TestSplitPreservesOrderAcrossPassages(t *testing.T) {
	s := newTestSplitter()
	passages := []models.Passage{
		{Content: distinctWords(300), Page: 1, Source: "a.pdf"},
		{Content: "second page text", Page: 2, Source: "a.pdf"},
	}
	chunks, err := s.Split(passages)
	require.NoError(t, err)

	lastPage := 0
	lastID := 0
	for _, c := range chunks {
		require.GreaterOrEqual(t, c.Page, lastPage)
		if c.Page == lastPage {
			assert.Equal(t, lastID+1, c.ChunkID)
		} else {
			assert.Equal(t, 1, c.ChunkID)
		}
		lastPage = c.Page
		lastID = c.ChunkID
	}
	assert.Equal(t, 2, lastPage)
}

func TestSplitSkipsEmptyPassages(t *testing.T) {
	s := newTestSplitter()
	chunks, err := s.Split([]models.Passage{
		{Content: "   ", Page: 1, Source: "a.pdf"},
		{Content: "real text", Page: 2, Source: "a.pdf"},
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 2, chunks[0].Page)
}
