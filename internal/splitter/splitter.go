// Package splitter turns normalized passages into retrieval-sized chunks.
package splitter

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"pdfchat/internal/config"
	"pdfchat/internal/models"
)

// Splitter splits passage text recursively, preferring larger boundaries
// (paragraph, line, sentence, word) before a hard character cut.
type Splitter struct {
	inner textsplitter.RecursiveCharacter
}

// NewSplitter creates a splitter from the RAG config (chunk size in
// characters, overlap shared between adjacent chunks of one passage).
func NewSplitter(cfg *config.RAGConfig) *Splitter {
	return &Splitter{
		inner: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(cfg.ChunkSize),
			textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", ". ", " ", ""}),
		),
	}
}

// Split chunks every passage in order. Chunk order within a passage follows
// text order and every chunk carries its passage's metadata; ChunkID is the
// 1-based position within the passage.
func (s *Splitter) Split(passages []models.Passage) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for _, p := range passages {
		if strings.TrimSpace(p.Content) == "" {
			continue
		}
		parts, err := s.inner.SplitText(p.Content)
		if err != nil {
			return nil, fmt.Errorf("split page %d: %w", p.Page, err)
		}
		id := 0
		for _, part := range parts {
			if strings.TrimSpace(part) == "" {
				continue
			}
			id++
			chunks = append(chunks, models.Chunk{
				Content: part,
				Page:    p.Page,
				Source:  p.Source,
				ChunkID: id,
			})
		}
	}
	return chunks, nil
}
