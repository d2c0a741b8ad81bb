// Package session holds the per-session pipeline state: the active
// document's vector index and retriever plus the running conversation.
// It is the public surface the presentation layer calls.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"

	"pdfchat/internal/config"
	"pdfchat/internal/models"
	"pdfchat/internal/normalizer"
	"pdfchat/internal/parser"
	"pdfchat/internal/rag"
	"pdfchat/internal/splitter"
	"pdfchat/internal/vectordb"
)

// NoDocumentMessage is returned by Ask before any document was ingested
const NoDocumentMessage = "Please upload a document first."

// StoreFactory creates a fresh vector store for one document's index
type StoreFactory func() (vectordb.Store, error)

// ParseFunc extracts passages from an upload; the default is parser.Parse
type ParseFunc func(name string, data []byte) ([]models.Passage, error)

// Session is constructed once at process start and passed to all callers.
// One document and one conversation at a time; every method serializes on
// the session mutex, so a build and a query never overlap.
type Session struct {
	mu sync.Mutex

	cfg      *config.Config
	embedder embeddings.Embedder
	engine   *rag.Engine
	split    *splitter.Splitter
	newStore StoreFactory
	parse    ParseFunc

	docID     string
	retriever *vectordb.Retriever
	history   []models.ConversationTurn
}

// Option customises a session at construction time
type Option func(*Session)

// WithStoreFactory selects a vector store backend other than the default
// in-memory one (e.g. the postgres store)
func WithStoreFactory(f StoreFactory) Option {
	return func(s *Session) { s.newStore = f }
}

// WithParser replaces the document extraction routine
func WithParser(p ParseFunc) Option {
	return func(s *Session) { s.parse = p }
}

// New builds a session around the configured embedder and chat model
func New(cfg *config.Config, embedder embeddings.Embedder, llm llms.Model, opts ...Option) *Session {
	s := &Session{
		cfg:      cfg,
		embedder: embedder,
		engine:   rag.NewEngine(llm),
		split:    splitter.NewSplitter(&cfg.RAG),
		newStore: func() (vectordb.Store, error) { return vectordb.NewMemoryStore() },
		parse:    parser.Parse,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest runs the full pipeline for an uploaded document: parse, normalize,
// split, embed, index. The previous index and retriever are replaced only
// after every stage succeeded; on any failure the session keeps its prior
// state. Re-ingesting the currently active document id is a no-op.
func (s *Session) Ingest(ctx context.Context, upload models.DocumentUpload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if upload.ID != "" && upload.ID == s.docID {
		log.Debug().Str("doc_id", upload.ID).Msg("document already ingested, skipping")
		return nil
	}

	passages, err := s.parse(upload.Name, upload.Data)
	if err != nil {
		return err
	}
	passages = normalizer.NormalizePassages(passages)

	chunks, err := s.split.Split(passages)
	if err != nil {
		return fmt.Errorf("split document: %w", err)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("%w: document contains no extractable text", parser.ErrLoad)
	}

	store, err := s.newStore()
	if err != nil {
		return fmt.Errorf("%w: %w", vectordb.ErrIndex, err)
	}
	index := vectordb.NewIndex(store, s.embedder, &s.cfg.RAG)
	if err := index.Build(ctx, chunks); err != nil {
		return err
	}
	retriever, err := index.Retriever(s.cfg.RAG.TopK, vectordb.Strategy(s.cfg.RAG.SearchType))
	if err != nil {
		return err
	}

	// all stages succeeded, swap the new pipeline in
	s.docID = upload.ID
	s.retriever = retriever

	log.Info().
		Str("source", upload.Name).
		Int("pages", len(passages)).
		Int("chunks", len(chunks)).
		Msg("document ingested")
	return nil
}

// Ask answers a question against the active document. Before any successful
// ingest it returns the fixed guidance message without touching retriever,
// model or history. On success the turn is appended to the conversation;
// on failure the history is left as it was.
func (s *Session) Ask(ctx context.Context, question string) (*models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.retriever == nil {
		return &models.Answer{Content: NoDocumentMessage}, nil
	}

	answer, err := s.engine.Answer(ctx, s.retriever, question, s.history)
	if err != nil {
		return nil, err
	}

	s.history = append(s.history, models.ConversationTurn{
		Question: question,
		Answer:   answer.Content,
	})
	return answer, nil
}

// ResetConversation clears the conversation history
func (s *Session) ResetConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// History returns a copy of the conversation so far
func (s *Session) History() []models.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ConversationTurn, len(s.history))
	copy(out, s.history)
	return out
}

// DocumentID returns the identity of the active document, or "" before the
// first successful ingest
func (s *Session) DocumentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docID
}
