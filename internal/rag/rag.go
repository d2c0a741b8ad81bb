// Package rag implements the conversational question-answering engine:
// history-aware retrieval, prompt construction and a single completion
// attempt per question.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"pdfchat/internal/llmservice"
	"pdfchat/internal/models"
	"pdfchat/internal/vectordb"
)

// ErrQuery reports that retrieval or the language-model invocation failed
// while answering a question. The cause is wrapped; there is no retry.
var ErrQuery = errors.New("query failed")

const systemPrompt = `You are a helpful assistant answering questions about an uploaded document.
Use only the numbered context passages below to answer. If the context does not contain the answer, say you don't know instead of guessing.

Context:
%s`

const condensePrompt = `Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question, in its original language.

Chat History:
%s
Follow Up Input: %s
Standalone question:`

// Engine answers questions against a retriever using a chat model
type Engine struct {
	llm llms.Model
}

func NewEngine(llm llms.Model) *Engine {
	return &Engine{llm: llm}
}

// Answer retrieves context for the question (condensing follow-ups against
// the history first so pronouns resolve), prompts the model once and
// returns the answer with the chunks used as evidence. History is read
// only; the caller appends the new turn on success.
func (e *Engine) Answer(ctx context.Context, retriever *vectordb.Retriever, question string, history []models.ConversationTurn) (*models.Answer, error) {
	if retriever == nil {
		return nil, fmt.Errorf("%w: no retriever for the active document", ErrQuery)
	}

	search := question
	if len(history) > 0 {
		if condensed, err := e.condense(ctx, question, history); err != nil {
			// retrieval can still work on the raw question
			log.Warn().Err(err).Msg("condensing follow-up question failed")
		} else if condensed != "" {
			search = condensed
		}
	}

	chunks, err := retriever.Search(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}

	answer, err := llmservice.GenerateContent(ctx, e.llm, buildMessages(question, chunks, history))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}

	return &models.Answer{Content: answer, Sources: chunks}, nil
}

// condense rewrites a follow-up question into a standalone one using the
// conversation so far
func (e *Engine) condense(ctx context.Context, question string, history []models.ConversationTurn) (string, error) {
	prompt := fmt.Sprintf(condensePrompt, formatHistory(history), question)
	out, err := llms.GenerateFromSinglePrompt(ctx, e.llm, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func buildMessages(question string, chunks []models.Chunk, history []models.ConversationTurn) []llms.MessageContent {
	messages := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: fmt.Sprintf(systemPrompt, formatContext(chunks))}},
		},
	}
	for _, turn := range history {
		messages = append(messages,
			llms.MessageContent{
				Role:  schema.ChatMessageTypeHuman,
				Parts: []llms.ContentPart{llms.TextContent{Text: turn.Question}},
			},
			llms.MessageContent{
				Role:  schema.ChatMessageTypeAI,
				Parts: []llms.ContentPart{llms.TextContent{Text: turn.Answer}},
			},
		)
	}
	return append(messages, llms.MessageContent{
		Role:  schema.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextContent{Text: question}},
	})
}

func formatContext(chunks []models.Chunk) string {
	var b strings.Builder
	for i, c := range chunks {
		b.WriteString(fmt.Sprintf("[%d] (page %d) %s\n\n", i+1, c.Page, c.Content))
	}
	return b.String()
}

func formatHistory(history []models.ConversationTurn) string {
	var b strings.Builder
	for _, turn := range history {
		b.WriteString("Human: " + turn.Question + "\n")
		b.WriteString("Assistant: " + turn.Answer + "\n")
	}
	return b.String()
}
