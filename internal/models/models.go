package models

// Passage is the text of one page (or one logical unit) extracted from an
// uploaded document, before chunking.
type Passage struct {
	Content string
	Page    int
	Source  string
}

// Chunk represents a bounded piece of passage text with metadata
type Chunk struct {
	Content string
	Page    int
	Source  string
	ChunkID int
}

// ConversationTurn is one question/answer exchange kept as dialogue context
type ConversationTurn struct {
	Question string
	Answer   string
}

// DocumentUpload carries an uploaded document and its caller-computed
// identity. ID is used to detect "new document" vs "same document again",
// Name's extension selects the extraction format.
type DocumentUpload struct {
	Name string
	Data []byte
	ID   string
}

// Answer is the result of one question: the generated text plus the chunks
// used as evidence.
type Answer struct {
	Content string
	Sources []Chunk
}
