package ingest

import (
	"fmt"
	"strings"
	"unicode"
)

// DefaultMaxTokens bounds chunk size, matching the embedding model's
// effective context window.
const DefaultMaxTokens = 500

// Tokenize splits text into embedding-sized units: whitespace-separated
// words, with CJK characters counted one token each.
func Tokenize(text string) []string {
	var tokens []string
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.Is(unicode.Han, r):
			flush()
			tokens = append(tokens, string(r))
		default:
			word.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// ChunkText splits text into windows of at most maxTokens tokens.
func ChunkText(text string, maxTokens int) []string {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return []string{}
	}
	var chunks []string
	for i := 0; i < len(tokens); i += maxTokens {
		end := min(i+maxTokens, len(tokens))
		chunks = append(chunks, strings.Join(tokens[i:end], " "))
	}
	return chunks
}

// ChunkDocument derives chunks from one document. Deterministic: the same
// document always yields the same chunk IDs and texts.
func ChunkDocument(doc Document, maxTokens int) []Chunk {
	parts := ChunkText(doc.Text, maxTokens)
	chunks := make([]Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = Chunk{
			ID:         fmt.Sprintf("%s:%d", doc.ID, i),
			Parent:     doc.ID,
			Text:       part,
			Source:     doc.Source,
			URL:        doc.URL,
			Provenance: doc.Provenance,
		}
	}
	return chunks
}
