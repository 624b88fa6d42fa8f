package rag

import (
	"context"
	"fmt"
	"strings"
)

const answerPrompt = `You are a medical assistant. Answer based only on context:

%s

Question: %s

If the question is not in English, take the translation of context into account.
And your answer should be based on the language of the Question.
Provide references as [1], [2] matching context.
`

// noEvidencePlaceholder stands in for the context block when retrieval
// returns nothing, so the model still gets a well-formed prompt.
const noEvidencePlaceholder = "[1] No evidence retrieved."

// Generator produces free text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ContextRetriever supplies ranked evidence for a query.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string, k, topn int) ([]ScoredChunk, error)
}

// Answer is generated text plus positional reference metadata: Refs[i] is
// the URL of Evidence[i] whether or not the model cited index i+1.
type Answer struct {
	Text     string     `json:"text"`
	Refs     []string   `json:"refs"`
	Evidence []Evidence `json:"-"`
}

// Answerer generates grounded answers from retrieved evidence.
type Answerer struct {
	Retriever ContextRetriever
	LLM       Generator
	K         int
	TopN      int
}

// Answer retrieves evidence for the query and generates a cited answer.
// Evidence order is frozen here; citation indices in the answer refer to it.
func (a *Answerer) Answer(ctx context.Context, query string) (*Answer, error) {
	chunks, err := a.Retriever.Retrieve(ctx, query, a.K, a.TopN)
	if err != nil {
		return nil, err
	}
	evidence := ToEvidence(chunks)

	var lines []string
	refs := make([]string, 0, len(evidence))
	for i, ev := range evidence {
		if ev.Text != "" {
			lines = append(lines, fmt.Sprintf("[%d] %s", i+1, ev.Text))
		}
		refs = append(refs, ev.URL)
	}
	contextBlock := noEvidencePlaceholder
	if len(lines) > 0 {
		contextBlock = strings.Join(lines, "\n\n")
	}

	text, err := a.LLM.Generate(ctx, fmt.Sprintf(answerPrompt, contextBlock, query))
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}

	return &Answer{
		Text:     strings.TrimSpace(text),
		Refs:     refs,
		Evidence: evidence,
	}, nil
}
