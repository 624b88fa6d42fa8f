package rag

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeRetriever struct {
	chunks []ScoredChunk
	err    error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, k, topn int) ([]ScoredChunk, error) {
	return f.chunks, f.err
}

type fakeGenerator struct {
	response string
	err      error
	prompt   string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func TestAnswer(t *testing.T) {
	gen := &fakeGenerator{response: "  Acetaminophen max dose is 4g/day [1]. \n"}
	answerer := &Answerer{
		Retriever: &fakeRetriever{chunks: []ScoredChunk{
			{Text: "Do not exceed 4 grams per day.", URL: "https://dailymed.example/a"},
			{Text: "Hepatotoxicity warning.", URL: "https://dailymed.example/b"},
		}},
		LLM:  gen,
		K:    20,
		TopN: 5,
	}

	ans, err := answerer.Answer(context.Background(), "max acetaminophen dose?")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if ans.Text != "Acetaminophen max dose is 4g/day [1]." {
		t.Errorf("Expected trimmed answer text, got %q", ans.Text)
	}
	if len(ans.Refs) != 2 || ans.Refs[0] != "https://dailymed.example/a" || ans.Refs[1] != "https://dailymed.example/b" {
		t.Errorf("Unexpected refs: %v", ans.Refs)
	}
	if len(ans.Evidence) != 2 {
		t.Errorf("Expected 2 evidence items, got %d", len(ans.Evidence))
	}

	if !strings.Contains(gen.prompt, "[1] Do not exceed 4 grams per day.") {
		t.Errorf("Prompt missing numbered evidence line:\n%s", gen.prompt)
	}
	if !strings.Contains(gen.prompt, "[2] Hepatotoxicity warning.") {
		t.Errorf("Prompt missing second evidence line:\n%s", gen.prompt)
	}
	if !strings.Contains(gen.prompt, "Question: max acetaminophen dose?") {
		t.Errorf("Prompt missing question:\n%s", gen.prompt)
	}
}

func TestAnswer_NoEvidence(t *testing.T) {
	gen := &fakeGenerator{response: "I cannot answer without sources."}
	answerer := &Answerer{
		Retriever: &fakeRetriever{},
		LLM:       gen,
		K:         20,
		TopN:      5,
	}

	ans, err := answerer.Answer(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(gen.prompt, noEvidencePlaceholder) {
		t.Errorf("Prompt missing the no-evidence placeholder:\n%s", gen.prompt)
	}
	if len(ans.Refs) != 0 {
		t.Errorf("Expected no refs, got %v", ans.Refs)
	}
	if len(ans.Evidence) != 0 {
		t.Errorf("Expected no evidence, got %v", ans.Evidence)
	}
}

func TestAnswer_EmptyChunkTextStillGetsRef(t *testing.T) {
	// A chunk with empty text contributes no context line but keeps its
	// positional slot in refs so citation indices stay aligned.
	gen := &fakeGenerator{response: "ok"}
	answerer := &Answerer{
		Retriever: &fakeRetriever{chunks: []ScoredChunk{
			{Text: "", URL: "https://x/empty"},
			{Text: "real text", URL: "https://x/real"},
		}},
		LLM:  gen,
		K:    20,
		TopN: 5,
	}

	ans, err := answerer.Answer(context.Background(), "q")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(ans.Refs) != 2 || ans.Refs[0] != "https://x/empty" {
		t.Errorf("Unexpected refs: %v", ans.Refs)
	}
	if strings.Contains(gen.prompt, "[1] \n") {
		t.Errorf("Empty chunk must not produce a context line:\n%s", gen.prompt)
	}
}

func TestAnswer_GeneratorError(t *testing.T) {
	answerer := &Answerer{
		Retriever: &fakeRetriever{},
		LLM:       &fakeGenerator{err: errors.New("api down")},
		K:         20,
		TopN:      5,
	}

	_, err := answerer.Answer(context.Background(), "q")
	if err == nil {
		t.Fatal("Expected an error, got nil")
	}
}

func TestAnswer_RetrieverError(t *testing.T) {
	answerer := &Answerer{
		Retriever: &fakeRetriever{err: errors.New("embed down")},
		LLM:       &fakeGenerator{},
		K:         20,
		TopN:      5,
	}

	_, err := answerer.Answer(context.Background(), "q")
	if err == nil {
		t.Fatal("Expected an error, got nil")
	}
}
