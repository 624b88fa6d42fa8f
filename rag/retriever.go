package rag

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/wykkllkaslma/AI6130-NLP/store"
)

// Evidence is one standardized context item shown to the generation and
// judge models under a 1-based citation index.
type Evidence struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// ScoredChunk is a retrieved chunk with its vector similarity and
// cross-encoder relevance score.
type ScoredChunk struct {
	ID         string
	Text       string
	URL        string
	Source     string
	Parent     string
	Similarity float32
	Score      float64
}

// EmbeddingClient embeds query text into the indexed vector space.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RerankClient scores (query, passage) pairs, one scalar per passage.
type RerankClient interface {
	Rerank(ctx context.Context, query string, texts []string) ([]float64, error)
}

// SearchIndex answers nearest-neighbor queries over indexed chunks.
type SearchIndex interface {
	Query(ctx context.Context, embedding []float32, k int) ([]store.Result, error)
}

// Retriever embeds a query, fetches the k nearest chunks and reranks them
// down to the top n. Read-only against an index built by the ingestion CLIs.
type Retriever struct {
	Embedder EmbeddingClient
	Reranker RerankClient
	Index    SearchIndex
}

// Retrieve returns at most topn chunks sorted by descending rerank score.
// Rerank-score ties keep the original similarity order. An empty or
// unreachable index yields an empty result, not an error: "no evidence" is a
// valid state the caller handles with a placeholder context.
func (r *Retriever) Retrieve(ctx context.Context, query string, k, topn int) ([]ScoredChunk, error) {
	queryEmbedding, err := r.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := r.Index.Query(ctx, queryEmbedding, k)
	if err != nil {
		slog.Warn("index query failed, continuing without evidence", "err", err)
		return nil, nil
	}
	if len(hits) == 0 {
		return nil, nil
	}

	texts := make([]string, len(hits))
	for i, hit := range hits {
		texts[i] = hit.Text
	}
	scores, err := r.Reranker.Rerank(ctx, query, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to rerank candidates: %w", err)
	}

	chunks := make([]ScoredChunk, len(hits))
	for i, hit := range hits {
		chunks[i] = ScoredChunk{
			ID:         hit.ID,
			Text:       hit.Text,
			URL:        hit.URL,
			Source:     hit.Source,
			Parent:     hit.Parent,
			Similarity: hit.Similarity,
			Score:      scores[i],
		}
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Score > chunks[j].Score
	})

	if topn < len(chunks) {
		chunks = chunks[:topn]
	}
	return chunks, nil
}

// ToEvidence flattens retrieved chunks into the evidence sequence whose
// order defines the citation indices [1..N].
func ToEvidence(chunks []ScoredChunk) []Evidence {
	evidence := make([]Evidence, len(chunks))
	for i, c := range chunks {
		evidence[i] = Evidence{Text: c.Text, URL: c.URL}
	}
	return evidence
}
