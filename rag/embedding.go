// Package rag implements the retrieval pipeline: embedding, vector search,
// cross-encoder reranking and grounded answer generation.
package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Embedder generates sentence embeddings via an HTTP inference server
// (text-embeddings-inference style, serving BAAI/bge-small-en-v1.5).
type Embedder struct {
	BaseURL string
	Client  *http.Client
}

func NewEmbedder(baseURL string, timeout time.Duration) *Embedder {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Embedder{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

type embedRequest struct {
	Inputs []string `json:"inputs"`
}

// EmbedBatch embeds a batch of texts, preserving input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	reqData, err := json.Marshal(embedRequest{Inputs: texts})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/embed", bytes.NewReader(reqData))
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", "application/json")

	res, err := e.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resData, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding server returned status %d: %s", res.StatusCode, string(resData))
	}

	var embeddings [][]float32
	if err := json.Unmarshal(resData, &embeddings); err != nil {
		return nil, err
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(embeddings))
	}
	return embeddings, nil
}

// Embed embeds a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}
