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

// Reranker scores (query, passage) pairs with a cross-encoder served over
// HTTP (cross-encoder/ms-marco-MiniLM-L-6-v2 behind a /rerank endpoint).
type Reranker struct {
	BaseURL string
	Client  *http.Client
}

func NewReranker(baseURL string, timeout time.Duration) *Reranker {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Reranker{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	RawScores bool     `json:"raw_scores"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Rerank returns one relevance score per text, aligned to input order.
// The server replies ranked; scores are mapped back through the index field.
func (r *Reranker) Rerank(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	reqData, err := json.Marshal(rerankRequest{Query: query, Texts: texts, RawScores: true})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/rerank", bytes.NewReader(reqData))
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", "application/json")

	res, err := r.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resData, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank server returned status %d: %s", res.StatusCode, string(resData))
	}

	var ranked []rerankResult
	if err := json.Unmarshal(resData, &ranked); err != nil {
		return nil, err
	}

	scores := make([]float64, len(texts))
	for _, item := range ranked {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("rerank result index %d out of range for %d texts", item.Index, len(texts))
		}
		scores[item.Index] = item.Score
	}
	return scores, nil
}
