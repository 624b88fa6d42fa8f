package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// NLI verdict labels as emitted by MNLI-style classifiers.
const (
	LabelEntailment    = "ENTAILMENT"
	LabelContradiction = "CONTRADICTION"
	LabelNeutral       = "NEUTRAL"
)

// NLIClassifier calls a textual-entailment model (facebook/bart-large-mnli
// behind a /predict endpoint) to relate an evidence premise to an answer
// sentence hypothesis.
type NLIClassifier struct {
	BaseURL string
	Client  *http.Client
}

func NewNLIClassifier(baseURL string, timeout time.Duration) *NLIClassifier {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &NLIClassifier{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

type nliInput struct {
	Text     string `json:"text"`
	TextPair string `json:"text_pair"`
}

type nliRequest struct {
	Inputs []nliInput `json:"inputs"`
}

type nliPrediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify returns the upper-cased top label for one (premise, hypothesis)
// pair: ENTAILMENT, CONTRADICTION or NEUTRAL.
func (c *NLIClassifier) Classify(ctx context.Context, premise, hypothesis string) (string, error) {
	reqData, err := json.Marshal(nliRequest{Inputs: []nliInput{{Text: premise, TextPair: hypothesis}}})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/predict", bytes.NewReader(reqData))
	if err != nil {
		return "", err
	}
	req.Header.Add("Content-Type", "application/json")

	res, err := c.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	resData, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("nli server returned status %d: %s", res.StatusCode, string(resData))
	}

	// The server replies with a list for batched input, a bare object otherwise.
	var predictions []nliPrediction
	if err := json.Unmarshal(resData, &predictions); err != nil {
		var single nliPrediction
		if err := json.Unmarshal(resData, &single); err != nil {
			return "", fmt.Errorf("failed to parse nli response: %w", err)
		}
		predictions = []nliPrediction{single}
	}
	if len(predictions) == 0 || predictions[0].Label == "" {
		return "", fmt.Errorf("nli response contained no label")
	}
	return strings.ToUpper(predictions[0].Label), nil
}
