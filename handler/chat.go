// Package handler implements the REST API route handlers.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/wykkllkaslma/AI6130-NLP/rag"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type ChatRequest struct {
	Q string `json:"q"`
}

type ChatResponse struct {
	Answer     string   `json:"answer"`
	References []string `json:"references"`
}

// AnswerProvider generates a grounded answer for a query.
type AnswerProvider interface {
	Answer(ctx context.Context, query string) (*rag.Answer, error)
}

// Chat serves POST /chat: retrieve evidence, generate an answer, return it
// with the positional reference URLs.
type Chat struct {
	Answerer AnswerProvider
}

func NewChat(answerer AnswerProvider) *Chat {
	return &Chat{Answerer: answerer}
}

func (h *Chat) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)

	var payload ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		enc.Encode(ErrorResponse{Error: "Invalid request body"})
		return
	}
	if payload.Q == "" {
		w.WriteHeader(http.StatusBadRequest)
		enc.Encode(ErrorResponse{Error: "Field 'q' is required"})
		return
	}

	reqID := uuid.NewString()
	slog.Info("Handling chat query", "request_id", reqID, "query", payload.Q)

	ans, err := h.Answerer.Answer(r.Context(), payload.Q)
	if err != nil {
		slog.Error("Could not generate answer", "request_id", reqID, "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		enc.Encode(ErrorResponse{Error: "Could not generate answer"})
		return
	}

	refs := ans.Refs
	if refs == nil {
		refs = []string{}
	}
	w.WriteHeader(http.StatusOK)
	enc.Encode(ChatResponse{Answer: ans.Text, References: refs})
}
