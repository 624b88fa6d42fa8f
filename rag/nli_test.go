package rag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClassify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" {
			t.Errorf("Expected path /predict, got %s", r.URL.Path)
		}

		var payload nliRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("Failed to decode request body: %v", err)
		}
		if len(payload.Inputs) != 1 {
			t.Fatalf("Expected 1 input pair, got %d", len(payload.Inputs))
		}
		if payload.Inputs[0].Text != "premise text" || payload.Inputs[0].TextPair != "hypothesis text" {
			t.Errorf("Unexpected input pair: %+v", payload.Inputs[0])
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode([]nliPrediction{{Label: "entailment", Score: 0.93}})
	}))
	defer server.Close()

	classifier := &NLIClassifier{BaseURL: server.URL, Client: server.Client()}

	label, err := classifier.Classify(context.Background(), "premise text", "hypothesis text")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if label != LabelEntailment {
		t.Errorf("Expected label %s, got %s", LabelEntailment, label)
	}
}

func TestClassify_SingleObjectResponse(t *testing.T) {
	// Some servers return a bare object instead of a list.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(nliPrediction{Label: "Contradiction", Score: 0.81})
	}))
	defer server.Close()

	classifier := &NLIClassifier{BaseURL: server.URL, Client: server.Client()}

	label, err := classifier.Classify(context.Background(), "premise", "hypothesis")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if label != LabelContradiction {
		t.Errorf("Expected label %s, got %s", LabelContradiction, label)
	}
}

func TestClassify_EmptyLabel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	classifier := &NLIClassifier{BaseURL: server.URL, Client: server.Client()}

	_, err := classifier.Classify(context.Background(), "premise", "hypothesis")
	if err == nil {
		t.Fatal("Expected an error, got nil")
	}
}

func TestClassify_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))
	defer server.Close()

	classifier := &NLIClassifier{BaseURL: server.URL, Client: server.Client()}

	_, err := classifier.Classify(context.Background(), "premise", "hypothesis")
	if err == nil {
		t.Fatal("Expected an error, got nil")
	}
}
