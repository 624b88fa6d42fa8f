package ingest

import (
	"bytes"
	"strings"
	"testing"
)

func TestReadDocumentsToleratesMissingOptionalFields(t *testing.T) {
	input := `{"id":"pubmed:1","source":"pubmed","title":"T","text":"abstract"}
{"id":"openfda:2","source":"openfda","title":"U","text":"label","url":"https://x/2020","date":"2020"}
`
	docs, err := ReadDocuments(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(docs))
	}
	if docs[0].URL != "" || docs[0].Date != "" {
		t.Errorf("Expected empty optional fields, got url=%q date=%q", docs[0].URL, docs[0].Date)
	}
	if docs[1].URL != "https://x/2020" {
		t.Errorf("Unexpected url: %q", docs[1].URL)
	}
}

func TestReadDocumentsRejectsMalformedLine(t *testing.T) {
	input := "{\"id\":\"a\"}\nnot json\n"
	if _, err := ReadDocuments(strings.NewReader(input)); err == nil {
		t.Fatal("Expected an error, got nil")
	}
}

func TestReadChunksAcceptsLegacyDiseasesVariant(t *testing.T) {
	input := `{"id":"d:0","parent":"d","text":"t1","source":"openfda","url":"https://x"}
{"id":"m:0","Diseases":"asthma","text":"t2","source":"meddialog","url":""}
`
	chunks, err := ReadChunks(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Parent != "d" || chunks[0].Diseases != "" {
		t.Errorf("Canonical chunk parsed wrong: %+v", chunks[0])
	}
	if chunks[1].Diseases != "asthma" {
		t.Errorf("Expected legacy Diseases key to map onto the canonical field, got %+v", chunks[1])
	}
}

func TestWriteJSONLRoundTrip(t *testing.T) {
	chunks := []Chunk{
		{ID: "a:0", Parent: "a", Text: "hello", Source: "pubmed", URL: "https://x"},
		{ID: "a:1", Parent: "a", Text: "world", Source: "pubmed"},
	}

	var buf bytes.Buffer
	if err := WriteJSONL(&buf, chunks); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got := strings.Count(buf.String(), "\n"); got != 2 {
		t.Fatalf("Expected 2 lines, got %d", got)
	}

	back, err := ReadChunks(&buf)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(back) != 2 || back[0].ID != "a:0" || back[1].Text != "world" {
		t.Errorf("Round trip mismatch: %+v", back)
	}
}
