package eval

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/wykkllkaslma/AI6130-NLP/rag"
)

type fakeAnswerer struct {
	answers map[string]*rag.Answer
	err     error
}

func (f *fakeAnswerer) Answer(ctx context.Context, query string) (*rag.Answer, error) {
	if f.err != nil {
		return nil, f.err
	}
	if ans, ok := f.answers[query]; ok {
		return ans, nil
	}
	return nil, errors.New("unknown query")
}

func TestEvaluateQuery(t *testing.T) {
	answerer := &fakeAnswerer{answers: map[string]*rag.Answer{
		"max dose?": {
			Text: "The maximum dose is 4g per day [1]. Exceeding it risks liver damage [2].",
			Refs: []string{"https://dailymed.example/2024/a", "https://dailymed.example/2010/b"},
			Evidence: []rag.Evidence{
				{Text: "maximum dose is 4 grams per day", URL: "https://dailymed.example/2024/a"},
				{Text: "overdose risks liver damage", URL: "https://dailymed.example/2010/b"},
			},
		},
	}}
	judge := newTestJudge(&fakeChat{responses: []string{
		`{"faithfulness": 4, "relevance": 5, "safety": 4, "overall": 4.5, "justification": "grounded"}`,
	}})
	nli := &fakeClassifier{labels: map[string]string{
		"The maximum dose is 4g per day [1].":  "ENTAILMENT",
		"Exceeding it risks liver damage [2].": "ENTAILMENT",
	}}

	runner := &Runner{Answerer: answerer, Judge: judge, NLI: nli, Repeats: 2}

	row, err := runner.EvaluateQuery(context.Background(), "max dose?")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if row.Query != "max dose?" {
		t.Errorf("Unexpected query: %q", row.Query)
	}
	if row.Faithfulness != 4 || row.Overall != 4.5 {
		t.Errorf("Unexpected judge scores: %+v", row)
	}
	if len(row.Justifications) != 2 {
		t.Errorf("Expected one justification per trial, got %v", row.Justifications)
	}
	if row.SupportRate != 1.0 {
		t.Errorf("Expected support rate 1.0, got %f", row.SupportRate)
	}
	if row.CitationCount != 2 || row.CitationOutOfRange != 0 {
		t.Errorf("Unexpected citation stats: %+v", row)
	}
	if row.CitationResolvable != 1.0 {
		t.Errorf("Expected resolvable 1.0, got %f", row.CitationResolvable)
	}
	// one ref from 2024, one from 2010
	if row.Freshness != 0.5 {
		t.Errorf("Expected freshness 0.5, got %f", row.Freshness)
	}
	if math.Abs(row.RAGQS-RAGQS(row)) > 1e-9 {
		t.Errorf("Row RAG-QS must match the composite formula")
	}
	if row.RAGQS <= 0 || row.RAGQS > 100 {
		t.Errorf("RAG-QS out of range: %f", row.RAGQS)
	}
}

func TestEvaluateQuery_NoEvidence(t *testing.T) {
	answerer := &fakeAnswerer{answers: map[string]*rag.Answer{
		"anything": {
			Text:     "I cannot find evidence for this [1].",
			Refs:     nil,
			Evidence: nil,
		},
	}}
	judge := newTestJudge(&fakeChat{responses: []string{
		`{"faithfulness": 0, "relevance": 1, "safety": 3}`,
	}})

	runner := &Runner{Answerer: answerer, Judge: judge, Repeats: 1}

	row, err := runner.EvaluateQuery(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	// with empty context the valid citation range degrades to [1, 1]
	if row.CitationCount != 1 || row.CitationOutOfRange != 0 {
		t.Errorf("Unexpected citation stats: %+v", row)
	}
	if row.SupportRate != 0 || row.ContradictionRate != 0 {
		t.Errorf("Expected degraded NLI rates, got %f/%f", row.SupportRate, row.ContradictionRate)
	}
	if row.Freshness != 0 {
		t.Errorf("Expected freshness 0 without refs, got %f", row.Freshness)
	}
}

func TestEvaluateQueries_FailedQuerySkipped(t *testing.T) {
	answerer := &fakeAnswerer{answers: map[string]*rag.Answer{
		"good": {Text: "Answer [1].", Refs: []string{"https://x/2024/a"}, Evidence: []rag.Evidence{{Text: "evidence", URL: "https://x/2024/a"}}},
	}}
	judge := newTestJudge(&fakeChat{responses: []string{
		`{"faithfulness": 3, "relevance": 3, "safety": 3}`,
	}})

	runner := &Runner{Answerer: answerer, Judge: judge, Repeats: 1}

	summary, rows, err := runner.EvaluateQueries(context.Background(), []string{"good", "missing"}, "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 surviving row, got %d", len(rows))
	}
	if summary.N != 1 {
		t.Errorf("Expected summary over 1 row, got N=%d", summary.N)
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.jsonl")

	rows := []Row{
		{Query: "q1", Answer: "a1 [1].", RAGQS: 61.5, CitationResolvable: 1},
		{Query: "q2", Answer: "a2.", RAGQS: 40},
	}
	summary := Summarize(rows)

	if err := WriteReport(path, rows, summary); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open report: %v", err)
	}
	defer f.Close()

	var got []Row
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var row Row
		if err := json.Unmarshal(scanner.Bytes(), &row); err != nil {
			t.Fatalf("Invalid JSONL line: %v", err)
		}
		got = append(got, row)
	}
	if len(got) != 2 || got[0].Query != "q1" || got[1].RAGQS != 40 {
		t.Errorf("Unexpected persisted rows: %+v", got)
	}

	raw, err := os.ReadFile(path + ".summary.json")
	if err != nil {
		t.Fatalf("Failed to read summary: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("Invalid summary JSON: %v", err)
	}
	if fields["N"].(float64) != 2 {
		t.Errorf("Expected N=2 in summary, got %v", fields["N"])
	}
	if _, ok := fields["RAG_QS_mean"]; !ok {
		t.Error("Summary missing RAG_QS_mean field")
	}
	if _, ok := fields["CitationResolvable%_mean"]; !ok {
		t.Error("Summary missing CitationResolvable%_mean field")
	}
}

func TestLoadQueries_Txt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "queries.txt")
	content := "first query\n\n  second query  \n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	queries, err := LoadQueries(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(queries) != 2 || queries[0] != "first query" || queries[1] != "second query" {
		t.Errorf("Unexpected queries: %v", queries)
	}
}

func TestLoadQueries_JSONL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "queries.jsonl")
	content := `"bare string query"
{"query": "object query"}
{"other": "no query field"}
not json
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	queries, err := LoadQueries(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(queries) != 2 || queries[0] != "bare string query" || queries[1] != "object query" {
		t.Errorf("Unexpected queries: %v", queries)
	}
}

func TestLoadQueries_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "queries.csv")
	if err := os.WriteFile(path, []byte("q"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadQueries(path)
	if err == nil {
		t.Fatal("Expected an error, got nil")
	}
}
