package eval

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/wykkllkaslma/AI6130-NLP/rag"
)

// maxRowClaims bounds the pooled claims kept on a persisted row.
const maxRowClaims = 6

// AnswerProvider generates a cited answer with its evidence for a query.
type AnswerProvider interface {
	Answer(ctx context.Context, query string) (*rag.Answer, error)
}

// Runner evaluates a batch of queries sequentially: answer, judge with
// repeats, objective metrics, composite score.
type Runner struct {
	Answerer AnswerProvider
	Judge    *Judge
	NLI      EntailmentClassifier // nil degrades NLI rates to 0
	Repeats  int
}

// EvaluateQuery runs the full pipeline for one query. The evidence sequence
// captured by the answerer stays fixed through citation and objective
// scoring; only judge trials see reshuffled copies.
func (r *Runner) EvaluateQuery(ctx context.Context, query string) (Row, error) {
	ans, err := r.Answerer.Answer(ctx, query)
	if err != nil {
		return Row{}, fmt.Errorf("answer failed: %w", err)
	}

	repeats := r.Repeats
	if repeats < 1 {
		repeats = defaultJudgeRepeats
	}
	judged, err := r.Judge.Average(ctx, query, ans.Text, ans.Evidence, repeats)
	if err != nil {
		return Row{}, err
	}

	ctxTexts := make([]string, len(ans.Evidence))
	for i, ev := range ans.Evidence {
		ctxTexts[i] = ev.Text
	}
	supportRate, contradictionRate := NLIRates(ctx, r.NLI, ans.Text, ctxTexts)
	cites := Citations(ans.Text, ans.Refs, len(ans.Evidence))

	claims := judged.Claims
	if len(claims) > maxRowClaims {
		claims = claims[:maxRowClaims]
	}

	row := Row{
		Query:              query,
		Answer:             ans.Text,
		Refs:               ans.Refs,
		Faithfulness:       judged.Faithfulness,
		Relevance:          judged.Relevance,
		Safety:             judged.Safety,
		Overall:            judged.Overall,
		Claims:             claims,
		Justifications:     judged.Justifications,
		SupportRate:        supportRate,
		ContradictionRate:  contradictionRate,
		CitationCount:      cites.Count,
		CitationOutOfRange: float64(cites.OutOfRange),
		CitationResolvable: cites.Resolvable,
		Freshness:          Freshness(ans.Refs),
	}
	row.RAGQS = RAGQS(row)
	return row, nil
}

// EvaluateQueries runs the batch. A failed query is logged and excluded from
// the aggregate; it never aborts the remaining queries.
func (r *Runner) EvaluateQueries(ctx context.Context, queries []string, outPath string) (Summary, []Row, error) {
	rows := make([]Row, 0, len(queries))
	for _, query := range queries {
		row, err := r.EvaluateQuery(ctx, query)
		if err != nil {
			slog.Error("skipping query", "query", query, "err", err)
			fmt.Printf("[FAIL] %s: %v\n", query, err)
			continue
		}
		rows = append(rows, row)
		fmt.Printf("[OK] %s\n"+
			"  -> overall=%.2f (faith=%.2f, rel=%.2f, safe=%.2f) | "+
			"NLI(sup=%.2f, contra=%.2f) | "+
			"cit(res=%.2f, outRange=%d) | RAG_QS=%.1f\n",
			query, row.Overall, row.Faithfulness, row.Relevance, row.Safety,
			row.SupportRate, row.ContradictionRate,
			row.CitationResolvable, int(row.CitationOutOfRange), row.RAGQS)
	}

	summary := Summarize(rows)
	if outPath != "" {
		if err := WriteReport(outPath, rows, summary); err != nil {
			return summary, rows, err
		}
	}
	return summary, rows, nil
}

// WriteReport persists one JSON line per row to path and the summary to
// path + ".summary.json".
func WriteReport(path string, rows []Row, summary Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("couldn't create report file: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return err
		}
	}

	sf, err := os.Create(path + ".summary.json")
	if err != nil {
		return fmt.Errorf("couldn't create summary file: %w", err)
	}
	defer sf.Close()
	senc := json.NewEncoder(sf)
	senc.SetIndent("", "  ")
	return senc.Encode(summary)
}

// LoadQueries reads a query batch from a .txt file (one query per line) or a
// .jsonl file (bare strings or objects with a "query" field). Unparseable
// jsonl lines are skipped.
func LoadQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var queries []string
	scanner := bufio.NewScanner(f)
	switch {
	case strings.HasSuffix(path, ".txt"):
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				queries = append(queries, line)
			}
		}
	case strings.HasSuffix(path, ".jsonl"):
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var s string
			if err := json.Unmarshal([]byte(line), &s); err == nil {
				queries = append(queries, s)
				continue
			}
			var obj struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal([]byte(line), &obj); err == nil && obj.Query != "" {
				queries = append(queries, obj.Query)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported queries file %q: only .txt or .jsonl", path)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return queries, nil
}
