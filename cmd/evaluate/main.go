// Command evaluate runs the RAG evaluation pipeline over a batch of queries
// and writes a JSONL report plus a summary file.
//
//	evaluate -repeats 2 -out judge_report.jsonl "Contraindications of isotretinoin?"
//	evaluate -queries-file queries.txt -out judge_report.jsonl
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/wykkllkaslma/AI6130-NLP/config"
	"github.com/wykkllkaslma/AI6130-NLP/eval"
	"github.com/wykkllkaslma/AI6130-NLP/rag"
	"github.com/wykkllkaslma/AI6130-NLP/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	queriesFile := flag.String("queries-file", "", "File of queries (.txt lines or .jsonl with a query field)")
	repeats := flag.Int("repeats", 2, "Judging trials per query")
	out := flag.String("out", "", "Report output path (JSONL); summary goes to <out>.summary.json")
	flag.Parse()

	godotenv.Load()

	queries := flag.Args()
	if *queriesFile != "" {
		loaded, err := eval.LoadQueries(*queriesFile)
		if err != nil {
			log.Fatalf("couldn't load queries: %v", err)
		}
		queries = loaded
	}
	if len(queries) == 0 {
		fmt.Fprintln(os.Stderr, "Provide queries as arguments or via -queries-file.")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("couldn't load config: %v", err)
	}

	// Fail on the missing credential before any retrieval work is spent.
	genClient, err := rag.NewClient(config.APIKey(), cfg.Generation.BaseURL, cfg.Generation.Model)
	if err != nil {
		log.Fatalf("couldn't create generation client: %v", err)
	}
	judgeClient, err := rag.NewClient(config.APIKey(), cfg.Generation.BaseURL, cfg.Generation.JudgeModel)
	if err != nil {
		log.Fatalf("couldn't create judge client: %v", err)
	}

	ctx := context.Background()
	index, err := store.Open(ctx, store.Config{
		URL:       cfg.Database.URL,
		Table:     cfg.Database.Table,
		Dimension: cfg.Database.Dimension,
	})
	if err != nil {
		log.Fatalf("couldn't open index: %v", err)
	}
	defer index.Close()

	runner := &eval.Runner{
		Answerer: &rag.Answerer{
			Retriever: &rag.Retriever{
				Embedder: rag.NewEmbedder(cfg.Embedder.BaseURL, time.Duration(cfg.Embedder.TimeoutSecs)*time.Second),
				Reranker: rag.NewReranker(cfg.Reranker.BaseURL, time.Duration(cfg.Reranker.TimeoutSecs)*time.Second),
				Index:    index,
			},
			LLM:  genClient,
			K:    cfg.Retrieval.K,
			TopN: cfg.Retrieval.TopN,
		},
		Judge:   eval.NewJudge(judgeClient),
		NLI:     rag.NewNLIClassifier(cfg.NLI.BaseURL, time.Duration(cfg.NLI.TimeoutSecs)*time.Second),
		Repeats: *repeats,
	}

	fmt.Printf("Evaluating %d queries (repeats=%d)...\n\n", len(queries), *repeats)
	summary, rows, err := runner.EvaluateQueries(ctx, queries, *out)
	if err != nil {
		log.Fatalf("couldn't write report: %v", err)
	}
	if len(rows) == 0 {
		log.Fatal("no queries evaluated successfully")
	}

	fmt.Println("\n=== SUMMARY ===")
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(summary)
	if *out != "" {
		fmt.Printf("Report written to %s (summary: %s.summary.json)\n", *out, *out)
	}
}
