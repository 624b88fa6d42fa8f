// Command dialogeval scores the pipeline's drug recommendations against an
// annotated medical dialogue dataset, reporting precision, recall and F1.
//
//	dialogeval -dataset data/normalized/meddialog_en/eval_sample_1000.json \
//	    -drug-list data/drug_list_en_expanded.txt -limit 30 -out results.json
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
	dataset := flag.String("dataset", "", "Dialogue dataset file (JSON array)")
	drugList := flag.String("drug-list", "", "File of known drug names, one per line")
	limit := flag.Int("limit", 0, "Evaluate only the first N examples (0 = all)")
	out := flag.String("out", "evaluation_results.json", "Results output path")
	flag.Parse()

	godotenv.Load()

	if *dataset == "" || *drugList == "" {
		fmt.Fprintln(os.Stderr, "Both -dataset and -drug-list are required.")
		os.Exit(1)
	}

	drugs, err := eval.LoadDrugList(*drugList)
	if err != nil {
		log.Fatalf("couldn't load drug list: %v", err)
	}
	fmt.Printf("Loaded %d drug names from %s\n", len(drugs), *drugList)

	examples, err := eval.LoadDialogs(*dataset)
	if err != nil {
		log.Fatalf("couldn't load dataset: %v", err)
	}
	fmt.Printf("Loaded %d dialogues from %s\n", len(examples), *dataset)
	if *limit > 0 && *limit < len(examples) {
		examples = examples[:*limit]
		fmt.Printf("Using first %d examples\n", *limit)
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

	evaluator := &eval.DialogEvaluator{
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
		Drugs: drugs,
	}

	fmt.Printf("Evaluating %d dialogues...\n\n", len(examples))
	results, err := evaluator.Evaluate(ctx, *dataset, examples)
	if err != nil {
		log.Fatalf("evaluation failed: %v", err)
	}

	if err := eval.WriteDialogResults(*out, results); err != nil {
		log.Fatalf("couldn't write results: %v", err)
	}

	fmt.Println("\n=== RESULTS ===")
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)
	fmt.Printf("Results written to %s\n", *out)
}
