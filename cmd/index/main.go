// Command index embeds chunks.jsonl in batches and upserts them into the
// pgvector index the retriever queries.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/wykkllkaslma/AI6130-NLP/config"
	"github.com/wykkllkaslma/AI6130-NLP/ingest"
	"github.com/wykkllkaslma/AI6130-NLP/rag"
	"github.com/wykkllkaslma/AI6130-NLP/store"
)

const batchSize = 100

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	chunksPath := flag.String("chunks", "data/chunks.jsonl", "Chunks file")
	flag.Parse()

	godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("couldn't load config: %v", err)
	}

	f, err := os.Open(*chunksPath)
	if err != nil {
		log.Fatalf("couldn't open %s: %v", *chunksPath, err)
	}
	chunks, err := ingest.ReadChunks(f)
	f.Close()
	if err != nil {
		log.Fatalf("couldn't read chunks: %v", err)
	}
	fmt.Printf("Building index from %s (%d chunks)...\n", *chunksPath, len(chunks))

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

	if err := index.Init(ctx); err != nil {
		log.Fatalf("couldn't init index: %v", err)
	}

	embedder := rag.NewEmbedder(cfg.Embedder.BaseURL, time.Duration(cfg.Embedder.TimeoutSecs)*time.Second)

	for start := 0; start < len(chunks); start += batchSize {
		end := min(start+batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		embeddings, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			log.Fatalf("embedding batch at %d failed: %v", start, err)
		}

		entries := make([]store.Entry, len(batch))
		for i, c := range batch {
			entries[i] = store.Entry{
				ID:        c.ID,
				Embedding: embeddings[i],
				Text:      c.Text,
				Parent:    c.Parent,
				Source:    c.Source,
				URL:       c.URL,
				Diseases:  c.Diseases,
			}
		}
		if err := index.Add(ctx, entries); err != nil {
			log.Fatalf("upsert batch at %d failed: %v", start, err)
		}
		fmt.Printf("Indexed %d/%d chunks\n", end, len(chunks))
	}

	total, err := index.Count(ctx)
	if err != nil {
		log.Fatalf("couldn't count index: %v", err)
	}
	fmt.Printf("Index built successfully! Total chunks: %d\n", total)
}
