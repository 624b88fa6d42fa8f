// Command chunk splits normalized documents into token-bounded chunks,
// producing the chunks.jsonl consumed by the index builder.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/wykkllkaslma/AI6130-NLP/config"
	"github.com/wykkllkaslma/AI6130-NLP/ingest"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	dataDir := flag.String("data-dir", "data", "Data directory")
	out := flag.String("out", "", "Output path, default <data-dir>/chunks.jsonl")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("couldn't load config: %v", err)
	}

	outPath := *out
	if outPath == "" {
		outPath = filepath.Join(*dataDir, "chunks.jsonl")
	}

	paths, err := filepath.Glob(filepath.Join(*dataDir, "normalized", "*.jsonl"))
	if err != nil {
		log.Fatalf("couldn't list normalized files: %v", err)
	}
	if len(paths) == 0 {
		log.Fatalf("no normalized files under %s, run ingest first", *dataDir)
	}

	outFile, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("couldn't create %s: %v", outPath, err)
	}
	defer outFile.Close()

	total := 0
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			log.Fatalf("couldn't open %s: %v", path, err)
		}
		docs, err := ingest.ReadDocuments(f)
		f.Close()
		if err != nil {
			log.Fatalf("couldn't read %s: %v", path, err)
		}

		for _, doc := range docs {
			chunks := ingest.ChunkDocument(doc, cfg.Chunking.MaxTokens)
			if err := ingest.WriteJSONL(outFile, chunks); err != nil {
				log.Fatalf("couldn't write chunks: %v", err)
			}
			total += len(chunks)
		}
		fmt.Printf("Chunked %d documents from %s\n", len(docs), path)
	}
	fmt.Printf("Wrote %d chunks to %s\n", total, outPath)
}
