// Command ingest fetches documents from OpenFDA, PubMed and DailyMed and
// writes them as normalized JSONL under the data directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/wykkllkaslma/AI6130-NLP/ingest"
)

func main() {
	source := flag.String("source", "all", "Source to ingest: openfda, pubmed, dailymed or all")
	dataDir := flag.String("data-dir", "data", "Data directory")
	flag.Parse()

	godotenv.Load()

	normDir := filepath.Join(*dataDir, "normalized")
	if err := os.MkdirAll(normDir, 0755); err != nil {
		log.Fatalf("couldn't create data directory: %v", err)
	}

	ctx := context.Background()

	if *source == "openfda" || *source == "all" {
		fmt.Println("Ingesting OpenFDA drug labels...")
		docs, err := ingest.IngestOpenFDA(ctx, ingest.NewOpenFDAClient())
		if err != nil {
			log.Fatalf("openfda ingestion failed: %v", err)
		}
		writeDocs(filepath.Join(normDir, "openfda.jsonl"), docs)
	}

	if *source == "pubmed" || *source == "all" {
		fmt.Println("Ingesting PubMed abstracts...")
		docs, err := ingest.IngestPubMed(ctx, ingest.NewPubMedClient(), nil)
		if err != nil {
			log.Fatalf("pubmed ingestion failed: %v", err)
		}
		writeDocs(filepath.Join(normDir, "pubmed.jsonl"), docs)
	}

	if *source == "dailymed" || *source == "all" {
		openfdaPath := filepath.Join(normDir, "openfda.jsonl")
		f, err := os.Open(openfdaPath)
		if err != nil {
			log.Fatalf("dailymed enrichment needs %s (run -source openfda first): %v", openfdaPath, err)
		}
		seeds, err := ingest.ReadDocuments(f)
		f.Close()
		if err != nil {
			log.Fatalf("couldn't read %s: %v", openfdaPath, err)
		}
		fmt.Printf("Enriching %d OpenFDA records via DailyMed...\n", len(seeds))
		docs := ingest.EnrichDailyMed(ctx, ingest.NewDailyMedClient(), seeds)
		writeDocs(filepath.Join(normDir, "dailymed.jsonl"), docs)
	}
}

func writeDocs(path string, docs []ingest.Document) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("couldn't create %s: %v", path, err)
	}
	defer f.Close()
	if err := ingest.WriteJSONL(f, docs); err != nil {
		log.Fatalf("couldn't write %s: %v", path, err)
	}
	fmt.Printf("Wrote %d documents to %s\n", len(docs), path)
}
