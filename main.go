package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/wykkllkaslma/AI6130-NLP/config"
	"github.com/wykkllkaslma/AI6130-NLP/handler"
	"github.com/wykkllkaslma/AI6130-NLP/rag"
	"github.com/wykkllkaslma/AI6130-NLP/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	addr := flag.String("addr", ":3000", "Listen address")
	flag.Parse()

	godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("couldn't load config: %v", err)
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
	defer teardown(index)

	llm, err := rag.NewClient(config.APIKey(), cfg.Generation.BaseURL, cfg.Generation.Model)
	if err != nil {
		log.Fatalf("couldn't create chat client: %v", err)
	}

	answerer := &rag.Answerer{
		Retriever: &rag.Retriever{
			Embedder: rag.NewEmbedder(cfg.Embedder.BaseURL, time.Duration(cfg.Embedder.TimeoutSecs)*time.Second),
			Reranker: rag.NewReranker(cfg.Reranker.BaseURL, time.Duration(cfg.Reranker.TimeoutSecs)*time.Second),
			Index:    index,
		},
		LLM:  llm,
		K:    cfg.Retrieval.K,
		TopN: cfg.Retrieval.TopN,
	}

	r := chi.NewRouter()
	r.Use(middleware.CleanPath)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(middleware.Logger)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`MedRAG API

Available endpoints:
- POST /chat - Ask a medical question
  Body: {"q": "Contraindications of isotretinoin?"}
  Returns: {"answer": "...", "references": ["..."]}
`))
	})

	r.Post("/chat", handler.NewChat(answerer).ServeHTTP)

	slog.Info("Listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, r); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func teardown(index *store.Index) {
	slog.Info("Teardown started...")
	index.Close()
	slog.Info("Teardown finished.")
}
