// Command lawrag answers US Copyright Law questions over a local statute
// corpus. It can ingest the corpus, answer a single question, serve the
// HTTP API, or run an interactive prompt.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/galalqassas/USLaw-expert-RAG/api"
	"github.com/galalqassas/USLaw-expert-RAG/config"
	"github.com/galalqassas/USLaw-expert-RAG/embedding"
	"github.com/galalqassas/USLaw-expert-RAG/engine"
	"github.com/galalqassas/USLaw-expert-RAG/ingest"
	"github.com/galalqassas/USLaw-expert-RAG/llm"
	"github.com/galalqassas/USLaw-expert-RAG/rag"
	"github.com/galalqassas/USLaw-expert-RAG/rag/store/chromem"
)

func main() {
	var (
		ingestFlag = flag.Bool("ingest", false, "ingest the corpus before anything else")
		forceFlag  = flag.Bool("force", false, "rebuild the index even if one exists")
		question   = flag.String("q", "", "answer a single question and exit")
		serveFlag  = flag.Bool("serve", false, "serve the HTTP API")
		addrFlag   = flag.String("addr", "", "listen address (overrides config)")
		verbose    = flag.Bool("verbose", false, "print retrieved passages and timings")
		configPath = flag.String("config", "", "path to a YAML config file")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}

	ctx := context.Background()

	vectorStore, err := chromem.NewChromemStore(cfg.StorageDir, cfg.CollectionName)
	if err != nil {
		logger.Error("failed to open vector store", "error", err)
		os.Exit(1)
	}
	embedder := embedding.NewOpenAIEmbedding(cfg.OpenAIAPIKey, cfg.EmbedModel)

	pipeline, err := ingest.New(cfg.DataDir, cfg.ChunkSize, cfg.ChunkOverlap, embedder, vectorStore)
	if err != nil {
		logger.Error("failed to build ingestion pipeline", "error", err)
		os.Exit(1)
	}

	if *ingestFlag {
		if err := pipeline.Run(ctx, *forceFlag); err != nil {
			logger.Error("ingestion failed", "error", err)
			os.Exit(1)
		}
		if !*serveFlag && *question == "" {
			return
		}
	}

	eng := buildEngine(cfg, vectorStore, embedder)

	switch {
	case *question != "":
		answer, err := eng.Query(ctx, *question, *verbose)
		if err != nil {
			logger.Error("query failed", "error", err)
			os.Exit(1)
		}
		fmt.Println(answer)

	case *serveFlag:
		reindex := func(ctx context.Context, force bool) (*engine.QueryEngine, error) {
			if err := pipeline.Run(ctx, force); err != nil {
				return nil, err
			}
			return buildEngine(cfg, vectorStore, embedder), nil
		}
		server := api.NewServer(eng, reindex)
		logger.Info("serving", "addr", cfg.Addr)
		if err := http.ListenAndServe(cfg.Addr, server); err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}

	default:
		repl(ctx, eng, *verbose)
	}
}

func buildEngine(cfg *config.Config, vectorStore *chromem.ChromemStore, embedder embedding.EmbeddingModel) *engine.QueryEngine {
	retriever := rag.NewVectorRetriever(vectorStore, embedder, cfg.SimilarityTopK)

	factory := func(model string, streaming bool) llm.LLM {
		return llm.NewOpenAILLM(
			llm.WithAPIKey(cfg.GroqAPIKey),
			llm.WithModel(model),
			llm.WithTemperature(cfg.Temperature),
			llm.WithMaxTokens(cfg.MaxTokens),
			llm.WithReasoning(streaming),
		)
	}

	baseDir, err := os.Getwd()
	if err != nil {
		baseDir = ""
	}

	return engine.New(retriever,
		engine.WithDefaultModel(cfg.Model),
		engine.WithTopK(cfg.SimilarityTopK),
		engine.WithLogsDir(cfg.LogsDir),
		engine.WithBaseDir(baseDir),
		engine.WithLLMFactory(factory),
	)
}

func repl(ctx context.Context, eng *engine.QueryEngine, verbose bool) {
	fmt.Println("US Copyright Law assistant. Type a question, or 'quit' to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}

		answer, err := eng.Query(ctx, line, verbose)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Println(answer)
		fmt.Println()
	}
}
