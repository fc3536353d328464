// Package engine implements the query/chat orchestration core: history
// augmentation, passage retrieval, cached synthesizer resolution, blocking
// and streaming synthesis with a request-scoped reasoning side channel,
// source formatting, and best-effort asynchronous query logging.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/galalqassas/USLaw-expert-RAG/llm"
	"github.com/galalqassas/USLaw-expert-RAG/rag"
	"github.com/galalqassas/USLaw-expert-RAG/schema"
)

// DefaultLogsDir is where per-query JSON logs land unless overridden.
const DefaultLogsDir = "logs"

// LLMFactory builds an LLM client for a model. Streaming clients request
// reasoning tokens; blocking clients do not.
type LLMFactory func(model string, streaming bool) llm.LLM

// ChatResult is the outcome of a blocking chat call.
type ChatResult struct {
	Response string          `json:"response"`
	Sources  []SourcePassage `json:"sources"`
	Timing   Timing          `json:"-"`
}

// QueryEngine orchestrates retrieval and synthesis for chat requests.
// Safe for concurrent use.
type QueryEngine struct {
	retriever    rag.Retriever
	synthesizers *synthCache
	queryLogger  *QueryLogger
	defaultModel string
	topK         int
	baseDir      string
	logger       *slog.Logger
}

// EngineOption configures a QueryEngine.
type EngineOption func(*engineConfig)

type engineConfig struct {
	defaultModel string
	topK         int
	baseDir      string
	logsDir      string
	apiKey       string
	cacheSize    int
	llmFactory   LLMFactory
}

// WithDefaultModel sets the model used when a request names none.
func WithDefaultModel(model string) EngineOption {
	return func(c *engineConfig) {
		if model != "" {
			c.defaultModel = model
		}
	}
}

// WithTopK sets how many passages retrieval reports in logs.
func WithTopK(topK int) EngineOption {
	return func(c *engineConfig) {
		if topK > 0 {
			c.topK = topK
		}
	}
}

// WithBaseDir sets the directory source paths are relativized against.
func WithBaseDir(dir string) EngineOption {
	return func(c *engineConfig) {
		c.baseDir = dir
	}
}

// WithLogsDir sets the query log directory.
func WithLogsDir(dir string) EngineOption {
	return func(c *engineConfig) {
		if dir != "" {
			c.logsDir = dir
		}
	}
}

// WithAPIKey sets the backend API key used by the default LLM factory.
func WithAPIKey(apiKey string) EngineOption {
	return func(c *engineConfig) {
		c.apiKey = apiKey
	}
}

// WithCacheSize bounds the synthesizer cache.
func WithCacheSize(size int) EngineOption {
	return func(c *engineConfig) {
		c.cacheSize = size
	}
}

// WithLLMFactory replaces how LLM clients are constructed (for testing).
func WithLLMFactory(factory LLMFactory) EngineOption {
	return func(c *engineConfig) {
		c.llmFactory = factory
	}
}

// New creates a QueryEngine over the given retriever. The synthesizer for
// the default model in non-streaming mode is built eagerly, as is the
// query logger (whose logs directory is probed exactly once).
func New(retriever rag.Retriever, opts ...EngineOption) *QueryEngine {
	cfg := &engineConfig{
		defaultModel: llm.DefaultModel,
		topK:         3,
		logsDir:      DefaultLogsDir,
		cacheSize:    defaultCacheCapacity,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.llmFactory == nil {
		apiKey := cfg.apiKey
		cfg.llmFactory = func(model string, streaming bool) llm.LLM {
			llmOpts := []llm.Option{llm.WithModel(model), llm.WithReasoning(streaming)}
			if apiKey != "" {
				llmOpts = append(llmOpts, llm.WithAPIKey(apiKey))
			}
			return llm.NewOpenAILLM(llmOpts...)
		}
	}

	factory := cfg.llmFactory
	buildEntry := func(key synthKey) *synthEntry {
		model := factory(key.model, key.streaming)
		return &synthEntry{
			llm:         model,
			synthesizer: rag.NewCompactSynthesizer(model, key.streaming),
		}
	}

	return &QueryEngine{
		retriever:    retriever,
		synthesizers: newSynthCache(cfg.cacheSize, synthKey{model: cfg.defaultModel, streaming: false}, buildEntry),
		queryLogger:  NewQueryLogger(cfg.logsDir),
		defaultModel: cfg.defaultModel,
		topK:         cfg.topK,
		baseDir:      cfg.baseDir,
		logger:       slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
}

// AugmentQuery renders the conversation history into a retrieval query
// framing message as the follow-up question. With no history the message
// is returned verbatim.
func AugmentQuery(message string, history []llm.ChatMessage) string {
	if len(history) == 0 {
		return message
	}

	var sb strings.Builder
	sb.WriteString("Given the following conversation history:\n")
	for i, msg := range history {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strings.ToUpper(string(msg.Role)))
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
	}
	sb.WriteString("\n\nNow answer the user's follow-up question: ")
	sb.WriteString(message)
	return sb.String()
}

func (e *QueryEngine) resolveModel(model string) string {
	if model == "" {
		return e.defaultModel
	}
	return model
}

func (e *QueryEngine) retrieveTimed(ctx context.Context, query string) ([]schema.NodeWithScore, float64, error) {
	start := time.Now()
	nodes, err := e.retriever.Retrieve(ctx, schema.QueryBundle{QueryString: query})
	elapsed := time.Since(start).Seconds()
	if err != nil {
		return nil, elapsed, fmt.Errorf("retrieval failed: %w", err)
	}
	return nodes, elapsed, nil
}

// Chat answers a message in the context of a conversation history.
// An empty model selects the configured default.
func (e *QueryEngine) Chat(ctx context.Context, message string, history []llm.ChatMessage, model string) (*ChatResult, error) {
	model = e.resolveModel(model)
	augmented := AugmentQuery(message, history)

	nodes, retrievalTime, err := e.retrieveTimed(ctx, augmented)
	if err != nil {
		return nil, err
	}

	entry := e.synthesizers.Get(synthKey{model: model, streaming: false})

	synthStart := time.Now()
	resp, err := entry.synthesizer.Synthesize(ctx, schema.QueryBundle{QueryString: augmented}, nodes)
	synthesisTime := time.Since(synthStart).Seconds()
	if err != nil {
		return nil, fmt.Errorf("synthesis failed: %w", err)
	}

	sources := FormatPassages(nodes, e.baseDir)
	timing := Timing{
		Retrieval: retrievalTime,
		Synthesis: synthesisTime,
		Total:     retrievalTime + synthesisTime,
	}
	e.queryLogger.LogAsync(message, model, e.topK, sources, resp.Response, timing)

	return &ChatResult{
		Response: resp.Response,
		Sources:  sources,
		Timing:   timing,
	}, nil
}

// Query answers a standalone question; a CLI convenience wrapper over Chat.
// With verbose set, the retrieved passages and timings are printed to
// standard output.
func (e *QueryEngine) Query(ctx context.Context, question string, verbose bool) (string, error) {
	result, err := e.Chat(ctx, question, nil, "")
	if err != nil {
		return "", err
	}

	if verbose {
		fmt.Printf("\nRetrieved %d passages in %.4fs:\n", len(result.Sources), result.Timing.Retrieval)
		for _, src := range result.Sources {
			preview := previewText(src.Text, 200)
			score := "n/a"
			if src.Score != nil {
				score = fmt.Sprintf("%.4f", *src.Score)
			}
			fmt.Printf("  [%d] %s (score %s, %d chars)\n      %s\n", src.Rank, src.FilePath, score, src.TextLength, preview)
		}
		fmt.Printf("Synthesis took %.4fs (total %.4fs)\n\n", result.Timing.Synthesis, result.Timing.Total)
	}

	return result.Response, nil
}

// previewText truncates s to at most max characters, on a rune boundary
// so multi-byte statute characters are never cut in half.
func previewText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// Logger exposes the query logger, mainly for tests and the HTTP layer.
func (e *QueryEngine) Logger() *QueryLogger {
	return e.queryLogger
}
