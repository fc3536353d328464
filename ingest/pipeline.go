// Package ingest builds the vector index: read documents, chunk them,
// embed each chunk, and upsert into the vector store.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/galalqassas/USLaw-expert-RAG/embedding"
	"github.com/galalqassas/USLaw-expert-RAG/rag/reader"
	"github.com/galalqassas/USLaw-expert-RAG/rag/store"
	"github.com/galalqassas/USLaw-expert-RAG/schema"
	"github.com/galalqassas/USLaw-expert-RAG/textsplitter"
)

// Pipeline ingests a directory of statute files into a vector store.
type Pipeline struct {
	reader   reader.ReaderWithContext
	splitter textsplitter.TextSplitter
	embedder embedding.EmbeddingModelWithBatch
	store    store.VectorStore
	logger   *slog.Logger
}

// New creates an ingestion pipeline over dataDir with the given chunking
// parameters.
func New(dataDir string, chunkSize, chunkOverlap int, embedder embedding.EmbeddingModelWithBatch, vectorStore store.VectorStore) (*Pipeline, error) {
	strategy, err := textsplitter.NewEnglishStrategy()
	if err != nil {
		return nil, fmt.Errorf("failed to build sentence strategy: %w", err)
	}

	tokenizer, err := textsplitter.DefaultTokenizer()
	if err != nil {
		return nil, fmt.Errorf("failed to build tokenizer: %w", err)
	}

	splitter := textsplitter.NewSentenceSplitter(chunkSize, chunkOverlap, tokenizer, strategy)

	return &Pipeline{
		reader:   reader.NewDirectoryReader(dataDir),
		splitter: splitter,
		embedder: embedder,
		store:    vectorStore,
		logger:   slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}, nil
}

// Count returns the number of chunks currently indexed.
func (p *Pipeline) Count() int {
	return p.store.Count()
}

// resettable is implemented by stores that can drop their collection.
type resettable interface {
	Reset(ctx context.Context) error
}

// Run ingests the corpus. When the store already holds vectors and force
// is false, the existing index is reused untouched. With force, a store
// that supports it is cleared first.
func (p *Pipeline) Run(ctx context.Context, force bool) error {
	if existing := p.store.Count(); existing > 0 {
		if !force {
			p.logger.Info("reusing existing index", "chunks", existing)
			return nil
		}
		if r, ok := p.store.(resettable); ok {
			if err := r.Reset(ctx); err != nil {
				return fmt.Errorf("failed to reset store: %w", err)
			}
			p.logger.Info("cleared existing index", "chunks", existing)
		}
	}

	docs, err := p.reader.LoadDataWithContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents found to ingest")
	}
	p.logger.Info("loaded documents", "count", len(docs))

	nodes := p.chunk(docs)
	p.logger.Info("chunked documents", "chunks", len(nodes))

	texts := make([]string, len(nodes))
	for i, node := range nodes {
		texts[i] = node.Text
	}

	embeddings, err := p.embedder.GetTextEmbeddingsBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	for i := range nodes {
		nodes[i].Embedding = embeddings[i]
	}

	if _, err := p.store.Add(ctx, nodes); err != nil {
		return fmt.Errorf("failed to upsert chunks: %w", err)
	}

	p.logger.Info("ingestion complete", "chunks", len(nodes))
	return nil
}

func (p *Pipeline) chunk(docs []schema.Document) []schema.Node {
	var nodes []schema.Node
	for _, doc := range docs {
		for _, chunk := range p.splitter.SplitText(doc.Text) {
			if chunk == "" {
				continue
			}
			metadata := make(map[string]interface{}, len(doc.Metadata))
			for k, v := range doc.Metadata {
				metadata[k] = v
			}
			nodes = append(nodes, schema.Node{
				ID:       uuid.NewString(),
				Text:     chunk,
				Metadata: metadata,
			})
		}
	}
	return nodes
}
