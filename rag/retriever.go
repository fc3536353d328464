package rag

import (
	"context"
	"fmt"

	"github.com/galalqassas/USLaw-expert-RAG/embedding"
	"github.com/galalqassas/USLaw-expert-RAG/rag/store"
	"github.com/galalqassas/USLaw-expert-RAG/schema"
)

// VectorRetriever retrieves relevant nodes using a vector store and embedding model.
type VectorRetriever struct {
	vectorStore    store.VectorStore
	embeddingModel embedding.EmbeddingModel
	topK           int
}

// NewVectorRetriever creates a new VectorRetriever.
func NewVectorRetriever(vectorStore store.VectorStore, embeddingModel embedding.EmbeddingModel, topK int) *VectorRetriever {
	return &VectorRetriever{
		vectorStore:    vectorStore,
		embeddingModel: embeddingModel,
		topK:           topK,
	}
}

func (r *VectorRetriever) Retrieve(ctx context.Context, query schema.QueryBundle) ([]schema.NodeWithScore, error) {
	queryEmbedding, err := r.embeddingModel.GetQueryEmbedding(ctx, query.QueryString)
	if err != nil {
		return nil, fmt.Errorf("failed to get query embedding: %w", err)
	}

	nodes, err := r.vectorStore.Query(ctx, schema.VectorStoreQuery{
		Embedding: queryEmbedding,
		TopK:      r.topK,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query vector store: %w", err)
	}

	return nodes, nil
}

var _ Retriever = (*VectorRetriever)(nil)
