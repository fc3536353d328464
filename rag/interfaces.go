package rag

import (
	"context"

	"github.com/galalqassas/USLaw-expert-RAG/llm"
	"github.com/galalqassas/USLaw-expert-RAG/schema"
)

// Retriever is an interface for retrieving relevant nodes based on a query.
type Retriever interface {
	Retrieve(ctx context.Context, query schema.QueryBundle) ([]schema.NodeWithScore, error)
}

// StreamingResponse carries a token stream plus the nodes it was grounded on.
type StreamingResponse struct {
	ResponseStream <-chan llm.StreamToken
	SourceNodes    []schema.NodeWithScore
}

// Synthesizer is an interface for generating a response from query + nodes.
type Synthesizer interface {
	Synthesize(ctx context.Context, query schema.QueryBundle, nodes []schema.NodeWithScore) (schema.EngineResponse, error)
	SynthesizeStream(ctx context.Context, query schema.QueryBundle, nodes []schema.NodeWithScore) (StreamingResponse, error)
}
