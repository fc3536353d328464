package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galalqassas/USLaw-expert-RAG/llm"
	"github.com/galalqassas/USLaw-expert-RAG/schema"
)

func TestCompactSynthesizer_Synthesize(t *testing.T) {
	mock := llm.NewMockLLM("the answer")
	synth := NewCompactSynthesizer(mock, false)

	nodes := []schema.NodeWithScore{
		{Node: schema.Node{Text: "Section 107 text."}, Score: schema.Score(0.9)},
	}
	resp, err := synth.Synthesize(context.Background(), schema.QueryBundle{QueryString: "What is fair use?"}, nodes)

	require.NoError(t, err)
	assert.Equal(t, "the answer", resp.Response)
	assert.Equal(t, nodes, resp.SourceNodes)

	// The prompt carries both the retrieved context and the question.
	require.Len(t, mock.Calls, 1)
	assert.Contains(t, mock.Calls[0], "Section 107 text.")
	assert.Contains(t, mock.Calls[0], "What is fair use?")
}

func TestCompactSynthesizer_SynthesizeStream(t *testing.T) {
	mock := llm.NewMockLLM("Hello world")
	synth := NewCompactSynthesizer(mock, true)
	assert.True(t, synth.Streaming())

	nodes := []schema.NodeWithScore{
		{Node: schema.Node{Text: "context passage"}},
	}
	resp, err := synth.SynthesizeStream(context.Background(), schema.QueryBundle{QueryString: "hi"}, nodes)
	require.NoError(t, err)
	assert.Equal(t, nodes, resp.SourceNodes)

	var answer string
	for token := range resp.ResponseStream {
		require.NoError(t, token.Err)
		answer += token.Delta
	}
	assert.Equal(t, "Hello world", answer)

	// Streaming sends the context as a system message and the question as
	// the user message.
	require.Len(t, mock.Calls, 1)
	assert.Contains(t, mock.Calls[0], "system:")
	assert.Contains(t, mock.Calls[0], "context passage")
	assert.Contains(t, mock.Calls[0], "user: hi")
}

func TestVectorRetriever_UsesQueryEmbedding(t *testing.T) {
	store := &fakeStore{
		nodes: []schema.NodeWithScore{
			{Node: schema.Node{ID: "1", Text: "hit"}, Score: schema.Score(0.8)},
		},
	}
	embedder := &fakeEmbedder{embedding: []float64{0.1, 0.2}}
	retriever := NewVectorRetriever(store, embedder, 3)

	nodes, err := retriever.Retrieve(context.Background(), schema.QueryBundle{QueryString: "q"})

	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, []float64{0.1, 0.2}, store.lastQuery.Embedding)
	assert.Equal(t, 3, store.lastQuery.TopK)
}

type fakeEmbedder struct {
	embedding []float64
}

func (f *fakeEmbedder) GetTextEmbedding(ctx context.Context, text string) ([]float64, error) {
	return f.embedding, nil
}

func (f *fakeEmbedder) GetQueryEmbedding(ctx context.Context, query string) ([]float64, error) {
	return f.embedding, nil
}

type fakeStore struct {
	nodes     []schema.NodeWithScore
	lastQuery schema.VectorStoreQuery
}

func (f *fakeStore) Add(ctx context.Context, nodes []schema.Node) ([]string, error) {
	return nil, nil
}

func (f *fakeStore) Query(ctx context.Context, query schema.VectorStoreQuery) ([]schema.NodeWithScore, error) {
	f.lastQuery = query
	return f.nodes, nil
}

func (f *fakeStore) Count() int { return len(f.nodes) }

func (f *fakeStore) Delete(ctx context.Context, id string) error { return nil }
