package embedding

import "context"

// MockEmbeddingModel is a mock implementation of the EmbeddingModel interface.
type MockEmbeddingModel struct {
	Embedding []float64
	Err       error
}

func (m *MockEmbeddingModel) GetTextEmbedding(ctx context.Context, text string) ([]float64, error) {
	return m.Embedding, m.Err
}

func (m *MockEmbeddingModel) GetQueryEmbedding(ctx context.Context, query string) ([]float64, error) {
	return m.Embedding, m.Err
}

func (m *MockEmbeddingModel) GetTextEmbeddingsBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	embeddings := make([][]float64, len(texts))
	for i := range texts {
		embeddings[i] = m.Embedding
	}
	return embeddings, nil
}

var _ EmbeddingModelWithBatch = (*MockEmbeddingModel)(nil)
