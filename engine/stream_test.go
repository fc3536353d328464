package engine

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galalqassas/USLaw-expert-RAG/llm"
	"github.com/galalqassas/USLaw-expert-RAG/schema"
)

func newStreamEngine(t *testing.T, retriever *MockRetriever, mock *llm.MockLLM) *QueryEngine {
	t.Helper()
	return New(retriever,
		WithLogsDir(filepath.Join(t.TempDir(), "logs")),
		WithLLMFactory(func(model string, streaming bool) llm.LLM {
			return mock
		}),
	)
}

func collectEvents(t *testing.T, events <-chan StreamEvent) []StreamEvent {
	t.Helper()
	var collected []StreamEvent
	for ev := range events {
		collected = append(collected, ev)
	}
	return collected
}

func TestStreamChat_SourcesFirstThenDeltas(t *testing.T) {
	retriever := &MockRetriever{
		Nodes: []schema.NodeWithScore{
			{Node: schema.Node{Text: "passage"}, Score: schema.Score(0.9)},
		},
	}
	eng := newStreamEngine(t, retriever, llm.NewMockLLM("Hello world"))

	events, err := eng.StreamChat(context.Background(), "question", nil, "")
	require.NoError(t, err)

	collected := collectEvents(t, events)
	require.Len(t, collected, 3)

	assert.Equal(t, EventSources, collected[0].Kind)
	assert.Len(t, collected[0].Sources, 1)
	assert.Equal(t, 1, collected[0].Sources[0].Rank)

	assert.Equal(t, EventText, collected[1].Kind)
	assert.Equal(t, "Hello ", collected[1].Text)
	assert.Equal(t, EventText, collected[2].Kind)
	assert.Equal(t, "world", collected[2].Text)
}

func TestStreamChat_ReasoningBeforeText(t *testing.T) {
	mock := llm.NewMockLLM("Hello world")
	mock.Reasoning = []string{"thinking about fair use", "checking section 107"}
	eng := newStreamEngine(t, &MockRetriever{}, mock)

	events, err := eng.StreamChat(context.Background(), "question", nil, "")
	require.NoError(t, err)

	collected := collectEvents(t, events)
	require.Len(t, collected, 5)

	assert.Equal(t, EventSources, collected[0].Kind)
	assert.Equal(t, EventReasoning, collected[1].Kind)
	assert.Equal(t, "thinking about fair use", collected[1].Reasoning)
	assert.Equal(t, EventReasoning, collected[2].Kind)
	assert.Equal(t, "checking section 107", collected[2].Reasoning)
	assert.Equal(t, EventText, collected[3].Kind)
	assert.Equal(t, EventText, collected[4].Kind)
}

func TestStreamChat_TerminalErrorEvent(t *testing.T) {
	mock := llm.NewMockLLM("")
	mock.Err = context.DeadlineExceeded
	eng := newStreamEngine(t, &MockRetriever{}, mock)

	events, err := eng.StreamChat(context.Background(), "question", nil, "")
	require.NoError(t, err)

	collected := collectEvents(t, events)
	require.Len(t, collected, 2)

	assert.Equal(t, EventSources, collected[0].Kind)
	assert.Equal(t, EventError, collected[1].Kind)
	assert.Contains(t, collected[1].Text, "Error:")
}

func TestStreamChat_RateLimitFlaggedDistinctly(t *testing.T) {
	mock := llm.NewMockLLM("")
	mock.Err = &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "rate limited"}
	eng := newStreamEngine(t, &MockRetriever{}, mock)

	events, err := eng.StreamChat(context.Background(), "question", nil, "")
	require.NoError(t, err)

	collected := collectEvents(t, events)
	require.Len(t, collected, 2)
	assert.Equal(t, EventError, collected[1].Kind)
	assert.Equal(t, rateLimitMessage, collected[1].Text)
}

func TestStreamChat_RetrievalFailureReturnsError(t *testing.T) {
	retriever := &MockRetriever{Err: context.DeadlineExceeded}
	eng := newStreamEngine(t, retriever, llm.NewMockLLM("answer"))

	_, err := eng.StreamChat(context.Background(), "question", nil, "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieval failed")
}
