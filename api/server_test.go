package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galalqassas/USLaw-expert-RAG/engine"
	"github.com/galalqassas/USLaw-expert-RAG/llm"
	"github.com/galalqassas/USLaw-expert-RAG/schema"
)

type mockRetriever struct {
	nodes   []schema.NodeWithScore
	queries []string
}

func (m *mockRetriever) Retrieve(ctx context.Context, query schema.QueryBundle) ([]schema.NodeWithScore, error) {
	m.queries = append(m.queries, query.QueryString)
	return m.nodes, nil
}

func newTestEngine(t *testing.T, retriever *mockRetriever, response string) *engine.QueryEngine {
	t.Helper()
	return engine.New(retriever,
		engine.WithLogsDir(filepath.Join(t.TempDir(), "logs")),
		engine.WithLLMFactory(func(model string, streaming bool) llm.LLM {
			return llm.NewMockLLM(response)
		}),
	)
}

func postJSON(t *testing.T, server *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func TestQuery_EmptyMessagesIsClientError(t *testing.T) {
	retriever := &mockRetriever{}
	server := NewServer(newTestEngine(t, retriever, "answer"), nil)

	rec := postJSON(t, server, "/query", `{"messages": []}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, retriever.queries)
}

func TestQuery_AnswerWithSources(t *testing.T) {
	retriever := &mockRetriever{
		nodes: []schema.NodeWithScore{
			{
				Node: schema.Node{
					Text:     "Fair use passage.",
					Metadata: map[string]interface{}{"file_path": "section107.html"},
				},
				Score: schema.Score(0.95),
			},
		},
	}
	server := NewServer(newTestEngine(t, retriever, "Fair use is a doctrine."), nil)

	rec := postJSON(t, server, "/query", `{"messages": [{"role":"user","content":"What is fair use?"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Answer  string `json:"answer"`
		Sources []struct {
			Rank     int      `json:"rank"`
			Score    *float64 `json:"score"`
			FilePath string   `json:"file_path"`
		} `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "Fair use is a doctrine.", resp.Answer)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, 1, resp.Sources[0].Rank)
	require.NotNil(t, resp.Sources[0].Score)
	assert.Equal(t, 0.95, *resp.Sources[0].Score)
	assert.Equal(t, "section107.html", resp.Sources[0].FilePath)
}

func TestQuery_HistorySplitFromLastMessage(t *testing.T) {
	retriever := &mockRetriever{}
	server := NewServer(newTestEngine(t, retriever, "answer"), nil)

	body := `{"messages": [
		{"role":"user","content":"Q1"},
		{"role":"assistant","content":"A1"},
		{"role":"user","content":"Follow-up?"}
	]}`
	rec := postJSON(t, server, "/query", body)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, retriever.queries, 1)
	assert.Contains(t, retriever.queries[0], "USER: Q1")
	assert.Contains(t, retriever.queries[0], "ASSISTANT: A1")
	assert.Contains(t, retriever.queries[0], "Follow-up?")
}

func TestChatStream_FrameOrder(t *testing.T) {
	retriever := &mockRetriever{
		nodes: []schema.NodeWithScore{
			{Node: schema.Node{Text: "passage"}, Score: schema.Score(0.9)},
		},
	}
	server := NewServer(newTestEngine(t, retriever, "Hello world"), nil)

	rec := postJSON(t, server, "/chat/stream", `{"messages": [{"role":"user","content":"hi"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	require.True(t, strings.HasPrefix(lines[0], "2:"))
	var meta struct {
		Sources       []json.RawMessage `json:"sources"`
		RetrievalTime *float64          `json:"retrieval_time"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0][2:]), &meta))
	assert.Len(t, meta.Sources, 1)
	assert.NotNil(t, meta.RetrievalTime)

	var delta string
	require.True(t, strings.HasPrefix(lines[1], "0:"))
	require.NoError(t, json.Unmarshal([]byte(lines[1][2:]), &delta))
	assert.Equal(t, "Hello ", delta)

	require.NoError(t, json.Unmarshal([]byte(lines[2][2:]), &delta))
	assert.Equal(t, "world", delta)
}

func TestChatStream_ReasoningFrames(t *testing.T) {
	mock := llm.NewMockLLM("ok")
	mock.Reasoning = []string{"pondering"}
	eng := engine.New(&mockRetriever{},
		engine.WithLogsDir(filepath.Join(t.TempDir(), "logs")),
		engine.WithLLMFactory(func(model string, streaming bool) llm.LLM {
			return mock
		}),
	)
	server := NewServer(eng, nil)

	rec := postJSON(t, server, "/chat/stream", `{"messages": [{"role":"user","content":"hi"}]}`)

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 3)

	// Sources first, then the reasoning metadata frame, then text.
	assert.True(t, strings.HasPrefix(lines[0], "2:"))
	require.True(t, strings.HasPrefix(lines[1], "2:"))
	var reasoningFrame struct {
		Reasoning string `json:"reasoning"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1][2:]), &reasoningFrame))
	assert.Equal(t, "pondering", reasoningFrame.Reasoning)
	assert.True(t, strings.HasPrefix(lines[2], "0:"))
}

func TestHealth_ReflectsEngineReadiness(t *testing.T) {
	server := NewServer(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	server.SetEngine(newTestEngine(t, &mockRetriever{}, "answer"))

	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQuery_EngineNotReady(t *testing.T) {
	server := NewServer(nil, nil)

	rec := postJSON(t, server, "/query", `{"messages": [{"role":"user","content":"hi"}]}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestIngest_RunsInBackgroundAndSwapsEngine(t *testing.T) {
	done := make(chan struct{})
	fresh := newTestEngine(t, &mockRetriever{}, "answer")
	reindex := func(ctx context.Context, force bool) (*engine.QueryEngine, error) {
		assert.True(t, force)
		defer close(done)
		return fresh, nil
	}
	server := NewServer(nil, reindex)

	rec := postJSON(t, server, "/ingest", `{"force": true}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reindex did not run")
	}

	// The engine swap happens right after reindex returns.
	deadline := time.Now().Add(time.Second)
	for server.engine.Load() == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.NotNil(t, server.engine.Load())
}

func TestCORSPreflight(t *testing.T) {
	server := NewServer(nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/query", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
