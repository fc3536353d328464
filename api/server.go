// Package api exposes the query engine over HTTP: blocking query,
// streaming chat, background re-ingestion, and health.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/galalqassas/USLaw-expert-RAG/engine"
	"github.com/galalqassas/USLaw-expert-RAG/llm"
)

// ReindexFunc rebuilds the index and returns a fresh engine over it.
type ReindexFunc func(ctx context.Context, force bool) (*engine.QueryEngine, error)

// Server serves the RAG HTTP API. The engine pointer is swapped atomically
// after a background reindex, so in-flight requests keep their snapshot.
type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	engine    atomic.Pointer[engine.QueryEngine]
	reindex   ReindexFunc
	ingesting atomic.Bool
}

// NewServer creates the API server. eng may be nil when the index is not
// built yet; affected endpoints answer 503 until an engine is set.
func NewServer(eng *engine.QueryEngine, reindex ReindexFunc) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		logger:  slog.New(slog.NewJSONHandler(os.Stdout, nil)),
		reindex: reindex,
	}
	if eng != nil {
		s.engine.Store(eng)
	}

	s.mux.HandleFunc("POST /query", s.handleQuery)
	s.mux.HandleFunc("POST /chat/stream", s.handleChatStream)
	s.mux.HandleFunc("POST /ingest", s.handleIngest)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	return s
}

// SetEngine swaps the serving engine.
func (s *Server) SetEngine(eng *engine.QueryEngine) {
	s.engine.Store(eng)
}

// ServeHTTP implements http.Handler with permissive CORS.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mux.ServeHTTP(w, r)
}

type chatRequest struct {
	Messages []llm.ChatMessage `json:"messages"`
	Model    string            `json:"model,omitempty"`
}

// split separates the current message from the preceding history.
func (r *chatRequest) split() (string, []llm.ChatMessage) {
	last := r.Messages[len(r.Messages)-1]
	return last.Content, r.Messages[:len(r.Messages)-1]
}

func (s *Server) decodeChatRequest(w http.ResponseWriter, r *http.Request) (*chatRequest, *engine.QueryEngine, bool) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, nil, false
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages must not be empty")
		return nil, nil, false
	}

	eng := s.engine.Load()
	if eng == nil {
		writeError(w, http.StatusServiceUnavailable, "engine is not ready")
		return nil, nil, false
	}

	return &req, eng, true
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	req, eng, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	message, history := req.split()
	result, err := eng.Chat(r.Context(), message, history, req.Model)
	if err != nil {
		s.logger.Error("chat failed", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("engine failure: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"answer":  result.Response,
		"sources": result.Sources,
	})
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, eng, ok := s.decodeChatRequest(w, r)
	if !ok {
		return
	}

	message, history := req.split()
	events, err := eng.StreamChat(r.Context(), message, history, req.Model)
	if err != nil {
		s.logger.Error("stream chat failed to start", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("engine failure: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	flush := func() {
		if flusher != nil {
			flusher.Flush()
		}
	}

	for ev := range events {
		switch ev.Kind {
		case engine.EventSources:
			writeFrame(w, "2", map[string]interface{}{
				"sources":        ev.Sources,
				"retrieval_time": ev.RetrievalTime,
			})
		case engine.EventText:
			writeFrame(w, "0", ev.Text)
		case engine.EventReasoning:
			writeFrame(w, "2", map[string]string{"reasoning": ev.Reasoning})
		case engine.EventError:
			// In-band: headers are already committed.
			writeFrame(w, "0", ev.Text)
		}
		flush()
	}
}

type ingestRequest struct {
	Force bool `json:"force"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.reindex == nil {
		writeError(w, http.StatusNotImplemented, "ingestion is not configured")
		return
	}

	var req ingestRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if !s.ingesting.CompareAndSwap(false, true) {
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "ingestion already running"})
		return
	}

	go func() {
		defer s.ingesting.Store(false)

		eng, err := s.reindex(context.Background(), req.Force)
		if err != nil {
			s.logger.Error("background ingestion failed", "error", err)
			return
		}
		s.engine.Store(eng)
		s.logger.Info("background ingestion complete")
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "ingestion started"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.engine.Load() == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "initializing"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeFrame emits one newline-delimited frame: "<type>:<json>\n".
func writeFrame(w http.ResponseWriter, frameType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "%s:%s\n", frameType, data)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
