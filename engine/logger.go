package engine

import (
	"encoding/json"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"
)

// Timing records per-phase latencies in seconds.
type Timing struct {
	Retrieval float64 `json:"retrieval"`
	Synthesis float64 `json:"synthesis"`
	Total     float64 `json:"total"`
}

type queryLogRecord struct {
	Timestamp       string          `json:"timestamp"`
	Question        string          `json:"question"`
	Model           string          `json:"model"`
	SimilarityTopK  int             `json:"similarity_top_k"`
	TimingSeconds   Timing          `json:"timing_seconds"`
	RetrievedChunks []SourcePassage `json:"retrieved_chunks"`
	Response        string          `json:"response"`
}

// QueryLogger persists one JSON file per query, off the response path.
// Logging is best-effort observability: if the logs directory cannot be
// created at construction, the logger is permanently disabled and every
// LogAsync call becomes a no-op. Write failures are logged and swallowed.
type QueryLogger struct {
	dir     string
	enabled bool
	logger  *slog.Logger
}

// NewQueryLogger creates a logger writing under dir. The directory is
// created once here; failure disables logging for this instance.
func NewQueryLogger(dir string) *QueryLogger {
	l := &QueryLogger{
		dir:    dir,
		logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		l.logger.Warn("query logging disabled", "dir", dir, "error", err)
		return l
	}

	l.enabled = true
	return l
}

// Enabled reports whether this logger will write files.
func (l *QueryLogger) Enabled() bool {
	return l.enabled
}

// LogAsync writes the transaction record in a background goroutine.
// It never blocks on I/O and never surfaces an error to the caller.
func (l *QueryLogger) LogAsync(question, model string, topK int, passages []SourcePassage, response string, timing Timing) {
	if !l.enabled {
		return
	}

	record := queryLogRecord{
		Timestamp:      time.Now().Format(time.RFC3339),
		Question:       question,
		Model:          model,
		SimilarityTopK: topK,
		TimingSeconds: Timing{
			Retrieval: round4(timing.Retrieval),
			Synthesis: round4(timing.Synthesis),
			Total:     round4(timing.Total),
		},
		RetrievedChunks: passages,
		Response:        response,
	}

	go l.write(record)
}

func (l *QueryLogger) write(record queryLogRecord) {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		l.logger.Warn("failed to marshal query log", "error", err)
		return
	}

	name := "query_" + time.Now().Format("20060102_150405") + ".json"
	path := filepath.Join(l.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		l.logger.Warn("failed to write query log", "path", path, "error", err)
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
