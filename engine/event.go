package engine

// StreamEventKind discriminates the events produced by StreamChat.
type StreamEventKind int

const (
	// EventSources is always the first event: formatted passages plus the
	// retrieval time.
	EventSources StreamEventKind = iota
	// EventText carries an answer delta.
	EventText
	// EventReasoning carries one reasoning token.
	EventReasoning
	// EventError is terminal: the stream ends after it. The error is
	// delivered in-band because transport headers are already committed
	// once streaming has started.
	EventError
)

// StreamEvent is a single event in a streaming chat response.
type StreamEvent struct {
	Kind StreamEventKind

	// Text is the answer delta (EventText) or the human-readable error
	// message (EventError).
	Text string
	// Reasoning is the reasoning token (EventReasoning).
	Reasoning string
	// Sources and RetrievalTime are set on EventSources.
	Sources       []SourcePassage
	RetrievalTime float64
}
