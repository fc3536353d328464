package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/galalqassas/USLaw-expert-RAG/llm"
	"github.com/galalqassas/USLaw-expert-RAG/reasoning"
	"github.com/galalqassas/USLaw-expert-RAG/schema"
)

// rateLimitMessage is the user-facing text for backend 429 responses.
const rateLimitMessage = "Rate limit exceeded. Please try switching to a different model or wait a moment before retrying."

// StreamChat answers a message as a finite event stream. The first event
// always carries the formatted sources and the retrieval time; text and
// reasoning events follow, with reasoning tokens buffered before a delta
// flushed ahead of that delta. Failures before any event is produced
// return an error; failures after that surface as a terminal EventError.
// The returned channel is closed when the stream ends.
func (e *QueryEngine) StreamChat(ctx context.Context, message string, history []llm.ChatMessage, model string) (<-chan StreamEvent, error) {
	model = e.resolveModel(model)
	augmented := AugmentQuery(message, history)

	nodes, retrievalTime, err := e.retrieveTimed(ctx, augmented)
	if err != nil {
		return nil, err
	}

	entry := e.synthesizers.Get(synthKey{model: model, streaming: true})

	// The reasoning channel is bound through the context so the LLM
	// adapter can reach it without a global registry. It is closed on
	// every exit path below.
	channel := reasoning.NewChannel()
	streamCtx := reasoning.NewContext(ctx, channel)

	synthStart := time.Now()
	streamResp, err := entry.synthesizer.SynthesizeStream(streamCtx, schema.QueryBundle{QueryString: augmented}, nodes)
	if err != nil {
		channel.Close()
		return nil, fmt.Errorf("synthesis failed: %w", err)
	}

	sources := FormatPassages(nodes, e.baseDir)
	events := make(chan StreamEvent)

	go func() {
		defer close(events)
		defer channel.Close()

		emit := func(ev StreamEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !emit(StreamEvent{Kind: EventSources, Sources: sources, RetrievalTime: retrievalTime}) {
			return
		}

		var answer strings.Builder
		for token := range streamResp.ResponseStream {
			if token.Err != nil {
				emit(StreamEvent{Kind: EventError, Text: e.streamErrorMessage(token.Err)})
				return
			}

			for _, fragment := range channel.DrainAll() {
				if !emit(StreamEvent{Kind: EventReasoning, Reasoning: fragment}) {
					return
				}
			}

			if token.Delta != "" {
				answer.WriteString(token.Delta)
				if !emit(StreamEvent{Kind: EventText, Text: token.Delta}) {
					return
				}
			}
		}

		for _, fragment := range channel.DrainAll() {
			if !emit(StreamEvent{Kind: EventReasoning, Reasoning: fragment}) {
				return
			}
		}

		synthesisTime := time.Since(synthStart).Seconds()
		timing := Timing{
			Retrieval: retrievalTime,
			Synthesis: synthesisTime,
			Total:     retrievalTime + synthesisTime,
		}
		e.queryLogger.LogAsync(message, model, e.topK, sources, answer.String(), timing)
	}()

	return events, nil
}

// streamErrorMessage renders a synthesis failure for in-band delivery,
// flagging rate limits distinctly so callers can advise switching models.
func (e *QueryEngine) streamErrorMessage(err error) string {
	if llm.IsRateLimited(err) {
		return rateLimitMessage
	}
	return fmt.Sprintf("Error: %v", err)
}
