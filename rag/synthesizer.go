package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/galalqassas/USLaw-expert-RAG/llm"
	"github.com/galalqassas/USLaw-expert-RAG/schema"
)

const contextPrompt = "You are a helpful assistant for US Copyright Law questions.\n" +
	"Here are the relevant documents for the context:\n" +
	"%s\n" +
	"\nInstruction: Use the previous chat history, or the context above, to interact and help the user."

// CompactSynthesizer generates a response by stuffing the retrieved passages
// into a single prompt. Streaming reuses the same prompt as a system message
// so the model sees the statute text before the question.
type CompactSynthesizer struct {
	llm       llm.LLM
	streaming bool
}

// NewCompactSynthesizer creates a new CompactSynthesizer. When streaming is
// true, SynthesizeStream is the intended entry point and Synthesize falls
// back to a blocking completion.
func NewCompactSynthesizer(model llm.LLM, streaming bool) *CompactSynthesizer {
	return &CompactSynthesizer{
		llm:       model,
		streaming: streaming,
	}
}

// Streaming reports whether this synthesizer was built for streaming use.
func (s *CompactSynthesizer) Streaming() bool {
	return s.streaming
}

func (s *CompactSynthesizer) Synthesize(ctx context.Context, query schema.QueryBundle, nodes []schema.NodeWithScore) (schema.EngineResponse, error) {
	prompt := s.createPrompt(s.formatContext(nodes), query.QueryString)

	responseStr, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return schema.EngineResponse{}, fmt.Errorf("llm completion failed: %w", err)
	}

	return schema.EngineResponse{
		Response:    responseStr,
		SourceNodes: nodes,
	}, nil
}

func (s *CompactSynthesizer) SynthesizeStream(ctx context.Context, query schema.QueryBundle, nodes []schema.NodeWithScore) (StreamingResponse, error) {
	messages := []llm.ChatMessage{
		llm.NewSystemMessage(fmt.Sprintf(contextPrompt, s.formatContext(nodes))),
		llm.NewUserMessage(query.QueryString),
	}

	tokenStream, err := s.llm.StreamChat(ctx, messages)
	if err != nil {
		return StreamingResponse{}, fmt.Errorf("llm stream failed: %w", err)
	}

	return StreamingResponse{
		ResponseStream: tokenStream,
		SourceNodes:    nodes,
	}, nil
}

func (s *CompactSynthesizer) formatContext(nodes []schema.NodeWithScore) string {
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(n.Node.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (s *CompactSynthesizer) createPrompt(context, query string) string {
	return fmt.Sprintf("Context information is below.\n---------------------\n%s\n---------------------\nGiven the context information and not prior knowledge, answer the query.\nQuery: %s\nAnswer:", context, query)
}

var _ Synthesizer = (*CompactSynthesizer)(nil)
