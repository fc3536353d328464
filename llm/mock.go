package llm

import (
	"context"
	"strings"

	"github.com/galalqassas/USLaw-expert-RAG/reasoning"
)

// MockLLM is a mock implementation of the LLM interface for testing.
type MockLLM struct {
	// CompleteFunc overrides Complete when set.
	CompleteFunc func(ctx context.Context, prompt string) (string, error)
	// ChatFunc overrides Chat when set.
	ChatFunc func(ctx context.Context, messages []ChatMessage) (string, error)
	// StreamChatFunc overrides StreamChat when set.
	StreamChatFunc func(ctx context.Context, messages []ChatMessage) (<-chan StreamToken, error)

	// Response is the canned reply used by the default implementations.
	Response string
	// Reasoning, when non-empty, is pushed to the context-bound reasoning
	// channel and emitted before content by the default StreamChat.
	Reasoning []string
	// Err, when set, is returned by the default Complete and Chat, and
	// emitted as a terminal token by the default StreamChat.
	Err error

	// Calls records the prompts and message lists received.
	Calls []string
}

// NewMockLLM creates a mock that always replies with response.
func NewMockLLM(response string) *MockLLM {
	return &MockLLM{Response: response}
}

// Complete returns the canned response.
func (m *MockLLM) Complete(ctx context.Context, prompt string) (string, error) {
	m.Calls = append(m.Calls, prompt)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// Chat returns the canned response.
func (m *MockLLM) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	m.Calls = append(m.Calls, joinMessages(messages))
	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, messages)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// StreamChat streams the canned response one word at a time.
func (m *MockLLM) StreamChat(ctx context.Context, messages []ChatMessage) (<-chan StreamToken, error) {
	m.Calls = append(m.Calls, joinMessages(messages))
	if m.StreamChatFunc != nil {
		return m.StreamChatFunc(ctx, messages)
	}

	tokenChan := make(chan StreamToken)
	go func() {
		defer close(tokenChan)

		channel := reasoning.FromContext(ctx)
		for _, fragment := range m.Reasoning {
			channel.Push(fragment)
			select {
			case tokenChan <- StreamToken{Reasoning: fragment}:
			case <-ctx.Done():
				return
			}
		}

		if m.Err != nil {
			select {
			case tokenChan <- StreamToken{Err: m.Err}:
			case <-ctx.Done():
			}
			return
		}

		words := strings.SplitAfter(m.Response, " ")
		for i, word := range words {
			token := StreamToken{Delta: word}
			if i == len(words)-1 {
				token.FinishReason = "stop"
			}
			select {
			case tokenChan <- token:
			case <-ctx.Done():
				return
			}
		}
	}()

	return tokenChan, nil
}

func joinMessages(messages []ChatMessage) string {
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		parts = append(parts, string(msg.Role)+": "+msg.Content)
	}
	return strings.Join(parts, "\n")
}

// Ensure MockLLM implements the interface.
var _ LLM = (*MockLLM)(nil)
