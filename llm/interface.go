package llm

import "context"

// LLM is the interface for interacting with Large Language Models.
type LLM interface {
	// Complete generates a completion for a given prompt.
	Complete(ctx context.Context, prompt string) (string, error)
	// Chat generates a response for a list of chat messages.
	Chat(ctx context.Context, messages []ChatMessage) (string, error)
	// StreamChat generates a streaming response for chat messages.
	// The returned channel is closed when the generation ends; a token with
	// a non-nil Err signals a terminal failure.
	StreamChat(ctx context.Context, messages []ChatMessage) (<-chan StreamToken, error)
}
