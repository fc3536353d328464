package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/galalqassas/USLaw-expert-RAG/reasoning"
)

const (
	// GroqAPIURL is the default Groq API endpoint (OpenAI-compatible).
	GroqAPIURL = "https://api.groq.com/openai/v1"
	// DefaultModel is the default chat model.
	DefaultModel = "openai/gpt-oss-120b"
	// DefaultTemperature keeps legal answers close to the retrieved text.
	DefaultTemperature = 0.1
	// DefaultMaxTokens bounds the length of a synthesized answer.
	DefaultMaxTokens = 4096

	// defaultReasoningEffort is sent when reasoning tokens are requested.
	defaultReasoningEffort = "medium"
)

// OpenAILLM wraps any OpenAI-compatible chat-completion backend.
// The zero-config default targets Groq with the GROQ_API_KEY env var.
type OpenAILLM struct {
	client           *openai.Client
	model            string
	temperature      float32
	maxTokens        int
	systemPrompt     string
	includeReasoning bool
	logger           *slog.Logger
}

// Option configures an OpenAILLM.
type Option func(*OpenAILLM)

// WithAPIKey sets the API key.
func WithAPIKey(apiKey string) Option {
	return func(o *OpenAILLM) {
		config := openai.DefaultConfig(apiKey)
		config.BaseURL = GroqAPIURL
		o.client = openai.NewClientWithConfig(config)
	}
}

// WithBaseURL sets a custom OpenAI-compatible endpoint together with the key.
func WithBaseURL(baseURL, apiKey string) Option {
	return func(o *OpenAILLM) {
		config := openai.DefaultConfig(apiKey)
		config.BaseURL = baseURL
		o.client = openai.NewClientWithConfig(config)
	}
}

// WithClient sets a custom OpenAI client (for testing).
func WithClient(client *openai.Client) Option {
	return func(o *OpenAILLM) {
		o.client = client
	}
}

// WithModel sets the model.
func WithModel(model string) Option {
	return func(o *OpenAILLM) {
		if model != "" {
			o.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float32) Option {
	return func(o *OpenAILLM) {
		o.temperature = temperature
	}
}

// WithMaxTokens sets the completion token limit.
func WithMaxTokens(maxTokens int) Option {
	return func(o *OpenAILLM) {
		o.maxTokens = maxTokens
	}
}

// WithSystemPrompt prepends a system message to every request.
func WithSystemPrompt(prompt string) Option {
	return func(o *OpenAILLM) {
		o.systemPrompt = prompt
	}
}

// WithReasoning requests reasoning tokens from backends that support them.
// Backends that ignore the request simply produce no reasoning fragments.
func WithReasoning(include bool) Option {
	return func(o *OpenAILLM) {
		o.includeReasoning = include
	}
}

// NewOpenAILLM creates a new OpenAI-compatible LLM client.
func NewOpenAILLM(opts ...Option) *OpenAILLM {
	apiKey := os.Getenv("GROQ_API_KEY")

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = GroqAPIURL

	o := &OpenAILLM{
		client:      openai.NewClientWithConfig(config),
		model:       DefaultModel,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		logger:      slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Model returns the model identifier this client is bound to.
func (o *OpenAILLM) Model() string {
	return o.model
}

func (o *OpenAILLM) buildRequest(messages []ChatMessage, stream bool) openai.ChatCompletionRequest {
	var openaiMessages []openai.ChatCompletionMessage
	if o.systemPrompt != "" && (len(messages) == 0 || messages[0].Role != MessageRoleSystem) {
		openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: o.systemPrompt,
		})
	}
	for _, msg := range messages {
		openaiMessages = append(openaiMessages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    openaiMessages,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
		Stream:      stream,
	}
	if o.includeReasoning {
		req.ReasoningEffort = defaultReasoningEffort
	}
	return req
}

// Complete generates a completion for a given prompt.
func (o *OpenAILLM) Complete(ctx context.Context, prompt string) (string, error) {
	return o.Chat(ctx, []ChatMessage{NewUserMessage(prompt)})
}

// Chat generates a response for a list of chat messages.
func (o *OpenAILLM) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	o.logger.Info("Chat called", "model", o.model, "message_count", len(messages))

	resp, err := o.client.CreateChatCompletion(ctx, o.buildRequest(messages, false))
	if err != nil {
		o.logger.Error("Chat failed", "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("backend returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// StreamChat generates a streaming response for chat messages.
// Reasoning fragments arriving in the delta stream are pushed to the
// reasoning channel bound to ctx, if any, and also carried on the token.
func (o *OpenAILLM) StreamChat(ctx context.Context, messages []ChatMessage) (<-chan StreamToken, error) {
	o.logger.Info("StreamChat called", "model", o.model, "message_count", len(messages))

	stream, err := o.client.CreateChatCompletionStream(ctx, o.buildRequest(messages, true))
	if err != nil {
		o.logger.Error("StreamChat failed", "error", err)
		return nil, fmt.Errorf("stream chat failed: %w", err)
	}

	tokenChan := make(chan StreamToken)
	channel := reasoning.FromContext(ctx)

	go func() {
		defer close(tokenChan)
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if err == io.EOF {
				return
			}
			if err != nil {
				o.logger.Error("StreamChat receive error", "error", err)
				select {
				case tokenChan <- StreamToken{Err: fmt.Errorf("stream receive failed: %w", err)}:
				case <-ctx.Done():
				}
				return
			}

			if len(response.Choices) == 0 {
				continue
			}

			choice := response.Choices[0]
			token := StreamToken{
				Delta:        choice.Delta.Content,
				Reasoning:    choice.Delta.ReasoningContent,
				FinishReason: string(choice.FinishReason),
			}
			if token.Delta == "" && token.Reasoning == "" {
				continue
			}

			// Push on an unbound channel is a silent no-op.
			if token.Reasoning != "" {
				channel.Push(token.Reasoning)
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

// IsRateLimited reports whether err is an HTTP 429 from the backend.
func IsRateLimited(err error) bool {
	var apiErr *openai.APIError
	return errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests
}

// Ensure OpenAILLM implements the interface.
var _ LLM = (*OpenAILLM)(nil)
