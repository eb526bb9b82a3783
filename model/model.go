// Package model provides a provider-agnostic abstraction over chat completion
// APIs (Bedrock, OpenAI, Anthropic). The planning and explanation stages
// invoke models through the Client interface so they never couple to a
// specific SDK; implementations translate these normalized types into
// provider-specific formats.
package model

import (
	"context"
	"errors"
)

type (
	// Client is the contract the pipeline uses to invoke LLM calls.
	// Implementations wrap provider SDKs and translate Request/Response to
	// provider-specific formats. Clients must be safe for concurrent use and
	// reusable across runs.
	Client interface {
		// Complete sends a chat completion request to the model provider and
		// returns the generated response. Returns an error if the model is
		// unavailable, quota is exceeded, or the request is malformed.
		Complete(ctx context.Context, req Request) (Response, error)
	}

	// Request captures the normalized parameters for a model invocation.
	// Fields map to common provider parameters but may not be supported by
	// every backend; implementations apply sensible defaults for unsupported
	// fields.
	Request struct {
		// Model identifies the target model using the provider-specific
		// identifier (e.g. "anthropic.claude-3-haiku-20240307-v1:0",
		// "gpt-4o-mini").
		Model string

		// Messages is the ordered chat history provided to the model,
		// including system prompts, user inputs, and prior assistant
		// responses.
		Messages []Message

		// Temperature controls sampling temperature. Lower values produce
		// more deterministic outputs. Zero means use the provider default.
		Temperature float32

		// MaxTokens caps the number of completion tokens the model can
		// generate. Zero means use the provider default.
		MaxTokens int
	}

	// Response wraps the generated content returned by the model provider.
	Response struct {
		// Content contains the assistant messages returned by the model.
		// Typically a single message.
		Content []Message

		// Usage reports token usage when available. All fields are zero if
		// the provider doesn't report usage.
		Usage TokenUsage

		// StopReason explains why the model stopped generating. Values are
		// provider-specific (e.g. "end_turn", "max_tokens") and may be empty.
		StopReason string
	}

	// Message mirrors an LLM chat message with role and content.
	Message struct {
		// Role indicates the message role: "user", "assistant" or "system".
		Role string

		// Content is the message text.
		Content string
	}

	// TokenUsage records prompt/completion token counts when reported by the
	// provider.
	TokenUsage struct {
		// InputTokens counts tokens consumed by the prompt and history.
		InputTokens int

		// OutputTokens counts tokens produced by the model.
		OutputTokens int

		// TotalTokens reports the aggregate tokens consumed. Some providers
		// compute this with overhead, so prefer it over summing the parts.
		TotalTokens int
	}
)

// Message role constants shared by all provider implementations.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrRateLimited indicates the provider rejected the request due to rate
// limiting. Adapters wrap throttling errors with this sentinel so callers and
// middleware can detect the condition with errors.Is.
var ErrRateLimited = errors.New("model: rate limited")

// Text returns the concatenated text of the response's assistant messages.
func (r Response) Text() string {
	switch len(r.Content) {
	case 0:
		return ""
	case 1:
		return r.Content[0].Content
	}
	var out string
	for _, m := range r.Content {
		out += m.Content
	}
	return out
}
