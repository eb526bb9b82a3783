// Package openai provides a model.Client implementation backed by the
// official OpenAI Go SDK's Chat Completions API.
package openai

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"finsense/model"
)

// ChatClient mirrors the subset of the OpenAI chat completion service
// required by the adapter. It matches *openai.ChatCompletionService so
// callers can pass either the real service or a fake in tests.
type ChatClient interface {
	New(ctx context.Context, body sdk.ChatCompletionNewParams, opts ...option.RequestOption) (*sdk.ChatCompletion, error)
}

// Options configures the OpenAI client adapter.
type Options struct {
	// Model is the chat model identifier (e.g. "gpt-4o-mini"). Required.
	Model string

	// MaxTokens sets the default completion cap when a request does not
	// specify MaxTokens. Zero means use the provider default.
	MaxTokens int

	// Temperature is used when a request does not specify Temperature.
	Temperature float32
}

// Client implements model.Client on top of the OpenAI Chat Completions API.
type Client struct {
	chat    ChatClient
	modelID string
	maxTok  int
	temp    float32
}

// New initializes an OpenAI-powered model client.
func New(chat ChatClient, opts Options) (*Client, error) {
	if chat == nil {
		return nil, errors.New("openai chat client is required")
	}
	if opts.Model == "" {
		return nil, errors.New("model identifier is required")
	}
	return &Client{
		chat:    chat,
		modelID: opts.Model,
		maxTok:  opts.MaxTokens,
		temp:    opts.Temperature,
	}, nil
}

// NewFromAPIKey constructs a client for the given API key and options.
func NewFromAPIKey(apiKey string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	sdkClient := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&sdkClient.Chat.Completions, opts)
}

// Complete issues a chat completion request to the configured OpenAI model.
func (c *Client) Complete(ctx context.Context, req model.Request) (model.Response, error) {
	params, err := c.buildParams(req)
	if err != nil {
		return model.Response{}, err
	}
	completion, err := c.chat.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == 429 {
			return model.Response{}, fmt.Errorf("%w: %w", model.ErrRateLimited, err)
		}
		return model.Response{}, fmt.Errorf("openai: chat completion failed: %w", err)
	}
	return translateCompletion(completion)
}

func (c *Client) buildParams(req model.Request) (sdk.ChatCompletionNewParams, error) {
	messages := make([]sdk.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Content == "" {
			continue
		}
		switch m.Role {
		case model.RoleSystem:
			messages = append(messages, sdk.SystemMessage(m.Content))
		case model.RoleAssistant:
			messages = append(messages, sdk.AssistantMessage(m.Content))
		default:
			messages = append(messages, sdk.UserMessage(m.Content))
		}
	}
	if len(messages) == 0 {
		return sdk.ChatCompletionNewParams{}, errors.New("openai: at least one message is required")
	}
	modelID := req.Model
	if modelID == "" {
		modelID = c.modelID
	}
	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(modelID),
		Messages: messages,
	}
	if tokens := c.effectiveMaxTokens(req.MaxTokens); tokens > 0 {
		params.MaxTokens = sdk.Int(int64(tokens))
	}
	if t := c.effectiveTemperature(req.Temperature); t > 0 {
		params.Temperature = sdk.Float(float64(t))
	}
	return params, nil
}

func (c *Client) effectiveMaxTokens(requested int) int {
	if requested > 0 {
		return requested
	}
	return c.maxTok
}

func (c *Client) effectiveTemperature(requested float32) float32 {
	if requested > 0 {
		return requested
	}
	return c.temp
}

func translateCompletion(completion *sdk.ChatCompletion) (model.Response, error) {
	if completion == nil {
		return model.Response{}, errors.New("openai: response is nil")
	}
	var resp model.Response
	for _, choice := range completion.Choices {
		if choice.Message.Content == "" {
			continue
		}
		resp.Content = append(resp.Content, model.Message{
			Role:    model.RoleAssistant,
			Content: choice.Message.Content,
		})
		resp.StopReason = choice.FinishReason
	}
	resp.Usage = model.TokenUsage{
		InputTokens:  int(completion.Usage.PromptTokens),
		OutputTokens: int(completion.Usage.CompletionTokens),
		TotalTokens:  int(completion.Usage.TotalTokens),
	}
	return resp, nil
}
