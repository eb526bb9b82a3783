package openai

import (
	"context"
	"testing"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsense/model"
)

type fakeChatClient struct {
	lastParams sdk.ChatCompletionNewParams
	completion *sdk.ChatCompletion
	err        error
}

func (f *fakeChatClient) New(_ context.Context, body sdk.ChatCompletionNewParams, _ ...option.RequestOption) (*sdk.ChatCompletion, error) {
	f.lastParams = body
	return f.completion, f.err
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(nil, Options{Model: "gpt-4o-mini"})
	require.EqualError(t, err, "openai chat client is required")

	_, err = New(&fakeChatClient{}, Options{})
	require.EqualError(t, err, "model identifier is required")
}

func TestCompleteTranslatesCompletion(t *testing.T) {
	chat := &fakeChatClient{
		completion: &sdk.ChatCompletion{
			Choices: []sdk.ChatCompletionChoice{
				{
					Message:      sdk.ChatCompletionMessage{Content: "hi there"},
					FinishReason: "stop",
				},
			},
			Usage: sdk.CompletionUsage{
				PromptTokens:     10,
				CompletionTokens: 5,
				TotalTokens:      15,
			},
		},
	}
	client, err := New(chat, Options{Model: "gpt-4o-mini", MaxTokens: 256, Temperature: 0.3})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), model.Request{
		Messages: []model.Message{
			{Role: model.RoleSystem, Content: "You are terse."},
			{Role: model.RoleUser, Content: "hello"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Text())
	assert.Equal(t, "stop", resp.StopReason)
	assert.Equal(t, 15, resp.Usage.TotalTokens)

	assert.Equal(t, sdk.ChatModel("gpt-4o-mini"), chat.lastParams.Model)
	require.Len(t, chat.lastParams.Messages, 2)
}

func TestCompleteRequiresMessages(t *testing.T) {
	client, err := New(&fakeChatClient{}, Options{Model: "gpt-4o-mini"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), model.Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one message")
}
