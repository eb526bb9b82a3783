package bedrock

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsense/model"
)

type fakeRuntimeClient struct {
	lastInput *bedrockruntime.ConverseInput
	output    *bedrockruntime.ConverseOutput
	err       error
}

func (f *fakeRuntimeClient) Converse(
	_ context.Context,
	params *bedrockruntime.ConverseInput,
	_ ...func(*bedrockruntime.Options),
) (*bedrockruntime.ConverseOutput, error) {
	f.lastInput = params
	return f.output, f.err
}

func textOutput(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{
			Value: brtypes.Message{
				Role: brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: text},
				},
			},
		},
		StopReason: brtypes.StopReasonEndTurn,
		Usage: &brtypes.TokenUsage{
			InputTokens:  aws.Int32(12),
			OutputTokens: aws.Int32(34),
			TotalTokens:  aws.Int32(46),
		},
	}
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(nil, Options{Model: "m"})
	require.EqualError(t, err, "bedrock runtime client is required")

	_, err = New(&fakeRuntimeClient{}, Options{})
	require.EqualError(t, err, "model identifier is required")
}

func TestCompleteTranslatesResponse(t *testing.T) {
	rt := &fakeRuntimeClient{output: textOutput("hello back")}
	client, err := New(rt, Options{Model: "anthropic.claude-3-haiku-20240307-v1:0", MaxTokens: 512, Temperature: 0.2})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), model.Request{
		Messages: []model.Message{
			{Role: model.RoleSystem, Content: "You are terse."},
			{Role: model.RoleUser, Content: "hello"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello back", resp.Text())
	assert.Equal(t, string(brtypes.StopReasonEndTurn), resp.StopReason)
	assert.Equal(t, 12, resp.Usage.InputTokens)
	assert.Equal(t, 46, resp.Usage.TotalTokens)

	require.NotNil(t, rt.lastInput)
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", *rt.lastInput.ModelId)
	require.Len(t, rt.lastInput.System, 1)
	require.Len(t, rt.lastInput.Messages, 1)
	require.NotNil(t, rt.lastInput.InferenceConfig)
	assert.Equal(t, int32(512), *rt.lastInput.InferenceConfig.MaxTokens)
}

func TestCompleteRequiresConversation(t *testing.T) {
	client, err := New(&fakeRuntimeClient{}, Options{Model: "m"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), model.Request{
		Messages: []model.Message{{Role: model.RoleSystem, Content: "system only"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one user/assistant message")
}

func TestCompleteWrapsRateLimitedErrors(t *testing.T) {
	rt := &fakeRuntimeClient{err: model.ErrRateLimited}
	client, err := New(rt, Options{Model: "m"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), model.Request{
		Messages: []model.Message{{Role: model.RoleUser, Content: "hello"}},
	})
	require.Error(t, err)
	require.ErrorIs(t, err, model.ErrRateLimited)
}

func TestIsRateLimitedIdempotentOnSentinel(t *testing.T) {
	require.True(t, isRateLimited(model.ErrRateLimited))
	require.True(t, isRateLimited(fmt.Errorf("provider: %w", model.ErrRateLimited)))
	require.False(t, isRateLimited(nil))
}

func TestRequestModelOverridesDefault(t *testing.T) {
	rt := &fakeRuntimeClient{output: textOutput("ok")}
	client, err := New(rt, Options{Model: "default-model"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), model.Request{
		Model:    "override-model",
		Messages: []model.Message{{Role: model.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "override-model", *rt.lastInput.ModelId)
}
