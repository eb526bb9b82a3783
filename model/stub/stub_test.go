package stub

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsense/model"
)

func TestReplaysScriptInOrder(t *testing.T) {
	client := NewText("first", "second")
	ctx := context.Background()

	resp, err := client.Complete(ctx, model.Request{Messages: []model.Message{{Role: model.RoleUser, Content: "a"}}})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Text())

	resp, err = client.Complete(ctx, model.Request{Messages: []model.Message{{Role: model.RoleUser, Content: "b"}}})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Text())

	// Exhausted scripts repeat the final response.
	resp, err = client.Complete(ctx, model.Request{})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Text())

	require.Len(t, client.Requests(), 3)
	assert.Equal(t, "a", client.Requests()[0].Messages[0].Content)
}

func TestErrorClient(t *testing.T) {
	boom := errors.New("boom")
	client := NewError(boom)

	_, err := client.Complete(context.Background(), model.Request{})
	require.ErrorIs(t, err, boom)
}

func TestEmptyScriptReturnsEmptyResponse(t *testing.T) {
	client := New()
	resp, err := client.Complete(context.Background(), model.Request{})
	require.NoError(t, err)
	assert.Empty(t, resp.Text())
}
