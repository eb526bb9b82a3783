// Package stub provides a deterministic in-memory model.Client used for
// offline runs and tests. The client replays a scripted sequence of responses
// and records every request it receives.
package stub

import (
	"context"
	"sync"

	"finsense/model"
)

// Client replays scripted responses in order. Once the script is exhausted it
// keeps returning the final response. Safe for concurrent use.
type Client struct {
	mu        sync.Mutex
	responses []model.Response
	err       error
	requests  []model.Request
	next      int
}

// New constructs a stub client that replays the given responses.
func New(responses ...model.Response) *Client {
	return &Client{responses: responses}
}

// NewText constructs a stub client whose responses each carry a single
// assistant text message.
func NewText(texts ...string) *Client {
	responses := make([]model.Response, len(texts))
	for i, text := range texts {
		responses[i] = model.Response{
			Content:    []model.Message{{Role: model.RoleAssistant, Content: text}},
			StopReason: "end_turn",
		}
	}
	return New(responses...)
}

// NewError constructs a stub client that fails every completion with err.
func NewError(err error) *Client {
	return &Client{err: err}
}

// Complete records the request and returns the next scripted response.
func (c *Client) Complete(_ context.Context, req model.Request) (model.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if c.err != nil {
		return model.Response{}, c.err
	}
	if len(c.responses) == 0 {
		return model.Response{StopReason: "end_turn"}, nil
	}
	resp := c.responses[c.next]
	if c.next < len(c.responses)-1 {
		c.next++
	}
	return resp, nil
}

// Requests returns a copy of the requests received so far.
func (c *Client) Requests() []model.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Request, len(c.requests))
	copy(out, c.requests)
	return out
}
