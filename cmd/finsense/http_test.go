package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsense/agent"
	"finsense/model/stub"
	"finsense/pipeline"
	"finsense/tools/analytics"
)

type invalidSimulator struct{}

func (invalidSimulator) RunSimulation(context.Context, agent.SimRequest) (agent.SimResult, error) {
	return agent.SimResult{"unexpected": true}, nil
}

func newTestHandler(t *testing.T, opts pipeline.Options) http.Handler {
	t.Helper()
	if opts.Client == nil {
		opts.Client = stub.NewText("garbage", "Explained.")
	}
	if opts.Simulator == nil {
		opts.Simulator = analytics.New()
	}
	orch, err := pipeline.New(opts)
	require.NoError(t, err)
	return agentHandler(orch)
}

func postAgent(handler http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/agent", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAgentHandlerOK(t *testing.T) {
	handler := newTestHandler(t, pipeline.Options{})

	rec := postAgent(handler, `{"message":{"text":"review my portfolio"},"context":{"risk_profile":"moderate","horizon_years":5}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var out agent.Output
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, agent.StatusOK, out.Status)
	require.NotNil(t, out.AdviceMetadata)
	assert.Equal(t, agent.RiskModerate, out.AdviceMetadata.RiskProfile)
}

func TestAgentHandlerRejectsInvalidJSON(t *testing.T) {
	handler := newTestHandler(t, pipeline.Options{})

	rec := postAgent(handler, `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAgentHandlerRejectsContractViolation(t *testing.T) {
	handler := newTestHandler(t, pipeline.Options{})

	rec := postAgent(handler, `{"message":{}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "request violates the agent input contract", body.Error)
	assert.NotEmpty(t, body.Details)
}

func TestAgentHandlerMapsSimulationFailureTo502(t *testing.T) {
	handler := newTestHandler(t, pipeline.Options{Simulator: invalidSimulator{}})

	rec := postAgent(handler, `{"message":{"text":"rebalance please"}}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Details)
}
