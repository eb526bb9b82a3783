package agent

import (
	"testing"

	"github.com/stretchr/testify/require"

	"finsense/schema"
)

func TestBuildOKMessage(t *testing.T) {
	out, err := BuildOKMessage("Here is a summary.", "")
	require.NoError(t, err)
	require.Equal(t, StatusOK, out.Status)
	require.Len(t, out.Messages, 1)
	require.Equal(t, RoleAssistant, out.Messages[0].Role)
	require.Equal(t, FormatMarkdown, out.Messages[0].Format)
	require.Empty(t, schema.Validate(out, schema.AgentOutput))
}

func TestBuildOKMessageTextFormat(t *testing.T) {
	out, err := BuildOKMessage("plain reply", FormatText)
	require.NoError(t, err)
	require.Equal(t, FormatText, out.Messages[0].Format)
}

func TestBuildToolCall(t *testing.T) {
	out, err := BuildToolCall("http_fetch", map[string]any{"url": "https://example.com"}, "Calling tool 'http_fetch'")
	require.NoError(t, err)
	require.Equal(t, StatusToolCall, out.Status)
	require.NotNil(t, out.Tool)
	require.Equal(t, "http_fetch", out.Tool.Name)
	require.NotEmpty(t, out.Trace)
	require.Equal(t, "plan", out.Trace[0].Step)
	require.Empty(t, schema.Validate(out, schema.AgentOutput))
}

func TestBuildToolCallNoArgs(t *testing.T) {
	out, err := BuildToolCall("risk_alerts", nil, "Calling tool 'risk_alerts'")
	require.NoError(t, err)
	require.Empty(t, schema.Validate(out, schema.AgentOutput))
}

func TestBuildAdvice(t *testing.T) {
	res := SimResult{
		"proposed_allocation": map[string]any{"equities": 0.55, "bonds": 0.4, "cash": 0.05},
		"kpis":                map[string]any{"exp_return_1y": 0.06, "exp_vol_1y": 0.11, "max_drawdown": 0.17},
	}
	out, err := BuildAdvice(AdviceParams{
		Text:      "Your balanced allocation targets steady growth.",
		Metadata:  AdviceMetadata{RiskProfile: RiskBalanced, Disclaimers: []string{Disclaimer}},
		Analytics: res,
		Trace:     []TraceStep{{Step: "plan"}, {Step: "simulate"}},
		RunID:     "run-1",
		LatencyMS: 12.5,
	})
	require.NoError(t, err)
	require.Equal(t, StatusOK, out.Status)
	require.Equal(t, res, out.Analytics)
	require.Equal(t, []string{Disclaimer}, out.AdviceMetadata.Disclaimers)
	require.Empty(t, schema.Validate(out, schema.AgentOutput))
}

func TestBuildAdviceEmptyDisclaimersViolatesContract(t *testing.T) {
	_, err := BuildAdvice(AdviceParams{
		Text:     "advice",
		Metadata: AdviceMetadata{RiskProfile: RiskBalanced, Disclaimers: []string{}},
	})
	require.Error(t, err)
	var violation *ContractViolation
	require.ErrorAs(t, err, &violation)
	require.NotEmpty(t, violation.Descriptors)
}
