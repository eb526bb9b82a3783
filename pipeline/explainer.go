package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"finsense/agent"
	"finsense/model"
	"finsense/telemetry"
)

// explanationInstruction is the fixed system prompt for the explanation call.
const explanationInstruction = `Summarise the portfolio outlook clearly and concisely for a general
audience. You are given the validated simulation request and result as JSON.
Explain the proposed allocation and the key indicators in plain language.
Do not give personalised financial advice.`

// localExplanation is the deterministic fallback used when the model cannot
// produce an explanation. The explainer never fails a run over it.
const localExplanation = "Based on the simulated data, this allocation targets balanced growth with " +
	"moderate volatility. Rebalance periodically and keep a small cash buffer."

// maxExplanationWords caps the explanation length before composition.
const maxExplanationWords = 180

// Explainer produces the natural-language explanation of a simulation
// outcome. Explain never returns an error: model failures fall back to a
// fixed local explanation so the pipeline always advances past EXPLAIN.
type Explainer struct {
	client model.Client
	logger telemetry.Logger
}

// NewExplainer constructs an Explainer. The logger defaults to a no-op when
// nil.
func NewExplainer(client model.Client, logger telemetry.Logger) *Explainer {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &Explainer{client: client, logger: logger}
}

// Explain invokes the model over {request, result} and returns its free-text
// reply, word-capped. Model failures and empty replies yield the fixed local
// explanation instead.
func (e *Explainer) Explain(ctx context.Context, req agent.SimRequest, result agent.SimResult) string {
	text := e.converse(ctx, req, result)
	return capWords(text, maxExplanationWords)
}

func (e *Explainer) converse(ctx context.Context, req agent.SimRequest, result agent.SimResult) string {
	if e.client == nil {
		return localExplanation
	}
	payload, err := json.Marshal(map[string]any{
		"request": req,
		"result":  result,
	})
	if err != nil {
		return localExplanation
	}
	resp, err := e.client.Complete(ctx, model.Request{
		Messages: []model.Message{
			{Role: model.RoleSystem, Content: explanationInstruction},
			{Role: model.RoleUser, Content: string(payload)},
		},
	})
	if err != nil {
		e.logger.Warn(ctx, "explanation model call failed, using local explanation", "err", err)
		return localExplanation
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return localExplanation
	}
	return text
}

// capWords hard-caps text at a maximum number of words, appending an ellipsis
// when truncated.
func capWords(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return strings.TrimSpace(text)
	}
	return strings.Join(words[:maxWords], " ") + "…"
}
