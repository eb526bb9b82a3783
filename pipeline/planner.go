package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"finsense/agent"
	"finsense/model"
	"finsense/schema"
	"finsense/telemetry"
)

// planningInstruction is the fixed system prompt for the planning call. The
// model's reply is untrusted; anything that fails to parse or validate is
// discarded in favor of the hints.
const planningInstruction = `You translate a user's investment question into a simulation request.
Reply with a single JSON object and nothing else. The object must have
"risk_profile" (one of "conservative", "balanced", "moderate", "aggressive")
and "horizon_years" (integer between 1 and 40). You may include "age" and
"context" with a "demo_seed" integer when the user or the hints mention them.
Prefer values stated by the user; otherwise use the hints.`

const (
	defaultRiskProfile  = agent.RiskBalanced
	defaultHorizonYears = 5
)

// Planner turns agent input into a contract-valid simulation request. The
// model is consulted first; when its output is malformed or schema-invalid in
// any way, the planner falls back deterministically to the hints derived from
// the input context. Plan never returns an error.
type Planner struct {
	client model.Client
	logger telemetry.Logger
}

// NewPlanner constructs a Planner. The logger defaults to a no-op when nil.
func NewPlanner(client model.Client, logger telemetry.Logger) *Planner {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &Planner{client: client, logger: logger}
}

// Hints derives the deterministic fallback simulation request from the input
// context: risk profile defaults to "balanced", horizon to 5 years.
func Hints(input agent.Input) agent.SimRequest {
	req := agent.SimRequest{
		RiskProfile:  input.Context.RiskProfile,
		HorizonYears: input.Context.HorizonYears,
	}
	if req.RiskProfile == "" {
		req.RiskProfile = defaultRiskProfile
	}
	if req.HorizonYears <= 0 {
		req.HorizonYears = defaultHorizonYears
	}
	if input.Context.DemoSeed != 0 {
		req.Context = &agent.SimContext{DemoSeed: input.Context.DemoSeed}
	}
	return req
}

// Plan derives hints from the input, asks the model for a structured
// simulation request, and validates the reply against the simulation request
// contract. On any failure (model error, malformed JSON, schema violation)
// it discards the model output entirely and returns the hints unchanged.
func (p *Planner) Plan(ctx context.Context, input agent.Input) agent.SimRequest {
	hints := Hints(input)
	if p.client == nil {
		return hints
	}

	payload, err := json.Marshal(map[string]any{
		"message": input.Message.Text,
		"hints":   hints,
	})
	if err != nil {
		return hints
	}
	resp, err := p.client.Complete(ctx, model.Request{
		Messages: []model.Message{
			{Role: model.RoleSystem, Content: planningInstruction},
			{Role: model.RoleUser, Content: string(payload)},
		},
	})
	if err != nil {
		p.logger.Warn(ctx, "planning model call failed, using hints", "err", err)
		return hints
	}

	req, ok := parseSimRequest(resp.Text())
	if !ok {
		p.logger.Debug(ctx, "planning output rejected, using hints")
		return hints
	}
	return req
}

// parseSimRequest attempts a resilient parse of the model's raw text into a
// contract-valid simulation request. It tolerates prose around the JSON
// object by extracting the outermost braces before decoding. The contract is
// checked against the raw decoded document; the typed result keeps the
// contract fields and projects away any extra properties, which downstream
// stages never read.
func parseSimRequest(text string) (agent.SimRequest, bool) {
	raw, ok := extractJSON(text)
	if !ok {
		return agent.SimRequest{}, false
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return agent.SimRequest{}, false
	}
	if len(schema.Validate(decoded, schema.SimRequest)) > 0 {
		return agent.SimRequest{}, false
	}
	var req agent.SimRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return agent.SimRequest{}, false
	}
	return req, true
}

// extractJSON returns the outermost {...} span of text, or false when text
// contains no such span.
func extractJSON(text string) ([]byte, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	return []byte(text[start : end+1]), true
}
