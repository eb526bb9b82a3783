// Package pipeline implements the contract-validated orchestration pipeline:
// PLAN derives a simulation request from free text, SIMULATE runs the
// simulation tool and validates its result, EXPLAIN produces a plain-language
// summary, and COMPOSE assembles the final contract-valid agent output. It
// also hosts the intent router that decides between the pipeline, a tool_call
// announcement, and a plain model reply.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"finsense/agent"
	"finsense/model"
	"finsense/schema"
	"finsense/session"
	"finsense/telemetry"
	"finsense/tools"
)

// reasonInstruction is the fixed system prompt for the default reasoning path
// taken when the router matches neither portfolio nor data-fetch intent.
const reasonInstruction = `You are FinSense, an educational finance assistant. Answer the user's
question clearly and concisely. Never give personalised financial advice.`

// Keyword tables driving intent routing. Matching is case-insensitive
// substring search over the message text.
var (
	portfolioKeywords = []string{"portfolio", "allocation", "rebalance"}
	fetchKeywords     = []string{"http", "fetch", "latest", "price", "news", "market"}
)

type (
	// Options configures an Orchestrator.
	Options struct {
		// Client is the model client used for planning, explanation and the
		// default reasoning path. Required.
		Client model.Client

		// Simulator runs portfolio simulations. Required.
		Simulator tools.Simulator

		// Store persists session traces. Optional; nil disables persistence.
		// Store failures never fail a run.
		Store session.Store

		// ExtraDisclaimers are appended after the fixed advisory disclaimer on
		// every finance-bearing response.
		ExtraDisclaimers []string

		// Logger, Metrics and Tracer default to no-op implementations.
		Logger  telemetry.Logger
		Metrics telemetry.Metrics
		Tracer  telemetry.Tracer
	}

	// Orchestrator sequences the pipeline stages and routes intents. Each run
	// is independent and stateless; the orchestrator is safe for concurrent
	// use.
	Orchestrator struct {
		planner     *Planner
		explainer   *Explainer
		client      model.Client
		simulator   tools.Simulator
		store       session.Store
		disclaimers []string
		logger      telemetry.Logger
		metrics     telemetry.Metrics
		tracer      telemetry.Tracer
	}
)

// New constructs an Orchestrator from the options.
func New(opts Options) (*Orchestrator, error) {
	if opts.Client == nil {
		return nil, errors.New("model client is required")
	}
	if opts.Simulator == nil {
		return nil, errors.New("simulator is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = telemetry.NewNoopTracer()
	}
	disclaimers := make([]string, 0, 1+len(opts.ExtraDisclaimers))
	disclaimers = append(disclaimers, agent.Disclaimer)
	disclaimers = append(disclaimers, opts.ExtraDisclaimers...)
	return &Orchestrator{
		planner:     NewPlanner(opts.Client, logger),
		explainer:   NewExplainer(opts.Client, logger),
		client:      opts.Client,
		simulator:   opts.Simulator,
		store:       opts.Store,
		disclaimers: disclaimers,
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
	}, nil
}

// Handle is the main entry point. Portfolio-intent messages run the full
// pipeline; data-fetch intent produces a tool_call announcement without
// executing anything; everything else gets a plain model reply.
func (o *Orchestrator) Handle(ctx context.Context, input agent.Input) (agent.Output, error) {
	text := strings.ToLower(input.Message.Text)
	switch {
	case containsAny(text, portfolioKeywords):
		o.trace(ctx, input.SessionID, "", "route", map[string]any{"intent": "pipeline"})
		o.metrics.IncCounter("pipeline_routed_total", 1, "intent", "pipeline")
		return o.Run(ctx, input)
	case containsAny(text, fetchKeywords):
		o.trace(ctx, input.SessionID, "", "route", map[string]any{"intent": "tool_call"})
		o.metrics.IncCounter("pipeline_routed_total", 1, "intent", "tool_call")
		return agent.BuildToolCall(
			tools.HTTPFetch.String(),
			map[string]any{"url": "https://example.com"},
			"Calling tool 'http_fetch'",
		)
	default:
		o.trace(ctx, input.SessionID, "", "route", map[string]any{"intent": "reason"})
		o.metrics.IncCounter("pipeline_routed_total", 1, "intent", "reason")
		return o.reason(ctx, input)
	}
}

// Run executes one pipeline run: PLAN, SIMULATE, EXPLAIN, COMPOSE. An aborted
// run yields no output, only the error.
func (o *Orchestrator) Run(ctx context.Context, input agent.Input) (agent.Output, error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx, span := o.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	req := o.planner.Plan(ctx, input)
	o.trace(ctx, input.SessionID, runID, "plan", map[string]any{
		"risk_profile":  req.RiskProfile,
		"horizon_years": req.HorizonYears,
	})

	result, err := o.simulator.RunSimulation(ctx, req)
	if err != nil {
		o.metrics.IncCounter("pipeline_runs_total", 1, "outcome", "aborted")
		span.RecordError(err)
		return agent.Output{}, err
	}
	if descs := schema.Validate(result, schema.SimResult); len(descs) > 0 {
		failure := &SimulationContractFailure{Descriptors: descs}
		o.logger.Error(ctx, "simulation result rejected", "run_id", runID, "err", failure)
		o.metrics.IncCounter("pipeline_runs_total", 1, "outcome", "aborted")
		span.RecordError(failure)
		return agent.Output{}, failure
	}
	o.trace(ctx, input.SessionID, runID, "simulate", nil)

	explanation := o.explainer.Explain(ctx, req, result)
	o.trace(ctx, input.SessionID, runID, "explain", nil)

	out, err := agent.BuildAdvice(agent.AdviceParams{
		Text: explanation,
		Metadata: agent.AdviceMetadata{
			RiskProfile: req.RiskProfile,
			Disclaimers: o.disclaimers,
		},
		Analytics: result,
		Trace: []agent.TraceStep{
			{Step: "plan", Observation: "simulation request prepared"},
			{Step: "simulate", Observation: "simulation completed"},
			{Step: "explain", Observation: "explanation generated"},
		},
		RunID:     runID,
		LatencyMS: float64(time.Since(start)) / float64(time.Millisecond),
	})
	if err != nil {
		return agent.Output{}, err
	}
	o.trace(ctx, input.SessionID, runID, "compose", nil)
	o.metrics.IncCounter("pipeline_runs_total", 1, "outcome", "ok")
	o.metrics.RecordTimer("pipeline_run_duration", time.Since(start))
	return out, nil
}

// reason asks the model to answer directly, serializing the whole input as
// the user turn so the model sees every field. A model failure becomes an
// error-status output rather than an aborted run.
func (o *Orchestrator) reason(ctx context.Context, input agent.Input) (agent.Output, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return agent.Output{}, err
	}
	resp, err := o.client.Complete(ctx, model.Request{
		Messages: []model.Message{
			{Role: model.RoleSystem, Content: reasonInstruction},
			{Role: model.RoleUser, Content: string(payload)},
		},
	})
	if err != nil {
		o.logger.Error(ctx, "reasoning model call failed", "err", err)
		return agent.BuildErrorMessage("model error: " + err.Error())
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		text = "No response text."
	}
	return agent.BuildOKMessage(text, agent.FormatText)
}

// trace appends a session trace event best-effort. Runs without a session id
// are not persisted, and store failures are logged but never surfaced.
func (o *Orchestrator) trace(ctx context.Context, sessionID, runID, stage string, detail map[string]any) {
	if o.store == nil || sessionID == "" {
		return
	}
	event := session.TraceEvent{
		SessionID: sessionID,
		RunID:     runID,
		Stage:     stage,
		Detail:    detail,
		At:        time.Now().UTC(),
	}
	if err := o.store.AppendTrace(ctx, event); err != nil {
		o.logger.Warn(ctx, "trace persistence failed", "session_id", sessionID, "stage", stage, "err", err)
	}
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
