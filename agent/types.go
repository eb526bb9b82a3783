// Package agent defines the contract data types exchanged across the system
// boundary (agent input and output) and across internal stage boundaries
// (simulation request and result), together with the convenience constructors
// that guarantee every produced output conforms to the agent output contract.
package agent

type (
	// Input is the inbound payload accepted from callers. It is immutable and
	// consumed once per pipeline run.
	Input struct {
		// SessionID optionally associates the run with a conversation session
		// for trace persistence. Empty disables persistence.
		SessionID string `json:"session_id,omitempty"`

		// Message carries the free-text user request.
		Message InputMessage `json:"message"`

		// Context carries structured hints provided by the caller.
		Context InputContext `json:"context,omitempty"`
	}

	// InputMessage is the user message portion of an Input.
	InputMessage struct {
		// Text is the free-text user request.
		Text string `json:"text"`
	}

	// InputContext carries optional structured hints the planner falls back to
	// when the model cannot produce a valid simulation request.
	InputContext struct {
		// RiskProfile optionally names the caller's risk appetite. One of
		// "conservative", "balanced", "moderate" or "aggressive" when set.
		RiskProfile string `json:"risk_profile,omitempty"`

		// HorizonYears optionally states the investment horizon in years.
		HorizonYears int `json:"horizon_years,omitempty"`

		// DemoSeed optionally pins the simulator to a deterministic seed.
		DemoSeed int `json:"demo_seed,omitempty"`
	}

	// SimRequest is the structured handoff from the planner to the simulation
	// capability. It must conform to the SimRequest contract before it crosses
	// that boundary.
	SimRequest struct {
		// RiskProfile is one of the fixed risk enumeration values.
		RiskProfile string `json:"risk_profile"`

		// HorizonYears is the positive investment horizon in years.
		HorizonYears int `json:"horizon_years"`

		// Age optionally carries the investor age when the planner extracted it.
		Age int `json:"age,omitempty"`

		// Context carries simulator options such as the deterministic seed.
		Context *SimContext `json:"context,omitempty"`
	}

	// SimContext holds simulator options attached to a SimRequest.
	SimContext struct {
		// DemoSeed pins the simulator to a deterministic seed when non-zero.
		DemoSeed int `json:"demo_seed,omitempty"`
	}

	// SimResult is the opaque analytics payload produced by the simulation
	// capability. Once validated against the SimResult contract it is treated
	// as immutable: the explainer reads it and the composed output embeds it
	// verbatim, but no stage mutates it.
	SimResult map[string]any

	// Output is the one artifact ever returned to a caller. Every construction
	// path passes through output-contract validation before the value leaves
	// this package.
	Output struct {
		// Status is "ok", "tool_call" or "error".
		Status string `json:"status"`

		// Messages holds at least one message for the caller.
		Messages []OutputMessage `json:"messages"`

		// Tool describes the announced tool invocation when Status is
		// "tool_call".
		Tool *ToolUse `json:"tool,omitempty"`

		// Trace records planning and execution steps. Required non-empty when
		// Status is "tool_call".
		Trace []TraceStep `json:"trace,omitempty"`

		// AdviceMetadata carries the risk profile and disclaimer policy for
		// finance-bearing responses.
		AdviceMetadata *AdviceMetadata `json:"advice_metadata,omitempty"`

		// Analytics embeds the validated simulation result verbatim.
		Analytics SimResult `json:"analytics,omitempty"`

		// RunID uniquely identifies the pipeline run that produced the output.
		RunID string `json:"run_id,omitempty"`

		// LatencyMS reports wall-clock duration of the run in milliseconds.
		LatencyMS float64 `json:"latency_ms,omitempty"`
	}

	// OutputMessage is a single chat-style message in an Output.
	OutputMessage struct {
		// Role is "assistant", "system" or "user".
		Role string `json:"role"`

		// Content is the message text.
		Content string `json:"content"`

		// Format is "markdown" or "text".
		Format string `json:"format,omitempty"`
	}

	// ToolUse announces a tool invocation to the caller. The core never
	// executes the tool; execution belongs to the hosting transport.
	ToolUse struct {
		// Name identifies the tool (e.g. "http_fetch").
		Name string `json:"name"`

		// Args carries the tool arguments.
		Args map[string]any `json:"args,omitempty"`
	}

	// TraceStep records a single planning or execution observation.
	TraceStep struct {
		// Step names the pipeline step (e.g. "plan", "simulate").
		Step string `json:"step"`

		// Observation is a short human-readable note.
		Observation string `json:"observation,omitempty"`
	}

	// AdviceMetadata qualifies a finance-bearing response. Disclaimers must
	// never be empty for finance-context responses.
	AdviceMetadata struct {
		// RiskProfile echoes the validated simulation request's risk profile.
		RiskProfile string `json:"risk_profile,omitempty"`

		// Disclaimers lists the mandatory advisory disclaimers.
		Disclaimers []string `json:"disclaimers"`

		// Sources lists data sources backing the advice, when any.
		Sources []string `json:"sources,omitempty"`
	}
)

// Output status values.
const (
	StatusOK       = "ok"
	StatusToolCall = "tool_call"
	StatusError    = "error"
)

// Message roles.
const (
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleUser      = "user"
)

// Message formats.
const (
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// Risk profile enumeration shared by the hint fallback and the simulator.
const (
	RiskConservative = "conservative"
	RiskBalanced     = "balanced"
	RiskModerate     = "moderate"
	RiskAggressive   = "aggressive"
)

// Disclaimer is the fixed advisory disclaimer attached to every
// finance-bearing response.
const Disclaimer = "Educational only, not financial advice."
