package agent

import (
	"fmt"
	"strings"

	"finsense/schema"
)

// ContractViolation reports that an internally constructed Output failed its
// own contract validation. It is a programmer error: correct callers of the
// builders in this package can never observe it, and it must never be
// tolerated silently.
type ContractViolation struct {
	// Descriptors lists the individual schema violations.
	Descriptors []schema.ErrorDescriptor
}

// Error returns the violation as a single diagnostic string.
func (e *ContractViolation) Error() string {
	msgs := make([]string, len(e.Descriptors))
	for i, d := range e.Descriptors {
		msgs[i] = d.String()
	}
	return fmt.Sprintf("agent output violates contract: %s", strings.Join(msgs, "; "))
}

// BuildOKMessage assembles a plain "ok" output carrying a single assistant
// message. An empty format defaults to markdown. The assembled payload is
// validated against the agent output contract before it is returned; a
// non-nil error is always a *ContractViolation.
func BuildOKMessage(text, format string) (Output, error) {
	if format == "" {
		format = FormatMarkdown
	}
	out := Output{
		Status:   StatusOK,
		Messages: []OutputMessage{{Role: RoleAssistant, Content: text, Format: format}},
	}
	if err := checkOutput(out); err != nil {
		return Output{}, err
	}
	return out, nil
}

// BuildToolCall assembles a "tool_call" output announcing a tool invocation.
// The system note becomes a text-format system message and the trace records
// the planning step that selected the tool. The assembled payload is validated
// against the agent output contract before it is returned; a non-nil error is
// always a *ContractViolation.
func BuildToolCall(name string, args map[string]any, systemNote string) (Output, error) {
	out := Output{
		Status:   StatusToolCall,
		Messages: []OutputMessage{{Role: RoleSystem, Content: systemNote, Format: FormatText}},
		Tool:     &ToolUse{Name: name, Args: args},
		Trace:    []TraceStep{{Step: "plan", Observation: "tool selected"}},
	}
	if err := checkOutput(out); err != nil {
		return Output{}, err
	}
	return out, nil
}

// BuildErrorMessage assembles an "error" output carrying a single text-format
// system message. The assembled payload is validated against the agent output
// contract before it is returned; a non-nil error is always a
// *ContractViolation.
func BuildErrorMessage(note string) (Output, error) {
	out := Output{
		Status:   StatusError,
		Messages: []OutputMessage{{Role: RoleSystem, Content: note, Format: FormatText}},
	}
	if err := checkOutput(out); err != nil {
		return Output{}, err
	}
	return out, nil
}

// AdviceParams collects the pieces the pipeline composes into its final
// advisory output.
type AdviceParams struct {
	// Text is the natural-language explanation.
	Text string

	// Metadata qualifies the advice. Disclaimers must be non-empty.
	Metadata AdviceMetadata

	// Analytics is the validated simulation result, embedded verbatim.
	Analytics SimResult

	// Trace optionally records the pipeline steps taken.
	Trace []TraceStep

	// RunID identifies the pipeline run.
	RunID string

	// LatencyMS is the run duration in milliseconds.
	LatencyMS float64
}

// BuildAdvice assembles the pipeline's final "ok" output: a markdown assistant
// message carrying the explanation, advice metadata, and the simulation result
// embedded verbatim. The assembled payload is validated against the agent
// output contract before it is returned; a non-nil error is always a
// *ContractViolation.
func BuildAdvice(p AdviceParams) (Output, error) {
	out := Output{
		Status:         StatusOK,
		Messages:       []OutputMessage{{Role: RoleAssistant, Content: p.Text, Format: FormatMarkdown}},
		AdviceMetadata: &p.Metadata,
		Analytics:      p.Analytics,
		Trace:          p.Trace,
		RunID:          p.RunID,
		LatencyMS:      p.LatencyMS,
	}
	if err := checkOutput(out); err != nil {
		return Output{}, err
	}
	return out, nil
}

// checkOutput validates out against the agent output contract and converts
// violations into a *ContractViolation.
func checkOutput(out Output) error {
	if descs := schema.Validate(out, schema.AgentOutput); len(descs) > 0 {
		return &ContractViolation{Descriptors: descs}
	}
	return nil
}
