// Package tools defines the tool abstractions the pipeline can invoke:
// identifiers for routed tool calls and the portfolio simulator contract.
package tools

import (
	"context"

	"finsense/agent"
)

// Ident identifies a tool in routed tool_call envelopes and trace steps.
type Ident string

// String returns the tool identifier as a string.
func (i Ident) String() string { return string(i) }

// Well-known tool identifiers.
const (
	// HTTPFetch is the external data retrieval tool surfaced to callers via
	// tool_call envelopes. The pipeline never executes it directly.
	HTTPFetch Ident = "http_fetch"

	// AnalyticsSim is the portfolio simulation tool executed inline by the
	// pipeline.
	AnalyticsSim Ident = "analytics_sim"
)

// Simulator runs a portfolio simulation for a validated request. The returned
// result must satisfy the simulation result contract; the pipeline validates
// it and aborts the run when it does not.
type Simulator interface {
	RunSimulation(ctx context.Context, req agent.SimRequest) (agent.SimResult, error)
}
