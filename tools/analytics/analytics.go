// Package analytics implements the deterministic portfolio simulator. It maps
// a risk profile to a preset allocation and returns placeholder KPIs, standing
// in for a real Monte Carlo engine behind the same contract.
package analytics

import (
	"context"
	"strings"

	"finsense/agent"
)

// Simulator is the deterministic stand-in for the portfolio simulation
// engine. The zero value is ready to use.
type Simulator struct{}

// New returns a ready-to-use Simulator.
func New() *Simulator {
	return &Simulator{}
}

// allocation preset per risk profile. Moderate shares the balanced preset.
var presets = map[string]map[string]float64{
	agent.RiskConservative: {"equities": 0.35, "bonds": 0.55, "cash": 0.10},
	agent.RiskBalanced:     {"equities": 0.55, "bonds": 0.40, "cash": 0.05},
	agent.RiskModerate:     {"equities": 0.55, "bonds": 0.40, "cash": 0.05},
	agent.RiskAggressive:   {"equities": 0.75, "bonds": 0.20, "cash": 0.05},
}

// RunSimulation maps the request's risk profile to a preset allocation and
// fixed KPI placeholders. Unknown or empty profiles fall back to the balanced
// preset. The demo seed, when present, is echoed in the result meta so demo
// runs stay reproducible.
func (s *Simulator) RunSimulation(_ context.Context, req agent.SimRequest) (agent.SimResult, error) {
	profile := strings.ToLower(req.RiskProfile)
	preset, ok := presets[profile]
	if !ok {
		preset = presets[agent.RiskBalanced]
	}
	allocation := map[string]any{
		"equities": preset["equities"],
		"bonds":    preset["bonds"],
		"cash":     preset["cash"],
	}
	meta := map[string]any{"source": "stub"}
	if req.Context != nil && req.Context.DemoSeed != 0 {
		meta["seed"] = req.Context.DemoSeed
	}
	return agent.SimResult{
		"proposed_allocation": allocation,
		"kpis": map[string]any{
			"exp_return_1y": 0.06,
			"exp_vol_1y":    0.11,
			"max_drawdown":  0.17,
		},
		"meta": meta,
	}, nil
}
