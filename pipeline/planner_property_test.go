package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"finsense/agent"
	"finsense/model/stub"
	"finsense/schema"
)

// genInputContext generates arbitrary caller contexts, including empty and
// partially populated ones.
func genInputContext() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf("", agent.RiskConservative, agent.RiskBalanced, agent.RiskModerate, agent.RiskAggressive),
		gen.IntRange(-5, 40),
		gen.IntRange(0, 1<<20),
	).Map(func(vals []any) agent.InputContext {
		return agent.InputContext{
			RiskProfile:  vals[0].(string),
			HorizonYears: vals[1].(int),
			DemoSeed:     vals[2].(int),
		}
	})
}

// TestHintsProperty verifies the deterministic hint fallback: for any caller
// context the derived simulation request is contract-valid, with risk profile
// defaulting to "balanced" and the horizon to 5 years.
func TestHintsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("hints are always contract-valid", prop.ForAll(
		func(ctx agent.InputContext) bool {
			req := Hints(agent.Input{Context: ctx})
			return len(schema.Validate(req, schema.SimRequest)) == 0
		},
		genInputContext(),
	))

	properties.Property("absent risk profile defaults to balanced", prop.ForAll(
		func(horizon int) bool {
			req := Hints(agent.Input{Context: agent.InputContext{HorizonYears: horizon}})
			return req.RiskProfile == agent.RiskBalanced
		},
		gen.IntRange(-5, 40),
	))

	properties.Property("non-positive horizon defaults to 5", prop.ForAll(
		func(horizon int) bool {
			req := Hints(agent.Input{Context: agent.InputContext{HorizonYears: horizon}})
			return req.HorizonYears == 5
		},
		gen.IntRange(-40, 0),
	))

	properties.Property("explicit context passes through unchanged", prop.ForAll(
		func(ctx agent.InputContext) bool {
			req := Hints(agent.Input{Context: ctx})
			if ctx.RiskProfile != "" && req.RiskProfile != ctx.RiskProfile {
				return false
			}
			if ctx.HorizonYears > 0 && req.HorizonYears != ctx.HorizonYears {
				return false
			}
			if ctx.DemoSeed != 0 && (req.Context == nil || req.Context.DemoSeed != ctx.DemoSeed) {
				return false
			}
			return true
		},
		genInputContext(),
	))

	properties.TestingRun(t)
}

// sameRequest compares requests by value, following the context pointer.
func sameRequest(a, b agent.SimRequest) bool {
	if a.RiskProfile != b.RiskProfile || a.HorizonYears != b.HorizonYears || a.Age != b.Age {
		return false
	}
	if (a.Context == nil) != (b.Context == nil) {
		return false
	}
	return a.Context == nil || *a.Context == *b.Context
}

// TestPlanFallbackProperty verifies that a failing or malformed model reply
// never changes the planned request: Plan degrades to exactly the hints.
func TestPlanFallbackProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("model error falls back to hints", prop.ForAll(
		func(ctx agent.InputContext) bool {
			input := agent.Input{Message: agent.InputMessage{Text: "portfolio"}, Context: ctx}
			planner := NewPlanner(stub.NewError(errors.New("unavailable")), nil)
			return sameRequest(planner.Plan(context.Background(), input), Hints(input))
		},
		genInputContext(),
	))

	properties.Property("non-JSON reply falls back to hints", prop.ForAll(
		func(ctx agent.InputContext, reply string) bool {
			input := agent.Input{Message: agent.InputMessage{Text: "portfolio"}, Context: ctx}
			planner := NewPlanner(stub.NewText(reply), nil)
			return sameRequest(planner.Plan(context.Background(), input), Hints(input))
		},
		genInputContext(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
