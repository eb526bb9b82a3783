package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsense/agent"
	"finsense/schema"
)

func TestRunSimulationPresets(t *testing.T) {
	sim := New()
	ctx := context.Background()

	cases := []struct {
		profile  string
		equities float64
	}{
		{agent.RiskConservative, 0.35},
		{agent.RiskBalanced, 0.55},
		{agent.RiskModerate, 0.55},
		{agent.RiskAggressive, 0.75},
	}
	for _, tc := range cases {
		t.Run(tc.profile, func(t *testing.T) {
			result, err := sim.RunSimulation(ctx, agent.SimRequest{
				RiskProfile:  tc.profile,
				HorizonYears: 5,
			})
			require.NoError(t, err)
			allocation, ok := result["proposed_allocation"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tc.equities, allocation["equities"])
		})
	}
}

func TestRunSimulationUnknownProfileFallsBack(t *testing.T) {
	sim := New()
	result, err := sim.RunSimulation(context.Background(), agent.SimRequest{
		RiskProfile:  "yolo",
		HorizonYears: 5,
	})
	require.NoError(t, err)
	allocation := result["proposed_allocation"].(map[string]any)
	assert.Equal(t, 0.55, allocation["equities"])
}

func TestRunSimulationResultSatisfiesContract(t *testing.T) {
	sim := New()
	result, err := sim.RunSimulation(context.Background(), agent.SimRequest{
		RiskProfile:  agent.RiskBalanced,
		HorizonYears: 10,
		Context:      &agent.SimContext{DemoSeed: 42},
	})
	require.NoError(t, err)
	assert.Empty(t, schema.Validate(result, schema.SimResult))

	meta := result["meta"].(map[string]any)
	assert.Equal(t, 42, meta["seed"])
}

func TestRunSimulationIsDeterministic(t *testing.T) {
	sim := New()
	req := agent.SimRequest{RiskProfile: agent.RiskAggressive, HorizonYears: 20}

	first, err := sim.RunSimulation(context.Background(), req)
	require.NoError(t, err)
	second, err := sim.RunSimulation(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
