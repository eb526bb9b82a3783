package pipeline

import (
	"fmt"
	"strings"

	"finsense/schema"
)

// SimulationContractFailure reports that the simulator returned a payload
// that fails the simulation result contract. The failure is fatal to the
// pipeline run: a simulation result cannot be synthesized safely, so there is
// no fallback.
type SimulationContractFailure struct {
	// Descriptors lists the individual schema violations.
	Descriptors []schema.ErrorDescriptor
}

// Error returns the failure as a single diagnostic string.
func (e *SimulationContractFailure) Error() string {
	msgs := make([]string, len(e.Descriptors))
	for i, d := range e.Descriptors {
		msgs[i] = d.String()
	}
	return fmt.Sprintf("simulation result violates contract: %s", strings.Join(msgs, "; "))
}
