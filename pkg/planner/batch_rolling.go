package planner

import (
	"github.com/dd0wney/cluso-patchplan/pkg/infra"
)

// BatchRolling merges consecutive incompatibility components into batches of
// up to BatchSize nodes. A component is never split, so a batch may exceed
// BatchSize when a single component is larger than it.
type BatchRolling struct {
	BatchSize int
}

// NewBatchRolling returns a batch rolling strategy; sizes below 1 fall back
// to DefaultBatchSize when zero and to 1 when negative.
func NewBatchRolling(batchSize int) BatchRolling {
	switch {
	case batchSize == 0:
		batchSize = DefaultBatchSize
	case batchSize < 1:
		batchSize = 1
	}
	return BatchRolling{BatchSize: batchSize}
}

// Name returns the registry name
func (BatchRolling) Name() string { return BatchRollingName }

// Generate builds the merged batches
func (s BatchRolling) Generate(scenario *infra.Scenario, g *infra.Graph) (*infra.Plan, error) {
	size := max(s.BatchSize, 1)
	ids := byPriority(g, g.PatchableIDs())

	b := newStepBuilder(s.Name())
	b.batch(infra.ActionPatch, mergeGroups(incompatibilityBatches(scenario, g, ids), size)...)
	return b.plan(map[string]any{"batch_size": size}), nil
}

// mergeGroups packs consecutive groups into batches, starting a new batch
// whenever the next group would push the current one past size.
func mergeGroups(groups [][]string, size int) [][]string {
	batches := make([][]string, 0)
	current := make([]string, 0)
	for _, group := range groups {
		if len(current) > 0 && len(current)+len(group) > size {
			batches = append(batches, current)
			current = make([]string, 0)
		}
		current = append(current, group...)
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}
