// Package plan computes staged execution orders from step dependency graphs.
package plan

import (
	"sort"

	"yqhp/automation-engine/pkg/types"
)

// Resolve orders steps into stages using Kahn's algorithm. Each stage contains
// every step whose dependencies all sit in earlier stages, so all steps within
// a stage may run concurrently. If steps remain but no stage can be formed,
// the graph is cyclic and the error names the remaining step ids.
//
// Stage membership is sorted by id for stable output; callers must not treat
// that as an execution order within the stage.
func Resolve(steps []types.Step) (*types.ExecutionPlan, error) {
	pending := make(map[string][]string, len(steps))
	for i := range steps {
		pending[steps[i].ID] = steps[i].DependsOn
	}

	placed := make(map[string]bool, len(steps))
	p := &types.ExecutionPlan{}

	for len(pending) > 0 {
		var stage []string
		for id, deps := range pending {
			ready := true
			for _, dep := range deps {
				if !placed[dep] {
					ready = false
					break
				}
			}
			if ready {
				stage = append(stage, id)
			}
		}

		if len(stage) == 0 {
			return nil, &types.CyclicDependencyError{StepIDs: cycleMembers(pending, placed)}
		}

		sort.Strings(stage)
		for _, id := range stage {
			placed[id] = true
			delete(pending, id)
		}
		p.Stages = append(p.Stages, stage)
	}

	return p, nil
}

// cycleMembers narrows the unplaceable remainder to the steps actually on a
// cycle by repeatedly peeling steps that no other remaining step depends on.
// Downstream dependents of a cycle peel away; the cycle itself cannot.
func cycleMembers(pending map[string][]string, placed map[string]bool) []string {
	remaining := make(map[string][]string, len(pending))
	for id, deps := range pending {
		var kept []string
		for _, dep := range deps {
			if _, ok := pending[dep]; ok && !placed[dep] {
				kept = append(kept, dep)
			}
		}
		remaining[id] = kept
	}

	for {
		dependedOn := make(map[string]bool, len(remaining))
		for _, deps := range remaining {
			for _, dep := range deps {
				dependedOn[dep] = true
			}
		}
		peeled := false
		for id := range remaining {
			if !dependedOn[id] {
				delete(remaining, id)
				peeled = true
			}
		}
		if !peeled || len(remaining) == 0 {
			break
		}
	}

	// Peeling can empty the map only if the remainder was not truly cyclic;
	// fall back to everything unplaceable rather than an empty error.
	source := remaining
	if len(source) == 0 {
		source = pending
	}
	ids := make([]string, 0, len(source))
	for id := range source {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
