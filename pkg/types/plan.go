package types

// ExecutionPlan is an ordered sequence of stages. Each stage is a set of step
// ids with no dependency edges between them; all steps in a stage may run
// concurrently, and no ordering within a stage may be relied upon.
type ExecutionPlan struct {
	Stages [][]string `json:"stages"`
}

// StageCount returns the number of stages in the plan.
func (p *ExecutionPlan) StageCount() int {
	return len(p.Stages)
}

// StepCount returns the total number of steps across all stages.
func (p *ExecutionPlan) StepCount() int {
	n := 0
	for _, stage := range p.Stages {
		n += len(stage)
	}
	return n
}

// StageOf returns the index of the stage containing the given step id,
// or -1 if the plan does not include it.
func (p *ExecutionPlan) StageOf(stepID string) int {
	for i, stage := range p.Stages {
		for _, id := range stage {
			if id == stepID {
				return i
			}
		}
	}
	return -1
}
