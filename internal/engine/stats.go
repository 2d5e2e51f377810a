package engine

import (
	"github.com/HdrHistogram/hdrhistogram-go"

	"yqhp/automation-engine/pkg/types"
)

// histogram bounds: 1ms to 1h, 3 significant figures.
const (
	statsMinMs   = 1
	statsMaxMs   = 3_600_000
	statsSigFigs = 3
)

// ComputeStats aggregates step durations into run-level statistics. Only
// steps that actually executed count; blocked, skipped and cancelled steps
// carry no meaningful duration.
func ComputeStats(results map[string]*types.StepOutcome) *types.DurationStats {
	h := hdrhistogram.New(statsMinMs, statsMaxMs, statsSigFigs)
	count := 0
	var sumMs float64

	for _, o := range results {
		switch o.Status {
		case types.StepStatusSuccess, types.StepStatusFailed, types.StepStatusTimeout:
		default:
			continue
		}
		ms := o.DurationMs()
		count++
		sumMs += float64(ms)
		if ms < statsMinMs {
			ms = statsMinMs
		} else if ms > statsMaxMs {
			ms = statsMaxMs
		}
		// In range after clamping, so the error return is irrelevant.
		_ = h.RecordValue(ms)
	}

	if count == 0 {
		return &types.DurationStats{}
	}
	return &types.DurationStats{
		Count: count,
		AvgMs: sumMs / float64(count),
		P95Ms: h.ValueAtQuantile(95),
		MaxMs: h.Max(),
	}
}
