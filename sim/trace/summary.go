package trace

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary aggregates statistics from a Recorder.
type Summary struct {
	RunID      string
	Deliveries int
	Span       float64 // last delivery time - first delivery time
	// Inter-delivery gap statistics over consecutive records.
	MeanGap float64
	P50Gap  float64
	P95Gap  float64
	MaxGap  float64
	// LabelCounts maps event label → number of deliveries.
	LabelCounts map[string]int
}

// Summarize computes aggregate statistics from a trace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(r *Recorder) *Summary {
	summary := &Summary{LabelCounts: make(map[string]int)}
	if r == nil || len(r.Deliveries) == 0 {
		return summary
	}

	summary.RunID = r.RunID
	summary.Deliveries = len(r.Deliveries)
	first := r.Deliveries[0].Time
	last := r.Deliveries[len(r.Deliveries)-1].Time
	summary.Span = last - first

	for _, rec := range r.Deliveries {
		summary.LabelCounts[rec.Label]++
	}

	if len(r.Deliveries) < 2 {
		return summary
	}
	gaps := make([]float64, 0, len(r.Deliveries)-1)
	for i := 1; i < len(r.Deliveries); i++ {
		gaps = append(gaps, r.Deliveries[i].Time-r.Deliveries[i-1].Time)
	}
	summary.MeanGap = stat.Mean(gaps, nil)
	sort.Float64s(gaps)
	summary.P50Gap = stat.Quantile(0.5, stat.Empirical, gaps, nil)
	summary.P95Gap = stat.Quantile(0.95, stat.Empirical, gaps, nil)
	summary.MaxGap = gaps[len(gaps)-1]
	return summary
}
