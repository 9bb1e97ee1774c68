// Package stats samples kernel introspection gauges on a virtual-time
// schedule. It is a consumer of the kernel's public API, the shape any
// external statistics layer takes: a sampling process waits on timeouts
// and reads read-only gauges (resource counts, container levels, store
// sizes) between events.
package stats

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/simkern/simkern/sim"
)

// Gauge reads one introspection value, e.g.:
//
//	func() float64 { return float64(machines.Count()) }
type Gauge func() float64

// Sample is a single observation of a gauge.
type Sample struct {
	Time  float64
	Value float64
}

// Sampler periodically observes a named gauge over virtual time.
type Sampler struct {
	Name    string
	Period  float64
	Samples []Sample
}

// NewSampler creates a sampler reading the gauge every period units of
// virtual time. A non-positive period panics.
func NewSampler(name string, period float64) *Sampler {
	if period <= 0 {
		panic(fmt.Sprintf("stats: period must be positive, got %v", period))
	}
	return &Sampler{Name: name, Period: period}
}

// Start registers the sampling process on env: it observes the gauge at
// the current time and then every Period, up to and including horizon.
// The returned process completes with the number of samples taken.
func (s *Sampler) Start(env *sim.Environment, gauge Gauge, horizon float64) *sim.Process {
	return env.Process(func(p *sim.Process) (any, error) {
		for {
			s.Samples = append(s.Samples, Sample{Time: env.Now(), Value: gauge()})
			if env.Now()+s.Period > horizon {
				return len(s.Samples), nil
			}
			if _, err := p.Wait(env.Timeout(s.Period)); err != nil {
				return len(s.Samples), err
			}
		}
	})
}

// Summary aggregates a sampler's observations.
type Summary struct {
	Name  string  `yaml:"name"`
	Count int     `yaml:"count"`
	Mean  float64 `yaml:"mean"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
	P50   float64 `yaml:"p50"`
	P95   float64 `yaml:"p95"`
}

// Summarize computes aggregate statistics over the collected samples.
// Safe for an empty sampler (returns zero-value fields).
func (s *Sampler) Summarize() *Summary {
	summary := &Summary{Name: s.Name, Count: len(s.Samples)}
	if len(s.Samples) == 0 {
		return summary
	}
	values := make([]float64, len(s.Samples))
	for i, sample := range s.Samples {
		values[i] = sample.Value
	}
	summary.Mean = stat.Mean(values, nil)
	sort.Float64s(values)
	summary.Min = values[0]
	summary.Max = values[len(values)-1]
	summary.P50 = stat.Quantile(0.5, stat.Empirical, values, nil)
	summary.P95 = stat.Quantile(0.95, stat.Empirical, values, nil)
	return summary
}
