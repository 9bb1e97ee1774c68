// Package trace records the total order of event deliveries produced by a
// simulation run. Because the kernel is deterministic, two runs of the
// same seeded scenario must yield byte-identical traces; Equal makes that
// property directly testable, and Summarize aggregates a trace for
// reporting. This package stores pure data and has no dependency on sim/ —
// callers bridge the two with an observer closure.
package trace

import "github.com/google/uuid"

// Record captures a single event delivery.
type Record struct {
	Time    float64
	EventID int64
	Label   string
}

// Recorder collects delivery records for one simulation run.
type Recorder struct {
	// RunID tags the trace so summaries from different runs can be told
	// apart after the fact.
	RunID      string
	Deliveries []Record
}

// NewRecorder creates a Recorder with a fresh run identity.
func NewRecorder() *Recorder {
	return &Recorder{
		RunID:      uuid.NewString(),
		Deliveries: make([]Record, 0),
	}
}

// Observe appends one delivery record. Wire it to an environment with:
//
//	env.SetObserver(func(d sim.Delivery) {
//	    rec.Observe(d.Time, d.EventID, d.Label)
//	})
func (r *Recorder) Observe(time float64, eventID int64, label string) {
	r.Deliveries = append(r.Deliveries, Record{Time: time, EventID: eventID, Label: label})
}

// Len returns the number of recorded deliveries.
func (r *Recorder) Len() int { return len(r.Deliveries) }

// Equal reports whether two traces describe the same ordered sequence of
// (time, event identity) deliveries. Run identities are ignored.
func Equal(a, b *Recorder) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Deliveries) != len(b.Deliveries) {
		return false
	}
	for i, rec := range a.Deliveries {
		other := b.Deliveries[i]
		if rec.Time != other.Time || rec.EventID != other.EventID || rec.Label != other.Label {
			return false
		}
	}
	return true
}
