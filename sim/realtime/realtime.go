// Package realtime paces a simulation against the wall clock.
//
// The wrapper maps every unit of virtual time to Factor seconds of real
// time and sleeps before each step so event batches execute no earlier
// than their wall-clock slot. In strict mode, falling more than one slot
// behind is an error instead of silent drift. Determinism is unaffected:
// the wrapped environment pops events in exactly the same order as an
// unpaced run.
package realtime

import (
	"fmt"
	"math"
	"time"

	"github.com/simkern/simkern/sim"
)

// OverrunError reports that processing a batch of events took longer than
// its allotted real-time slot while running in strict mode.
type OverrunError struct {
	// SimTime is the virtual time of the batch that overran its slot.
	SimTime float64
	// Behind is how far past the slot the wall clock had moved.
	Behind time.Duration
}

func (e *OverrunError) Error() string {
	return fmt.Sprintf("simulation too slow: batch at t=%v finished %v behind its real-time slot", e.SimTime, e.Behind)
}

// Environment wraps a sim.Environment so that Step and the run helpers
// block until each event's wall-clock slot arrives.
type Environment struct {
	*sim.Environment

	factor time.Duration
	strict bool

	realStart time.Time
	simStart  float64
}

// NewEnvironment wraps env, pacing it at factor seconds of wall time per
// unit of virtual time. With strict set, Step fails with an *OverrunError
// whenever event processing cannot keep up with the pace.
func NewEnvironment(env *sim.Environment, factor float64, strict bool) *Environment {
	if factor <= 0 {
		panic(fmt.Sprintf("realtime: factor must be positive, got %v", factor))
	}
	rt := &Environment{
		Environment: env,
		factor:      time.Duration(factor * float64(time.Second)),
		strict:      strict,
	}
	rt.Sync()
	return rt
}

// Sync re-anchors the pacing to the present wall-clock time and the current
// virtual time. Call it after any pause in stepping that should not count
// as an overrun.
func (rt *Environment) Sync() {
	rt.realStart = time.Now()
	rt.simStart = rt.Environment.Now()
}

// deadline returns the wall-clock instant at which virtual time t is due.
func (rt *Environment) deadline(t float64) time.Time {
	return rt.realStart.Add(time.Duration(float64(rt.factor) * (t - rt.simStart)))
}

// Step waits until the next event's wall-clock slot and then processes it.
func (rt *Environment) Step() error {
	next := rt.Environment.Peek()
	if math.IsInf(next, 1) {
		return sim.ErrEmptySchedule
	}
	due := rt.deadline(next)
	behind := time.Since(due)
	if rt.strict && behind > rt.factor {
		return &OverrunError{SimTime: next, Behind: behind}
	}
	if behind < 0 {
		time.Sleep(-behind)
	}
	return rt.Environment.Step()
}

// Run steps at the configured pace until the schedule drains.
func (rt *Environment) Run() error {
	for {
		if err := rt.Step(); err != nil {
			if err == sim.ErrEmptySchedule {
				return nil
			}
			return err
		}
	}
}

// RunUntil steps at the configured pace while the next entry is due
// strictly before until, then waits out the remaining slot so that wall
// time and virtual time stay aligned.
func (rt *Environment) RunUntil(until float64) error {
	for {
		next := rt.Environment.Peek()
		if next >= until {
			break
		}
		if err := rt.Step(); err != nil {
			return err
		}
	}
	if remaining := time.Until(rt.deadline(until)); remaining > 0 {
		time.Sleep(remaining)
	}
	return rt.Environment.RunUntil(until)
}
