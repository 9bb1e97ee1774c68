// Error kinds surfaced by the kernel. Misuse of the API (double trigger,
// double release, non-positive capacity) panics instead; those are
// programming errors, not simulation outcomes.

package sim

import (
	"errors"
	"fmt"
)

// ErrEmptySchedule is returned by Step when no events remain.
var ErrEmptySchedule = errors.New("schedule is empty")

// ErrAlreadyProcessed is returned when interrupting a process whose body
// has already finished.
var ErrAlreadyProcessed = errors.New("process has already finished")

// InvalidDelayError reports a negative delay passed to Timeout or Schedule.
type InvalidDelayError struct {
	Delay float64
}

func (e *InvalidDelayError) Error() string {
	return fmt.Sprintf("negative delay %v", e.Delay)
}

// CapacityError reports an unusable capacity or amount on a contention
// primitive.
type CapacityError struct {
	Capacity float64
	Reason   string
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("invalid capacity %v: %s", e.Capacity, e.Reason)
}

// DeadlockError is returned by RunUntilDone when the schedule drains while
// the awaited event is still pending: nothing left in the simulation can
// ever complete it.
type DeadlockError struct {
	Waiting *Event
}

func (e *DeadlockError) Error() string {
	return fmt.Sprintf("deadlock: schedule empty while %s #%d is still pending", e.Waiting.Label(), e.Waiting.ID())
}

// Interrupt is the failure delivered at a process's suspension point by
// Process.Interrupt or by resource preemption. Cause carries whatever the
// interrupter supplied; for preemption it is a *Preempted.
type Interrupt struct {
	Cause any
}

func (i *Interrupt) Error() string {
	return fmt.Sprintf("interrupt(%v)", i.Cause)
}

// AsInterrupt unwraps err as an *Interrupt, if it is one.
func AsInterrupt(err error) (*Interrupt, bool) {
	var i *Interrupt
	if errors.As(err, &i) {
		return i, true
	}
	return nil, false
}

// Preempted is the cause attached to the Interrupt a resource user receives
// when a higher-priority request evicts it from a PreemptiveResource.
type Preempted struct {
	// By is the request that displaced the interrupted user.
	By *Request
	// UsageSince is the virtual time at which the evicted user was granted
	// the resource, for usage attribution.
	UsageSince float64
}

func (p *Preempted) String() string {
	return fmt.Sprintf("preempted by request #%d (in use since %v)", p.By.ID(), p.UsageSince)
}
