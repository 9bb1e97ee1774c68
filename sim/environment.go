package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Delivery describes one processed schedule entry. Environments report each
// delivery to an optional observer; recording them yields a total order
// that two runs of the same scenario must reproduce exactly.
type Delivery struct {
	Time    float64
	EventID int64
	Label   string
}

// Environment owns the virtual clock and the schedule, and drives the
// simulation from event to event. Exactly one Environment exists per run;
// create one at run start and discard it at run end.
//
// Environment is not safe for concurrent use. All simulated concurrency is
// interleaving within Step; no locking is needed because nothing outside
// Step mutates kernel state.
type Environment struct {
	now      float64
	eventSeq int64
	schedSeq int64
	queue    eventQueue
	active   *Process
	observer func(Delivery)
}

// NewEnvironment creates an empty environment with the clock at 0.
func NewEnvironment() *Environment {
	return &Environment{queue: make(eventQueue, 0)}
}

// Now returns the current virtual time.
func (env *Environment) Now() float64 { return env.now }

// SetObserver installs a delivery observer called once per processed entry,
// in processing order. Pass nil to remove it.
func (env *Environment) SetObserver(fn func(Delivery)) { env.observer = fn }

// Active returns the process currently being resumed, or nil when the
// environment itself is executing. Resource requests use it to attribute
// ownership for preemption.
func (env *Environment) Active() *Process { return env.active }

// Timeout returns an event that triggers automatically after delay units of
// virtual time. A negative delay is a programming error and panics with an
// *InvalidDelayError.
func (env *Environment) Timeout(delay float64) *Event {
	return env.TimeoutValue(delay, nil)
}

// TimeoutValue is Timeout with a success value carried by the event.
func (env *Environment) TimeoutValue(delay float64, value any) *Event {
	if delay < 0 {
		panic(&InvalidDelayError{Delay: delay})
	}
	ev := env.newEvent("timeout")
	ev.value = value
	ev.state = StateTriggered
	env.scheduleEntry(ev, PriorityNormal, delay)
	return ev
}

// Schedule inserts an already-triggered event into the schedule. It is the
// insertion primitive underneath every kernel factory; most callers want
// Timeout, Event or Process instead.
func (env *Environment) Schedule(ev *Event, priority EventPriority, delay float64) {
	if delay < 0 {
		panic(&InvalidDelayError{Delay: delay})
	}
	env.scheduleEntry(ev, priority, delay)
}

func (env *Environment) scheduleEntry(ev *Event, priority EventPriority, delay float64) {
	env.schedSeq++
	env.queue.push(&entry{
		time:     env.now + delay,
		priority: priority,
		seq:      env.schedSeq,
		ev:       ev,
	})
}

// Peek returns the due time of the next schedule entry without popping it,
// or +Inf when the schedule is empty.
func (env *Environment) Peek() float64 {
	if len(env.queue) == 0 {
		return math.Inf(1)
	}
	return env.queue[0].time
}

// Step pops the entry with the smallest (time, priority, sequence), advances
// the clock to its time, and processes the event: callbacks run in
// registration order and the event becomes processed. Callbacks may
// schedule further entries; zero-delay entries land at the current time
// with a higher sequence number and are handled by later Step calls, so
// same-instant work always makes forward progress.
//
// Step returns ErrEmptySchedule when nothing is left, and surfaces any
// failure outcome that no waiter defused.
func (env *Environment) Step() error {
	if len(env.queue) == 0 {
		return ErrEmptySchedule
	}
	ent := env.queue.pop()
	env.now = ent.time
	ev := ent.ev
	logrus.Debugf("[t %012.6f] processing %s #%d", env.now, ev.label, ev.id)

	if ev.state == StatePending {
		ev.state = StateTriggered
	}
	callbacks := ev.callbacks
	ev.callbacks = nil
	ev.state = StateProcessed
	for _, fn := range callbacks {
		fn(ev)
	}

	if env.observer != nil {
		env.observer(Delivery{Time: ent.time, EventID: ev.id, Label: ev.label})
	}
	if ev.err != nil && !ev.defused {
		return fmt.Errorf("unhandled failure of %s #%d: %w", ev.label, ev.id, ev.err)
	}
	return nil
}

// Run steps until the schedule drains, surfacing the first unhandled
// failure if one occurs.
func (env *Environment) Run() error {
	for len(env.queue) > 0 {
		if err := env.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunUntil steps while the next entry is due strictly before until, leaving
// entries at or past until unexecuted, then advances the clock to until.
func (env *Environment) RunUntil(until float64) error {
	if until < env.now {
		return fmt.Errorf("until (%v) must not be before the current time (%v)", until, env.now)
	}
	for len(env.queue) > 0 && env.queue[0].time < until {
		if err := env.Step(); err != nil {
			return err
		}
	}
	if until > env.now {
		env.now = until
	}
	return nil
}

// RunUntilDone steps until ev is processed and returns its outcome; a
// failure outcome of ev is returned as the error. If the schedule drains
// while ev is still pending, nothing in the simulation can ever complete
// it and RunUntilDone returns a *DeadlockError.
func (env *Environment) RunUntilDone(ev *Event) (any, error) {
	ev.Defuse()
	for !ev.Processed() {
		if err := env.Step(); err != nil {
			if errors.Is(err, ErrEmptySchedule) {
				return nil, &DeadlockError{Waiting: ev}
			}
			return nil, err
		}
	}
	return ev.value, ev.err
}
