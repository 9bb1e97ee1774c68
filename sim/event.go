package sim

import "fmt"

// EventState tracks an event through its one-shot lifecycle.
type EventState int

const (
	// StatePending means the event has not been triggered yet.
	StatePending EventState = iota
	// StateTriggered means the event has an outcome and is scheduled for
	// callback delivery.
	StateTriggered
	// StateProcessed means all callbacks have run. Processed events are
	// never reused.
	StateProcessed
)

func (s EventState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateTriggered:
		return "triggered"
	case StateProcessed:
		return "processed"
	default:
		return fmt.Sprintf("EventState(%d)", int(s))
	}
}

// Event is a one-shot future value. It is created pending, acquires an
// outcome (a success value or a failure) exactly once when triggered, and
// becomes processed after the environment has run its callbacks in
// registration order.
//
// Events are identified by a monotonically increasing creation sequence
// number, which also serves as the final scheduling tie-break.
type Event struct {
	env   *Environment
	id    int64
	label string

	state EventState
	value any
	err   error

	// defused marks a failure as observed by some waiter; undefused
	// failures surface from Step so the kernel never swallows one.
	defused bool

	callbacks []func(*Event)
}

// Event creates a bare, manually triggerable event.
func (env *Environment) Event() *Event {
	return env.newEvent("event")
}

func (env *Environment) newEvent(label string) *Event {
	env.eventSeq++
	return &Event{env: env, id: env.eventSeq, label: label}
}

// ID returns the event's creation sequence number.
func (ev *Event) ID() int64 { return ev.id }

// Label returns a short human-readable kind tag ("timeout", "process",
// "request", ...) used in logs and delivery traces.
func (ev *Event) Label() string { return ev.label }

// State returns the event's lifecycle state.
func (ev *Event) State() EventState { return ev.state }

// Pending reports whether the event has not been triggered yet.
func (ev *Event) Pending() bool { return ev.state == StatePending }

// Triggered reports whether the event has an outcome (it may or may not
// have been processed yet).
func (ev *Event) Triggered() bool { return ev.state != StatePending }

// Processed reports whether all callbacks have run.
func (ev *Event) Processed() bool { return ev.state == StateProcessed }

// Value returns the success value, or nil before the event is triggered or
// after a failure.
func (ev *Event) Value() any { return ev.value }

// Err returns the failure outcome, or nil.
func (ev *Event) Err() error { return ev.err }

// OK reports whether the event triggered with a success value.
func (ev *Event) OK() bool { return ev.Triggered() && ev.err == nil }

// Succeed triggers the event with a success value and schedules its
// callbacks for delivery at the current virtual time. Triggering an event
// twice is a programming error and panics.
func (ev *Event) Succeed(value any) *Event {
	if ev.state != StatePending {
		panic(fmt.Sprintf("%s #%d triggered twice", ev.label, ev.id))
	}
	ev.value = value
	ev.state = StateTriggered
	ev.env.scheduleEntry(ev, PriorityNormal, 0)
	return ev
}

// Fail triggers the event with a failure outcome. The failure propagates to
// anyone waiting on the event; if nothing is waiting it surfaces from the
// run loop. Fail panics on a nil error or on a second trigger.
func (ev *Event) Fail(err error) *Event {
	if err == nil {
		panic(fmt.Sprintf("%s #%d failed with nil error", ev.label, ev.id))
	}
	if ev.state != StatePending {
		panic(fmt.Sprintf("%s #%d triggered twice", ev.label, ev.id))
	}
	ev.err = err
	ev.state = StateTriggered
	ev.env.scheduleEntry(ev, PriorityNormal, 0)
	return ev
}

// Defuse marks the event's eventual failure as handled, so it will not
// surface from the run loop. Waiting on an event defuses it implicitly.
func (ev *Event) Defuse() { ev.defused = true }

// addCallback registers fn to run when the event is processed. Callbacks
// run in registration order, at most once.
func (ev *Event) addCallback(fn func(*Event)) {
	if ev.state == StateProcessed {
		panic(fmt.Sprintf("callback added to processed %s #%d", ev.label, ev.id))
	}
	ev.callbacks = append(ev.callbacks, fn)
}
