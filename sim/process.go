package sim

// A Process is a suspended computation driven by the schedule. The body
// runs on its own goroutine, but the kernel and the body never execute
// concurrently: every hand-off goes through an unbuffered channel pair, so
// exactly one side runs at a time and execution stays deterministic.
//
// Protocol, from the driver's point of view:
//
//	resume <- outcome   deliver the awaited event's outcome to the body
//	<-ack               wait until the body suspends again or finishes
//
// The body suspends only inside Wait, naming exactly one event it needs.
// A Process is itself an Event: its completion event triggers with the
// body's return value, or fails with the body's returned error, letting
// one process wait on another's completion.

// outcome is the tagged resumption input delivered at a suspension point:
// either a success value or a failure.
type outcome struct {
	value any
	err   error
}

// ProcessFunc is a process body. It receives its own handle for waiting and
// introspection, and finishes by returning a value or an error. A returned
// error (including an unhandled *Interrupt) fails the completion event.
type ProcessFunc func(p *Process) (any, error)

// Process is a cooperative process plus its completion Event.
type Process struct {
	*Event
	env *Environment
	fn  ProcessFunc

	resume chan outcome
	ack    chan struct{}

	// target is the event the body is currently suspended on; nil while
	// the body is running or after it finished.
	target *Event
	// waitSeq stamps each suspension so a defused resume callback (left
	// behind by an interrupt) recognizes itself as stale.
	waitSeq  int
	started  bool
	finished bool
}

// Process registers fn for execution and returns its completion event
// immediately. The body does not run synchronously: an urgent entry at the
// current time starts it on the next queue pop, ahead of same-instant
// normal events.
func (env *Environment) Process(fn ProcessFunc) *Process {
	p := &Process{
		Event:  env.newEvent("process"),
		env:    env,
		fn:     fn,
		resume: make(chan outcome),
		ack:    make(chan struct{}),
	}
	init := env.newEvent("init")
	init.state = StateTriggered
	init.addCallback(func(*Event) { p.start() })
	env.scheduleEntry(init, PriorityUrgent, 0)
	return p
}

// Env returns the environment this process belongs to.
func (p *Process) Env() *Environment { return p.env }

// start launches the body goroutine and blocks until it reaches its first
// suspension point or finishes.
func (p *Process) start() {
	p.started = true
	prev := p.env.active
	p.env.active = p
	go p.run()
	<-p.ack
	p.env.active = prev
}

func (p *Process) run() {
	value, err := p.fn(p)
	p.finished = true
	p.target = nil
	if err != nil {
		p.Event.Fail(err)
	} else {
		p.Event.Succeed(value)
	}
	p.ack <- struct{}{}
}

// Wait suspends the body until ev is processed and returns ev's outcome.
// A success value is returned as the value; a failure (including an
// injected *Interrupt) is returned as the error, which the body may handle
// locally or return to fail its completion event with the same error.
//
// Waiting on an already-processed event returns its outcome without
// suspending. Wait must only be called from the process's own body.
func (p *Process) Wait(ev *Event) (any, error) {
	if ev.env != p.env {
		panic("wait: event belongs to a different environment")
	}
	if ev.Processed() {
		ev.defused = true
		return ev.value, ev.err
	}
	p.waitSeq++
	token := p.waitSeq
	p.target = ev
	ev.addCallback(func(ev *Event) { p.deliver(token, ev) })

	p.ack <- struct{}{}
	out := <-p.resume
	p.target = nil
	return out.value, out.err
}

// deliver is the resume callback registered on the awaited event. It runs
// on the driver side during Step. A stale token means an interrupt already
// resumed the body past this suspension point.
func (p *Process) deliver(token int, ev *Event) {
	if p.finished || p.waitSeq != token {
		return
	}
	ev.defused = true
	p.resumeWith(outcome{value: ev.value, err: ev.err})
}

// resumeWith hands control to the body and blocks until it suspends again
// or finishes. Runs on the driver side only.
func (p *Process) resumeWith(out outcome) {
	prev := p.env.active
	p.env.active = p
	p.resume <- out
	<-p.ack
	p.env.active = prev
}

// Interrupt schedules an immediate urgent delivery that raises an
// *Interrupt carrying cause at the target's current suspension point. The
// body observes it as the error result of Wait and may handle it and keep
// going; the event it was waiting on is unaffected and still triggers on
// its own. Each call is delivered individually, never coalesced.
//
// Interrupting a process whose body has already finished returns
// ErrAlreadyProcessed.
func (p *Process) Interrupt(cause any) error {
	if p.finished {
		return ErrAlreadyProcessed
	}
	carrier := p.env.newEvent("interrupt")
	carrier.state = StateTriggered
	carrier.addCallback(func(*Event) {
		if p.finished {
			// Finished between scheduling and delivery; there is no
			// suspension point left to deliver to.
			return
		}
		p.waitSeq++ // defuse the pending resume callback
		p.resumeWith(outcome{err: &Interrupt{Cause: cause}})
	})
	p.env.scheduleEntry(carrier, PriorityUrgent, 0)
	return nil
}
