package sim

import "fmt"

// RequestState tracks a resource request through its lifecycle.
type RequestState int

const (
	// ReqWaiting means the request is queued behind the capacity limit.
	ReqWaiting RequestState = iota
	// ReqGranted means the request holds one slot of the resource.
	ReqGranted
	// ReqRevoked means a preempting request evicted this grant; the slot
	// is already free and the owner has been interrupted.
	ReqRevoked
	// ReqReleased means the request gave its slot back (or withdrew from
	// the queue before ever being granted).
	ReqReleased
)

func (s RequestState) String() string {
	switch s {
	case ReqWaiting:
		return "waiting"
	case ReqGranted:
		return "granted"
	case ReqRevoked:
		return "revoked"
	case ReqReleased:
		return "released"
	default:
		return fmt.Sprintf("RequestState(%d)", int(s))
	}
}

// Request is an Event that triggers when the resource grants it a slot.
type Request struct {
	*Event
	owner    *Process
	priority int
	preempt  bool
	state    RequestState
	// usageSince is the grant time, for attribution when preempted.
	usageSince float64
}

// Priority returns the request's priority (lower is served first).
func (req *Request) Priority() int { return req.priority }

// Owner returns the process that issued the request, or nil if it was
// issued outside any process body.
func (req *Request) Owner() *Process { return req.owner }

// RequestState returns the request's lifecycle state.
func (req *Request) RequestState() RequestState { return req.state }

// UsageSince returns the virtual time of the grant; meaningless while
// waiting.
func (req *Request) UsageSince() float64 { return req.usageSince }

// Resource gates access to a fixed number of slots. Requests beyond the
// capacity wait in a FIFO queue and are granted in arrival order as slots
// free up.
type Resource struct {
	env      *Environment
	capacity int
	users    []*Request
	queue    []*Request
}

// NewResource creates a resource with the given number of slots. A
// non-positive capacity is a programming error and panics with a
// *CapacityError.
func NewResource(env *Environment, capacity int) *Resource {
	if capacity <= 0 {
		panic(&CapacityError{Capacity: float64(capacity), Reason: "resource capacity must be positive"})
	}
	return &Resource{env: env, capacity: capacity}
}

// Request asks for one slot. The returned request triggers when granted —
// immediately if a slot is free, otherwise once enough earlier holders
// release.
func (r *Resource) Request() *Request {
	req := r.newRequest(0, false)
	r.admit(req, false)
	return req
}

func (r *Resource) newRequest(priority int, preempt bool) *Request {
	return &Request{
		Event:    r.env.newEvent("request"),
		owner:    r.env.active,
		priority: priority,
		preempt:  preempt,
		state:    ReqWaiting,
	}
}

func (r *Resource) admit(req *Request, byPriority bool) {
	if len(r.users) < r.capacity {
		r.grant(req)
		return
	}
	if !byPriority {
		r.queue = append(r.queue, req)
		return
	}
	// Insert behind all entries with an equal or better priority, keeping
	// FIFO order within a priority level.
	idx := len(r.queue)
	for i, queued := range r.queue {
		if queued.priority > req.priority {
			idx = i
			break
		}
	}
	r.queue = append(r.queue, nil)
	copy(r.queue[idx+1:], r.queue[idx:])
	r.queue[idx] = req
}

func (r *Resource) grant(req *Request) {
	req.state = ReqGranted
	req.usageSince = r.env.Now()
	r.users = append(r.users, req)
	req.Event.Succeed(req)
}

// Release gives req's slot back and grants queued requests from the head
// while slots remain, never skipping past a blocked head. Releasing a
// still-waiting request withdraws it from the queue (the escape hatch for
// an interrupted waiter); releasing a revoked request is a no-op since
// preemption already freed the slot. Releasing the same request twice is a
// programming error and panics.
func (r *Resource) Release(req *Request) {
	switch req.state {
	case ReqWaiting:
		req.state = ReqReleased
		r.removeQueued(req)
	case ReqGranted:
		req.state = ReqReleased
		r.removeUser(req)
		r.grantWaiting()
	case ReqRevoked:
		req.state = ReqReleased
	case ReqReleased:
		panic(fmt.Sprintf("request #%d released twice", req.ID()))
	}
}

func (r *Resource) grantWaiting() {
	for len(r.queue) > 0 && len(r.users) < r.capacity {
		head := r.queue[0]
		r.queue = r.queue[1:]
		r.grant(head)
	}
}

func (r *Resource) removeQueued(req *Request) {
	for i, queued := range r.queue {
		if queued == req {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			return
		}
	}
	panic(fmt.Sprintf("request #%d not in queue", req.ID()))
}

func (r *Resource) removeUser(req *Request) {
	for i, user := range r.users {
		if user == req {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return
		}
	}
	panic(fmt.Sprintf("request #%d not granted", req.ID()))
}

// Capacity returns the total number of slots.
func (r *Resource) Capacity() int { return r.capacity }

// Count returns the number of currently granted requests.
func (r *Resource) Count() int { return len(r.users) }

// QueueLen returns the number of waiting requests.
func (r *Resource) QueueLen() int { return len(r.queue) }

// Users returns a snapshot of the currently granted requests.
func (r *Resource) Users() []*Request {
	users := make([]*Request, len(r.users))
	copy(users, r.users)
	return users
}

// PriorityResource is a Resource whose queue is ordered by
// (priority, arrival sequence) instead of arrival alone. Lower priority
// values are served first.
type PriorityResource struct {
	*Resource
}

// NewPriorityResource creates a priority resource with the given capacity.
func NewPriorityResource(env *Environment, capacity int) *PriorityResource {
	return &PriorityResource{Resource: NewResource(env, capacity)}
}

// Request asks for one slot with the given priority.
func (r *PriorityResource) Request(priority int) *Request {
	req := r.newRequest(priority, false)
	r.admit(req, true)
	return req
}

// PreemptiveResource is a PriorityResource where a sufficiently prioritized
// request may evict a current holder instead of waiting.
type PreemptiveResource struct {
	*PriorityResource
}

// NewPreemptiveResource creates a preemptive resource with the given
// capacity.
func NewPreemptiveResource(env *Environment, capacity int) *PreemptiveResource {
	return &PreemptiveResource{PriorityResource: NewPriorityResource(env, capacity)}
}

// Request asks for one slot with the given priority. When the resource is
// at capacity and preempt is true, the worst-priority holder that itself
// requested with preempt=true is evicted if the new priority is strictly
// better: its grant is revoked and its owning process receives an
// Interrupt whose cause is a *Preempted with grant-time attribution. A
// preempt=false request still enjoys priority ordering in the queue but
// never evicts an active user.
func (r *PreemptiveResource) Request(priority int, preempt bool) *Request {
	req := r.newRequest(priority, preempt)
	if preempt && len(r.users) >= r.capacity {
		victim := r.worstUser()
		if victim != nil && victim.preempt && priority < victim.priority {
			r.evict(victim, req)
		}
	}
	r.admit(req, true)
	return req
}

// worstUser returns the granted request with the numerically largest
// (priority, id), i.e. the least entitled and latest-created holder.
func (r *PreemptiveResource) worstUser() *Request {
	var worst *Request
	for _, user := range r.users {
		if worst == nil || user.priority > worst.priority ||
			(user.priority == worst.priority && user.ID() > worst.ID()) {
			worst = user
		}
	}
	return worst
}

func (r *PreemptiveResource) evict(victim, by *Request) {
	r.removeUser(victim)
	victim.state = ReqRevoked
	if victim.owner != nil {
		// ErrAlreadyProcessed cannot occur here: a finished process
		// cannot still hold a granted request it never released.
		_ = victim.owner.Interrupt(&Preempted{By: by, UsageSince: victim.usageSince})
	}
}
