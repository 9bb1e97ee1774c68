package sim

import "testing"

func TestResource_ImmediateGrant_UnderCapacity(t *testing.T) {
	// GIVEN a resource with two slots
	env := NewEnvironment()
	res := NewResource(env, 2)

	// WHEN two requests arrive
	a := res.Request()
	b := res.Request()

	// THEN both are granted without waiting
	if !a.Triggered() || !b.Triggered() {
		t.Fatalf("requests under capacity not granted immediately")
	}
	if a.RequestState() != ReqGranted || b.RequestState() != ReqGranted {
		t.Errorf("states: got %v/%v, want granted/granted", a.RequestState(), b.RequestState())
	}
	if res.Count() != 2 || res.QueueLen() != 0 {
		t.Errorf("count/queue: got %d/%d, want 2/0", res.Count(), res.QueueLen())
	}
}

func TestResource_CapacityInvariant_NeverExceeded(t *testing.T) {
	// GIVEN a single-slot resource with a backlog
	env := NewEnvironment()
	res := NewResource(env, 1)
	reqs := []*Request{res.Request(), res.Request(), res.Request(), res.Request()}

	for i := 0; i < len(reqs); i++ {
		// THEN at every point, users never exceed capacity and no request
		// is double-counted between users and the queue
		if res.Count() > res.Capacity() {
			t.Fatalf("users %d exceed capacity %d", res.Count(), res.Capacity())
		}
		if res.Count()+res.QueueLen() != len(reqs)-i {
			t.Fatalf("request accounting off: users=%d queue=%d outstanding=%d",
				res.Count(), res.QueueLen(), len(reqs)-i)
		}
		// WHEN the current holder releases
		res.Release(reqs[i])
	}
}

func TestResource_FIFO_GrantOnRelease(t *testing.T) {
	env := NewEnvironment()
	res := NewResource(env, 1)
	first := res.Request()
	second := res.Request()
	third := res.Request()

	if second.Triggered() || third.Triggered() {
		t.Fatalf("queued requests granted while at capacity")
	}

	res.Release(first)
	if !second.Triggered() || third.Triggered() {
		t.Errorf("release did not grant strictly in FIFO order")
	}
	res.Release(second)
	if !third.Triggered() {
		t.Errorf("third request never granted")
	}
}

func TestResource_ReleaseWaiting_WithdrawsFromQueue(t *testing.T) {
	env := NewEnvironment()
	res := NewResource(env, 1)
	holder := res.Request()
	waiter := res.Request()

	// WHEN the waiter gives up before ever being granted
	res.Release(waiter)

	if res.QueueLen() != 0 {
		t.Errorf("queue length: got %d, want 0", res.QueueLen())
	}
	if waiter.Triggered() {
		t.Errorf("withdrawn request was granted")
	}
	res.Release(holder)
}

func TestResource_DoubleRelease_Panics(t *testing.T) {
	env := NewEnvironment()
	res := NewResource(env, 1)
	req := res.Request()
	res.Release(req)

	defer func() {
		if recover() == nil {
			t.Errorf("double release did not panic")
		}
	}()
	res.Release(req)
}

func TestResource_NonPositiveCapacity_Panics(t *testing.T) {
	env := NewEnvironment()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("NewResource(env, 0) did not panic")
		}
		if _, ok := r.(*CapacityError); !ok {
			t.Errorf("panic value: got %T, want *CapacityError", r)
		}
	}()
	NewResource(env, 0)
}

func TestPriorityResource_GrantOrder_PriorityThenSequence(t *testing.T) {
	// GIVEN a busy single-slot resource and requests with priorities
	// {0, 0, -1} arriving at t=0, 1, 2
	env := NewEnvironment()
	res := NewPriorityResource(env, 1)
	var order []string

	contender := func(name string, at float64, priority int) {
		env.Process(func(p *Process) (any, error) {
			if _, err := p.Wait(env.Timeout(at)); err != nil {
				return nil, err
			}
			req := res.Request(priority)
			if _, err := p.Wait(req.Event); err != nil {
				return nil, err
			}
			order = append(order, name)
			res.Release(req)
			return nil, nil
		})
	}
	contender("first", 0, 0)
	contender("second", 1, 0)
	contender("third", 2, -1)

	env.Process(func(p *Process) (any, error) {
		req := res.Request(0)
		if _, err := p.Wait(req.Event); err != nil {
			return nil, err
		}
		if _, err := p.Wait(env.Timeout(3)); err != nil {
			return nil, err
		}
		res.Release(req)
		return nil, nil
	})

	// WHEN the holder releases at t=3
	if err := env.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// THEN grants follow priority first, then arrival sequence
	want := []string{"third", "first", "second"}
	if len(order) != len(want) {
		t.Fatalf("grants: got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("grant[%d]: got %s, want %s", i, order[i], want[i])
		}
	}
}

func TestPreemptiveResource_EvictsWorstPreemptibleUser(t *testing.T) {
	// GIVEN a priority-0 user holding the only slot since t=0 for a
	// 3-unit task
	env := NewEnvironment()
	res := NewPreemptiveResource(env, 1)
	var cause any
	var evictedAt, grantedAt float64

	env.Process(func(p *Process) (any, error) {
		req := res.Request(0, true)
		if _, err := p.Wait(req.Event); err != nil {
			return nil, err
		}
		_, err := p.Wait(env.Timeout(3))
		if err == nil {
			res.Release(req)
			return "finished", nil
		}
		ivt, ok := AsInterrupt(err)
		if !ok {
			return nil, err
		}
		cause = ivt.Cause
		evictedAt = env.Now()
		res.Release(req) // revoked grant, releases as a no-op
		return "evicted", nil
	})
	env.Process(func(p *Process) (any, error) {
		if _, err := p.Wait(env.Timeout(2)); err != nil {
			return nil, err
		}
		req := res.Request(-1, true)
		if _, err := p.Wait(req.Event); err != nil {
			return nil, err
		}
		grantedAt = env.Now()
		res.Release(req)
		return nil, nil
	})

	// WHEN a priority -1 preempting request arrives at t=2
	if err := env.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// THEN the incumbent is evicted at t=2 with grant-time attribution,
	// and the new request is granted at t=2
	pre, ok := cause.(*Preempted)
	if !ok {
		t.Fatalf("interrupt cause: got %T, want *Preempted", cause)
	}
	if pre.UsageSince != 0 {
		t.Errorf("UsageSince: got %v, want 0", pre.UsageSince)
	}
	if evictedAt != 2 || grantedAt != 2 {
		t.Errorf("evicted at %v, granted at %v, want both 2", evictedAt, grantedAt)
	}
}

func TestPreemptiveResource_NonPreemptibleUser_IsNotEvicted(t *testing.T) {
	// GIVEN a holder that opted out of preemption
	env := NewEnvironment()
	res := NewPreemptiveResource(env, 1)
	holder := res.Request(0, false)

	// WHEN a better-priority preempting request arrives
	better := res.Request(-5, true)

	// THEN the holder keeps the slot and the request waits
	if holder.RequestState() != ReqGranted {
		t.Errorf("holder state: got %v, want granted", holder.RequestState())
	}
	if better.Triggered() {
		t.Errorf("preempting request granted while slot occupied")
	}
	if res.QueueLen() != 1 {
		t.Errorf("queue length: got %d, want 1", res.QueueLen())
	}
}

func TestPreemptiveResource_NonPreemptingRequest_NeverEvicts(t *testing.T) {
	env := NewEnvironment()
	res := NewPreemptiveResource(env, 1)
	holder := res.Request(0, true)

	// WHEN a better-priority request arrives with preempt disabled
	better := res.Request(-5, false)

	// THEN it queues (with priority-order benefit) instead of evicting
	if holder.RequestState() != ReqGranted {
		t.Errorf("holder state: got %v, want granted", holder.RequestState())
	}
	if better.Triggered() {
		t.Errorf("non-preempting request evicted an active user")
	}
}

func TestPreemptiveResource_InterruptCarriesAlreadyProcessedCheck(t *testing.T) {
	// Evicting a request issued outside any process cannot interrupt an
	// owner; the grant is still revoked and the slot handed over.
	env := NewEnvironment()
	res := NewPreemptiveResource(env, 1)
	holder := res.Request(0, true)

	better := res.Request(-1, true)

	if holder.RequestState() != ReqRevoked {
		t.Errorf("holder state: got %v, want revoked", holder.RequestState())
	}
	if better.RequestState() != ReqGranted {
		t.Errorf("preemptor state: got %v, want granted", better.RequestState())
	}
	if err := env.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
