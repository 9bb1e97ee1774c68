package sim

import "fmt"

// ContainerRequest is an Event carrying the amount a blocked put or get is
// trying to exchange. It triggers with the amount once fulfilled.
type ContainerRequest struct {
	*Event
	amount float64
	queue  *[]*ContainerRequest
}

// Amount returns the requested amount.
func (cr *ContainerRequest) Amount() float64 { return cr.amount }

// Cancel withdraws a still-pending request from its wait queue, the escape
// hatch for an interrupted process that no longer wants the exchange.
// Cancelling an already-fulfilled request is a no-op.
func (cr *ContainerRequest) Cancel() {
	if cr.Triggered() {
		return
	}
	q := *cr.queue
	for i, queued := range q {
		if queued == cr {
			*cr.queue = append(q[:i], q[i+1:]...)
			return
		}
	}
}

// Container is a shared buffer holding a scalar level between 0 and a fixed
// capacity. Puts block until their amount fits under the capacity, gets
// block until their amount is available. Both queues are strict FIFO: the
// head blocks everything behind it until it can be fulfilled, which keeps
// fairness at the cost of head-of-line blocking.
type Container struct {
	env      *Environment
	capacity float64
	level    float64
	putQueue []*ContainerRequest
	getQueue []*ContainerRequest
}

// NewContainer creates a container. The capacity must be positive and the
// initial level must lie within [0, capacity]; violations panic with a
// *CapacityError.
func NewContainer(env *Environment, capacity, initial float64) *Container {
	if capacity <= 0 {
		panic(&CapacityError{Capacity: capacity, Reason: "container capacity must be positive"})
	}
	if initial < 0 || initial > capacity {
		panic(&CapacityError{Capacity: initial, Reason: fmt.Sprintf("initial level outside [0, %v]", capacity)})
	}
	return &Container{env: env, capacity: capacity, level: initial}
}

// Put asks to raise the level by amount, triggering once it fits. The
// amount must be positive and must not exceed the capacity (a larger put
// could never be fulfilled); violations panic with a *CapacityError.
func (c *Container) Put(amount float64) *ContainerRequest {
	c.checkAmount(amount)
	req := &ContainerRequest{Event: c.env.newEvent("put"), amount: amount, queue: &c.putQueue}
	c.putQueue = append(c.putQueue, req)
	c.balance()
	return req
}

// Get asks to lower the level by amount, triggering once that much is
// available. The same amount bounds apply as for Put.
func (c *Container) Get(amount float64) *ContainerRequest {
	c.checkAmount(amount)
	req := &ContainerRequest{Event: c.env.newEvent("get"), amount: amount, queue: &c.getQueue}
	c.getQueue = append(c.getQueue, req)
	c.balance()
	return req
}

func (c *Container) checkAmount(amount float64) {
	if amount <= 0 {
		panic(&CapacityError{Capacity: amount, Reason: "amount must be positive"})
	}
	if amount > c.capacity {
		panic(&CapacityError{Capacity: amount, Reason: fmt.Sprintf("amount exceeds capacity %v", c.capacity)})
	}
}

// balance fulfils queued exchanges from each queue's head until neither can
// make progress. Each fulfilled entry changes the level, so the opposite
// queue is rescanned until a fixpoint; scanning always stops at the first
// unsatisfiable head.
func (c *Container) balance() {
	for {
		progress := false
		for len(c.getQueue) > 0 && c.getQueue[0].amount <= c.level {
			head := c.getQueue[0]
			c.getQueue = c.getQueue[1:]
			c.level -= head.amount
			head.Succeed(head.amount)
			progress = true
		}
		for len(c.putQueue) > 0 && c.level+c.putQueue[0].amount <= c.capacity {
			head := c.putQueue[0]
			c.putQueue = c.putQueue[1:]
			c.level += head.amount
			head.Succeed(head.amount)
			progress = true
		}
		if !progress {
			return
		}
	}
}

// Level returns the current amount held.
func (c *Container) Level() float64 { return c.level }

// Capacity returns the maximum level.
func (c *Container) Capacity() float64 { return c.capacity }

// PutQueueLen returns the number of blocked puts.
func (c *Container) PutQueueLen() int { return len(c.putQueue) }

// GetQueueLen returns the number of blocked gets.
func (c *Container) GetQueueLen() int { return len(c.getQueue) }
