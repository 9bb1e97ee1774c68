package sim

// Condition is an Event aggregating a fixed set of member events under an
// ALL or ANY evaluator. It triggers exactly once, when the evaluator first
// holds, with a ConditionValue collecting the outcomes of the members
// triggered by then. A member failing fails the condition with the same
// error.
type Condition struct {
	*Event
	members   []*Event
	evaluator func(triggered, total int) bool
}

// ConditionValue is the success value of a Condition: the members that had
// triggered when the condition fired, in construction order, with their
// values.
type ConditionValue struct {
	order  []*Event
	values map[*Event]any
}

// Len returns the number of collected member outcomes.
func (cv *ConditionValue) Len() int { return len(cv.order) }

// Events returns the collected members in construction order.
func (cv *ConditionValue) Events() []*Event { return cv.order }

// Value returns the outcome value of ev, and whether ev had triggered when
// the condition fired.
func (cv *ConditionValue) Value(ev *Event) (any, bool) {
	v, ok := cv.values[ev]
	return v, ok
}

// AllOf returns a condition that triggers once every member has triggered.
// An empty member list is trivially satisfied.
func AllOf(env *Environment, members []*Event) *Condition {
	return newCondition(env, "all-of", members, func(triggered, total int) bool {
		return triggered == total
	})
}

// AnyOf returns a condition that triggers as soon as any member has
// triggered; the remaining members still process normally on their own.
// An empty member list is trivially satisfied.
func AnyOf(env *Environment, members []*Event) *Condition {
	return newCondition(env, "any-of", members, func(triggered, total int) bool {
		return triggered > 0 || total == 0
	})
}

func newCondition(env *Environment, label string, members []*Event, evaluator func(int, int) bool) *Condition {
	c := &Condition{
		Event:     env.newEvent(label),
		members:   append([]*Event(nil), members...),
		evaluator: evaluator,
	}
	for _, member := range c.members {
		if member.env != env {
			panic("condition: member belongs to a different environment")
		}
	}
	// A condition satisfied at construction still triggers through the
	// schedule, on the next step, never synchronously.
	if c.check() {
		return c
	}
	for _, member := range c.members {
		if member.Processed() {
			continue
		}
		member.addCallback(func(ev *Event) { c.observe(ev) })
	}
	return c
}

// observe runs when a member is processed.
func (c *Condition) observe(member *Event) {
	if !c.Pending() {
		return
	}
	if member.err != nil {
		member.defused = true
		c.Fail(member.err)
		return
	}
	c.check()
}

// check evaluates the condition and triggers it when satisfied, reporting
// whether it fired (or failed) now.
func (c *Condition) check() bool {
	triggered := 0
	for _, member := range c.members {
		if !member.Triggered() {
			continue
		}
		if member.err != nil {
			member.defused = true
			c.Fail(member.err)
			return true
		}
		triggered++
	}
	if !c.evaluator(triggered, len(c.members)) {
		return false
	}
	value := &ConditionValue{values: make(map[*Event]any)}
	for _, member := range c.members {
		if member.Triggered() {
			value.order = append(value.order, member)
			value.values[member] = member.value
		}
	}
	c.Succeed(value)
	return true
}
