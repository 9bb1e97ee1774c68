// Implements the schedule: a priority queue of pending event deliveries
// keyed by (time, priority class, insertion sequence).

package sim

import "container/heap"

// EventPriority is the scheduling class of a queue entry. Lower values are
// served first among entries due at the same time.
type EventPriority int

const (
	// PriorityUrgent is used for interrupt deliveries and process
	// initialization, so they precede normal entries at equal timestamps.
	PriorityUrgent EventPriority = 0
	// PriorityNormal is used for timeouts and triggered events.
	PriorityNormal EventPriority = 1
)

// entry is a scheduled delivery. seq is the insertion order of the schedule
// call, guaranteeing deterministic FIFO among otherwise-equal entries.
type entry struct {
	time     float64
	priority EventPriority
	seq      int64
	ev       *Event
}

// eventQueue implements heap.Interface over schedule entries.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type eventQueue []*entry

func (eq eventQueue) Len() int { return len(eq) }

func (eq eventQueue) Less(i, j int) bool {
	a, b := eq[i], eq[j]
	if a.time != b.time {
		return a.time < b.time
	}
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	return a.seq < b.seq
}

func (eq eventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *eventQueue) Push(x any) {
	*eq = append(*eq, x.(*entry))
}

func (eq *eventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*eq = old[0 : n-1]
	return item
}

func (eq *eventQueue) push(e *entry) { heap.Push(eq, e) }

func (eq *eventQueue) pop() *entry { return heap.Pop(eq).(*entry) }
