package sim

// StorePut is an Event that triggers once its item has been accepted into
// the store.
type StorePut struct {
	*Event
	item any
}

// Item returns the item being stored.
func (sp *StorePut) Item() any { return sp.item }

// StoreGet is an Event that triggers with the retrieved item as its value.
type StoreGet struct {
	*Event
}

// Store is a shared buffer of discrete items with the same FIFO discipline
// as Container: puts block while the store is full, gets block while it is
// empty, and items come out in insertion order.
type Store struct {
	env      *Environment
	capacity int
	items    []any
	putQueue []*StorePut
	getQueue []*StoreGet
}

// NewStore creates a store holding at most capacity items. A non-positive
// capacity panics with a *CapacityError.
func NewStore(env *Environment, capacity int) *Store {
	if capacity <= 0 {
		panic(&CapacityError{Capacity: float64(capacity), Reason: "store capacity must be positive"})
	}
	return &Store{env: env, capacity: capacity}
}

// Put asks to add item, triggering once there is room.
func (s *Store) Put(item any) *StorePut {
	req := &StorePut{Event: s.env.newEvent("store-put"), item: item}
	s.putQueue = append(s.putQueue, req)
	s.balance()
	return req
}

// Get asks for the earliest-inserted item, triggering with it as the event
// value once one is available.
func (s *Store) Get() *StoreGet {
	req := &StoreGet{Event: s.env.newEvent("store-get")}
	s.getQueue = append(s.getQueue, req)
	s.balance()
	return req
}

func (s *Store) balance() {
	for {
		progress := false
		for len(s.getQueue) > 0 && len(s.items) > 0 {
			head := s.getQueue[0]
			s.getQueue = s.getQueue[1:]
			item := s.items[0]
			s.items = s.items[1:]
			head.Succeed(item)
			progress = true
		}
		for len(s.putQueue) > 0 && len(s.items) < s.capacity {
			head := s.putQueue[0]
			s.putQueue = s.putQueue[1:]
			s.items = append(s.items, head.item)
			head.Succeed(head.item)
			progress = true
		}
		if !progress {
			return
		}
	}
}

// Len returns the number of items currently held.
func (s *Store) Len() int { return len(s.items) }

// Capacity returns the maximum item count.
func (s *Store) Capacity() int { return s.capacity }

// PutQueueLen returns the number of blocked puts.
func (s *Store) PutQueueLen() int { return len(s.putQueue) }

// GetQueueLen returns the number of blocked gets.
func (s *Store) GetQueueLen() int { return len(s.getQueue) }
