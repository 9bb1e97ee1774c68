package sim

import "testing"

func TestStore_Get_ReturnsItemsInInsertionOrder(t *testing.T) {
	// GIVEN a store filled with A, B, C
	env := NewEnvironment()
	bin := NewStore(env, 10)
	bin.Put("A")
	bin.Put("B")
	bin.Put("C")

	// WHEN getting three times
	var got []any
	for i := 0; i < 3; i++ {
		get := bin.Get()
		if !get.Triggered() {
			t.Fatalf("get %d blocked with items available", i)
		}
		got = append(got, get.Value())
	}

	// THEN items come out FIFO
	want := []any{"A", "B", "C"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item[%d]: got %v, want %v", i, got[i], want[i])
		}
	}
	if bin.Len() != 0 {
		t.Errorf("Len: got %d, want 0", bin.Len())
	}
}

func TestStore_Get_BlocksUntilPut(t *testing.T) {
	// GIVEN an empty store with a pending get
	env := NewEnvironment()
	bin := NewStore(env, 4)
	get := bin.Get()
	if get.Triggered() {
		t.Fatalf("get satisfied on an empty store")
	}

	var got any
	var at float64
	env.Process(func(p *Process) (any, error) {
		v, err := p.Wait(get.Event)
		if err != nil {
			return nil, err
		}
		got, at = v, env.Now()
		return nil, nil
	})
	env.Process(func(p *Process) (any, error) {
		if _, err := p.Wait(env.Timeout(7)); err != nil {
			return nil, err
		}
		if _, err := p.Wait(bin.Put("widget").Event); err != nil {
			return nil, err
		}
		return nil, nil
	})

	// WHEN an item arrives at t=7 THEN the get resumes with it
	if err := env.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "widget" || at != 7 {
		t.Errorf("got %v at t=%v, want widget at t=7", got, at)
	}
}

func TestStore_Put_BlocksAtCapacity(t *testing.T) {
	// GIVEN a full store
	env := NewEnvironment()
	bin := NewStore(env, 2)
	bin.Put("A")
	bin.Put("B")
	put := bin.Put("C")

	if put.Triggered() {
		t.Fatalf("put accepted beyond capacity")
	}
	if bin.Len() != 2 || bin.PutQueueLen() != 1 {
		t.Fatalf("len/putQueue: got %d/%d, want 2/1", bin.Len(), bin.PutQueueLen())
	}

	// WHEN a slot frees up
	get := bin.Get()

	// THEN the blocked put lands and FIFO order is preserved
	if !put.Triggered() {
		t.Errorf("blocked put not fulfilled after get")
	}
	if get.Value() != "A" {
		t.Errorf("get value: got %v, want A", get.Value())
	}
	if bin.Len() != 2 {
		t.Errorf("Len: got %d, want 2", bin.Len())
	}
}

func TestStore_NonPositiveCapacity_Panics(t *testing.T) {
	env := NewEnvironment()

	defer func() {
		if recover() == nil {
			t.Errorf("NewStore(env, -1) did not panic")
		}
	}()
	NewStore(env, -1)
}
