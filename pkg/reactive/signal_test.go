package reactive

import (
	"sync"
	"testing"
)

type testListener struct {
	id         uint64
	mu         sync.Mutex
	dirtyCount int
}

func newTestListener() *testListener {
	return &testListener{id: nextID()}
}

func (l *testListener) MarkDirty() {
	l.mu.Lock()
	l.dirtyCount++
	l.mu.Unlock()
}

func (l *testListener) ID() uint64 {
	return l.id
}

func (l *testListener) getDirtyCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirtyCount
}

func TestSignalBasic(t *testing.T) {
	count := NewSignal(0)

	if count.Get() != 0 {
		t.Errorf("expected initial value 0, got %d", count.Get())
	}

	count.Set(5)
	if count.Get() != 5 {
		t.Errorf("expected value 5, got %d", count.Get())
	}

	count.Update(func(n int) int { return n * 2 })
	if count.Get() != 10 {
		t.Errorf("expected value 10, got %d", count.Get())
	}
}

func TestSignalSubscription(t *testing.T) {
	count := NewSignal(0)
	listener := newTestListener()
	count.Subscribe(listener)

	count.Set(1)
	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification, got %d", listener.getDirtyCount())
	}

	// Same value should not notify
	count.Set(1)
	if listener.getDirtyCount() != 1 {
		t.Errorf("same value should not notify, got %d", listener.getDirtyCount())
	}

	count.Set(2)
	if listener.getDirtyCount() != 2 {
		t.Errorf("expected 2 notifications, got %d", listener.getDirtyCount())
	}
}

func TestSignalSubscribeDeduplicates(t *testing.T) {
	s := NewSignal("a")
	listener := newTestListener()
	s.Subscribe(listener)
	s.Subscribe(listener)

	s.Set("b")
	if listener.getDirtyCount() != 1 {
		t.Errorf("double subscription should notify once, got %d", listener.getDirtyCount())
	}
}

func TestSignalUnsubscribe(t *testing.T) {
	s := NewSignal(0)
	listener := newTestListener()
	unsubscribe := s.Subscribe(listener)

	s.Set(1)
	unsubscribe()
	s.Set(2)

	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification before unsubscribe, got %d", listener.getDirtyCount())
	}
}

func TestSignalMapUsesDeepEqual(t *testing.T) {
	s := NewSignal(map[string]string{"name": "required"})
	listener := newTestListener()
	s.Subscribe(listener)

	s.Set(map[string]string{"name": "required"})
	if listener.getDirtyCount() != 0 {
		t.Errorf("equal maps should not notify, got %d", listener.getDirtyCount())
	}

	s.Set(map[string]string{})
	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification, got %d", listener.getDirtyCount())
	}
}

func TestSignalAnyMixedTypes(t *testing.T) {
	s := NewSignal[any](1)
	listener := newTestListener()
	s.Subscribe(listener)

	s.Set("1")
	if s.Get() != "1" {
		t.Errorf("expected \"1\", got %v", s.Get())
	}
	if listener.getDirtyCount() != 1 {
		t.Errorf("type change should notify, got %d", listener.getDirtyCount())
	}
}

func TestSignalWithEquals(t *testing.T) {
	s := NewSignal(1).WithEquals(func(a, b int) bool { return a%2 == b%2 })
	listener := newTestListener()
	s.Subscribe(listener)

	s.Set(3)
	if listener.getDirtyCount() != 0 {
		t.Errorf("custom equality should suppress notification, got %d", listener.getDirtyCount())
	}
	if s.Get() != 1 {
		t.Errorf("value should be unchanged when equal, got %d", s.Get())
	}

	s.Set(4)
	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification, got %d", listener.getDirtyCount())
	}
}

func TestListen(t *testing.T) {
	calls := 0
	l := Listen(func() { calls++ })
	other := Listen(func() {})

	if l.ID() == other.ID() {
		t.Error("Listen should assign unique IDs")
	}

	s := NewSignal(false)
	s.Subscribe(l)
	s.Set(true)

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestSignalConcurrentSet(t *testing.T) {
	s := NewSignal(0)
	listener := newTestListener()
	s.Subscribe(listener)

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(func(n int) int { return n + 1 })
		}()
	}
	wg.Wait()

	if s.Get() != 50 {
		t.Errorf("expected 50, got %d", s.Get())
	}
	if listener.getDirtyCount() != 50 {
		t.Errorf("expected 50 notifications, got %d", listener.getDirtyCount())
	}
}
