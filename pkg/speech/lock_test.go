package speech

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLockFreeAcquire(t *testing.T) {
	l := NewLock()

	outcome, err := l.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if outcome != OutcomeAcquired {
		t.Fatalf("outcome = %v, want OutcomeAcquired", outcome)
	}
	if l.State() != StateBusy {
		t.Errorf("state = %v, want BUSY", l.State())
	}

	l.Release()
	if l.State() != StateFree {
		t.Errorf("state after release = %v, want FREE", l.State())
	}
}

func TestLockPendingTakesOverOnRelease(t *testing.T) {
	l := NewLock()
	if _, err := l.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	got := make(chan Outcome, 1)
	go func() {
		outcome, _ := l.Acquire(context.Background())
		got <- outcome
	}()

	// Let the second acquirer park in the pending slot.
	time.Sleep(20 * time.Millisecond)
	l.Release()

	select {
	case outcome := <-got:
		if outcome != OutcomeAcquired {
			t.Errorf("pending outcome = %v, want OutcomeAcquired", outcome)
		}
	case <-time.After(time.Second):
		t.Fatal("pending acquirer never woke up")
	}

	// The lock was handed off, never freed.
	if l.State() != StateBusy {
		t.Errorf("state = %v, want BUSY after handoff", l.State())
	}
	l.Release()
}

func TestLockNewestRequestDisplacesPending(t *testing.T) {
	l := NewLock()
	if _, err := l.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	first := make(chan Outcome, 1)
	go func() {
		outcome, _ := l.Acquire(context.Background())
		first <- outcome
	}()
	time.Sleep(20 * time.Millisecond)

	second := make(chan Outcome, 1)
	go func() {
		outcome, _ := l.Acquire(context.Background())
		second <- outcome
	}()
	time.Sleep(20 * time.Millisecond)

	select {
	case outcome := <-first:
		if outcome != OutcomeSuperseded {
			t.Errorf("first waiter outcome = %v, want OutcomeSuperseded", outcome)
		}
	case <-time.After(time.Second):
		t.Fatal("displaced waiter was never notified")
	}

	l.Release()
	select {
	case outcome := <-second:
		if outcome != OutcomeAcquired {
			t.Errorf("second waiter outcome = %v, want OutcomeAcquired", outcome)
		}
	case <-time.After(time.Second):
		t.Fatal("second waiter never acquired")
	}
	l.Release()
}

func TestLockAcquireContextCancel(t *testing.T) {
	l := NewLock()
	if _, err := l.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := l.Acquire(ctx)
	if err == nil {
		t.Fatal("Acquire() = nil error, want context error")
	}

	// The cancelled waiter must have vacated the pending slot.
	l.Release()
	if l.State() != StateFree {
		t.Errorf("state = %v, want FREE", l.State())
	}
}

func TestLockTryAcquire(t *testing.T) {
	l := NewLock()
	if !l.TryAcquire() {
		t.Fatal("TryAcquire() on free lock = false")
	}
	if l.TryAcquire() {
		t.Fatal("TryAcquire() on busy lock = true")
	}
	l.Release()
	if !l.TryAcquire() {
		t.Fatal("TryAcquire() after release = false")
	}
	l.Release()
}

func TestLockManyContenders(t *testing.T) {
	l := NewLock()
	if _, err := l.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	const n = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := l.Acquire(context.Background())
			if err != nil {
				return
			}
			if outcome == OutcomeAcquired {
				mu.Lock()
				acquired++
				mu.Unlock()
				l.Release()
			}
		}()
		time.Sleep(5 * time.Millisecond)
	}

	l.Release()
	wg.Wait()

	// Every contender that was not displaced spoke exactly once;
	// at least the last one must have.
	if acquired < 1 {
		t.Errorf("acquired = %d, want at least 1", acquired)
	}
	if l.State() != StateFree {
		t.Errorf("final state = %v, want FREE", l.State())
	}
}
