// Package speech serializes robot speech output. The robot has one
// speaker, so at most one utterance plays at a time; while one is
// playing, at most one request waits, and a newer request displaces
// the waiting one.
package speech

import (
	"context"
	"sync"
)

// State reports whether the speaker is in use.
type State int

const (
	// StateFree means no utterance is playing.
	StateFree State = iota

	// StateBusy means an utterance is playing.
	StateBusy
)

// String returns a human readable state name.
func (s State) String() string {
	switch s {
	case StateFree:
		return "FREE"
	case StateBusy:
		return "BUSY"
	default:
		return "UNKNOWN"
	}
}

// Outcome is the result of an Acquire attempt.
type Outcome int

const (
	// OutcomeAcquired means the caller holds the lock and may speak.
	OutcomeAcquired Outcome = iota

	// OutcomeSuperseded means a newer request displaced this one while
	// it was waiting. The caller must not speak and must not Release.
	OutcomeSuperseded
)

// waiter occupies the single pending slot. The channel is buffered so
// the lock never blocks notifying a waiter that has already left.
type waiter struct {
	ch chan Outcome
}

// Lock is a speech gate with one pending slot. Acquire while free
// succeeds immediately; while busy it parks in the pending slot,
// displacing whoever was parked there. Release hands the lock to the
// pending waiter if one exists, otherwise frees it.
type Lock struct {
	mu      sync.Mutex
	busy    bool
	pending *waiter
}

// NewLock creates a free speech lock.
func NewLock() *Lock {
	return &Lock{}
}

// State returns the current lock state.
func (l *Lock) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return StateBusy
	}
	return StateFree
}

// Acquire obtains the right to speak. It returns OutcomeAcquired once
// the caller holds the lock, OutcomeSuperseded if a newer request
// displaced this one, or the context error if ctx ends first. Only an
// OutcomeAcquired caller may (and must) call Release.
func (l *Lock) Acquire(ctx context.Context) (Outcome, error) {
	l.mu.Lock()
	if !l.busy {
		l.busy = true
		l.mu.Unlock()
		return OutcomeAcquired, nil
	}

	w := &waiter{ch: make(chan Outcome, 1)}
	if l.pending != nil {
		l.pending.ch <- OutcomeSuperseded
	}
	l.pending = w
	l.mu.Unlock()

	select {
	case outcome := <-w.ch:
		return outcome, nil
	case <-ctx.Done():
		l.mu.Lock()
		if l.pending == w {
			l.pending = nil
			l.mu.Unlock()
			return OutcomeSuperseded, ctx.Err()
		}
		l.mu.Unlock()
		// Notification raced with cancellation; honor whatever arrived.
		outcome := <-w.ch
		if outcome == OutcomeAcquired {
			l.Release()
			return OutcomeSuperseded, ctx.Err()
		}
		return outcome, nil
	}
}

// TryAcquire obtains the lock only if it is free.
func (l *Lock) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return false
	}
	l.busy = true
	return true
}

// Release ends the caller's turn. If a request is waiting it takes
// over without the lock ever reading as free.
func (l *Lock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending != nil {
		w := l.pending
		l.pending = nil
		w.ch <- OutcomeAcquired
		return
	}
	l.busy = false
}
