package movement

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-pepper/pkg/robot"
)

const (
	// DefaultTick is the watchdog poll interval.
	DefaultTick = 100 * time.Millisecond

	// DefaultTimeout halts the base after this long without input.
	DefaultTimeout = 1000 * time.Millisecond
)

// Phase is the watchdog's drive phase.
type Phase int

const (
	// PhaseIdle means the base is stopped and no direction is held.
	PhaseIdle Phase = iota

	// PhaseActive means the base is executing a held direction.
	PhaseActive

	// PhaseHalted means the watchdog stopped the base after an input
	// timeout and is waiting for fresh input.
	PhaseHalted
)

// String returns a human readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseActive:
		return "ACTIVE"
	case PhaseHalted:
		return "HALTED"
	default:
		return "UNKNOWN"
	}
}

// Watchdog drives the base from the shared drive state and guarantees
// the robot never keeps moving on stale input. Each tick it issues the
// current held direction; when input goes quiet past the timeout it
// issues exactly one Stop and clears the held set.
type Watchdog struct {
	state   *State
	loco    robot.LocomotionController
	tick    time.Duration
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	phase   Phase
	lastDir robot.MoveDirection
}

// WatchdogOption configures a Watchdog.
type WatchdogOption func(*Watchdog)

// WithTick overrides the poll interval.
func WithTick(d time.Duration) WatchdogOption {
	return func(w *Watchdog) { w.tick = d }
}

// WithTimeout overrides the input staleness timeout.
func WithTimeout(d time.Duration) WatchdogOption {
	return func(w *Watchdog) { w.timeout = d }
}

// WithWatchdogLogger overrides the watchdog's logger.
func WithWatchdogLogger(logger *slog.Logger) WatchdogOption {
	return func(w *Watchdog) { w.logger = logger.With("component", "movement") }
}

// NewWatchdog creates a watchdog over the given state and base.
func NewWatchdog(state *State, loco robot.LocomotionController, opts ...WatchdogOption) *Watchdog {
	w := &Watchdog{
		state:   state,
		loco:    loco,
		tick:    DefaultTick,
		timeout: DefaultTimeout,
		logger:  slog.Default().With("component", "movement"),
		phase:   PhaseIdle,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Phase returns the current drive phase.
func (w *Watchdog) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// Run polls until ctx ends. On exit it stops the base if it was moving.
func (w *Watchdog) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			moving := w.phase == PhaseActive
			w.phase = PhaseIdle
			w.mu.Unlock()
			if moving {
				if err := w.loco.Stop(); err != nil {
					w.logger.Warn("stop on shutdown failed", "error", err)
				}
			}
			return ctx.Err()
		case <-ticker.C:
			w.step(time.Now())
		}
	}
}

// step advances the drive phase for one tick.
func (w *Watchdog) step(now time.Time) {
	dir, held := w.state.Current()
	stale := now.Sub(w.state.LastInput()) >= w.timeout

	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case held && !stale:
		if w.phase != PhaseActive || dir != w.lastDir {
			if err := w.loco.Move(dir); err != nil {
				w.logger.Warn("move command failed", "direction", dir, "error", err)
				return
			}
			w.logger.Debug("driving", "direction", dir)
		}
		w.phase = PhaseActive
		w.lastDir = dir

	case w.phase == PhaseActive:
		// One Stop per halt; a failed Stop is retried next tick.
		if err := w.loco.Stop(); err != nil {
			w.logger.Warn("halt failed, retrying", "error", err)
			return
		}
		w.state.Clear()
		w.phase = PhaseHalted
		if stale {
			w.logger.Info("input stale, base halted", "timeout", w.timeout)
		} else {
			w.logger.Debug("all directions released, base halted")
		}

	case w.phase == PhaseHalted && !held:
		w.phase = PhaseIdle
	}
}
