// Package movement tracks operator drive input and keeps the robot's
// base safe: directions are held, not latched, and a watchdog halts
// the base when input goes quiet.
package movement

import (
	"sync"
	"time"

	"github.com/teslashibe/go-pepper/pkg/robot"
)

// directionPriority resolves simultaneous held directions. Linear
// motion wins over turning, turning over strafing.
var directionPriority = []robot.MoveDirection{
	robot.MoveForward,
	robot.MoveBackward,
	robot.MoveTurnLeft,
	robot.MoveTurnRight,
	robot.MoveStrafeLeft,
	robot.MoveStrafeRight,
}

// State is the set of currently held drive directions plus the time
// of the most recent input. Key handlers write, the watchdog reads.
type State struct {
	mu        sync.Mutex
	held      map[robot.MoveDirection]bool
	lastInput time.Time
}

// NewState creates an empty drive state.
func NewState() *State {
	return &State{held: make(map[robot.MoveDirection]bool)}
}

// Press marks a direction as held and refreshes the input timestamp.
// Terminal autorepeat calls this again for a held key, which is what
// keeps the watchdog fed.
func (s *State) Press(dir robot.MoveDirection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.held[dir] = true
	s.lastInput = time.Now()
}

// Release clears a held direction.
func (s *State) Release(dir robot.MoveDirection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.held, dir)
	s.lastInput = time.Now()
}

// Clear drops all held directions.
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.held = make(map[robot.MoveDirection]bool)
}

// Current returns the highest priority held direction.
func (s *State) Current() (robot.MoveDirection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, dir := range directionPriority {
		if s.held[dir] {
			return dir, true
		}
	}
	return "", false
}

// LastInput returns the time of the most recent press or release.
func (s *State) LastInput() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastInput
}
