package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/teslashibe/go-pepper/pkg/capture"
	"github.com/teslashibe/go-pepper/pkg/movement"
	"github.com/teslashibe/go-pepper/pkg/robot"
)

// talkDebounce swallows terminal autorepeat of a held record key so it
// cannot flap the recorder.
const talkDebounce = 300 * time.Millisecond

// Drive keys. Terminal autorepeat keeps a held key pressing, which is
// what feeds the movement watchdog.
var driveKeys = map[rune]robot.MoveDirection{
	'w': robot.MoveForward,
	's': robot.MoveBackward,
	'a': robot.MoveTurnLeft,
	'd': robot.MoveTurnRight,
	'q': robot.MoveStrafeLeft,
	'e': robot.MoveStrafeRight,
}

// Number row: gestures on most digits, eye colors on 5/6/7.
var gestureKeys = map[rune]robot.Gesture{
	'1': robot.GestureWave,
	'2': robot.GestureNod,
	'3': robot.GestureShakeHead,
	'4': robot.GestureThinking,
	'8': robot.GestureExcited,
	'9': robot.GestureCelebrate,
	'0': robot.GestureBow,
}

var eyeColorKeys = map[rune]robot.EyeColor{
	'5': robot.EyeBlue,
	'6': robot.EyeGreen,
	'7': robot.EyeRed,
}

// KeyRouter translates single keypresses into drive input and robot
// actions. It handles the stateless keys; the orchestrator layers the
// session keys (record, pause, quit) on top.
type KeyRouter struct {
	drive  *movement.State
	ctrl   robot.Controller
	logger *slog.Logger
}

// NewKeyRouter creates a key router.
func NewKeyRouter(drive *movement.State, ctrl robot.Controller) *KeyRouter {
	return &KeyRouter{
		drive:  drive,
		ctrl:   ctrl,
		logger: slog.Default().With("component", "keys"),
	}
}

// Handle processes one keypress. It returns false for keys it does
// not own.
func (k *KeyRouter) Handle(key rune) bool {
	if dir, ok := driveKeys[key]; ok {
		k.drive.Press(dir)
		return true
	}

	if g, ok := gestureKeys[key]; ok {
		if err := k.ctrl.PlayGesture(g); err != nil {
			k.logger.Warn("gesture failed", "gesture", g, "error", err)
		}
		return true
	}

	if c, ok := eyeColorKeys[key]; ok {
		if err := k.ctrl.SetEyeColor(c); err != nil {
			k.logger.Warn("eye color failed", "color", c, "error", err)
		}
		return true
	}

	return false
}

// Release clears a held drive key. Only the web console sends
// releases; the terminal relies on the watchdog timeout instead.
func (k *KeyRouter) Release(key rune) bool {
	if dir, ok := driveKeys[key]; ok {
		k.drive.Release(dir)
		return true
	}
	return false
}

// HandleKey processes one operator keypress, terminal or console.
// Returns ErrQuit when the operator asks to exit.
func (o *Orchestrator) HandleKey(ctx context.Context, key rune) error {
	switch key {
	case 'x':
		return ErrQuit

	case ' ':
		o.TogglePause()
		return nil

	case 'r':
		// The raw terminal delivers no key releases, so record is a
		// toggle here. The web console gets true push-to-talk through
		// PressTalk/ReleaseTalk instead.
		if o.recorder == nil {
			o.emit(newEntry(KindStatus, "no microphone available", ""))
			return nil
		}
		if time.Since(o.lastTalkToggle) < talkDebounce {
			return nil
		}
		o.lastTalkToggle = time.Now()
		if err := o.recorder.Toggle(ctx); err != nil {
			o.emit(newEntry(KindStatus, "recorder busy", ""))
		}
		return nil
	}

	if o.keys != nil && o.keys.Handle(key) {
		return nil
	}
	o.logger.Debug("unmapped key", "key", string(key))
	return nil
}

// ReleaseKey processes a key release from the web console.
func (o *Orchestrator) ReleaseKey(key rune) {
	if o.keys != nil {
		o.keys.Release(key)
	}
}

// PressTalk begins a push-to-talk capture. Pressing while a capture
// is already in flight is a no-op.
func (o *Orchestrator) PressTalk(ctx context.Context) {
	if o.recorder == nil {
		o.emit(newEntry(KindStatus, "no microphone available", ""))
		return
	}
	if err := o.recorder.Start(ctx); err != nil {
		if errors.Is(err, capture.ErrNotIdle) {
			return
		}
		o.emit(newEntry(KindError, "voice capture failed: "+err.Error(), ""))
	}
}

// ReleaseTalk ends a push-to-talk capture. A release with no active
// recording is a no-op.
func (o *Orchestrator) ReleaseTalk() {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.Stop(); err != nil && !errors.Is(err, capture.ErrNotRecording) {
		o.logger.Debug("talk release ignored", "error", err)
	}
}
