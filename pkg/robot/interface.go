// Package robot provides interfaces and implementations for Pepper robot control.
//
// This package follows the Interface Segregation Principle (ISP) by defining
// small, focused interfaces that can be composed as needed. Consumers should
// depend only on the interfaces they actually use.
package robot

import "context"

// Gesture identifies a pre-choreographed upper-body animation.
type Gesture string

// Available gestures. These map 1:1 onto the bridge daemon's animation API.
const (
	GestureWave        Gesture = "wave"
	GestureNod         Gesture = "nod"
	GestureShakeHead   Gesture = "shake_head"
	GestureThinking    Gesture = "thinking_gesture"
	GestureExplaining  Gesture = "explaining_gesture"
	GestureExcited     Gesture = "excited_gesture"
	GesturePoint       Gesture = "point_forward"
	GestureShrug       Gesture = "shrug"
	GestureCelebrate   Gesture = "celebrate"
	GestureLookAround  Gesture = "look_around"
	GestureBow         Gesture = "bow"
	GestureLookAtSound Gesture = "look_at_sound"
)

// EyeColor is an LED color for Pepper's eye rings.
type EyeColor string

// Supported eye colors.
const (
	EyeBlue  EyeColor = "blue"
	EyeGreen EyeColor = "green"
	EyeRed   EyeColor = "red"
	EyeWhite EyeColor = "white"
)

// ValidEyeColor reports whether c is one of the supported eye colors.
func ValidEyeColor(c EyeColor) bool {
	switch c {
	case EyeBlue, EyeGreen, EyeRed, EyeWhite:
		return true
	}
	return false
}

// MoveDirection is a base locomotion direction.
type MoveDirection string

// Base locomotion directions. Locomotion is operator-only and never
// exposed to the model's tool schema.
const (
	MoveForward     MoveDirection = "forward"
	MoveBackward    MoveDirection = "backward"
	MoveTurnLeft    MoveDirection = "turn_left"
	MoveTurnRight   MoveDirection = "turn_right"
	MoveStrafeLeft  MoveDirection = "strafe_left"
	MoveStrafeRight MoveDirection = "strafe_right"
)

// GestureController plays pre-choreographed gestures.
// Use this minimal interface when only gestures are needed (e.g. the tool
// dispatcher).
type GestureController interface {
	PlayGesture(g Gesture) error
}

// LEDController controls Pepper's eye LEDs.
type LEDController interface {
	SetEyeColor(color EyeColor) error
}

// LocomotionController drives the base. Move is held-state: the base keeps
// moving in the given direction until Stop is called.
type LocomotionController interface {
	Move(dir MoveDirection) error
	Stop() error
}

// Speaker provides audio output through Pepper's speakers.
// PlayAudio streams a synthesized WAV/MP3 buffer; Say uses the robot's
// built-in voice and is the synthesis chain's last resort.
type Speaker interface {
	PlayAudio(ctx context.Context, audio []byte) error
	Say(ctx context.Context, text string) error
}

// StatusController provides robot status queries.
type StatusController interface {
	GetBridgeStatus() (string, error)
}

// VolumeController provides audio volume control.
type VolumeController interface {
	SetVolume(level int) error
}

// Controller is the composite interface for full robot control.
// Use this when you need complete robot control capabilities.
type Controller interface {
	GestureController
	LEDController
	LocomotionController
	Speaker
	StatusController
	VolumeController
}

// Ensure HTTPController implements Controller
var _ Controller = (*HTTPController)(nil)
