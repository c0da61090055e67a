// Package conversation runs the robot's dialogue: it keeps a bounded
// history, drives the model's tool-calling loop, and cleans model
// output into something a speaker can actually say.
package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Origin identifies where an utterance came from.
type Origin string

const (
	// OriginTerminal is the local operator keyboard.
	OriginTerminal Origin = "terminal"

	// OriginConsole is the web operator console.
	OriginConsole Origin = "console"

	// OriginVoice is transcribed microphone speech.
	OriginVoice Origin = "voice"

	// OriginRobot is the robot's own reply.
	OriginRobot Origin = "robot"
)

// Modality distinguishes typed from spoken input.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityVoice Modality = "voice"
)

// Utterance is one thing somebody said, with enough identity to
// correlate replies that finish out of order.
type Utterance struct {
	ID        string    `json:"id"`
	Origin    Origin    `json:"origin"`
	Modality  Modality  `json:"modality"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUtterance creates an utterance with a fresh ID and timestamp.
func NewUtterance(origin Origin, modality Modality, text string) Utterance {
	return Utterance{
		ID:        uuid.NewString(),
		Origin:    origin,
		Modality:  modality,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}
