// Package orchestrator ties the robot together: it routes operator
// input (keys, typed messages, transcribed speech) into the
// conversation engine, speaks the replies, and publishes a feed of
// everything that happened for the operator console.
package orchestrator

import (
	"time"
)

// EntryKind classifies feed entries.
type EntryKind string

const (
	// KindUserText is a typed operator message.
	KindUserText EntryKind = "user_text"

	// KindUserVoice is a transcribed spoken message.
	KindUserVoice EntryKind = "user_voice"

	// KindAssistantText is the robot's reply.
	KindAssistantText EntryKind = "assistant_text"

	// KindStatus is a lifecycle note (recording, busy, goodbye).
	KindStatus EntryKind = "status"

	// KindError is a failure the operator should see.
	KindError EntryKind = "error"
)

// Entry is one item in the operator-visible event feed. OriginID ties
// replies and errors back to the utterance that caused them, since
// concurrent turns can finish out of order.
type Entry struct {
	Kind      EntryKind `json:"kind"`
	Payload   string    `json:"payload"`
	OriginID  string    `json:"origin_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func newEntry(kind EntryKind, payload, originID string) Entry {
	return Entry{
		Kind:      kind,
		Payload:   payload,
		OriginID:  originID,
		Timestamp: time.Now().UTC(),
	}
}
