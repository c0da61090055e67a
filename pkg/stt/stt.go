// Package stt provides speech-to-text transcription for recorded audio.
//
// The package abstracts transcription behind a single Transcriber
// interface so the voice capture pipeline can swap backends (Groq Whisper,
// a local whisper.cpp server, a test mock) without changing caller code.
package stt

import (
	"context"
	"errors"
)

// Transcriber converts a recorded audio file to text.
type Transcriber interface {
	// Transcribe reads the WAV file at path and returns the recognized
	// text. Returns ErrNoSpeech when the backend produced no text.
	Transcribe(ctx context.Context, path string) (string, error)
}

// Sentinel errors.
var (
	// ErrNoSpeech is returned when transcription succeeds but the clip
	// contained no recognizable speech.
	ErrNoSpeech = errors.New("stt: no speech detected")

	// ErrNoAPIKey is returned when the API key is missing.
	ErrNoAPIKey = errors.New("stt: API key required")
)
