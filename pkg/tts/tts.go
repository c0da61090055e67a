// Package tts provides a unified interface for text-to-speech providers.
//
// The package supports multiple TTS backends: Groq (Orpheus, fastest),
// ElevenLabs (best quality), and Edge TTS (free, unlimited). All providers
// implement the Provider interface, enabling the synthesis chain to fall
// through tiers without changing caller code.
//
// Example usage:
//
//	provider, _ := tts.NewGroq(
//	    tts.WithAPIKey(os.Getenv("GROQ_API_KEY")),
//	    tts.WithVoice("hannah"),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "Hello world")
//	// result.Audio contains WAV/MP3 audio bytes
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS provider interface.
// All implementations must satisfy this interface for seamless provider
// switching.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data in the specified format.
	Audio []byte

	// Format describes the audio encoding and sample rate.
	Format AudioFormat

	// Duration is the estimated audio playback duration.
	Duration time.Duration

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the synthesis time in milliseconds.
	LatencyMs int64
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	// Encoding specifies the audio codec (e.g., wav, mp3_24000).
	Encoding Encoding

	// SampleRate in Hz (e.g., 16000, 24000, 44100).
	SampleRate int

	// Channels is 1 for mono, 2 for stereo.
	Channels int
}

// Encoding represents audio encoding types.
type Encoding string

const (
	// EncodingWAV is RIFF/PCM16 audio (Groq Orpheus output).
	EncodingWAV Encoding = "wav"

	// EncodingMP3 is MP3 audio (ElevenLabs and Edge default output).
	EncodingMP3 Encoding = "mp3_44100_128"
)

// estimateSpeechDuration guesses playback time from character count.
// Natural speech averages roughly 15 characters per second.
func estimateSpeechDuration(charCount int) time.Duration {
	return time.Duration(charCount) * time.Second / 15
}
