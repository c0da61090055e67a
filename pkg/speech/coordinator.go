package speech

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-pepper/pkg/robot"
	"github.com/teslashibe/go-pepper/pkg/tts"
)

// Coordinator turns text into audible robot speech. It synthesizes
// through the provider chain and plays the result on the robot's
// speaker, holding the speech lock for the whole duration so
// utterances never overlap. If every synthesis tier fails it falls
// back to the robot's built-in voice so the robot is never mute.
type Coordinator struct {
	lock    *Lock
	synth   tts.Provider
	speaker robot.Speaker
	logger  *slog.Logger
}

// NewCoordinator creates a speech coordinator.
func NewCoordinator(lock *Lock, synth tts.Provider, speaker robot.Speaker) *Coordinator {
	return &Coordinator{
		lock:    lock,
		synth:   synth,
		speaker: speaker,
		logger:  slog.Default().With("component", "speech"),
	}
}

// SetLogger overrides the coordinator's logger.
func (c *Coordinator) SetLogger(logger *slog.Logger) {
	c.logger = logger.With("component", "speech")
}

// State reports whether the robot is currently speaking.
func (c *Coordinator) State() State {
	return c.lock.State()
}

// Speak voices the given text. It blocks until playback finishes,
// returns OutcomeSuperseded without speaking if a newer utterance
// displaced this one while waiting, and keeps no state between calls.
func (c *Coordinator) Speak(ctx context.Context, text string) (Outcome, error) {
	if text == "" {
		return OutcomeAcquired, nil
	}

	outcome, err := c.lock.Acquire(ctx)
	if err != nil {
		return outcome, err
	}
	if outcome == OutcomeSuperseded {
		c.logger.Debug("utterance superseded while waiting", "chars", len(text))
		return outcome, nil
	}
	defer c.lock.Release()

	start := time.Now()

	result, synthErr := c.synth.Synthesize(ctx, text)
	if synthErr != nil {
		c.logger.Warn("synthesis failed, using built-in voice", "error", synthErr)
		if sayErr := c.speaker.Say(ctx, text); sayErr != nil {
			return OutcomeAcquired, fmt.Errorf("speech failed: synthesis: %v, built-in: %w", synthErr, sayErr)
		}
		return OutcomeAcquired, nil
	}

	if err := c.speaker.PlayAudio(ctx, result.Audio); err != nil {
		c.logger.Warn("audio playback failed, using built-in voice", "error", err)
		if sayErr := c.speaker.Say(ctx, text); sayErr != nil {
			return OutcomeAcquired, fmt.Errorf("speech failed: playback: %v, built-in: %w", err, sayErr)
		}
		return OutcomeAcquired, nil
	}

	c.logger.Debug("utterance spoken",
		"chars", len(text),
		"synth_ms", result.LatencyMs,
		"total_ms", time.Since(start).Milliseconds(),
	)
	return OutcomeAcquired, nil
}
