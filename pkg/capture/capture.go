// Package capture records microphone audio on demand and hands it to
// a transcriber. Recording is push-to-talk: an explicit start, an
// explicit stop (or an automatic one at the length ceiling), then
// transcription, with progress reported over an event channel.
package capture

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/teslashibe/go-pepper/pkg/stt"
)

// DefaultSampleRate is the capture rate expected by the transcriber.
const DefaultSampleRate = 16000

const (
	// DefaultMinDuration discards recordings shorter than this; they
	// are key-bounce artifacts, not speech.
	DefaultMinDuration = 500 * time.Millisecond

	// DefaultMaxDuration stops a recording that was never released.
	DefaultMaxDuration = 30 * time.Second
)

var (
	// ErrNotIdle is returned when starting while a capture is in flight.
	ErrNotIdle = errors.New("capture: recorder is not idle")

	// ErrNotRecording is returned when stopping without an active recording.
	ErrNotRecording = errors.New("capture: recorder is not recording")

	// ErrTooShort reports a recording under the minimum duration.
	ErrTooShort = errors.New("capture: recording too short")
)

// State is the recorder lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateTranscribing
)

// String returns a human readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRecording:
		return "RECORDING"
	case StateTranscribing:
		return "TRANSCRIBING"
	default:
		return "UNKNOWN"
	}
}

// EventType identifies a recorder event.
type EventType int

const (
	// EventStarted fires when recording begins.
	EventStarted EventType = iota

	// EventStopped fires when recording ends, before the clip is
	// inspected.
	EventStopped

	// EventTranscribing fires when transcription begins.
	EventTranscribing

	// EventTranscribed fires with the final transcript.
	EventTranscribed

	// EventFailed fires when the capture produced no usable transcript.
	EventFailed
)

// Event is a recorder lifecycle notification.
type Event struct {
	Type       EventType
	Transcript string
	Duration   time.Duration
	Err        error
}

// SampleSource produces mono float32 audio. Start begins capture and
// returns a channel of sample chunks; Stop ends capture and closes
// the channel.
type SampleSource interface {
	Start(ctx context.Context) (<-chan []float32, error)
	Stop() error
	SampleRate() int
}

// Recorder is the push-to-talk capture state machine. One recording
// at a time: IDLE accepts Start, RECORDING accepts Stop, and the
// transcription phase runs to completion before the recorder is idle
// again.
type Recorder struct {
	source      SampleSource
	transcriber stt.Transcriber
	logger      *slog.Logger

	minDuration time.Duration
	maxDuration time.Duration
	tempDir     string

	mu     sync.Mutex
	state  State
	stopCh chan struct{}

	events chan Event
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithMinDuration overrides the short-recording floor.
func WithMinDuration(d time.Duration) RecorderOption {
	return func(r *Recorder) { r.minDuration = d }
}

// WithMaxDuration overrides the auto-stop ceiling.
func WithMaxDuration(d time.Duration) RecorderOption {
	return func(r *Recorder) { r.maxDuration = d }
}

// WithTempDir overrides where intermediate WAV files are written.
func WithTempDir(dir string) RecorderOption {
	return func(r *Recorder) { r.tempDir = dir }
}

// WithRecorderLogger overrides the recorder's logger.
func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = logger }
}

// NewRecorder creates an idle recorder.
func NewRecorder(source SampleSource, transcriber stt.Transcriber, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		source:      source,
		transcriber: transcriber,
		logger:      slog.Default().With("component", "capture"),
		minDuration: DefaultMinDuration,
		maxDuration: DefaultMaxDuration,
		tempDir:     os.TempDir(),
		state:       StateIdle,
		events:      make(chan Event, 16),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Events delivers recorder lifecycle notifications.
func (r *Recorder) Events() <-chan Event {
	return r.events
}

// State returns the current recorder state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start begins a recording. Fails with ErrNotIdle if a capture is
// already in flight.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return ErrNotIdle
	}
	r.state = StateRecording
	r.stopCh = make(chan struct{})
	stopCh := r.stopCh
	r.mu.Unlock()

	chunks, err := r.source.Start(ctx)
	if err != nil {
		r.mu.Lock()
		r.state = StateIdle
		r.stopCh = nil
		r.mu.Unlock()
		return err
	}

	r.logger.Debug("recording started")
	r.events <- Event{Type: EventStarted}

	go r.collect(ctx, chunks, stopCh)
	return nil
}

// Stop ends the active recording. Transcription continues in the
// background; the outcome arrives on the event channel.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRecording || r.stopCh == nil {
		return ErrNotRecording
	}
	close(r.stopCh)
	r.stopCh = nil
	return nil
}

// Toggle starts a recording when idle and stops it when recording.
func (r *Recorder) Toggle(ctx context.Context) error {
	switch r.State() {
	case StateIdle:
		return r.Start(ctx)
	case StateRecording:
		return r.Stop()
	default:
		return ErrNotIdle
	}
}

// collect accumulates sample chunks until stop, context end, or the
// duration ceiling, then runs the transcription phase.
func (r *Recorder) collect(ctx context.Context, chunks <-chan []float32, stopCh chan struct{}) {
	maxSamples := int(r.maxDuration.Seconds() * float64(r.source.SampleRate()))
	var samples []float32

loop:
	for {
		select {
		case <-stopCh:
			break loop
		case <-ctx.Done():
			break loop
		case chunk, ok := <-chunks:
			if !ok {
				break loop
			}
			samples = append(samples, chunk...)
			if len(samples) >= maxSamples {
				samples = samples[:maxSamples]
				r.logger.Warn("recording hit duration ceiling, stopping",
					"max_duration", r.maxDuration,
				)
				r.mu.Lock()
				if r.stopCh != nil {
					close(r.stopCh)
					r.stopCh = nil
				}
				r.mu.Unlock()
				break loop
			}
		}
	}

	if err := r.source.Stop(); err != nil {
		r.logger.Warn("sample source stop failed", "error", err)
	}

	// Keep whatever the source delivered before it closed the channel.
	for chunk := range chunks {
		if len(samples) >= maxSamples {
			continue
		}
		samples = append(samples, chunk...)
		if len(samples) > maxSamples {
			samples = samples[:maxSamples]
		}
	}

	r.finish(ctx, samples)
}

// finish validates the recording, writes it to a temp WAV file, and
// transcribes it. The recorder returns to idle whatever happens.
func (r *Recorder) finish(ctx context.Context, samples []float32) {
	rate := r.source.SampleRate()
	duration := time.Duration(float64(len(samples)) / float64(rate) * float64(time.Second))

	r.events <- Event{Type: EventStopped, Duration: duration}

	if duration < r.minDuration {
		r.logger.Debug("recording below duration floor, discarding",
			"duration", duration,
			"min_duration", r.minDuration,
		)
		r.setState(StateIdle)
		r.events <- Event{Type: EventFailed, Duration: duration, Err: ErrTooShort}
		return
	}

	r.setState(StateTranscribing)
	r.events <- Event{Type: EventTranscribing, Duration: duration}

	path := filepath.Join(r.tempDir, tempWAVName())
	if err := WriteWAVFile(path, samples, rate); err != nil {
		r.setState(StateIdle)
		r.events <- Event{Type: EventFailed, Duration: duration, Err: err}
		return
	}
	defer os.Remove(path)

	transcript, err := r.transcriber.Transcribe(ctx, path)
	r.setState(StateIdle)
	if err != nil {
		r.logger.Warn("transcription failed", "error", err, "duration", duration)
		r.events <- Event{Type: EventFailed, Duration: duration, Err: err}
		return
	}

	r.logger.Info("transcription complete",
		"chars", len(transcript),
		"duration", duration,
	)
	r.events <- Event{Type: EventTranscribed, Transcript: transcript, Duration: duration}
}

func (r *Recorder) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func tempWAVName() string {
	return "capture-" + time.Now().UTC().Format("20060102T150405.000000000") + ".wav"
}
