package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/teslashibe/go-pepper/pkg/capture"
	"github.com/teslashibe/go-pepper/pkg/conversation"
	"github.com/teslashibe/go-pepper/pkg/robot"
	"github.com/teslashibe/go-pepper/pkg/speech"
)

// DefaultWorkers bounds how many conversation turns run at once.
const DefaultWorkers = 4

// ErrQuit is returned by HandleKey when the operator asks to exit.
var ErrQuit = errors.New("orchestrator: quit requested")

// Responder produces the robot's reply to user text.
type Responder interface {
	Respond(ctx context.Context, userText string) (string, error)
}

// Speaker voices text on the robot.
type Speaker interface {
	Speak(ctx context.Context, text string) (speech.Outcome, error)
}

// Orchestrator is the robot's control loop. Utterances arrive on a
// queue and are handled by a bounded worker pool; lifecycle events
// stream out on the entries feed.
type Orchestrator struct {
	responder Responder
	speaker   Speaker
	recorder  *capture.Recorder
	ctrl      robot.Controller
	logger    *slog.Logger

	keys *KeyRouter

	messages chan conversation.Utterance
	entries  chan Entry
	sem      *semaphore.Weighted
	workers  int64

	paused  atomic.Bool
	dropped atomic.Int64

	// Written only from the terminal key loop.
	lastTalkToggle time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWorkers overrides the concurrent turn bound.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = int64(n)
		}
	}
}

// WithLogger overrides the orchestrator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger.With("component", "orchestrator") }
}

// New creates an orchestrator. recorder may be nil when no microphone
// is available; voice keys then report a status instead of recording.
func New(responder Responder, speaker Speaker, recorder *capture.Recorder, ctrl robot.Controller, keys *KeyRouter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		responder: responder,
		speaker:   speaker,
		recorder:  recorder,
		ctrl:      ctrl,
		keys:      keys,
		logger:    slog.Default().With("component", "orchestrator"),
		messages:  make(chan conversation.Utterance, 16),
		entries:   make(chan Entry, 64),
		workers:   DefaultWorkers,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.sem = semaphore.NewWeighted(o.workers)
	return o
}

// Entries is the operator-visible event feed. Slow consumers lose
// entries rather than stalling the robot.
func (o *Orchestrator) Entries() <-chan Entry {
	return o.entries
}

// Dropped reports how many feed entries were discarded.
func (o *Orchestrator) Dropped() int64 {
	return o.dropped.Load()
}

// Paused reports whether conversation handling is paused.
func (o *Orchestrator) Paused() bool {
	return o.paused.Load()
}

// TogglePause flips conversation handling on or off.
func (o *Orchestrator) TogglePause() bool {
	paused := !o.paused.Load()
	o.paused.Store(paused)
	if paused {
		o.emit(newEntry(KindStatus, "robot is idle", ""))
	} else {
		o.emit(newEntry(KindStatus, "robot is active", ""))
	}
	return paused
}

// Submit queues an utterance for handling. It never blocks; when the
// queue is full the caller gets false and a busy entry is published.
func (o *Orchestrator) Submit(u conversation.Utterance) bool {
	if o.paused.Load() {
		o.emit(newEntry(KindStatus, "robot is idle", u.ID))
		return false
	}
	select {
	case o.messages <- u:
		return true
	default:
		o.emit(newEntry(KindStatus, "message queue full, try again", u.ID))
		return false
	}
}

// Run consumes utterances and recorder events until ctx ends.
func (o *Orchestrator) Run(ctx context.Context) error {
	var recorderEvents <-chan capture.Event
	if o.recorder != nil {
		recorderEvents = o.recorder.Events()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case u := <-o.messages:
			if !o.sem.TryAcquire(1) {
				o.emit(newEntry(KindStatus, "all workers busy, message dropped", u.ID))
				continue
			}
			go func(u conversation.Utterance) {
				defer o.sem.Release(1)
				o.handleUtterance(ctx, u)
			}(u)

		case ev := <-recorderEvents:
			o.handleRecorderEvent(ctx, ev)
		}
	}
}

// handleUtterance runs one conversation turn. A panic anywhere in the
// turn becomes an error entry, never a crash.
func (o *Orchestrator) handleUtterance(ctx context.Context, u conversation.Utterance) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("turn panicked", "panic", r, "utterance_id", u.ID)
			o.emit(newEntry(KindError, fmt.Sprintf("internal error: %v", r), u.ID))
		}
	}()

	kind := KindUserText
	if u.Modality == conversation.ModalityVoice {
		kind = KindUserVoice
	}
	o.emit(newEntry(kind, u.Text, u.ID))

	reply, err := o.responder.Respond(ctx, u.Text)
	if err != nil {
		o.logger.Error("respond failed", "error", err, "utterance_id", u.ID)
		o.emit(newEntry(KindError, err.Error(), u.ID))
		return
	}

	o.emit(newEntry(KindAssistantText, reply, u.ID))

	outcome, err := o.speaker.Speak(ctx, reply)
	if err != nil {
		o.logger.Warn("speak failed", "error", err, "utterance_id", u.ID)
		o.emit(newEntry(KindError, "speech failed: "+err.Error(), u.ID))
		return
	}
	if outcome == speech.OutcomeSuperseded {
		o.emit(newEntry(KindStatus, "reply superseded by newer speech", u.ID))
	}

	if isGoodbye(u.Text) {
		o.emit(newEntry(KindStatus, "goodbye", u.ID))
		if err := o.ctrl.PlayGesture(robot.GestureWave); err != nil {
			o.logger.Debug("goodbye wave failed", "error", err)
		}
		if err := o.ctrl.SetEyeColor(robot.EyeWhite); err != nil {
			o.logger.Debug("goodbye eye color failed", "error", err)
		}
		o.paused.Store(true)
		o.emit(newEntry(KindStatus, "robot is idle", u.ID))
	}
}

// handleRecorderEvent turns capture lifecycle events into feed
// entries and submits finished transcripts as voice utterances.
func (o *Orchestrator) handleRecorderEvent(ctx context.Context, ev capture.Event) {
	switch ev.Type {
	case capture.EventStarted:
		o.emit(newEntry(KindStatus, "recording", ""))
	case capture.EventStopped:
		o.emit(newEntry(KindStatus, "recording stopped", ""))
	case capture.EventTranscribing:
		o.emit(newEntry(KindStatus, "transcribing", ""))
	case capture.EventTranscribed:
		u := conversation.NewUtterance(conversation.OriginVoice, conversation.ModalityVoice, ev.Transcript)
		o.Submit(u)
	case capture.EventFailed:
		if errors.Is(ev.Err, capture.ErrTooShort) {
			o.emit(newEntry(KindStatus, "recording too short, ignored", ""))
			return
		}
		o.emit(newEntry(KindError, "voice capture failed: "+ev.Err.Error(), ""))
	}
}

// emit publishes a feed entry without ever blocking the control loop.
func (o *Orchestrator) emit(e Entry) {
	select {
	case o.entries <- e:
	default:
		o.dropped.Add(1)
	}
}

// goodbyePhrases end a conversation; matching is whole-word-ish and
// case insensitive.
var goodbyePhrases = []string{"goodbye", "good bye", "bye bye", "see you later"}

func isGoodbye(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range goodbyePhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return strings.TrimSpace(lower) == "bye"
}
