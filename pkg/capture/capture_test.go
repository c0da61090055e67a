package capture

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/teslashibe/go-pepper/pkg/stt"
)

func waitEvent(t *testing.T, events <-chan Event, want EventType) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event %v", want)
		}
	}
}

func TestRecorderTranscribesRecording(t *testing.T) {
	// One second of audio at 16kHz.
	source := NewMockSource(DefaultSampleRate, make([]float32, DefaultSampleRate))
	transcriber := stt.NewMock()
	r := NewRecorder(source, transcriber, WithTempDir(t.TempDir()))

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitEvent(t, r.Events(), EventStarted)

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	waitEvent(t, r.Events(), EventTranscribing)
	ev := waitEvent(t, r.Events(), EventTranscribed)
	if ev.Transcript != "mock transcript" {
		t.Errorf("transcript = %q", ev.Transcript)
	}
	if ev.Duration != time.Second {
		t.Errorf("duration = %v, want 1s", ev.Duration)
	}
	if len(transcriber.Paths()) != 1 {
		t.Errorf("transcriber called %d times, want 1", len(transcriber.Paths()))
	}
	if r.State() != StateIdle {
		t.Errorf("state = %v, want IDLE", r.State())
	}
}

func TestRecorderEventSequence(t *testing.T) {
	source := NewMockSource(DefaultSampleRate, make([]float32, DefaultSampleRate))
	r := NewRecorder(source, stt.NewMock(), WithTempDir(t.TempDir()))

	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}

	want := []EventType{EventStarted, EventStopped, EventTranscribing, EventTranscribed}
	for i, w := range want {
		select {
		case ev := <-r.Events():
			if ev.Type != w {
				t.Fatalf("event %d = %v, want %v", i, ev.Type, w)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d (%v)", i, w)
		}
	}
}

func TestRecorderDiscardsShortRecording(t *testing.T) {
	// 0.3 seconds, below the half second floor.
	source := NewMockSource(DefaultSampleRate, make([]float32, DefaultSampleRate*3/10))
	transcriber := stt.NewMock()
	r := NewRecorder(source, transcriber, WithTempDir(t.TempDir()))

	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitEvent(t, r.Events(), EventStarted)
	time.Sleep(20 * time.Millisecond)
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}

	ev := waitEvent(t, r.Events(), EventFailed)
	if !errors.Is(ev.Err, ErrTooShort) {
		t.Errorf("event error = %v, want ErrTooShort", ev.Err)
	}
	if len(transcriber.Paths()) != 0 {
		t.Errorf("transcriber called %d times, want 0", len(transcriber.Paths()))
	}
	if r.State() != StateIdle {
		t.Errorf("state = %v, want IDLE", r.State())
	}
}

func TestRecorderStopsAtDurationCeiling(t *testing.T) {
	// Feed 2 seconds of samples against a 1 second ceiling.
	rate := 1000
	chunks := make([][]float32, 20)
	for i := range chunks {
		chunks[i] = make([]float32, rate/10)
	}
	source := NewMockSource(rate, chunks...)
	transcriber := stt.NewMock()
	r := NewRecorder(source, transcriber,
		WithTempDir(t.TempDir()),
		WithMinDuration(100*time.Millisecond),
		WithMaxDuration(time.Second),
	)

	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Never call Stop: the ceiling must end the recording on its own.
	ev := waitEvent(t, r.Events(), EventTranscribed)
	if ev.Duration != time.Second {
		t.Errorf("duration = %v, want exactly the 1s ceiling", ev.Duration)
	}
}

func TestRecorderTranscriptionFailure(t *testing.T) {
	source := NewMockSource(DefaultSampleRate, make([]float32, DefaultSampleRate))
	transcriber := stt.MockWithError(stt.ErrNoSpeech)
	r := NewRecorder(source, transcriber, WithTempDir(t.TempDir()))

	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitEvent(t, r.Events(), EventStarted)
	time.Sleep(20 * time.Millisecond)
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}

	ev := waitEvent(t, r.Events(), EventFailed)
	if !errors.Is(ev.Err, stt.ErrNoSpeech) {
		t.Errorf("event error = %v, want ErrNoSpeech", ev.Err)
	}
	if r.State() != StateIdle {
		t.Errorf("state = %v, want IDLE", r.State())
	}
}

func TestRecorderRejectsDoubleStart(t *testing.T) {
	source := NewMockSource(DefaultSampleRate, make([]float32, DefaultSampleRate))
	r := NewRecorder(source, stt.NewMock(), WithTempDir(t.TempDir()))

	if err := r.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(context.Background()); !errors.Is(err, ErrNotIdle) {
		t.Errorf("second Start() error = %v, want ErrNotIdle", err)
	}
	r.Stop()
}

func TestRecorderStopWhileIdle(t *testing.T) {
	source := NewMockSource(DefaultSampleRate)
	r := NewRecorder(source, stt.NewMock())

	if err := r.Stop(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("Stop() error = %v, want ErrNotRecording", err)
	}
}

func TestEncodeWAVHeader(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1}
	var buf bytes.Buffer
	if err := EncodeWAV(&buf, samples, DefaultSampleRate); err != nil {
		t.Fatalf("EncodeWAV() error = %v", err)
	}

	data := buf.Bytes()
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("bad RIFF header: %q", data[0:12])
	}
	if format := binary.LittleEndian.Uint16(data[20:22]); format != wavFormatIEEEFloat {
		t.Errorf("format tag = %d, want %d", format, wavFormatIEEEFloat)
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != DefaultSampleRate {
		t.Errorf("sample rate = %d, want %d", rate, DefaultSampleRate)
	}
	if bits := binary.LittleEndian.Uint16(data[34:36]); bits != 32 {
		t.Errorf("bits per sample = %d, want 32", bits)
	}
	wantLen := 12 + 24 + 12 + 8 + len(samples)*4
	if len(data) != wantLen {
		t.Errorf("encoded length = %d, want %d", len(data), wantLen)
	}
}
