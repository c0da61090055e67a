package robot

import (
	"context"
	"sync"
	"time"
)

// Mock implements Controller for testing.
// All methods can be customized via function fields; by default every call
// succeeds and is recorded.
type Mock struct {
	PlayGestureFunc func(g Gesture) error
	SetEyeColorFunc func(color EyeColor) error
	MoveFunc        func(dir MoveDirection) error
	StopFunc        func() error
	PlayAudioFunc   func(ctx context.Context, audio []byte) error
	SayFunc         func(ctx context.Context, text string) error
	SetVolumeFunc   func(level int) error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method string
	Arg    string
	Time   time.Time
}

// NewMock creates a mock controller where every call succeeds.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) record(method, arg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Method: method, Arg: arg, Time: time.Now()})
}

// Calls returns a copy of all recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times method was invoked.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reset clears recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// PlayGesture records the call and delegates to PlayGestureFunc if set.
func (m *Mock) PlayGesture(g Gesture) error {
	m.record("PlayGesture", string(g))
	if m.PlayGestureFunc != nil {
		return m.PlayGestureFunc(g)
	}
	return nil
}

// SetEyeColor records the call and delegates to SetEyeColorFunc if set.
func (m *Mock) SetEyeColor(color EyeColor) error {
	m.record("SetEyeColor", string(color))
	if m.SetEyeColorFunc != nil {
		return m.SetEyeColorFunc(color)
	}
	return nil
}

// Move records the call and delegates to MoveFunc if set.
func (m *Mock) Move(dir MoveDirection) error {
	m.record("Move", string(dir))
	if m.MoveFunc != nil {
		return m.MoveFunc(dir)
	}
	return nil
}

// Stop records the call and delegates to StopFunc if set.
func (m *Mock) Stop() error {
	m.record("Stop", "")
	if m.StopFunc != nil {
		return m.StopFunc()
	}
	return nil
}

// PlayAudio records the call and delegates to PlayAudioFunc if set.
func (m *Mock) PlayAudio(ctx context.Context, audio []byte) error {
	m.record("PlayAudio", "")
	if m.PlayAudioFunc != nil {
		return m.PlayAudioFunc(ctx, audio)
	}
	return nil
}

// Say records the call and delegates to SayFunc if set.
func (m *Mock) Say(ctx context.Context, text string) error {
	m.record("Say", text)
	if m.SayFunc != nil {
		return m.SayFunc(ctx, text)
	}
	return nil
}

// GetBridgeStatus always reports a running bridge.
func (m *Mock) GetBridgeStatus() (string, error) {
	m.record("GetBridgeStatus", "")
	return "running", nil
}

// SetVolume records the call and delegates to SetVolumeFunc if set.
func (m *Mock) SetVolume(level int) error {
	m.record("SetVolume", "")
	if m.SetVolumeFunc != nil {
		return m.SetVolumeFunc(level)
	}
	return nil
}

// Verify Mock implements Controller at compile time.
var _ Controller = (*Mock)(nil)
