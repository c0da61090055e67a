package stt

import (
	"context"
	"sync"
)

// Mock implements Transcriber for testing.
type Mock struct {
	// TranscribeFunc is called when Transcribe is invoked.
	// If nil, returns a fixed transcript.
	TranscribeFunc func(ctx context.Context, path string) (string, error)

	mu    sync.Mutex
	paths []string
}

// NewMock creates a mock transcriber returning a fixed transcript.
func NewMock() *Mock {
	return &Mock{
		TranscribeFunc: func(ctx context.Context, path string) (string, error) {
			return "mock transcript", nil
		},
	}
}

// MockWithError creates a mock where every call fails with err.
func MockWithError(err error) *Mock {
	return &Mock{
		TranscribeFunc: func(ctx context.Context, path string) (string, error) {
			return "", err
		},
	}
}

// Transcribe records the path and delegates to TranscribeFunc.
func (m *Mock) Transcribe(ctx context.Context, path string) (string, error) {
	m.mu.Lock()
	m.paths = append(m.paths, path)
	m.mu.Unlock()
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, path)
	}
	return "", ErrNoSpeech
}

// Paths returns every path passed to Transcribe.
func (m *Mock) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.paths))
	copy(out, m.paths)
	return out
}

// Verify Mock implements Transcriber at compile time.
var _ Transcriber = (*Mock)(nil)
