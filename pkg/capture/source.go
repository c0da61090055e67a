package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
)

// MicSource captures microphone audio by streaming raw PCM from
// arecord. Samples arrive as signed 16-bit little endian and are
// converted to float32 in [-1, 1].
type MicSource struct {
	device     string
	sampleRate int
	logger     *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	running bool
}

// NewMicSource creates a microphone source for the named ALSA device.
// Pass "" for the system default device.
func NewMicSource(device string, sampleRate int) *MicSource {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if device == "" {
		device = "default"
	}
	return &MicSource{
		device:     device,
		sampleRate: sampleRate,
		logger:     slog.Default().With("component", "capture.mic"),
	}
}

// SampleRate returns the capture rate.
func (s *MicSource) SampleRate() int {
	return s.sampleRate
}

// Start launches arecord and streams converted sample chunks until Stop.
func (s *MicSource) Start(ctx context.Context) (<-chan []float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, fmt.Errorf("mic source already started")
	}

	cmd := exec.CommandContext(ctx, "arecord",
		"-q",
		"-D", s.device,
		"-f", "S16_LE",
		"-r", strconv.Itoa(s.sampleRate),
		"-c", "1",
		"-t", "raw",
		"-",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("mic source pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("mic source start: %w", err)
	}

	s.cmd = cmd
	s.running = true

	// 100ms of audio per chunk.
	chunkBytes := s.sampleRate / 10 * 2
	out := make(chan []float32, 8)

	go func() {
		defer close(out)
		buf := make([]byte, chunkBytes)
		for {
			n, err := io.ReadFull(stdout, buf)
			if n > 0 {
				out <- pcm16ToFloat32(buf[:n-n%2])
			}
			if err != nil {
				if err != io.EOF && err != io.ErrUnexpectedEOF {
					s.logger.Warn("mic read ended", "error", err)
				}
				return
			}
		}
	}()

	s.logger.Debug("mic capture started",
		"device", s.device,
		"sample_rate", s.sampleRate,
	)
	return out, nil
}

// Stop terminates the arecord process. Safe to call more than once.
func (s *MicSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	s.cmd = nil
	return nil
}

// pcm16ToFloat32 converts little endian signed 16-bit PCM to floats.
func pcm16ToFloat32(data []byte) []float32 {
	samples := make([]float32, len(data)/2)
	for i := range samples {
		v := int16(data[i*2]) | int16(data[i*2+1])<<8
		samples[i] = float32(v) / 32768.0
	}
	return samples
}

// MockSource is a SampleSource fed from a fixed set of chunks, for
// tests and for running without a microphone.
type MockSource struct {
	rate   int
	chunks [][]float32

	mu      sync.Mutex
	out     chan []float32
	stopped chan struct{}
	running bool
}

// NewMockSource creates a source that emits the given chunks in order
// and then idles until stopped.
func NewMockSource(rate int, chunks ...[]float32) *MockSource {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	return &MockSource{rate: rate, chunks: chunks}
}

// SampleRate returns the configured rate.
func (s *MockSource) SampleRate() int {
	return s.rate
}

// Start begins emitting the programmed chunks.
func (s *MockSource) Start(ctx context.Context) (<-chan []float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, fmt.Errorf("mock source already started")
	}
	s.running = true
	s.out = make(chan []float32, len(s.chunks)+1)
	s.stopped = make(chan struct{})

	go func(out chan []float32, stopped chan struct{}) {
		defer close(out)
		for _, chunk := range s.chunks {
			select {
			case out <- chunk:
			case <-stopped:
				return
			case <-ctx.Done():
				return
			}
		}
		select {
		case <-stopped:
		case <-ctx.Done():
		}
	}(s.out, s.stopped)

	return s.out, nil
}

// Stop ends emission. Safe to call more than once.
func (s *MockSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	close(s.stopped)
	return nil
}

var (
	_ SampleSource = (*MicSource)(nil)
	_ SampleSource = (*MockSource)(nil)
)
