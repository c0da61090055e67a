package stt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultWhisperBaseURL = "https://api.groq.com/openai/v1"
	defaultWhisperModel   = "whisper-large-v3-turbo"
)

// Whisper implements Transcriber against an OpenAI-compatible
// /audio/transcriptions endpoint (Groq Whisper by default).
type Whisper struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	logger  *slog.Logger
}

// WhisperOption configures a Whisper transcriber.
type WhisperOption func(*Whisper)

// WithWhisperBaseURL overrides the default API base URL.
func WithWhisperBaseURL(url string) WhisperOption {
	return func(w *Whisper) { w.baseURL = strings.TrimSuffix(url, "/") }
}

// WithWhisperModel overrides the default model.
func WithWhisperModel(model string) WhisperOption {
	return func(w *Whisper) { w.model = model }
}

// WithWhisperTimeout sets the request timeout.
func WithWhisperTimeout(d time.Duration) WhisperOption {
	return func(w *Whisper) { w.client.Timeout = d }
}

// WithWhisperLogger sets the structured logger.
func WithWhisperLogger(l *slog.Logger) WhisperOption {
	return func(w *Whisper) { w.logger = l.With("component", "stt.whisper") }
}

// NewWhisper creates a Whisper transcriber.
func NewWhisper(apiKey string, opts ...WhisperOption) (*Whisper, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	w := &Whisper{
		baseURL: defaultWhisperBaseURL,
		apiKey:  apiKey,
		model:   defaultWhisperModel,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default().With("component", "stt.whisper"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Transcribe uploads the WAV file and returns the recognized text.
func (w *Whisper) Transcribe(ctx context.Context, path string) (string, error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("stt: open audio: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("stt: build form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("stt: copy audio: %w", err)
	}
	mw.WriteField("model", w.model)
	mw.WriteField("response_format", "text")
	mw.WriteField("language", "en")
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("stt: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", w.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("stt: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+w.apiKey)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("stt: transcribe: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("stt: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("stt: transcribe: status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	text := strings.TrimSpace(string(body))
	w.logger.Debug("transcribed audio",
		"chars", len(text),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}

// Verify Whisper implements Transcriber at compile time.
var _ Transcriber = (*Whisper)(nil)
