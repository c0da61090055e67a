package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	groqTTSBaseURL = "https://api.groq.com/openai/v1"
	providerGroq   = "groq"
)

// Groq voice options for the Orpheus model.
const (
	GroqVoiceHannah = "hannah"
	GroqVoiceAustin = "austin"
	GroqVoiceTroy   = "troy"
)

// ModelOrpheus is Groq's production English TTS model.
const ModelOrpheus = "canopylabs/orpheus-v1-english"

// Groq implements Provider for Groq TTS (Orpheus).
// This is the primary tier: fast (~140 chars/sec) but rate limited.
type Groq struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewGroq creates a new Groq TTS provider.
func NewGroq(opts ...Option) (*Groq, error) {
	cfg := DefaultConfig()
	cfg.ModelID = ModelOrpheus
	cfg.VoiceID = GroqVoiceHannah
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = groqTTSBaseURL
	}

	return &Groq{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger.With("component", "tts.groq"),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Synthesize converts text to audio, returning the complete audio buffer.
func (g *Groq) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if text == "" {
		return nil, WrapError(providerGroq, ErrEmptyText)
	}

	start := time.Now()

	payload := map[string]interface{}{
		"model":           g.config.ModelID,
		"voice":           g.config.VoiceID,
		"input":           text,
		"response_format": "wav",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerGroq, fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerGroq, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, WrapError(providerGroq, err)
	}
	defer resp.Body.Close()

	latency := time.Since(start).Milliseconds()

	if resp.StatusCode != http.StatusOK {
		return nil, g.parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerGroq, fmt.Errorf("read response: %w", err))
	}

	g.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"voice", g.config.VoiceID,
	)

	return &AudioResult{
		Audio: audio,
		Format: AudioFormat{
			Encoding:   EncodingWAV,
			SampleRate: 24000,
			Channels:   1,
		},
		CharCount: len(text),
		LatencyMs: latency,
		Duration:  estimateSpeechDuration(len(text)),
	}, nil
}

// Health verifies the API key with a minimal synthesis request.
func (g *Groq) Health(ctx context.Context) error {
	_, err := g.Synthesize(ctx, "ok")
	return err
}

// Close releases resources.
func (g *Groq) Close() error {
	return nil
}

// parseError reads an error response into an APIError.
func (g *Groq) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Provider:   providerGroq,
		Message:    resp.Status,
	}

	var apiResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &apiResp); err == nil && apiResp.Error.Message != "" {
		apiErr.Message = apiResp.Error.Message
	}
	return apiErr
}

// Verify Groq implements Provider at compile time.
var _ Provider = (*Groq)(nil)
