package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGroqSynthesize(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Write([]byte("RIFF-fake-wav-data"))
	}))
	defer server.Close()

	groq, err := NewGroq(WithAPIKey("gsk-test"), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewGroq() error = %v", err)
	}

	result, err := groq.Synthesize(context.Background(), "hello robot")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if gotPath != "/audio/speech" {
		t.Errorf("path = %q, want /audio/speech", gotPath)
	}
	if gotAuth != "Bearer gsk-test" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotPayload["model"] != ModelOrpheus {
		t.Errorf("model = %v, want %s", gotPayload["model"], ModelOrpheus)
	}
	if gotPayload["voice"] != GroqVoiceHannah {
		t.Errorf("voice = %v, want %s", gotPayload["voice"], GroqVoiceHannah)
	}
	if string(result.Audio) != "RIFF-fake-wav-data" {
		t.Errorf("audio = %q", result.Audio)
	}
	if result.Format.Encoding != EncodingWAV {
		t.Errorf("encoding = %q, want %q", result.Format.Encoding, EncodingWAV)
	}
	if result.CharCount != len("hello robot") {
		t.Errorf("char count = %d", result.CharCount)
	}
}

func TestGroqRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "rate limit exceeded"},
		})
	}))
	defer server.Close()

	groq, err := NewGroq(WithAPIKey("gsk-test"), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewGroq() error = %v", err)
	}

	_, err = groq.Synthesize(context.Background(), "throttled")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if !apiErr.IsRateLimited() {
		t.Errorf("IsRateLimited() = false, status = %d", apiErr.StatusCode)
	}
	if apiErr.Message != "rate limit exceeded" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestGroqEmptyText(t *testing.T) {
	groq, err := NewGroq(WithAPIKey("gsk-test"))
	if err != nil {
		t.Fatalf("NewGroq() error = %v", err)
	}
	if _, err := groq.Synthesize(context.Background(), ""); !errors.Is(err, ErrEmptyText) {
		t.Errorf("error = %v, want ErrEmptyText", err)
	}
}

func TestGroqRequiresAPIKey(t *testing.T) {
	if _, err := NewGroq(); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("NewGroq() error = %v, want ErrNoAPIKey", err)
	}
}

func TestElevenLabsSynthesize(t *testing.T) {
	var gotPath, gotKey string
	var gotPayload map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Write([]byte("ID3-fake-mp3"))
	}))
	defer server.Close()

	el, err := NewElevenLabs(WithAPIKey("el-test"), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewElevenLabs() error = %v", err)
	}

	result, err := el.Synthesize(context.Background(), "good morning")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if gotPath != "/text-to-speech/"+DefaultElevenLabsVoice {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "el-test" {
		t.Errorf("xi-api-key = %q", gotKey)
	}
	if gotPayload["model_id"] != ModelTurboV2_5 {
		t.Errorf("model_id = %v", gotPayload["model_id"])
	}
	if result.Format.Encoding != EncodingMP3 {
		t.Errorf("encoding = %q, want %q", result.Format.Encoding, EncodingMP3)
	}
}

func TestElevenLabsErrorDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"detail": map[string]string{"message": "invalid api key"},
		})
	}))
	defer server.Close()

	el, err := NewElevenLabs(WithAPIKey("bad-key"), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("NewElevenLabs() error = %v", err)
	}

	_, err = el.Synthesize(context.Background(), "nope")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.Message != "invalid api key" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestEstimateSpeechDuration(t *testing.T) {
	d := estimateSpeechDuration(150)
	if d != 10*time.Second {
		t.Errorf("duration = %v, want 10s", d)
	}
}
