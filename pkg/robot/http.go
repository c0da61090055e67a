package robot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// httpClient is a shared HTTP client with timeout to prevent blocking.
// Used by all HTTPController instances. Audio uploads get their own
// longer-lived client below.
var httpClient = &http.Client{
	Timeout: 2 * time.Second,
}

// audioClient allows longer transfers for synthesized audio buffers.
var audioClient = &http.Client{
	Timeout: 15 * time.Second,
}

// HTTPController implements Controller using the Pepper bridge HTTP API.
// The bridge daemon runs on the robot and translates these calls into
// NAOqi primitives; this package never touches motors or LEDs directly.
type HTTPController struct {
	BaseURL string
}

// NewHTTPController creates a new HTTP-based robot controller.
func NewHTTPController(pepperIP string) *HTTPController {
	return &HTTPController{
		BaseURL: fmt.Sprintf("http://%s:9559", pepperIP),
	}
}

// PlayGesture triggers a pre-choreographed gesture animation.
// Gestures are fire-and-forget on the bridge side; the call returns as
// soon as the animation is queued.
func (r *HTTPController) PlayGesture(g Gesture) error {
	return r.post("/gesture", map[string]interface{}{
		"name": string(g),
	})
}

// SetEyeColor sets the eye LED rings to a named color.
func (r *HTTPController) SetEyeColor(color EyeColor) error {
	if !ValidEyeColor(color) {
		return fmt.Errorf("robot: unsupported eye color %q", color)
	}
	return r.post("/leds/eyes", map[string]interface{}{
		"color": string(color),
	})
}

// Move starts base locomotion in the given direction.
// The base keeps moving until Stop is called; callers are expected to run
// this from a watchdog-supervised loop.
func (r *HTTPController) Move(dir MoveDirection) error {
	return r.post("/move", map[string]interface{}{
		"direction": string(dir),
	})
}

// Stop halts all base locomotion immediately.
func (r *HTTPController) Stop() error {
	return r.post("/move/stop", map[string]interface{}{})
}

// PlayAudio uploads a synthesized audio buffer and plays it through
// Pepper's speakers. Blocks until the bridge reports playback complete so
// callers can serialize utterances.
func (r *HTTPController) PlayAudio(ctx context.Context, audio []byte) error {
	req, err := http.NewRequestWithContext(ctx, "POST", r.BaseURL+"/audio/play", bytes.NewReader(audio))
	if err != nil {
		return fmt.Errorf("robot: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := audioClient.Do(req)
	if err != nil {
		return fmt.Errorf("robot: play audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("robot: play audio: status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Say speaks text with Pepper's built-in voice (ALTextToSpeech).
// This is the last-resort output path when the synthesis chain fails.
func (r *HTTPController) Say(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]interface{}{"text": text})
	if err != nil {
		return fmt.Errorf("robot: marshal say payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.BaseURL+"/say", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("robot: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := audioClient.Do(req)
	if err != nil {
		return fmt.Errorf("robot: say: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("robot: say: status %d", resp.StatusCode)
	}
	return nil
}

// GetBridgeStatus queries the bridge daemon status.
func (r *HTTPController) GetBridgeStatus() (string, error) {
	resp, err := httpClient.Get(r.BaseURL + "/status")
	if err != nil {
		return "", fmt.Errorf("robot: status: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("robot: decode status: %w", err)
	}
	return result.Status, nil
}

// SetVolume sets the speaker volume (0-100).
func (r *HTTPController) SetVolume(level int) error {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	return r.post("/volume", map[string]interface{}{
		"level": level,
	})
}

// post sends a JSON payload to the bridge and checks for a 200 response.
func (r *HTTPController) post(path string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("robot: marshal payload: %w", err)
	}

	resp, err := httpClient.Post(r.BaseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("robot: POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("robot: POST %s: status %d", path, resp.StatusCode)
	}
	return nil
}
