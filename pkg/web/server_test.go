package web

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/teslashibe/go-pepper/pkg/movement"
	"github.com/teslashibe/go-pepper/pkg/orchestrator"
	"github.com/teslashibe/go-pepper/pkg/robot"
	"github.com/teslashibe/go-pepper/pkg/speech"
	"github.com/teslashibe/go-pepper/pkg/tts"
)

func newTestServer() (*Server, *robot.Mock) {
	mock := robot.NewMock()
	drive := movement.NewState()
	keys := orchestrator.NewKeyRouter(drive, mock)
	speaker := speech.NewCoordinator(speech.NewLock(), tts.NewMock(), mock)
	orch := orchestrator.New(&noopResponder{}, speaker, nil, mock, keys)
	watchdog := movement.NewWatchdog(drive, mock)
	return NewServer("0", orch, watchdog, speaker, mock), mock
}

type noopResponder struct{}

func (noopResponder) Respond(ctx context.Context, text string) (string, error) {
	return "ok", nil
}

func TestHandleMessageAccepted(t *testing.T) {
	s, _ := newTestServer()

	req := httptest.NewRequest("POST", "/api/message", strings.NewReader(`{"text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != 202 {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.ID == "" {
		t.Error("response has no utterance id")
	}
}

func TestHandleMessageRejectsEmpty(t *testing.T) {
	s, _ := newTestServer()

	req := httptest.NewRequest("POST", "/api/message", strings.NewReader(`{"text":"  "}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleStatus(t *testing.T) {
	s, _ := newTestServer()

	resp, err := s.App().Test(httptest.NewRequest("GET", "/api/status", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if !status.RobotConnected {
		t.Error("robot_connected = false with a healthy mock bridge")
	}
	if status.DrivePhase != "IDLE" {
		t.Errorf("drive_phase = %q, want IDLE", status.DrivePhase)
	}
	if status.Speaking {
		t.Error("speaking = true while idle")
	}
}

func TestHandleEntriesEmpty(t *testing.T) {
	s, _ := newTestServer()

	resp, err := s.App().Test(httptest.NewRequest("GET", "/api/entries", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var entries []orchestrator.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %d, want 0", len(entries))
	}
}
