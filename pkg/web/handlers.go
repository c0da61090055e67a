package web

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-pepper/pkg/conversation"
	"github.com/teslashibe/go-pepper/pkg/hub"
	"github.com/teslashibe/go-pepper/pkg/speech"
)

// Status is the console's view of the robot.
type Status struct {
	RobotConnected bool   `json:"robot_connected"`
	BridgeStatus   string `json:"bridge_status,omitempty"`
	Speaking       bool   `json:"speaking"`
	DrivePhase     string `json:"drive_phase"`
	Paused         bool   `json:"paused"`
	Clients        int    `json:"clients"`
}

// handleStatus reports current robot and session state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	status := Status{
		Speaking:   s.speaker.State() == speech.StateBusy,
		DrivePhase: s.watchdog.Phase().String(),
		Paused:     s.orch.Paused(),
		Clients:    s.eventHub.ClientCount(),
	}
	if bridge, err := s.robot.GetBridgeStatus(); err == nil {
		status.RobotConnected = true
		status.BridgeStatus = bridge
	}
	return c.JSON(status)
}

// handleEntries returns the buffered event feed.
func (s *Server) handleEntries(c *fiber.Ctx) error {
	return c.JSON(s.recentEntries())
}

// MessageRequest is a typed operator message.
type MessageRequest struct {
	Text string `json:"text"`
}

// handleMessage queues a typed message for the robot.
func (s *Server) handleMessage(c *fiber.Ctx) error {
	var req MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "text is required",
		})
	}

	u := conversation.NewUtterance(conversation.OriginConsole, conversation.ModalityText, text)
	if !s.orch.Submit(u) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "robot is busy, try again",
			"id":    u.ID,
		})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"id": u.ID})
}

// handleEventsWS streams the live feed. New clients get the buffered
// backlog first so the console never opens empty.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	for _, entry := range s.recentEntries() {
		if err := c.WriteJSON(entry); err != nil {
			c.Close()
			return
		}
	}
	client := hub.NewClient(s.eventHub, c)
	client.Run()
}

// keyEvent is one console key transition.
type keyEvent struct {
	Type string `json:"type"` // down or up
	Key  string `json:"key"`
}

// handleKeysWS receives drive and action keys from the console.
// Console keydown repeats feed the movement watchdog the same way
// terminal autorepeat does.
func (s *Server) handleKeysWS(c *websocket.Conn) {
	defer c.Close()
	ctx := context.Background()

	// Browser keydown autorepeat must reach the drive keys (it feeds
	// the movement watchdog) but not the toggle keys.
	held := make(map[rune]bool)
	toggles := map[rune]bool{'r': true, ' ': true, 'x': true}

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		var ev keyEvent
		if err := json.Unmarshal(data, &ev); err != nil || ev.Key == "" {
			continue
		}
		key := []rune(strings.ToLower(ev.Key))[0]

		switch ev.Type {
		case "down":
			if toggles[key] && held[key] {
				continue
			}
			held[key] = true
			// The console delivers key releases, so record is true
			// push-to-talk here, not the terminal's toggle.
			if key == 'r' {
				s.orch.PressTalk(ctx)
				continue
			}
			// Quitting the process is a terminal privilege, so ErrQuit
			// from the console is ignored.
			if err := s.orch.HandleKey(ctx, key); err != nil {
				s.logger.Debug("console key ignored", "key", ev.Key, "error", err)
			}
		case "up":
			delete(held, key)
			if key == 'r' {
				s.orch.ReleaseTalk()
				continue
			}
			s.orch.ReleaseKey(key)
		}
	}
}
