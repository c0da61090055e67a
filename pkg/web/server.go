// Package web serves the operator console: typed messages in, a live
// feed of conversation and status out, and remote drive keys over a
// websocket.
package web

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-pepper/pkg/hub"
	"github.com/teslashibe/go-pepper/pkg/movement"
	"github.com/teslashibe/go-pepper/pkg/orchestrator"
	"github.com/teslashibe/go-pepper/pkg/speech"
)

// entryBufferSize is how many feed entries new console clients can
// backfill.
const entryBufferSize = 200

// StatusRobot reports robot bridge connectivity.
type StatusRobot interface {
	GetBridgeStatus() (string, error)
}

// Server is the operator console server.
type Server struct {
	app    *fiber.App
	port   string
	logger *slog.Logger

	orch     *orchestrator.Orchestrator
	watchdog *movement.Watchdog
	speaker  *speech.Coordinator
	robot    StatusRobot

	eventHub *hub.Hub

	mu      sync.RWMutex
	entries []orchestrator.Entry
}

// NewServer creates a console server on the given port.
func NewServer(port string, orch *orchestrator.Orchestrator, watchdog *movement.Watchdog, speaker *speech.Coordinator, robot StatusRobot) *Server {
	s := &Server{
		port:     port,
		logger:   slog.Default().With("component", "web"),
		orch:     orch,
		watchdog: watchdog,
		speaker:  speaker,
		robot:    robot,
		eventHub: hub.New("events"),
		entries:  make([]orchestrator.Entry, 0, entryBufferSize),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Pepper Console",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())
	app.Static("/", "./web")

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/entries", s.handleEntries)
	api.Post("/message", s.handleMessage)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))
	app.Get("/ws/keys", websocket.New(s.handleKeysWS))

	s.app = app
	return s
}

// Run pumps the orchestrator feed into the event hub and serves HTTP
// until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	go s.eventHub.Run(ctx)
	go s.pumpEntries(ctx)
	go func() {
		<-ctx.Done()
		s.app.Shutdown()
	}()

	s.logger.Info("console listening", "port", s.port)
	err := s.app.Listen(":" + s.port)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// pumpEntries buffers and broadcasts the orchestrator feed.
func (s *Server) pumpEntries(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-s.orch.Entries():
			s.mu.Lock()
			s.entries = append(s.entries, e)
			if len(s.entries) > entryBufferSize {
				s.entries = s.entries[1:]
			}
			s.mu.Unlock()
			s.eventHub.BroadcastJSON(e)
		}
	}
}

// App exposes the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// recentEntries returns a copy of the buffered feed.
func (s *Server) recentEntries() []orchestrator.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]orchestrator.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
