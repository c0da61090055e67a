package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teslashibe/go-pepper/pkg/inference"
	"github.com/teslashibe/go-pepper/pkg/tools"
)

// DefaultMaxToolRounds bounds the tool-call loop per user turn. Two
// rounds is enough for "search, then answer"; anything deeper is the
// model wandering.
const DefaultMaxToolRounds = 2

// FallbackReply is spoken when the model cannot produce usable text.
const FallbackReply = "Sorry, I wasn't able to finish that. Could you try asking another way?"

// DefaultSystemPrompt is the robot's persona and tool guidance.
const DefaultSystemPrompt = `You are Pepper, a friendly humanoid robot assistant. You are talking out loud with people near you.

Rules:
- Keep replies short and conversational, one to three sentences. They will be spoken aloud.
- Use your gesture tools to be expressive, but never describe gestures in text.
- Use web_search when asked about current events, weather, or facts you are not sure of.
- Never use markup, emoji, or stage directions. Plain speakable words only.`

// ToolRunner executes the tool calls the model issues.
type ToolRunner interface {
	Definitions() []inference.Tool
	Dispatch(ctx context.Context, call inference.ToolCall) tools.Result
}

// Engine turns user text into a speakable reply, running the model's
// tool-calling loop along the way. It is safe for concurrent use; the
// shared history serializes itself.
type Engine struct {
	provider     inference.Provider
	runner       ToolRunner
	history      *History
	systemPrompt string
	maxRounds    int
	logger       *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSystemPrompt overrides the persona prompt.
func WithSystemPrompt(prompt string) EngineOption {
	return func(e *Engine) { e.systemPrompt = prompt }
}

// WithMaxToolRounds overrides the tool loop bound.
func WithMaxToolRounds(n int) EngineOption {
	return func(e *Engine) {
		if n >= 0 {
			e.maxRounds = n
		}
	}
}

// WithEngineLogger overrides the engine's logger.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger.With("component", "conversation") }
}

// NewEngine creates a conversation engine.
func NewEngine(provider inference.Provider, runner ToolRunner, history *History, opts ...EngineOption) *Engine {
	e := &Engine{
		provider:     provider,
		runner:       runner,
		history:      history,
		systemPrompt: DefaultSystemPrompt,
		maxRounds:    DefaultMaxToolRounds,
		logger:       slog.Default().With("component", "conversation"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// History exposes the engine's history window.
func (e *Engine) History() *History {
	return e.history
}

// Respond produces the robot's reply to userText. Tool calls execute
// as they arrive, bounded by the round limit; the final text is
// scrubbed before it is stored or returned. Respond never returns an
// empty reply: if the model gives nothing usable, the fallback reply
// comes back instead.
func (e *Engine) Respond(ctx context.Context, userText string) (string, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return "", fmt.Errorf("conversation: empty user text")
	}

	messages := make([]inference.Message, 0, e.history.Len()+2)
	messages = append(messages, inference.NewSystemMessage(e.systemPrompt))
	messages = append(messages, e.history.Messages()...)
	messages = append(messages, inference.NewUserMessage(userText))

	defs := e.runner.Definitions()

	var replyText string
	for round := 0; ; round++ {
		resp, err := e.provider.Chat(ctx, &inference.ChatRequest{
			Messages: messages,
			Tools:    defs,
		})
		if err != nil {
			return "", fmt.Errorf("conversation: chat failed: %w", err)
		}

		calls := resp.Message.ToolCalls
		if len(calls) == 0 {
			replyText = resp.Message.Content
			break
		}

		if round >= e.maxRounds {
			e.logger.Warn("tool loop hit round limit, giving up",
				"rounds", round,
				"pending_calls", len(calls),
			)
			replyText = ""
			break
		}

		messages = append(messages, resp.Message)
		for _, call := range calls {
			result := e.runner.Dispatch(ctx, call)
			if result.IsError {
				e.logger.Debug("tool returned error to model",
					"tool", call.Name,
					"content", result.Content,
				)
			}
			messages = append(messages, inference.NewToolMessage(result.CallID, result.Content))
		}
	}

	reply := Scrub(replyText)
	if reply == "" {
		reply = FallbackReply
	}

	e.history.AddTurn(userText, reply)
	return reply, nil
}
