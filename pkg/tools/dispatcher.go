package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-pepper/pkg/inference"
)

// Result is the outcome of one tool call. IsError results still flow
// back to the model as tool output so it can react in its next turn.
type Result struct {
	CallID  string
	Content string
	IsError bool
}

// Dispatcher executes tool calls against a registry. Unknown tools
// and handler failures become error results, never Go errors: the
// model sees them and recovers, the conversation does not abort.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		logger:   slog.Default().With("component", "tools"),
	}
}

// SetLogger overrides the dispatcher's logger.
func (d *Dispatcher) SetLogger(logger *slog.Logger) {
	d.logger = logger.With("component", "tools")
}

// Definitions returns the registry's tool definitions.
func (d *Dispatcher) Definitions() []inference.Tool {
	return d.registry.Definitions()
}

// Dispatch executes a single tool call.
func (d *Dispatcher) Dispatch(ctx context.Context, call inference.ToolCall) Result {
	tool, ok := d.registry.Get(call.Name)
	if !ok {
		d.logger.Warn("model called unknown tool", "tool", call.Name)
		return Result{
			CallID:  call.ID,
			Content: fmt.Sprintf("unknown tool: %s", call.Name),
			IsError: true,
		}
	}

	start := time.Now()
	content, err := tool.Handler(ctx, []byte(call.Arguments))
	elapsed := time.Since(start)

	if err != nil {
		d.logger.Warn("tool failed",
			"tool", call.Name,
			"error", err,
			"elapsed_ms", elapsed.Milliseconds(),
		)
		return Result{
			CallID:  call.ID,
			Content: fmt.Sprintf("tool %s failed: %v", call.Name, err),
			IsError: true,
		}
	}

	d.logger.Debug("tool executed",
		"tool", call.Name,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return Result{CallID: call.ID, Content: content}
}
