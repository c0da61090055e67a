package conversation

import (
	"context"
	"strings"
	"testing"

	"github.com/teslashibe/go-pepper/pkg/inference"
	"github.com/teslashibe/go-pepper/pkg/tools"
)

// scriptedRunner records dispatched calls and returns canned results.
type scriptedRunner struct {
	defs    []inference.Tool
	results map[string]tools.Result
	calls   []inference.ToolCall
}

func (s *scriptedRunner) Definitions() []inference.Tool {
	return s.defs
}

func (s *scriptedRunner) Dispatch(ctx context.Context, call inference.ToolCall) tools.Result {
	s.calls = append(s.calls, call)
	if r, ok := s.results[call.Name]; ok {
		r.CallID = call.ID
		return r
	}
	return tools.Result{CallID: call.ID, Content: "unknown tool: " + call.Name, IsError: true}
}

func TestEngineRespondPlainReply(t *testing.T) {
	provider := &inference.Mock{
		ChatFunc: func(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
			return &inference.ChatResponse{
				Message: inference.NewAssistantMessage("Hello! Nice to meet you."),
			}, nil
		},
	}
	engine := NewEngine(provider, &scriptedRunner{}, NewHistory())

	reply, err := engine.Respond(context.Background(), "hi there")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if reply != "Hello! Nice to meet you." {
		t.Errorf("reply = %q", reply)
	}
	if engine.History().Len() != 2 {
		t.Errorf("history len = %d, want 2", engine.History().Len())
	}
}

func TestEngineRunsToolLoop(t *testing.T) {
	runner := &scriptedRunner{
		results: map[string]tools.Result{
			"web_search": {Content: "1. Tokyo Weather\nSunny, 24C\nSource: https://example.com"},
		},
	}

	var round int
	provider := &inference.Mock{
		ChatFunc: func(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
			round++
			if round == 1 {
				return &inference.ChatResponse{
					Message: inference.Message{
						Role: inference.RoleAssistant,
						ToolCalls: []inference.ToolCall{
							{ID: "c1", Name: "web_search", Arguments: `{"query":"tokyo weather"}`},
						},
					},
					FinishReason: "tool_calls",
				}, nil
			}
			// The tool result must be in the request on the second round.
			last := req.Messages[len(req.Messages)-1]
			if last.Role != inference.RoleTool || last.ToolCallID != "c1" {
				t.Errorf("last message = %+v, want tool result for c1", last)
			}
			return &inference.ChatResponse{
				Message: inference.NewAssistantMessage("It is sunny in Tokyo, about 24 degrees."),
			}, nil
		},
	}

	engine := NewEngine(provider, runner, NewHistory())
	reply, err := engine.Respond(context.Background(), "what's the weather in tokyo?")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if !strings.Contains(reply, "sunny in Tokyo") {
		t.Errorf("reply = %q", reply)
	}
	if len(runner.calls) != 1 || runner.calls[0].Name != "web_search" {
		t.Errorf("dispatched calls = %+v", runner.calls)
	}
}

func TestEngineToolLoopBounded(t *testing.T) {
	runner := &scriptedRunner{
		results: map[string]tools.Result{"wave": {Content: "Played wave gesture."}},
	}

	var chats int
	provider := &inference.Mock{
		ChatFunc: func(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
			chats++
			// Always demand another tool call, forever.
			return &inference.ChatResponse{
				Message: inference.Message{
					Role:      inference.RoleAssistant,
					ToolCalls: []inference.ToolCall{{ID: "c", Name: "wave", Arguments: "{}"}},
				},
				FinishReason: "tool_calls",
			}, nil
		},
	}

	engine := NewEngine(provider, runner, NewHistory(), WithMaxToolRounds(2))
	reply, err := engine.Respond(context.Background(), "wave forever")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if reply != FallbackReply {
		t.Errorf("reply = %q, want the fallback reply", reply)
	}
	// Rounds 0 and 1 execute tools, round 2 trips the limit.
	if chats != 3 {
		t.Errorf("chat calls = %d, want 3", chats)
	}
	if len(runner.calls) != 2 {
		t.Errorf("tool dispatches = %d, want 2", len(runner.calls))
	}
}

func TestEngineErrorResultStaysInLoop(t *testing.T) {
	runner := &scriptedRunner{} // every call returns an IsError result

	var round int
	provider := &inference.Mock{
		ChatFunc: func(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
			round++
			if round == 1 {
				return &inference.ChatResponse{
					Message: inference.Message{
						Role:      inference.RoleAssistant,
						ToolCalls: []inference.ToolCall{{ID: "c1", Name: "teleport", Arguments: "{}"}},
					},
				}, nil
			}
			last := req.Messages[len(req.Messages)-1]
			if !strings.Contains(last.Content, "unknown tool") {
				t.Errorf("model never saw the tool error, got %q", last.Content)
			}
			return &inference.ChatResponse{
				Message: inference.NewAssistantMessage("I can't do that one, sorry."),
			}, nil
		},
	}

	engine := NewEngine(provider, runner, NewHistory())
	reply, err := engine.Respond(context.Background(), "teleport to mars")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if !strings.Contains(reply, "can't do that") {
		t.Errorf("reply = %q", reply)
	}
}

func TestEngineEmptyInput(t *testing.T) {
	engine := NewEngine(inference.NewMock(), &scriptedRunner{}, NewHistory())
	if _, err := engine.Respond(context.Background(), "   "); err == nil {
		t.Error("Respond() accepted blank input")
	}
}

func TestHistoryWindow(t *testing.T) {
	h := NewHistoryWithLimit(2)
	h.AddTurn("one", "reply one")
	h.AddTurn("two", "reply two")
	h.AddTurn("three", "reply three")

	msgs := h.Messages()
	if len(msgs) != 4 {
		t.Fatalf("messages = %d, want 4", len(msgs))
	}
	if msgs[0].Content != "two" {
		t.Errorf("oldest retained = %q, want the second turn", msgs[0].Content)
	}
	if msgs[3].Content != "reply three" {
		t.Errorf("newest = %q", msgs[3].Content)
	}
}

func TestScrub(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "clean text untouched",
			in:   "Hello! How are you today?",
			want: "Hello! How are you today?",
		},
		{
			name: "function markup removed",
			in:   "Sure!<function=wave>{}</function> Hello there!",
			want: "Sure! Hello there!",
		},
		{
			name: "dangling function tag removed",
			in:   "Let me wave <function=wave>{\"name\":",
			want: "Let me wave",
		},
		{
			name: "stage directions removed",
			in:   "*waves enthusiastically* Hi! *nods*",
			want: "Hi!",
		},
		{
			name: "bare gesture line removed",
			in:   "wave\nGood morning everyone!",
			want: "Good morning everyone!",
		},
		{
			name: "everything scrubbed leaves empty",
			in:   "*thinks hard*\nnod",
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Scrub(tc.in); got != tc.want {
				t.Errorf("Scrub(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
