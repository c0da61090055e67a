package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/teslashibe/go-pepper/pkg/robot"
)

// Searcher runs a web search and returns model-ready text.
type Searcher interface {
	Search(ctx context.Context, query string) string
}

// gestureDescriptions gives the model enough to pick the right
// animation for the moment.
var gestureDescriptions = map[robot.Gesture]string{
	robot.GestureWave:        "Wave at the person you are talking to. Use when greeting or saying goodbye.",
	robot.GestureNod:         "Nod your head. Use when agreeing or acknowledging.",
	robot.GestureShakeHead:   "Shake your head. Use when disagreeing or saying no.",
	robot.GestureThinking:    "Touch your chin thoughtfully. Use when considering a question.",
	robot.GestureExplaining:  "Gesture with open hands. Use while explaining something.",
	robot.GestureExcited:     "Raise both arms excitedly. Use when something is exciting or fun.",
	robot.GesturePoint:       "Point forward. Use when directing attention to something ahead.",
	robot.GestureShrug:       "Shrug your shoulders. Use when you do not know the answer.",
	robot.GestureCelebrate:   "Celebrate with both arms up. Use for good news or achievements.",
	robot.GestureLookAround:  "Look around the room. Use when searching for something or someone.",
	robot.GestureBow:         "Take a bow. Use after performing or when thanked.",
	robot.GestureLookAtSound: "Turn toward the last sound. Use when asked to pay attention.",
}

// NewDefaultRegistry builds the standard robot tool set: one tool per
// gesture, eye color control, and web search.
func NewDefaultRegistry(ctrl robot.Controller, searcher Searcher) *Registry {
	r := NewRegistry()

	for gesture, description := range gestureDescriptions {
		g := gesture
		r.Register(Tool{
			Name:        string(g),
			Description: description,
			Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
				if err := ctrl.PlayGesture(g); err != nil {
					return "", err
				}
				return fmt.Sprintf("Played %s gesture.", g), nil
			},
		})
	}

	r.Register(Tool{
		Name:        "set_eye_color",
		Description: "Change the color of your eye LEDs to express a mood.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"color": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"blue", "green", "red", "white"},
					"description": "The eye color to set.",
				},
			},
			"required": []string{"color"},
		},
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			var params struct {
				Color string `json:"color"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			color := robot.EyeColor(params.Color)
			if !robot.ValidEyeColor(color) {
				return "", fmt.Errorf("unsupported eye color: %q", params.Color)
			}
			if err := ctrl.SetEyeColor(color); err != nil {
				return "", err
			}
			return fmt.Sprintf("Eye color set to %s.", color), nil
		},
	})

	r.Register(Tool{
		Name:        "web_search",
		Description: "Search the web for current information. Use for questions about recent events, facts you are unsure of, weather, or news.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "The search query.",
				},
			},
			"required": []string{"query"},
		},
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			var params struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal(args, &params); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			if params.Query == "" {
				return "", fmt.Errorf("query is required")
			}
			return searcher.Search(ctx, params.Query), nil
		},
	})

	return r
}
