package conversation

import (
	"regexp"
	"strings"

	"github.com/teslashibe/go-pepper/pkg/robot"
)

// Models sometimes leak tool syntax or stage directions into their
// reply text. Everything here is about making the reply speakable:
// the robot should say words, not markup.
var (
	// Complete or dangling function call markup.
	functionTagRe = regexp.MustCompile(`(?s)<(function|function_call|tool_call)[^>]*>.*?(</(function|function_call|tool_call)>|$)`)

	// *waves enthusiastically* style stage directions.
	stageDirectionRe = regexp.MustCompile(`\*[^*\n]+\*`)

	multiSpaceRe = regexp.MustCompile(`[ \t]{2,}`)
)

// gestureNames lets us drop lines where the model wrote a gesture
// name instead of calling the tool.
var gestureNames = map[string]bool{
	string(robot.GestureWave):        true,
	string(robot.GestureNod):         true,
	string(robot.GestureShakeHead):   true,
	string(robot.GestureThinking):    true,
	string(robot.GestureExplaining):  true,
	string(robot.GestureExcited):     true,
	string(robot.GesturePoint):       true,
	string(robot.GestureShrug):       true,
	string(robot.GestureCelebrate):   true,
	string(robot.GestureLookAround):  true,
	string(robot.GestureBow):         true,
	string(robot.GestureLookAtSound): true,
}

// Scrub strips tool markup, stage directions, and bare gesture names
// from model output, leaving only speakable text. May return "".
func Scrub(text string) string {
	text = functionTagRe.ReplaceAllString(text, "")
	text = stageDirectionRe.ReplaceAllString(text, "")

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if gestureNames[strings.ToLower(strings.Trim(trimmed, ".!,"))] {
			continue
		}
		kept = append(kept, trimmed)
	}

	out := strings.Join(kept, " ")
	out = multiSpaceRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
