package tts

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	edgeWSURL = "wss://speech.platform.bing.com/consumer/speech/synthesize/" +
		"readaloud/edge/v1?TrustedClientToken=6A5AA1D4EAFF4E9FB37E23D68491D6F4"
	providerEdge = "edge"
)

// DefaultEdgeVoice is the neural voice used when none is configured.
const DefaultEdgeVoice = "en-US-AriaNeural"

// audioHeaderMarker separates the binary frame header from MP3 payload.
var audioHeaderMarker = []byte("Path:audio\r\n")

// Edge implements Provider for Microsoft Edge's read-aloud TTS service.
// This is the tertiary tier: free and unlimited, no API key required.
// Each Synthesize call dials a fresh websocket; the service closes
// connections after every utterance anyway.
type Edge struct {
	config *Config
	logger *slog.Logger
	wsURL  string
}

// NewEdge creates a new Edge TTS provider.
func NewEdge(opts ...Option) (*Edge, error) {
	cfg := DefaultConfig()
	cfg.VoiceID = DefaultEdgeVoice
	cfg.Apply(opts...)

	wsURL := cfg.BaseURL
	if wsURL == "" {
		wsURL = edgeWSURL
	}

	return &Edge{
		config: cfg,
		logger: cfg.Logger.With("component", "tts.edge"),
		wsURL:  wsURL,
	}, nil
}

// Synthesize converts text to audio over the Edge websocket protocol.
func (e *Edge) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if text == "" {
		return nil, WrapError(providerEdge, ErrEmptyText)
	}

	start := time.Now()

	dialer := websocket.Dialer{HandshakeTimeout: e.config.Timeout}
	conn, resp, err := dialer.DialContext(ctx, e.wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, WrapError(providerEdge,
				fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err))
		}
		return nil, WrapError(providerEdge, fmt.Errorf("websocket dial failed: %w", err))
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
		conn.SetWriteDeadline(deadline)
	}

	requestID := strings.ReplaceAll(uuid.NewString(), "-", "")

	if err := conn.WriteMessage(websocket.TextMessage, e.configMessage()); err != nil {
		return nil, WrapError(providerEdge, fmt.Errorf("send config: %w", err))
	}
	if err := conn.WriteMessage(websocket.TextMessage, e.ssmlMessage(requestID, text)); err != nil {
		return nil, WrapError(providerEdge, fmt.Errorf("send ssml: %w", err))
	}

	var audio bytes.Buffer
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return nil, WrapError(providerEdge, fmt.Errorf("read frame: %w", err))
		}

		switch msgType {
		case websocket.BinaryMessage:
			if idx := bytes.Index(data, audioHeaderMarker); idx >= 0 {
				audio.Write(data[idx+len(audioHeaderMarker):])
			}
		case websocket.TextMessage:
			if strings.Contains(string(data), "Path:turn.end") {
				latency := time.Since(start).Milliseconds()
				if audio.Len() == 0 {
					return nil, WrapError(providerEdge, fmt.Errorf("no audio received"))
				}
				e.logger.Debug("synthesized audio",
					"chars", len(text),
					"bytes", audio.Len(),
					"latency_ms", latency,
					"voice", e.config.VoiceID,
				)
				return &AudioResult{
					Audio: audio.Bytes(),
					Format: AudioFormat{
						Encoding:   EncodingMP3,
						SampleRate: 24000,
						Channels:   1,
					},
					CharCount: len(text),
					LatencyMs: latency,
					Duration:  estimateSpeechDuration(len(text)),
				}, nil
			}
		}
	}
}

// Health dials the service and closes immediately.
func (e *Edge) Health(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: e.config.Timeout}
	conn, _, err := dialer.DialContext(ctx, e.wsURL, nil)
	if err != nil {
		return WrapError(providerEdge, err)
	}
	return conn.Close()
}

// Close releases resources. Connections are per-call, nothing to do.
func (e *Edge) Close() error {
	return nil
}

// configMessage builds the speech.config frame selecting MP3 output.
func (e *Edge) configMessage() []byte {
	return []byte("X-Timestamp:" + time.Now().UTC().Format(time.RFC1123) + "\r\n" +
		"Content-Type:application/json; charset=utf-8\r\n" +
		"Path:speech.config\r\n\r\n" +
		`{"context":{"synthesis":{"audio":{"metadataoptions":` +
		`{"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"false"},` +
		`"outputFormat":"audio-24khz-48kbitrate-mono-mp3"}}}}`)
}

// ssmlMessage builds the SSML frame carrying the text to speak.
func (e *Edge) ssmlMessage(requestID, text string) []byte {
	ssml := fmt.Sprintf(
		`<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'>`+
			`<voice name='%s'><prosody pitch='+0Hz' rate='%s' volume='+0%%'>%s</prosody></voice></speak>`,
		e.config.VoiceID, e.config.Rate, escapeXML(text))

	return []byte("X-RequestId:" + requestID + "\r\n" +
		"Content-Type:application/ssml+xml\r\n" +
		"X-Timestamp:" + time.Now().UTC().Format(time.RFC1123) + "\r\n" +
		"Path:ssml\r\n\r\n" + ssml)
}

// escapeXML escapes the characters SSML cannot carry verbatim.
func escapeXML(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}

// Verify Edge implements Provider at compile time.
var _ Provider = (*Edge)(nil)
