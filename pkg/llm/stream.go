package llm

import (
	"encoding/json"
	"strings"
)

// ParserKind selects how a provider's stream frames carry text.
type ParserKind string

const (
	// ParserDelta frames carry only newly generated text.
	ParserDelta ParserKind = "delta"
	// ParserSnapshot frames carry the full text generated so far.
	ParserSnapshot ParserKind = "snapshot"
	// ParserEvent frames are typed; only specific event types carry text.
	ParserEvent ParserKind = "event"
)

// dataPrefix frames SSE payload lines.
const dataPrefix = "data:"

// SSEData extracts the payload from one SSE line. The second return is
// false for blank lines, comments, and non-data fields.
func SSEData(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(line, dataPrefix)), true
}

// StreamParser turns provider-specific stream frames into plain text
// deltas. One parser instance lives for one streaming call.
type StreamParser struct {
	kind ParserKind
	acc  Accumulator
}

func NewStreamParser(kind ParserKind) *StreamParser {
	return &StreamParser{kind: kind}
}

// Feed consumes one decoded frame payload and returns the text delta it
// contributes, which may be empty.
func (p *StreamParser) Feed(frame map[string]any) string {
	switch p.kind {
	case ParserSnapshot:
		return p.acc.Push(snapshotText(frame))
	case ParserEvent:
		return eventText(frame)
	default:
		return deltaText(frame)
	}
}

// FeedLine consumes one raw SSE line: framing, JSON decode, then Feed.
// The terminator sentinel and malformed frames contribute nothing.
func (p *StreamParser) FeedLine(line string) string {
	data, ok := SSEData(line)
	if !ok || data == "" || data == "[DONE]" {
		return ""
	}
	var frame map[string]any
	if err := json.Unmarshal([]byte(data), &frame); err != nil {
		return ""
	}
	return p.Feed(frame)
}

// Text returns everything emitted so far on a snapshot stream.
func (p *StreamParser) Text() string {
	return p.acc.Text()
}

// Accumulator tracks the text already emitted to the caller for
// providers whose frames are full snapshots rather than deltas.
type Accumulator struct {
	emitted string
}

// Push takes the latest snapshot and returns only the new suffix. A
// snapshot that does not extend the previous one (out-of-order frame or
// reset) is appended wholesale rather than replacing what was already
// emitted, so no content is lost.
func (a *Accumulator) Push(snapshot string) string {
	if snapshot == "" {
		return ""
	}
	if strings.HasPrefix(snapshot, a.emitted) {
		delta := snapshot[len(a.emitted):]
		a.emitted = snapshot
		return delta
	}
	a.emitted += snapshot
	return snapshot
}

func (a *Accumulator) Text() string {
	return a.emitted
}

// deltaText handles chat/completions-style frames:
// choices[0].delta.content.
func deltaText(frame map[string]any) string {
	choices, _ := frame["choices"].([]any)
	if len(choices) == 0 {
		return ""
	}
	first, _ := choices[0].(map[string]any)
	delta, _ := first["delta"].(map[string]any)
	text, _ := delta["content"].(string)
	return text
}

// snapshotText handles responses-API and generate-content shapes, which
// carry the full text so far in one of a few places.
func snapshotText(frame map[string]any) string {
	if s, ok := frame["text"].(string); ok && s != "" {
		return s
	}
	if s, ok := frame["output_text"].(string); ok && s != "" {
		return s
	}
	if candidates, ok := frame["candidates"].([]any); ok && len(candidates) > 0 {
		first, _ := candidates[0].(map[string]any)
		content, _ := first["content"].(map[string]any)
		parts, _ := content["parts"].([]any)
		var b strings.Builder
		for _, p := range parts {
			if m, ok := p.(map[string]any); ok {
				if s, _ := m["text"].(string); s != "" {
					b.WriteString(s)
				}
			}
		}
		return b.String()
	}
	return ""
}

// eventText handles message-events streams: only content_block_delta
// events carry text, everything else is ignored.
func eventText(frame map[string]any) string {
	if t, _ := frame["type"].(string); t != "content_block_delta" {
		return ""
	}
	delta, _ := frame["delta"].(map[string]any)
	text, _ := delta["text"].(string)
	return text
}
