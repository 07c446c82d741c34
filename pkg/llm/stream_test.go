package llm

import (
	"reflect"
	"testing"
)

func TestSnapshotDeltas(t *testing.T) {
	parser := NewStreamParser(ParserSnapshot)
	var got []string
	for _, snap := range []string{"Hello", "Hello world", "Hello world!"} {
		got = append(got, parser.Feed(map[string]any{"text": snap}))
	}
	want := []string{"Hello", " world", "!"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected deltas %v, got %v", want, got)
	}
	if parser.Text() != "Hello world!" {
		t.Fatalf("unexpected accumulated text %q", parser.Text())
	}
}

func TestSnapshotResetAppends(t *testing.T) {
	var acc Accumulator
	acc.Push("Hello world")
	delta := acc.Push("brand new")
	if delta != "brand new" {
		t.Fatalf("expected reset snapshot emitted whole, got %q", delta)
	}
	if acc.Text() != "Hello worldbrand new" {
		t.Fatalf("expected append not replace, got %q", acc.Text())
	}
}

func TestSnapshotRepeatEmitsNothing(t *testing.T) {
	var acc Accumulator
	acc.Push("Hello")
	if delta := acc.Push("Hello"); delta != "" {
		t.Fatalf("expected empty delta for repeated snapshot, got %q", delta)
	}
}

func TestDeltaFrames(t *testing.T) {
	parser := NewStreamParser(ParserDelta)
	frame := map[string]any{
		"choices": []any{
			map[string]any{"delta": map[string]any{"content": "chunk"}},
		},
	}
	if got := parser.Feed(frame); got != "chunk" {
		t.Fatalf("expected passthrough delta, got %q", got)
	}
	if got := parser.Feed(map[string]any{"choices": []any{}}); got != "" {
		t.Fatalf("expected empty for choiceless frame, got %q", got)
	}
}

func TestEventFramesFiltered(t *testing.T) {
	parser := NewStreamParser(ParserEvent)
	ignored := map[string]any{"type": "message_start", "delta": map[string]any{"text": "nope"}}
	if got := parser.Feed(ignored); got != "" {
		t.Fatalf("expected non-text event ignored, got %q", got)
	}
	carried := map[string]any{"type": "content_block_delta", "delta": map[string]any{"text": "yes"}}
	if got := parser.Feed(carried); got != "yes" {
		t.Fatalf("expected delta text, got %q", got)
	}
}

func TestSnapshotCandidateParts(t *testing.T) {
	parser := NewStreamParser(ParserSnapshot)
	frame := map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{
				map[string]any{"text": "part one"},
			}}},
		},
	}
	if got := parser.Feed(frame); got != "part one" {
		t.Fatalf("expected candidate part text, got %q", got)
	}
}

func TestSSEDataFraming(t *testing.T) {
	if _, ok := SSEData(""); ok {
		t.Fatalf("blank line must not be a payload")
	}
	if _, ok := SSEData(": keep-alive"); ok {
		t.Fatalf("comment line must not be a payload")
	}
	if _, ok := SSEData("event: done"); ok {
		t.Fatalf("event field must not be a payload")
	}
	data, ok := SSEData("data: {\"x\":1}")
	if !ok || data != "{\"x\":1}" {
		t.Fatalf("expected payload, got %q ok=%v", data, ok)
	}
}

func TestFeedLine(t *testing.T) {
	parser := NewStreamParser(ParserDelta)
	line := `data: {"choices":[{"delta":{"content":"hi"}}]}`
	if got := parser.FeedLine(line); got != "hi" {
		t.Fatalf("expected %q, got %q", "hi", got)
	}
	if got := parser.FeedLine("data: [DONE]"); got != "" {
		t.Fatalf("expected terminator ignored, got %q", got)
	}
	if got := parser.FeedLine("data: not json"); got != "" {
		t.Fatalf("expected malformed frame ignored, got %q", got)
	}
}
