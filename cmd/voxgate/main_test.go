package main

import (
	"context"
	"testing"
	"time"

	"github.com/voxgate/voxgate/pkg/gateway"
	"github.com/voxgate/voxgate/pkg/provider"
	"github.com/voxgate/voxgate/pkg/providers/mock"
	"github.com/voxgate/voxgate/pkg/secrets"
)

func testOrchestrator(t *testing.T, snap gateway.Snapshot, asrMock *mock.ASR, llmMock *mock.LLM) *gateway.Orchestrator {
	t.Helper()
	registry := provider.NewRegistry()
	if asrMock != nil {
		registry.RegisterASR(asrMock)
	}
	if llmMock != nil {
		registry.RegisterLLM(llmMock)
	}
	store := &secrets.StaticStore{Secrets: map[string]string{"openai.api_key": "k"}}
	o := gateway.NewOrchestrator(snap, store, registry)
	o.ReadAudio = func(string) ([]byte, error) { return []byte("pcm"), nil }
	o.SleepOverride = func(time.Duration) {}
	return o
}

func TestRunRefines(t *testing.T) {
	snap := gateway.Snapshot{Engine: gateway.EngineSelection{ASR: "openai", LLM: "openai_chat"}}
	asrMock := &mock.ASR{Script: []mock.ASRResult{{Text: "hello wrold", Language: "en"}}}
	llmMock := &mock.LLM{Text: "hello world"}
	o := testOrchestrator(t, snap, asrMock, llmMock)

	out, err := run(context.Background(), o, snap, "a.wav", "auto", false, false, true, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.RawText != "hello wrold" {
		t.Fatalf("unexpected raw text %q", out.RawText)
	}
	if out.RefinedText != "hello world" {
		t.Fatalf("unexpected refined text %q", out.RefinedText)
	}
	if out.Meta.Provider != "openai" || out.Meta.FellBack {
		t.Fatalf("unexpected meta: %+v", out.Meta)
	}
}

func TestRunEmptyRefinementKeepsRaw(t *testing.T) {
	snap := gateway.Snapshot{Engine: gateway.EngineSelection{ASR: "openai", LLM: "openai_chat"}}
	asrMock := &mock.ASR{Script: []mock.ASRResult{{Text: "original transcript", Language: "en"}}}
	llmMock := &mock.LLM{Text: "   "}
	o := testOrchestrator(t, snap, asrMock, llmMock)

	out, err := run(context.Background(), o, snap, "a.wav", "auto", false, false, true, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.RefinedText != "" {
		t.Fatalf("empty refinement must not be kept, got %q", out.RefinedText)
	}
	if out.RawText != "original transcript" {
		t.Fatalf("unexpected raw text %q", out.RawText)
	}
	if out.Meta.RefineSkip == "" {
		t.Fatal("expected refine skip reason")
	}
}

func TestRunRefineDisabled(t *testing.T) {
	snap := gateway.Snapshot{Engine: gateway.EngineSelection{ASR: "openai", LLM: "openai_chat"}}
	asrMock := &mock.ASR{Script: []mock.ASRResult{{Text: "plain", Language: "en"}}}
	llmMock := &mock.LLM{Text: "should not run"}
	o := testOrchestrator(t, snap, asrMock, llmMock)

	out, err := run(context.Background(), o, snap, "a.wav", "auto", false, false, false, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.RefinedText != "" {
		t.Fatalf("refinement ran while disabled: %q", out.RefinedText)
	}
	if llmMock.CallCount() != 0 {
		t.Fatalf("expected no generation calls, got %d", llmMock.CallCount())
	}
}

func TestMimeFromPath(t *testing.T) {
	cases := map[string]string{
		"rec.WAV":   "audio/wav",
		"voice.mp3": "audio/mpeg",
		"x.unknown": "",
	}
	for path, want := range cases {
		if got := mimeFromPath(path); got != want {
			t.Fatalf("mimeFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}
