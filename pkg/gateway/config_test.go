package gateway

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voxgate.yaml")
	raw := `
engine:
  asr: openai
  llm: openai_chat
limits:
  timeout_seconds: 120
  retries: 3
  concurrency: 2
output:
  language: zh
  ui_locale: en-US
privacy:
  redact_pii: true
providers:
  openai:
    model: whisper-large-v3
    headers:
      X-Team: voice
log_level: debug
log_format: json
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	snap, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.Engine.ASR != "openai" || snap.Engine.LLM != "openai_chat" {
		t.Fatalf("unexpected engines: %+v", snap.Engine)
	}
	if snap.Limits.TimeoutSeconds != 120 || snap.Limits.Retries != 3 {
		t.Fatalf("unexpected limits: %+v", snap.Limits)
	}
	if snap.Output.Language != "zh" || snap.Output.UILocale != "en-US" {
		t.Fatalf("unexpected output: %+v", snap.Output)
	}
	if !snap.Privacy.RedactPII {
		t.Fatal("expected redact_pii true")
	}
	openai, err := snap.provider("openai")
	if err != nil {
		t.Fatalf("provider settings: %v", err)
	}
	if openai.Model != "whisper-large-v3" {
		t.Fatalf("unexpected provider override: %+v", openai)
	}
	if openai.Headers["X-Team"] != "voice" {
		t.Fatalf("unexpected headers: %v", openai.Headers)
	}
	if snap.LogLevel != "debug" {
		t.Fatalf("unexpected log level %q", snap.LogLevel)
	}
}

func TestLoadSnapshotRequiresASREngine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voxgate.yaml")
	raw := `
limits:
  timeout_seconds: 120
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Fatal("expected error when engine.asr is absent")
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
