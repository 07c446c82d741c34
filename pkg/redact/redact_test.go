package redact

import (
	"strings"
	"testing"
)

func TestRedactDisabled(t *testing.T) {
	SetEnabled(false)
	in := "email a@b.com and phone +62 812 3456 7890"
	if got := Text(in); got != in {
		t.Fatalf("expected no redaction, got %q", got)
	}
}

func TestRedactEnabled(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)
	in := "email a@b.com and phone +62 812 3456 7890"
	got := Text(in)
	if got == in {
		t.Fatalf("expected redaction")
	}
	if want := "[REDACTED_EMAIL]"; !strings.Contains(got, want) {
		t.Fatalf("expected %q in output", want)
	}
	if want := "[REDACTED_PHONE]"; !strings.Contains(got, want) {
		t.Fatalf("expected %q in output", want)
	}
}

func TestBodyVerbatimWhenDisabled(t *testing.T) {
	SetEnabled(false)
	raw := []byte(`{"error":"secret detail"}`)
	if got := Body(raw); got != string(raw) {
		t.Fatalf("expected verbatim body, got %q", got)
	}
}

func TestBodySummaryWhenEnabled(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)
	got := Body([]byte(`{"error":"secret detail","code":429}`))
	if strings.Contains(got, "secret") {
		t.Fatalf("summary leaked body content: %q", got)
	}
	if !strings.Contains(got, "error:") || !strings.Contains(got, "code:") {
		t.Fatalf("summary missing key names: %q", got)
	}
}

func TestBodyNonJSONWhenEnabled(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)
	got := Body([]byte("plain text failure"))
	if strings.Contains(got, "plain") {
		t.Fatalf("non-JSON body leaked: %q", got)
	}
	if !strings.Contains(got, "bytes") {
		t.Fatalf("expected byte-length placeholder, got %q", got)
	}
}
