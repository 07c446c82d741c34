package redact

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync/atomic"
)

var enabled atomic.Bool

var (
	emailRe = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	phoneRe = regexp.MustCompile(`\b\+?\d[\d\s\-]{7,}\d\b`)
)

// SetEnabled toggles privacy mode.
func SetEnabled(v bool) {
	enabled.Store(v)
}

// Enabled returns true when privacy mode is active.
func Enabled() bool {
	return enabled.Load()
}

// Text redacts emails and phone numbers when privacy mode is active.
func Text(in string) string {
	if !enabled.Load() || strings.TrimSpace(in) == "" {
		return in
	}
	out := emailRe.ReplaceAllString(in, "[REDACTED_EMAIL]")
	out = phoneRe.ReplaceAllString(out, "[REDACTED_PHONE]")
	return out
}

// Body returns a diagnostics-safe rendering of a provider response body.
// When privacy mode is active, JSON bodies are reduced to top-level key
// names and value lengths and non-JSON bodies to their byte length; with
// privacy mode off the body is returned verbatim.
func Body(raw []byte) string {
	if !enabled.Load() {
		return string(raw)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fmt.Sprintf("[%d bytes]", len(raw))
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, len(obj[k])))
	}
	return "{" + strings.Join(parts, " ") + "}"
}
