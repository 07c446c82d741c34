// Package asr defines the normalized transcription request/response
// contract shared by every provider adapter.
package asr

import (
	"encoding/json"
	"strings"
	"time"
)

// LanguageAuto asks the provider to detect the spoken language itself.
const LanguageAuto = "auto"

// Request is one logical transcription. The audio has already been
// captured and normalized by the caller; only a file reference crosses
// this boundary.
type Request struct {
	ID          string
	AudioPath   string
	MimeType    string
	Duration    time.Duration
	Language    string
	Timestamps  bool
	Diarization bool
}

// WithLanguage clones the request with a forced language, used by the
// orchestrator's language-coercion retries.
func (r Request) WithLanguage(lang string) Request {
	clone := r
	clone.Language = lang
	return clone
}

// AutoLanguage reports whether the provider should detect the language.
func (r Request) AutoLanguage() bool {
	return r.Language == "" || r.Language == LanguageAuto
}

// Segment is a timed slice of the transcript.
type Segment struct {
	Text    string
	Speaker string
	Start   time.Duration
	End     time.Duration
}

// Response is the normalized transcription result. Raw keeps the
// provider payload for diagnostics; nothing downstream re-parses it.
type Response struct {
	RequestID        string
	Provider         string
	Model            string
	Text             string
	Segments         []Segment
	DetectedLanguage string
	Latency          time.Duration
	Raw              json.RawMessage
}

// Empty reports a semantically empty result: the call succeeded but no
// usable transcript was recovered. Whitespace-only text counts as empty.
// This is what triggers the fallback cascade.
func (r Response) Empty() bool {
	return strings.TrimSpace(r.Text) == ""
}
