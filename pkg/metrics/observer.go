// Package metrics emits per-call gateway events: one event per provider
// attempt and one per settled transcription or generation. Sinks are
// pluggable; the zero-configuration default drops everything.
package metrics

import "time"

// Event is one measurement. Value carries the duration in milliseconds
// for timing events.
type Event struct {
	Name   string
	Time   time.Time
	Value  float64
	Tags   map[string]string
	Fields map[string]any
}

type Observer interface {
	RecordEvent(ev Event)
}

type Flusher interface {
	Flush() error
}

type NoopObserver struct{}

func (NoopObserver) RecordEvent(Event) {}

// Attempt builds the event for one provider attempt inside the
// transcription cascade.
func Attempt(provider, stage string, d time.Duration, empty bool, err error) Event {
	ev := Event{
		Name:  "asr_attempt",
		Time:  time.Now(),
		Value: float64(d.Milliseconds()),
		Tags:  map[string]string{"provider": provider, "stage": stage},
		Fields: map[string]any{
			"empty": empty,
			"ok":    err == nil,
		},
	}
	if err != nil {
		ev.Fields["error"] = err.Error()
	}
	return ev
}

// Settled builds the event for a transcription that produced text.
func Settled(provider, language string, d time.Duration) Event {
	return Event{
		Name:  "asr_settled",
		Time:  time.Now(),
		Value: float64(d.Milliseconds()),
		Tags:  map[string]string{"provider": provider, "language": language},
	}
}

// Generation builds the event for one settled generation call.
func Generation(provider string, d time.Duration, err error) Event {
	ev := Event{
		Name:   "llm_generation",
		Time:   time.Now(),
		Value:  float64(d.Milliseconds()),
		Tags:   map[string]string{"provider": provider},
		Fields: map[string]any{"ok": err == nil},
	}
	if err != nil {
		ev.Fields["error"] = err.Error()
	}
	return ev
}
