// Package llm defines the normalized text-generation contract and the
// streaming token parser shared by the LLM provider adapters.
package llm

import (
	"encoding/json"
	"time"
)

// Request is one logical generation call.
type Request struct {
	ID           string
	SystemPrompt string
	UserMessage  string
	MaxTokens    int
	Temperature  float64

	// OnToken receives each text delta as it arrives. Nil disables
	// incremental delivery; the accumulated text is still returned.
	OnToken func(delta string)
}

// Response is the normalized generation result.
type Response struct {
	RequestID string
	Provider  string
	Model     string
	Text      string
	Latency   time.Duration
	Raw       json.RawMessage
}

// Empty reports a semantically empty result.
func (r Response) Empty() bool {
	return r.Text == ""
}
