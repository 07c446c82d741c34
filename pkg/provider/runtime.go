// Package provider defines the runtime configuration handed to protocol
// adapters and the adapter interfaces themselves.
package provider

import (
	"context"
	"time"

	"github.com/voxgate/voxgate/pkg/asr"
	"github.com/voxgate/voxgate/pkg/llm"
)

// RequestKind tags the wire contract a RuntimeConfig was resolved for.
// A config and the adapter invoked with it must carry the same kind.
type RequestKind string

const (
	KindMultipartASR  RequestKind = "multipart_asr"
	KindBinaryASR     RequestKind = "binary_asr"
	KindWebSocketASR  RequestKind = "websocket_asr"
	KindUploadPollASR RequestKind = "upload_poll_asr"
	KindInlineASR     RequestKind = "inline_asr"

	KindChatCompletions RequestKind = "chat_completions"
	KindResponsesAPI    RequestKind = "responses_api"
	KindMessageEvents   RequestKind = "message_events"
)

// RuntimeConfig is a fully resolved, authenticated provider target.
// Built fresh per call from the configuration snapshot, immutable once
// constructed, never persisted.
type RuntimeConfig struct {
	Provider    string
	DisplayName string
	BaseURL     string
	Model       string
	APIKey      string
	Kind        RequestKind

	Timeout        time.Duration
	MaxRetries     int
	MaxConcurrency int
	Streaming      bool

	ExtraHeaders map[string]string
	QueryParams  map[string]string
}

// ASRAdapter is one transcription wire contract.
type ASRAdapter interface {
	Kind() RequestKind
	Transcribe(ctx context.Context, req asr.Request, cfg RuntimeConfig, audio []byte) (asr.Response, error)
}

// LLMAdapter is one generation wire contract.
type LLMAdapter interface {
	Kind() RequestKind
	Generate(ctx context.Context, req llm.Request, cfg RuntimeConfig) (llm.Response, error)
}
