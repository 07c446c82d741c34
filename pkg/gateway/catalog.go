package gateway

import "github.com/voxgate/voxgate/pkg/provider"

// Operation selects which half of the gateway a resolution is for.
type Operation string

const (
	OpASR Operation = "asr"
	OpLLM Operation = "llm"
)

// EngineLocal is the on-device engine id. It has no network transport;
// resolution fails with UnsupportedEngine and the caller routes the
// request to the local-inference collaborator instead.
const EngineLocal = "local"

type catalogEntry struct {
	ID          string
	DisplayName string
	Kind        provider.RequestKind
	Op          Operation
	BaseURL     string
	Model       string
	KeyRef      string
}

// catalog is the fixed set of supported engines. Order matters for the
// ASR entries: it is the fallback priority order.
var catalog = []catalogEntry{
	{
		ID:          "openai",
		DisplayName: "OpenAI Whisper",
		Kind:        provider.KindMultipartASR,
		Op:          OpASR,
		BaseURL:     "https://api.openai.com/v1",
		Model:       "whisper-1",
		KeyRef:      "openai.api_key",
	},
	{
		ID:          "deepgram",
		DisplayName: "Deepgram",
		Kind:        provider.KindBinaryASR,
		Op:          OpASR,
		BaseURL:     "https://api.deepgram.com",
		Model:       "nova-2",
		KeyRef:      "deepgram.api_key",
	},
	{
		ID:          "assemblyai",
		DisplayName: "AssemblyAI",
		Kind:        provider.KindUploadPollASR,
		Op:          OpASR,
		BaseURL:     "https://api.assemblyai.com",
		Model:       "best",
		KeyRef:      "assemblyai.api_key",
	},
	{
		ID:          "gemini",
		DisplayName: "Google Gemini",
		Kind:        provider.KindInlineASR,
		Op:          OpASR,
		BaseURL:     "https://generativelanguage.googleapis.com",
		Model:       "gemini-2.0-flash",
		KeyRef:      "gemini.api_key",
	},
	{
		ID:          "deepgram_live",
		DisplayName: "Deepgram Live",
		Kind:        provider.KindWebSocketASR,
		Op:          OpASR,
		BaseURL:     "https://api.deepgram.com",
		Model:       "nova-2",
		KeyRef:      "deepgram.api_key",
	},
	{
		ID:          "openai_chat",
		DisplayName: "OpenAI Chat Completions",
		Kind:        provider.KindChatCompletions,
		Op:          OpLLM,
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-4o-mini",
		KeyRef:      "openai.api_key",
	},
	{
		ID:          "openai_responses",
		DisplayName: "OpenAI Responses",
		Kind:        provider.KindResponsesAPI,
		Op:          OpLLM,
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-4o-mini",
		KeyRef:      "openai.api_key",
	},
	{
		ID:          "anthropic",
		DisplayName: "Anthropic Messages",
		Kind:        provider.KindMessageEvents,
		Op:          OpLLM,
		BaseURL:     "https://api.anthropic.com",
		Model:       "claude-3-5-haiku-latest",
		KeyRef:      "anthropic.api_key",
	},
}

// asrFallbackOrder is the fixed priority order walked when the primary
// provider yields an empty transcript. Streaming engines are excluded:
// a fallback re-sends a finished file, so batch contracts only.
var asrFallbackOrder = []string{"openai", "deepgram", "assemblyai", "gemini"}

func findEngine(id string, op Operation) (catalogEntry, bool) {
	for _, entry := range catalog {
		if entry.ID == id && entry.Op == op {
			return entry, true
		}
	}
	return catalogEntry{}, false
}
