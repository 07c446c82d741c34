package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonASRTransport ReasonCode = "asr_transport"
	ReasonASRProvider  ReasonCode = "asr_provider"
	ReasonASRUpload    ReasonCode = "asr_upload"
	ReasonASRPoll      ReasonCode = "asr_poll"
	ReasonASRStream    ReasonCode = "asr_stream"
	ReasonASRDecode    ReasonCode = "asr_decode"

	ReasonLLMGenerate ReasonCode = "llm_generate"
	ReasonLLMStream   ReasonCode = "llm_stream"

	ReasonConfigResolve ReasonCode = "config_resolve"
	ReasonCredential    ReasonCode = "credential_missing"
)
