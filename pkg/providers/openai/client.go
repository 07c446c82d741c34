// Package openai implements the whisper-style multipart transcription
// contract and the chat/completions and responses-API generation
// contracts.
package openai

import (
	"net/http"
	"time"

	"github.com/voxgate/voxgate/pkg/provider"
)

const defaultTimeout = 60 * time.Second

func httpClient(cfg provider.RuntimeConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func applyHeaders(req *http.Request, cfg provider.RuntimeConfig) {
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	for k, v := range cfg.ExtraHeaders {
		req.Header.Set(k, v)
	}
}
