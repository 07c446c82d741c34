package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/voxgate/voxgate/pkg/errorsx"
	"github.com/voxgate/voxgate/pkg/llm"
	"github.com/voxgate/voxgate/pkg/provider"
)

func testConfig(baseURL string, streaming bool) provider.RuntimeConfig {
	return provider.RuntimeConfig{
		Provider:  "anthropic",
		BaseURL:   baseURL,
		Model:     "claude-3-5-haiku-latest",
		APIKey:    "ak-test",
		Streaming: streaming,
	}
}

func TestGenerateEventStream(t *testing.T) {
	var gotVersion, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.Header.Get("anthropic-version")
		gotKey = r.Header.Get("x-api-key")
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(
			"event: message_start\n" +
				"data: {\"type\":\"message_start\"}\n\n" +
				"event: content_block_delta\n" +
				"data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"Hel\"}}\n\n" +
				"event: content_block_delta\n" +
				"data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"lo\"}}\n\n" +
				"event: message_stop\n" +
				"data: {\"type\":\"message_stop\"}\n\n"))
	}))
	defer server.Close()

	var tokens []string
	req := llm.Request{
		UserMessage: "hi",
		OnToken:     func(tok string) { tokens = append(tokens, tok) },
	}
	resp, err := NewChat().Generate(context.Background(), req, testConfig(server.URL, true))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Text != "Hello" {
		t.Fatalf("unexpected text %q", resp.Text)
	}
	if !reflect.DeepEqual(tokens, []string{"Hel", "lo"}) {
		t.Fatalf("unexpected tokens %v", tokens)
	}
	if gotVersion != apiVersion {
		t.Fatalf("unexpected version header %q", gotVersion)
	}
	if gotKey != "ak-test" {
		t.Fatalf("unexpected api key %q", gotKey)
	}
}

func TestGenerateNonStreaming(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"refined "},{"type":"text","text":"answer"}]}`))
	}))
	defer server.Close()

	req := llm.Request{SystemPrompt: "be brief", UserMessage: "hi"}
	resp, err := NewChat().Generate(context.Background(), req, testConfig(server.URL, false))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Text != "refined answer" {
		t.Fatalf("unexpected text %q", resp.Text)
	}
	if gotBody["system"] != "be brief" {
		t.Fatalf("unexpected system prompt %v", gotBody["system"])
	}
	// the messages API requires max_tokens even when the caller set none
	if gotBody["max_tokens"] != float64(defaultMaxTokens) {
		t.Fatalf("unexpected max_tokens %v", gotBody["max_tokens"])
	}
}

func TestGenerateHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(529) // overloaded
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error"}}`))
	}))
	defer server.Close()

	_, err := NewChat().Generate(context.Background(), llm.Request{UserMessage: "hi"}, testConfig(server.URL, false))
	pf, ok := errorsx.IsProviderFailure(err)
	if !ok || !pf.Retryable {
		t.Fatalf("expected retryable failure, got %v", err)
	}
}
