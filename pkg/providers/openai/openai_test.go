package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/voxgate/voxgate/pkg/asr"
	"github.com/voxgate/voxgate/pkg/errorsx"
	"github.com/voxgate/voxgate/pkg/llm"
	"github.com/voxgate/voxgate/pkg/provider"
)

func testConfig(baseURL string, streaming bool) provider.RuntimeConfig {
	return provider.RuntimeConfig{
		Provider:  "openai",
		BaseURL:   baseURL,
		Model:     "whisper-1",
		APIKey:    "sk-test",
		Streaming: streaming,
	}
}

func TestTranscribeMultipartForm(t *testing.T) {
	var gotModel, gotLanguage, gotFilename, gotAuth string
	var gotAudio []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		gotModel = r.FormValue("model")
		gotLanguage = r.FormValue("language")
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		gotAudio, _ = io.ReadAll(file)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"hello world","language":"english"}`))
	}))
	defer server.Close()

	req := asr.Request{ID: "r1", AudioPath: "/tmp/sample.wav", Language: "en"}
	resp, err := NewASR().Transcribe(context.Background(), req, testConfig(server.URL, false), []byte("fake-audio"))
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if resp.Text != "hello world" {
		t.Fatalf("unexpected text %q", resp.Text)
	}
	if gotModel != "whisper-1" {
		t.Fatalf("unexpected model field %q", gotModel)
	}
	if gotLanguage != "en" {
		t.Fatalf("unexpected language field %q", gotLanguage)
	}
	if gotFilename != "sample.wav" {
		t.Fatalf("unexpected filename %q", gotFilename)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if string(gotAudio) != "fake-audio" {
		t.Fatalf("unexpected audio body %q", gotAudio)
	}
}

func TestTranscribeAutoLanguageOmitted(t *testing.T) {
	var sawLanguage bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseMultipartForm(1 << 20)
		_, sawLanguage = r.MultipartForm.Value["language"]
		_, _ = w.Write([]byte(`{"text":"ok"}`))
	}))
	defer server.Close()

	req := asr.Request{AudioPath: "a.wav", Language: asr.LanguageAuto}
	if _, err := NewASR().Transcribe(context.Background(), req, testConfig(server.URL, false), []byte("x")); err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if sawLanguage {
		t.Fatal("language field must be omitted for auto detection")
	}
}

func TestTranscribeSegments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":"one two","segments":[{"text":"one","start":0.0,"end":1.5},{"text":"two","start":1.5,"end":3.0}]}`))
	}))
	defer server.Close()

	req := asr.Request{AudioPath: "a.wav", Timestamps: true}
	resp, err := NewASR().Transcribe(context.Background(), req, testConfig(server.URL, false), []byte("x"))
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if len(resp.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(resp.Segments))
	}
	if resp.Segments[1].Text != "two" {
		t.Fatalf("unexpected segment: %+v", resp.Segments[1])
	}
}

func TestTranscribeHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "req_abc")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	_, err := NewASR().Transcribe(context.Background(), asr.Request{AudioPath: "a.wav"}, testConfig(server.URL, false), []byte("x"))
	pf, ok := errorsx.IsProviderFailure(err)
	if !ok {
		t.Fatalf("expected ProviderFailure, got %v", err)
	}
	if pf.StatusCode != http.StatusTooManyRequests || !pf.Retryable {
		t.Fatalf("unexpected failure: %+v", pf)
	}
	if pf.UpstreamRequestID != "req_abc" {
		t.Fatalf("expected upstream request id captured, got %q", pf.UpstreamRequestID)
	}
}

func TestChatStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(
			"data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n" +
				"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n" +
				"data: [DONE]\n\n"))
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
}

func TestChatNonStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"full answer"}}]}`))
	}))
	defer server.Close()

	resp, err := NewChat().Generate(context.Background(), llm.Request{UserMessage: "hi"}, testConfig(server.URL, false))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Text != "full answer" {
		t.Fatalf("unexpected text %q", resp.Text)
	}
}

func TestResponsesSnapshotStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(
			"data: {\"text\":\"Hello\"}\n\n" +
				"data: {\"text\":\"Hello world\"}\n\n" +
				"data: {\"text\":\"Hello world!\"}\n\n" +
				"data: [DONE]\n\n"))
	}))
	defer server.Close()

	var tokens []string
	req := llm.Request{
		UserMessage: "hi",
		OnToken:     func(tok string) { tokens = append(tokens, tok) },
	}
	resp, err := NewResponses().Generate(context.Background(), req, testConfig(server.URL, true))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Text != "Hello world!" {
		t.Fatalf("unexpected text %q", resp.Text)
	}
	if !reflect.DeepEqual(tokens, []string{"Hello", " world", "!"}) {
		t.Fatalf("unexpected tokens %v", tokens)
	}
}

func TestResponsesNonStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output_text":"complete response"}`))
	}))
	defer server.Close()

	resp, err := NewResponses().Generate(context.Background(), llm.Request{UserMessage: "hi"}, testConfig(server.URL, false))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Text != "complete response" {
		t.Fatalf("unexpected text %q", resp.Text)
	}
}
