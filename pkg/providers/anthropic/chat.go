// Package anthropic implements the message-events generation contract:
// typed SSE events where only content_block_delta frames carry text.
package anthropic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/voxgate/voxgate/pkg/errorsx"
	"github.com/voxgate/voxgate/pkg/llm"
	"github.com/voxgate/voxgate/pkg/logging"
	"github.com/voxgate/voxgate/pkg/provider"
)

const apiVersion = "2023-06-01"

// defaultMaxTokens is required by the messages API; requests may
// override it.
const defaultMaxTokens = 1024

type Chat struct {
	logger *slog.Logger
}

func NewChat() *Chat {
	return &Chat{logger: logging.NewComponentLogger(slog.Default(), "anthropic_chat")}
}

func (c *Chat) Kind() provider.RequestKind { return provider.KindMessageEvents }

func (c *Chat) Generate(ctx context.Context, req llm.Request, cfg provider.RuntimeConfig) (llm.Response, error) {
	start := time.Now()
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	body := map[string]any{
		"model":      cfg.Model,
		"max_tokens": maxTokens,
		"stream":     cfg.Streaming,
		"system":     req.SystemPrompt,
		"messages": []map[string]any{
			{"role": "user", "content": req.UserMessage},
		},
	}
	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return llm.Response{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/v1/messages", bytes.NewReader(encoded))
	if err != nil {
		return llm.Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", cfg.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)
	for k, v := range cfg.ExtraHeaders {
		httpReq.Header.Set(k, v)
	}

	client := &http.Client{Timeout: cfg.Timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return llm.Response{}, errorsx.Wrap(err, errorsx.ReasonLLMGenerate)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return llm.Response{}, provider.FailureFromResponse(cfg.Provider, resp)
	}

	if !cfg.Streaming {
		return decodeMessage(req, cfg, resp.Body, start)
	}

	parser := llm.NewStreamParser(llm.ParserEvent)
	var text strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return llm.Response{}, err
		}
		delta := parser.FeedLine(scanner.Text())
		if delta == "" {
			continue
		}
		text.WriteString(delta)
		if req.OnToken != nil {
			req.OnToken(delta)
		}
	}
	if err := scanner.Err(); err != nil {
		return llm.Response{}, errorsx.Wrap(err, errorsx.ReasonLLMStream)
	}
	return llm.Response{
		RequestID: req.ID,
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		Text:      text.String(),
		Latency:   time.Since(start),
	}, nil
}

func decodeMessage(req llm.Request, cfg provider.RuntimeConfig, body io.Reader, start time.Time) (llm.Response, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return llm.Response{}, errorsx.Wrap(err, errorsx.ReasonLLMGenerate)
	}
	var payload struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return llm.Response{}, errorsx.Wrap(err, errorsx.ReasonLLMGenerate)
	}
	var text strings.Builder
	for _, block := range payload.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return llm.Response{
		RequestID: req.ID,
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		Text:      text.String(),
		Latency:   time.Since(start),
		Raw:       raw,
	}, nil
}

var _ provider.LLMAdapter = (*Chat)(nil)
