package openai

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

// Chat implements the chat/completions generation contract with
// delta-native SSE streaming.
type Chat struct {
	logger *slog.Logger
}

func NewChat() *Chat {
	return &Chat{logger: logging.NewComponentLogger(slog.Default(), "openai_chat")}
}

func (c *Chat) Kind() provider.RequestKind { return provider.KindChatCompletions }

func (c *Chat) Generate(ctx context.Context, req llm.Request, cfg provider.RuntimeConfig) (llm.Response, error) {
	start := time.Now()
	body := map[string]any{
		"model":  cfg.Model,
		"stream": cfg.Streaming,
		"messages": []map[string]any{
			{"role": "system", "content": req.SystemPrompt},
			{"role": "user", "content": req.UserMessage},
		},
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return llm.Response{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/chat/completions", bytes.NewReader(encoded))
	if err != nil {
		return llm.Response{}, err
	}
	applyHeaders(httpReq, cfg)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient(cfg).Do(httpReq)
	if err != nil {
		return llm.Response{}, errorsx.Wrap(err, errorsx.ReasonLLMGenerate)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return llm.Response{}, provider.FailureFromResponse(cfg.Provider, resp)
	}

	if !cfg.Streaming {
		return decodeChatResponse(req, cfg, resp.Body, start)
	}

	parser := llm.NewStreamParser(llm.ParserDelta)
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

func decodeChatResponse(req llm.Request, cfg provider.RuntimeConfig, body io.Reader, start time.Time) (llm.Response, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return llm.Response{}, errorsx.Wrap(err, errorsx.ReasonLLMGenerate)
	}
	var payload struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return llm.Response{}, errorsx.Wrap(err, errorsx.ReasonLLMGenerate)
	}
	var text string
	if len(payload.Choices) > 0 {
		text = payload.Choices[0].Message.Content
	}
	return llm.Response{
		RequestID: req.ID,
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		Text:      text,
		Latency:   time.Since(start),
		Raw:       raw,
	}, nil
}

var _ provider.LLMAdapter = (*Chat)(nil)
