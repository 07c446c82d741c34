package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/voxgate/voxgate/pkg/asr/extract"
	"github.com/voxgate/voxgate/pkg/errorsx"
	"github.com/voxgate/voxgate/pkg/llm"
	"github.com/voxgate/voxgate/pkg/logging"
	"github.com/voxgate/voxgate/pkg/provider"
)

// Responses implements the responses-API generation contract. Stream
// frames carry the full text so far, so deltas are computed by the
// snapshot parser.
type Responses struct {
	logger *slog.Logger
}

func NewResponses() *Responses {
	return &Responses{logger: logging.NewComponentLogger(slog.Default(), "openai_responses")}
}

func (r *Responses) Kind() provider.RequestKind { return provider.KindResponsesAPI }

func (r *Responses) Generate(ctx context.Context, req llm.Request, cfg provider.RuntimeConfig) (llm.Response, error) {
	start := time.Now()
	body := map[string]any{
		"model":        cfg.Model,
		"stream":       cfg.Streaming,
		"instructions": req.SystemPrompt,
		"input":        req.UserMessage,
	}
	if req.MaxTokens > 0 {
		body["max_output_tokens"] = req.MaxTokens
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return llm.Response{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/responses", bytes.NewReader(encoded))
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
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return llm.Response{}, errorsx.Wrap(err, errorsx.ReasonLLMGenerate)
		}
		return llm.Response{
			RequestID: req.ID,
			Provider:  cfg.Provider,
			Model:     cfg.Model,
			Text:      extract.FromRaw(raw),
			Latency:   time.Since(start),
			Raw:       raw,
		}, nil
	}

	parser := llm.NewStreamParser(llm.ParserSnapshot)
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
		Text:      parser.Text(),
		Latency:   time.Since(start),
	}, nil
}

var _ provider.LLMAdapter = (*Responses)(nil)
