// Package gemini implements the multimodal-inline transcription
// contract: base64 audio embedded in a generateContent JSON body next to
// an instruction prompt.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/voxgate/voxgate/pkg/asr"
	"github.com/voxgate/voxgate/pkg/asr/extract"
	"github.com/voxgate/voxgate/pkg/errorsx"
	"github.com/voxgate/voxgate/pkg/logging"
	"github.com/voxgate/voxgate/pkg/provider"
)

// fallbackModels are tried in order when the configured model name is
// unknown to the API; model naming churns faster than user settings.
var fallbackModels = []string{
	"gemini-2.0-flash",
	"gemini-1.5-flash",
	"gemini-1.5-flash-8b",
}

const transcribePrompt = "Transcribe this audio verbatim. Output only the transcript text with no commentary."

// ASR accepts WAV input only; other containers are rejected before any
// network traffic.
type ASR struct {
	logger *slog.Logger
}

func NewASR() *ASR {
	return &ASR{logger: logging.NewComponentLogger(slog.Default(), "gemini_asr")}
}

func (a *ASR) Kind() provider.RequestKind { return provider.KindInlineASR }

func (a *ASR) Transcribe(ctx context.Context, req asr.Request, cfg provider.RuntimeConfig, audio []byte) (asr.Response, error) {
	if !acceptableMime(req) {
		return asr.Response{}, errorsx.InvalidAudioInput{Provider: cfg.Provider, Mime: req.MimeType}
	}
	start := time.Now()
	client := &http.Client{Timeout: cfg.Timeout}

	model := cfg.Model
	payload, raw, err := a.generate(ctx, client, cfg, model, req, audio)
	if modelNotFound(err) {
		for _, candidate := range fallbackModels {
			if candidate == cfg.Model {
				continue
			}
			a.logger.Warn("model_fallback",
				slog.String("request_id", req.ID),
				slog.String("configured", cfg.Model),
				slog.String("candidate", candidate))
			payload, raw, err = a.generate(ctx, client, cfg, candidate, req, audio)
			if err == nil {
				model = candidate
				break
			}
			if !modelNotFound(err) {
				return asr.Response{}, err
			}
		}
	}
	if err != nil {
		return asr.Response{}, err
	}

	text := candidateText(payload)
	return asr.Response{
		RequestID:        req.ID,
		Provider:         cfg.Provider,
		Model:            model,
		Text:             text,
		DetectedLanguage: extract.Language(payload, text),
		Latency:          time.Since(start),
		Raw:              raw,
	}, nil
}

func (a *ASR) generate(ctx context.Context, client *http.Client, cfg provider.RuntimeConfig, model string, req asr.Request, audio []byte) (map[string]any, json.RawMessage, error) {
	prompt := transcribePrompt
	if !req.AutoLanguage() {
		prompt += " The audio is in language: " + req.Language + "."
	}
	body := map[string]any{
		"contents": []map[string]any{{
			"parts": []map[string]any{
				{"text": prompt},
				{"inline_data": map[string]any{
					"mime_type": "audio/wav",
					"data":      base64.StdEncoding.EncodeToString(audio),
				}},
			},
		}},
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, nil, err
	}

	endpoint := cfg.BaseURL + "/v1beta/models/" + model + ":generateContent"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", cfg.APIKey)
	for k, v := range cfg.ExtraHeaders {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, nil, errorsx.Wrap(err, errorsx.ReasonASRTransport)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, provider.FailureFromResponse(cfg.Provider, resp)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errorsx.Wrap(err, errorsx.ReasonASRDecode)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, nil, errorsx.Wrap(err, errorsx.ReasonASRDecode)
	}
	return payload, raw, nil
}

func acceptableMime(req asr.Request) bool {
	if strings.EqualFold(req.MimeType, "audio/wav") || strings.EqualFold(req.MimeType, "audio/x-wav") {
		return true
	}
	return req.MimeType == "" && strings.HasSuffix(strings.ToLower(req.AudioPath), ".wav")
}

// modelNotFound matches 404s and 400s whose body mentions the model is
// unknown; the API has reported both shapes for retired model names.
func modelNotFound(err error) bool {
	pf, ok := errorsx.IsProviderFailure(err)
	if !ok {
		return false
	}
	if pf.StatusCode == http.StatusNotFound {
		return true
	}
	return pf.StatusCode == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(pf.BodySummary), "not found")
}

func candidateText(payload map[string]any) string {
	candidates, _ := payload["candidates"].([]any)
	var parts []string
	for _, c := range candidates {
		m, ok := c.(map[string]any)
		if !ok {
			continue
		}
		content, _ := m["content"].(map[string]any)
		items, _ := content["parts"].([]any)
		for _, p := range items {
			if pm, ok := p.(map[string]any); ok {
				if s, _ := pm["text"].(string); strings.TrimSpace(s) != "" {
					parts = append(parts, strings.TrimSpace(s))
				}
			}
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	return extract.Text(payload)
}

var _ provider.ASRAdapter = (*ASR)(nil)
