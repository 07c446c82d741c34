// Package assemblyai implements the upload/create/poll transcription
// contract: three sequential HTTP calls with a bounded polling budget.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/voxgate/voxgate/pkg/asr"
	"github.com/voxgate/voxgate/pkg/asr/extract"
	"github.com/voxgate/voxgate/pkg/errorsx"
	"github.com/voxgate/voxgate/pkg/logging"
	"github.com/voxgate/voxgate/pkg/provider"
	"github.com/voxgate/voxgate/pkg/redact"
)

const (
	defaultPollInterval = 3 * time.Second
	defaultPollBudget   = 100
)

// ASR uploads audio for a temporary URL, creates a transcription job
// referencing it, then polls the job until a terminal status.
type ASR struct {
	logger *slog.Logger

	// PollInterval and PollBudget are injectable for tests.
	PollInterval time.Duration
	PollBudget   int
	// Sleep is injectable for tests.
	Sleep func(time.Duration)
}

func NewASR() *ASR {
	return &ASR{
		logger:       logging.NewComponentLogger(slog.Default(), "assemblyai_asr"),
		PollInterval: defaultPollInterval,
		PollBudget:   defaultPollBudget,
		Sleep:        time.Sleep,
	}
}

func (a *ASR) Kind() provider.RequestKind { return provider.KindUploadPollASR }

func (a *ASR) Transcribe(ctx context.Context, req asr.Request, cfg provider.RuntimeConfig, audio []byte) (asr.Response, error) {
	start := time.Now()
	client := &http.Client{Timeout: cfg.Timeout}

	audioURL, err := a.upload(ctx, client, cfg, audio)
	if err != nil {
		return asr.Response{}, errorsx.Wrap(err, errorsx.ReasonASRUpload)
	}

	jobID, err := a.createJob(ctx, client, cfg, req, audioURL)
	if err != nil {
		return asr.Response{}, err
	}
	a.logger.Debug("job_created",
		slog.String("request_id", req.ID),
		slog.String("job_id", jobID))

	payload, raw, err := a.poll(ctx, client, cfg, jobID)
	if err != nil {
		return asr.Response{}, err
	}

	text := extract.Text(payload)
	return asr.Response{
		RequestID:        req.ID,
		Provider:         cfg.Provider,
		Model:            cfg.Model,
		Text:             text,
		Segments:         utteranceSegments(payload),
		DetectedLanguage: extract.Language(payload, text),
		Latency:          time.Since(start),
		Raw:              raw,
	}, nil
}

func (a *ASR) upload(ctx context.Context, client *http.Client, cfg provider.RuntimeConfig, audio []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/v2/upload", bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/octet-stream")

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", provider.FailureFromResponse(cfg.Provider, resp)
	}
	var out struct {
		UploadURL string `json:"upload_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.UploadURL == "" {
		return "", fmt.Errorf("upload returned no url")
	}
	return out.UploadURL, nil
}

func (a *ASR) createJob(ctx context.Context, client *http.Client, cfg provider.RuntimeConfig, req asr.Request, audioURL string) (string, error) {
	body := map[string]any{
		"audio_url":      audioURL,
		"punctuate":      true,
		"format_text":    true,
		"speaker_labels": req.Diarization,
	}
	if !req.AutoLanguage() {
		body["language_code"] = req.Language
	} else {
		body["language_detection"] = true
	}
	for k, v := range cfg.QueryParams {
		body[k] = v
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/v2/transcript", bytes.NewReader(encoded))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonASRTransport)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", provider.FailureFromResponse(cfg.Provider, resp)
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("create transcript returned no id")
	}
	return out.ID, nil
}

// poll checks the job status on a fixed interval. A terminal "error"
// status is a fatal provider failure; exhausting the budget surfaces a
// 408-shaped failure.
func (a *ASR) poll(ctx context.Context, client *http.Client, cfg provider.RuntimeConfig, jobID string) (map[string]any, json.RawMessage, error) {
	budget := a.PollBudget
	if budget <= 0 {
		budget = defaultPollBudget
	}
	interval := a.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	sleep := a.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	for attempt := 0; attempt < budget; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if attempt > 0 {
			sleep(interval)
		}
		payload, raw, err := a.fetchJob(ctx, client, cfg, jobID)
		if err != nil {
			return nil, nil, errorsx.Wrap(err, errorsx.ReasonASRPoll)
		}
		status, _ := payload["status"].(string)
		switch status {
		case "completed":
			return payload, raw, nil
		case "error":
			detail, _ := payload["error"].(string)
			return nil, nil, errorsx.ProviderFailure{
				Provider:    cfg.Provider,
				StatusCode:  http.StatusUnprocessableEntity,
				Suggestion:  detail,
				BodySummary: redact.Body(raw),
			}
		}
	}
	return nil, nil, errorsx.ProviderFailure{
		Provider:   cfg.Provider,
		StatusCode: http.StatusRequestTimeout,
		Suggestion: "transcription job did not finish within the polling budget",
	}
}

func (a *ASR) fetchJob(ctx context.Context, client *http.Client, cfg provider.RuntimeConfig, jobID string) (map[string]any, json.RawMessage, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL+"/v2/transcript/"+jobID, nil)
	if err != nil {
		return nil, nil, err
	}
	httpReq.Header.Set("Authorization", cfg.APIKey)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, provider.FailureFromResponse(cfg.Provider, resp)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, nil, err
	}
	return payload, raw, nil
}

func utteranceSegments(payload map[string]any) []asr.Segment {
	utterances, ok := payload["utterances"].([]any)
	if !ok {
		return nil
	}
	var out []asr.Segment
	for _, u := range utterances {
		m, ok := u.(map[string]any)
		if !ok {
			continue
		}
		text, _ := m["text"].(string)
		if text == "" {
			continue
		}
		seg := asr.Segment{Text: text}
		if s, ok := m["speaker"].(string); ok {
			seg.Speaker = s
		}
		if v, ok := m["start"].(float64); ok {
			seg.Start = time.Duration(v) * time.Millisecond
		}
		if v, ok := m["end"].(float64); ok {
			seg.End = time.Duration(v) * time.Millisecond
		}
		out = append(out, seg)
	}
	return out
}

var _ provider.ASRAdapter = (*ASR)(nil)
