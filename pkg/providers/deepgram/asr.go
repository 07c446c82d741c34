// Package deepgram implements the listen wire contracts: raw-binary
// HTTP for prerecorded audio and the live WebSocket stream.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/voxgate/voxgate/pkg/asr"
	"github.com/voxgate/voxgate/pkg/asr/extract"
	"github.com/voxgate/voxgate/pkg/errorsx"
	"github.com/voxgate/voxgate/pkg/logging"
	"github.com/voxgate/voxgate/pkg/provider"
)

// ASR posts raw audio bytes with all provider options encoded as query
// parameters. Empty transcripts are not an error here: the extraction
// cascade has already tried every structural guess, and the orchestrator
// owns what happens next.
type ASR struct {
	logger *slog.Logger
}

func NewASR() *ASR {
	return &ASR{logger: logging.NewComponentLogger(slog.Default(), "deepgram_asr")}
}

func (a *ASR) Kind() provider.RequestKind { return provider.KindBinaryASR }

func (a *ASR) Transcribe(ctx context.Context, req asr.Request, cfg provider.RuntimeConfig, audio []byte) (asr.Response, error) {
	start := time.Now()

	endpoint, err := url.Parse(cfg.BaseURL + "/v1/listen")
	if err != nil {
		return asr.Response{}, err
	}
	query := endpoint.Query()
	query.Set("model", cfg.Model)
	query.Set("smart_format", "true")
	if !req.AutoLanguage() {
		query.Set("language", req.Language)
	} else {
		query.Set("detect_language", "true")
	}
	if req.Diarization {
		query.Set("diarize", "true")
	}
	if req.Timestamps {
		query.Set("utterances", "true")
	}
	for k, v := range cfg.QueryParams {
		query.Set(k, v)
	}
	endpoint.RawQuery = query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(audio))
	if err != nil {
		return asr.Response{}, err
	}
	httpReq.Header.Set("Authorization", "Token "+cfg.APIKey)
	mime := req.MimeType
	if mime == "" {
		mime = "audio/wav"
	}
	httpReq.Header.Set("Content-Type", mime)
	for k, v := range cfg.ExtraHeaders {
		httpReq.Header.Set(k, v)
	}

	client := &http.Client{Timeout: cfg.Timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return asr.Response{}, errorsx.Wrap(err, errorsx.ReasonASRTransport)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return asr.Response{}, provider.FailureFromResponse(cfg.Provider, resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return asr.Response{}, errorsx.Wrap(err, errorsx.ReasonASRDecode)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return asr.Response{}, errorsx.Wrap(err, errorsx.ReasonASRDecode)
	}

	text := extract.Text(payload)
	if text == "" {
		a.logger.Warn("empty_transcript",
			slog.String("request_id", req.ID),
			slog.String("model", cfg.Model))
	}
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

func utteranceSegments(payload map[string]any) []asr.Segment {
	results, ok := payload["results"].(map[string]any)
	if !ok {
		return nil
	}
	utterances, ok := results["utterances"].([]any)
	if !ok {
		return nil
	}
	var out []asr.Segment
	for _, u := range utterances {
		m, ok := u.(map[string]any)
		if !ok {
			continue
		}
		text, _ := m["transcript"].(string)
		if text == "" {
			continue
		}
		seg := asr.Segment{Text: text}
		if v, ok := m["speaker"].(float64); ok {
			seg.Speaker = "speaker_" + strconv.Itoa(int(v))
		}
		if v, ok := m["start"].(float64); ok {
			seg.Start = time.Duration(v * float64(time.Second))
		}
		if v, ok := m["end"].(float64); ok {
			seg.End = time.Duration(v * float64(time.Second))
		}
		out = append(out, seg)
	}
	return out
}

var _ provider.ASRAdapter = (*ASR)(nil)
