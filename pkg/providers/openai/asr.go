package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"github.com/voxgate/voxgate/pkg/asr"
	"github.com/voxgate/voxgate/pkg/asr/extract"
	"github.com/voxgate/voxgate/pkg/errorsx"
	"github.com/voxgate/voxgate/pkg/logging"
	"github.com/voxgate/voxgate/pkg/provider"
)

// ASR posts a multipart form (model, optional language, audio file part)
// to an audio/transcriptions endpoint and recovers the transcript with
// the extraction cascade.
type ASR struct {
	logger *slog.Logger
}

func NewASR() *ASR {
	return &ASR{logger: logging.NewComponentLogger(slog.Default(), "openai_asr")}
}

func (a *ASR) Kind() provider.RequestKind { return provider.KindMultipartASR }

func (a *ASR) Transcribe(ctx context.Context, req asr.Request, cfg provider.RuntimeConfig, audio []byte) (asr.Response, error) {
	start := time.Now()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("model", cfg.Model); err != nil {
		return asr.Response{}, err
	}
	if !req.AutoLanguage() {
		if err := writer.WriteField("language", req.Language); err != nil {
			return asr.Response{}, err
		}
	}
	if req.Timestamps {
		_ = writer.WriteField("response_format", "verbose_json")
		_ = writer.WriteField("timestamp_granularities[]", "segment")
	}
	for k, v := range cfg.QueryParams {
		_ = writer.WriteField(k, v)
	}
	filename := filepath.Base(req.AudioPath)
	if filename == "" || filename == "." {
		filename = "audio.wav"
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return asr.Response{}, err
	}
	if _, err := part.Write(audio); err != nil {
		return asr.Response{}, err
	}
	if err := writer.Close(); err != nil {
		return asr.Response{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return asr.Response{}, err
	}
	applyHeaders(httpReq, cfg)
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := httpClient(cfg).Do(httpReq)
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
	out := asr.Response{
		RequestID:        req.ID,
		Provider:         cfg.Provider,
		Model:            cfg.Model,
		Text:             text,
		Segments:         segments(payload),
		DetectedLanguage: extract.Language(payload, text),
		Latency:          time.Since(start),
		Raw:              raw,
	}
	a.logger.Debug("transcription_complete",
		slog.String("request_id", req.ID),
		slog.Bool("empty", out.Empty()),
		slog.Duration("latency", out.Latency))
	return out, nil
}

func segments(payload map[string]any) []asr.Segment {
	items, ok := payload["segments"].([]any)
	if !ok {
		return nil
	}
	var out []asr.Segment
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		text, _ := m["text"].(string)
		if text == "" {
			continue
		}
		seg := asr.Segment{Text: text}
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
