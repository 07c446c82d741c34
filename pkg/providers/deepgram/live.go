package deepgram

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxgate/voxgate/pkg/asr"
	"github.com/voxgate/voxgate/pkg/asr/extract"
	"github.com/voxgate/voxgate/pkg/errorsx"
	"github.com/voxgate/voxgate/pkg/logging"
	"github.com/voxgate/voxgate/pkg/provider"
	"github.com/voxgate/voxgate/pkg/redact"
)

const (
	// audioChunkSize is the fixed size of each binary audio message.
	audioChunkSize = 8 << 10
	// maxReceiveFrames bounds the receive loop when no finality signal
	// ever arrives.
	maxReceiveFrames = 200
	// receiveTimeout bounds each individual receive.
	receiveTimeout = 6 * time.Second
)

// closeStream is the control message ending the audio stream.
var closeStream = map[string]string{"type": "CloseStream"}

// Live streams audio over one WebSocket connection and collects
// transcript frames until a finality signal or loop exhaustion. The best
// transcript seen is returned even when no explicit finality arrived.
type Live struct {
	logger *slog.Logger

	// Dialer is injectable for tests.
	Dialer *websocket.Dialer
}

func NewLive() *Live {
	return &Live{
		logger: logging.NewComponentLogger(slog.Default(), "deepgram_live"),
		Dialer: websocket.DefaultDialer,
	}
}

func (l *Live) Kind() provider.RequestKind { return provider.KindWebSocketASR }

type liveFrame struct {
	Type        string `json:"type"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`
	Channel     struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
	Metadata map[string]any `json:"metadata"`
}

func (l *Live) Transcribe(ctx context.Context, req asr.Request, cfg provider.RuntimeConfig, audio []byte) (asr.Response, error) {
	start := time.Now()

	endpoint, err := wsEndpoint(cfg, req)
	if err != nil {
		return asr.Response{}, err
	}
	header := http.Header{}
	header.Set("Authorization", "Token "+cfg.APIKey)
	for k, v := range cfg.ExtraHeaders {
		header.Set(k, v)
	}

	conn, resp, err := l.Dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return asr.Response{}, provider.FailureFromResponse(cfg.Provider, resp)
		}
		return asr.Response{}, errorsx.Wrap(err, errorsx.ReasonASRStream)
	}
	defer conn.Close()

	for offset := 0; offset < len(audio); offset += audioChunkSize {
		if err := ctx.Err(); err != nil {
			return asr.Response{}, err
		}
		end := offset + audioChunkSize
		if end > len(audio) {
			end = len(audio)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, audio[offset:end]); err != nil {
			return asr.Response{}, errorsx.Wrap(err, errorsx.ReasonASRStream)
		}
	}
	if err := conn.WriteJSON(closeStream); err != nil {
		return asr.Response{}, errorsx.Wrap(err, errorsx.ReasonASRStream)
	}

	best, raw, err := l.receiveLoop(ctx, conn, req)
	if err != nil {
		return asr.Response{}, err
	}
	return asr.Response{
		RequestID:        req.ID,
		Provider:         cfg.Provider,
		Model:            cfg.Model,
		Text:             best,
		DetectedLanguage: extract.ScriptLanguage(best),
		Latency:          time.Since(start),
		Raw:              raw,
	}, nil
}

// receiveLoop reads JSON frames, tracking the latest non-empty
// transcript. Each receive races a timeout; the loop ends on a finality
// signal, a closed connection, or iteration exhaustion.
func (l *Live) receiveLoop(ctx context.Context, conn *websocket.Conn, req asr.Request) (string, json.RawMessage, error) {
	type received struct {
		data []byte
		err  error
	}
	frames := make(chan received, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(frames)
		for {
			_, data, err := conn.ReadMessage()
			// the main loop may have stopped on a finality signal with
			// more frames queued; never park on the send
			select {
			case frames <- received{data: data, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	var best string
	var lastRaw json.RawMessage
	timer := time.NewTimer(receiveTimeout)
	defer timer.Stop()

	for i := 0; i < maxReceiveFrames; i++ {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(receiveTimeout)

		select {
		case <-ctx.Done():
			return "", nil, ctx.Err()
		case <-timer.C:
			l.logger.Warn("receive_timeout",
				slog.String("request_id", req.ID),
				slog.String("best_so_far", redact.Text(bestSummary(best))))
			return best, lastRaw, nil
		case msg, ok := <-frames:
			if !ok || msg.err != nil {
				// connection closed; return what was collected
				return best, lastRaw, nil
			}
			var frame liveFrame
			if err := json.Unmarshal(msg.data, &frame); err != nil {
				continue
			}
			transcript := ""
			if len(frame.Channel.Alternatives) > 0 {
				transcript = strings.TrimSpace(frame.Channel.Alternatives[0].Transcript)
			}
			if transcript != "" {
				best = transcript
				lastRaw = json.RawMessage(msg.data)
			}
			if frame.IsFinal || frame.SpeechFinal {
				l.logger.Debug("finality_signal",
					slog.String("request_id", req.ID),
					slog.Bool("is_final", frame.IsFinal),
					slog.Bool("speech_final", frame.SpeechFinal))
				return best, lastRaw, nil
			}
		}
	}
	return best, lastRaw, nil
}

func bestSummary(s string) string {
	runes := []rune(s)
	if len(runes) <= 32 {
		return s
	}
	return string(runes[:32]) + "..."
}

func wsEndpoint(cfg provider.RuntimeConfig, req asr.Request) (string, error) {
	endpoint, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return "", err
	}
	switch endpoint.Scheme {
	case "https":
		endpoint.Scheme = "wss"
	case "http":
		endpoint.Scheme = "ws"
	}
	if !strings.HasSuffix(endpoint.Path, "/v1/listen") {
		endpoint.Path = strings.TrimSuffix(endpoint.Path, "/") + "/v1/listen"
	}
	query := endpoint.Query()
	query.Set("model", cfg.Model)
	query.Set("encoding", "linear16")
	query.Set("sample_rate", "16000")
	if !req.AutoLanguage() {
		query.Set("language", req.Language)
	}
	for k, v := range cfg.QueryParams {
		query.Set(k, v)
	}
	endpoint.RawQuery = query.Encode()
	return endpoint.String(), nil
}

var _ provider.ASRAdapter = (*Live)(nil)
