package gateway

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxgate/voxgate/pkg/asr"
	"github.com/voxgate/voxgate/pkg/asr/extract"
	"github.com/voxgate/voxgate/pkg/errorsx"
	"github.com/voxgate/voxgate/pkg/llm"
	"github.com/voxgate/voxgate/pkg/logging"
	"github.com/voxgate/voxgate/pkg/metrics"
	"github.com/voxgate/voxgate/pkg/provider"
	"github.com/voxgate/voxgate/pkg/resilience"
	"github.com/voxgate/voxgate/pkg/secrets"
)

// Shared retry policy defaults; the per-call attempt budget comes from
// the resolved config.
const (
	retryBaseDelay = 400 * time.Millisecond
	retryMaxDelay  = 10 * time.Second
	retryJitter    = 0.25
)

// PostProcessor is the external text collaborator applied to a
// non-empty transcript before it is returned.
type PostProcessor func(string) string

// Orchestrator is the top-level transcribe/generate entry point. It
// owns the retry/coercion/fallback cascade and the single in-flight
// call handle.
type Orchestrator struct {
	snap     Snapshot
	resolver *Resolver
	registry *provider.Registry
	logger   *slog.Logger

	// ReadAudio is injectable for tests. Defaults to os.ReadFile.
	ReadAudio func(path string) ([]byte, error)
	// PostProcess is the optional deduplication collaborator.
	PostProcess PostProcessor
	// SleepOverride propagates into retry policies; tests use it to
	// skip real backoff waits.
	SleepOverride func(time.Duration)
	// Metrics receives one event per attempt and per settled call.
	Metrics metrics.Observer

	mu      sync.Mutex
	current *inflight

	breakerMu sync.Mutex
	breakers  map[string]*resilience.CircuitBreaker
}

type inflight struct {
	cancel context.CancelFunc
}

func NewOrchestrator(snap Snapshot, store secrets.Store, registry *provider.Registry) *Orchestrator {
	return &Orchestrator{
		snap:      snap,
		resolver:  NewResolver(snap, store),
		registry:  registry,
		logger:    logging.NewComponentLogger(slog.Default(), "orchestrator"),
		ReadAudio: os.ReadFile,
		Metrics:   metrics.NoopObserver{},
		breakers:  make(map[string]*resilience.CircuitBreaker),
	}
}

// begin installs this call as the single in-flight operation, cancelling
// any previous one. The returned release must be deferred.
func (o *Orchestrator) begin(ctx context.Context) (context.Context, func()) {
	callCtx, cancel := context.WithCancel(ctx)
	handle := &inflight{cancel: cancel}
	o.mu.Lock()
	if o.current != nil {
		o.current.cancel()
	}
	o.current = handle
	o.mu.Unlock()
	return callCtx, func() {
		o.mu.Lock()
		if o.current == handle {
			o.current = nil
		}
		o.mu.Unlock()
		cancel()
	}
}

// Cancel aborts the in-flight operation, if any.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	if o.current != nil {
		o.current.cancel()
		o.current = nil
	}
	o.mu.Unlock()
}

// Transcribe dispatches one transcription through the primary engine,
// then walks the recovery cascade when the result is semantically empty:
// forced-language retries for the whisper-style primary, then the
// fallback provider chain.
func (o *Orchestrator) Transcribe(ctx context.Context, req asr.Request) (asr.Response, error) {
	ctx, release := o.begin(ctx)
	defer release()

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	diag := newCallDiagnostics(req.ID)
	defer diag.flush(o.logger)

	primary, err := o.resolver.Resolve(OpASR, o.snap.Engine.ASR)
	if err != nil {
		return asr.Response{}, err
	}
	audio, err := o.ReadAudio(req.AudioPath)
	if err != nil {
		return asr.Response{}, err
	}

	resp, err := o.attempt(ctx, diag, "primary", primary, req, audio)
	if err != nil {
		return asr.Response{}, err
	}
	if !resp.Empty() {
		return o.finalize(resp), nil
	}

	// Empty transcripts from the whisper-style engine frequently mean
	// the language hint was wrong, not that the audio was silent.
	if primary.Kind == provider.KindMultipartASR {
		for _, lang := range coercionCandidates(o.snap, req.Language) {
			if err := ctx.Err(); err != nil {
				return asr.Response{}, err
			}
			o.logger.Info("language_coercion_retry",
				slog.String("request_id", req.ID),
				slog.String("language", lang))
			forced, err := o.attempt(ctx, diag, "language_coercion", primary, req.WithLanguage(lang), audio)
			if err != nil {
				if errorsx.IsCancellation(err) {
					return asr.Response{}, err
				}
				continue
			}
			if !forced.Empty() {
				return o.finalize(forced), nil
			}
		}
	}

	for _, fallback := range o.resolver.Fallbacks(primary.Provider) {
		if err := ctx.Err(); err != nil {
			return asr.Response{}, err
		}
		if !o.breaker(fallback.Provider).Allow() {
			o.logger.Warn("fallback_skipped_circuit_open",
				slog.String("request_id", req.ID),
				slog.String("provider", fallback.Provider))
			continue
		}
		o.logger.Info("fallback_attempt",
			slog.String("request_id", req.ID),
			slog.String("provider", fallback.Provider))
		alt, err := o.attempt(ctx, diag, "fallback", fallback, req, audio)
		if err != nil {
			if errorsx.IsCancellation(err) {
				return asr.Response{}, err
			}
			// transport and provider errors from individual fallbacks
			// are recorded and walked past
			continue
		}
		if !alt.Empty() {
			return o.finalize(alt), nil
		}
	}

	return asr.Response{}, errorsx.ErrMissingTranscription
}

// attempt invokes the adapter matching cfg through the retry executor.
func (o *Orchestrator) attempt(ctx context.Context, diag *callDiagnostics, stage string, cfg provider.RuntimeConfig, req asr.Request, audio []byte) (asr.Response, error) {
	adapter, err := o.registry.ASR(cfg)
	if err != nil {
		return asr.Response{}, err
	}
	start := time.Now()
	resp, err := resilience.Do(ctx, o.retryPolicy(cfg), func(ctx context.Context) (asr.Response, error) {
		return adapter.Transcribe(ctx, req, cfg, audio)
	})
	diag.record(attemptRecord{
		Provider: cfg.Provider,
		Stage:    stage,
		Duration: time.Since(start),
		Empty:    err == nil && resp.Empty(),
		Err:      err,
	})
	o.Metrics.RecordEvent(metrics.Attempt(cfg.Provider, stage, time.Since(start), err == nil && resp.Empty(), err))
	breaker := o.breaker(cfg.Provider)
	if err != nil {
		breaker.OnError(err)
		return asr.Response{}, err
	}
	breaker.OnSuccess()
	return resp, nil
}

// Generate dispatches one generation call. There is no language or
// fallback cascade here; failures retry and then surface.
func (o *Orchestrator) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	ctx, release := o.begin(ctx)
	defer release()

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	cfg, err := o.resolver.Resolve(OpLLM, o.snap.Engine.LLM)
	if err != nil {
		return llm.Response{}, err
	}
	adapter, err := o.registry.LLM(cfg)
	if err != nil {
		return llm.Response{}, err
	}
	start := time.Now()
	resp, err := resilience.Do(ctx, o.retryPolicy(cfg), func(ctx context.Context) (llm.Response, error) {
		return adapter.Generate(ctx, req, cfg)
	})
	o.Metrics.RecordEvent(metrics.Generation(cfg.Provider, time.Since(start), err))
	if err != nil {
		return llm.Response{}, err
	}
	return resp, nil
}

func (o *Orchestrator) finalize(resp asr.Response) asr.Response {
	if o.PostProcess != nil {
		resp.Text = o.PostProcess(resp.Text)
	}
	if resp.DetectedLanguage == "" {
		resp.DetectedLanguage = extract.ScriptLanguage(resp.Text)
	}
	o.logger.Info("transcription_settled",
		slog.String("request_id", resp.RequestID),
		slog.String("provider", resp.Provider),
		slog.String("language", resp.DetectedLanguage),
		slog.Duration("latency", resp.Latency))
	o.Metrics.RecordEvent(metrics.Settled(resp.Provider, resp.DetectedLanguage, resp.Latency))
	return resp
}

func (o *Orchestrator) retryPolicy(cfg provider.RuntimeConfig) resilience.RetryPolicy {
	return resilience.RetryPolicy{
		MaxAttempts: cfg.MaxRetries + 1,
		BaseDelay:   retryBaseDelay,
		MaxDelay:    retryMaxDelay,
		Jitter:      retryJitter,
		Sleep:       o.SleepOverride,
	}
}

func (o *Orchestrator) breaker(providerID string) *resilience.CircuitBreaker {
	o.breakerMu.Lock()
	defer o.breakerMu.Unlock()
	cb, ok := o.breakers[providerID]
	if !ok {
		cb = resilience.NewCircuitBreaker(3, 30*time.Second)
		o.breakers[providerID] = cb
	}
	return cb
}
