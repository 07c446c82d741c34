package gateway

import (
	"log/slog"
	"time"

	"github.com/voxgate/voxgate/pkg/errorsx"
)

// attemptRecord captures one provider attempt for diagnostics.
// Intermediate failures are recorded here and logged, never surfaced to
// the caller.
type attemptRecord struct {
	Provider string
	Stage    string
	Duration time.Duration
	Empty    bool
	Err      error
}

type callDiagnostics struct {
	RequestID string
	attempts  []attemptRecord
}

func newCallDiagnostics(requestID string) *callDiagnostics {
	return &callDiagnostics{RequestID: requestID}
}

func (d *callDiagnostics) record(rec attemptRecord) {
	d.attempts = append(d.attempts, rec)
}

// flush logs the attempt chain once the call settles.
func (d *callDiagnostics) flush(logger *slog.Logger) {
	for i, rec := range d.attempts {
		attrs := []any{
			slog.String("request_id", d.RequestID),
			slog.Int("attempt", i+1),
			slog.String("provider", rec.Provider),
			slog.String("stage", rec.Stage),
			slog.Duration("duration", rec.Duration),
			slog.Bool("empty", rec.Empty),
		}
		if rec.Err != nil {
			attrs = append(attrs, slog.String("error", rec.Err.Error()))
			if pf, ok := errorsx.IsProviderFailure(rec.Err); ok {
				attrs = append(attrs,
					slog.Int("status", pf.StatusCode),
					slog.String("upstream_request_id", pf.UpstreamRequestID))
			}
		}
		logger.Debug("attempt_settled", attrs...)
	}
}
