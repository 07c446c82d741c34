package errorsx

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ConfigKind identifies which part of the runtime configuration could not
// be resolved. Configuration errors are fatal and never retried.
type ConfigKind string

const (
	MissingBaseURL    ConfigKind = "missing_base_url"
	MissingModel      ConfigKind = "missing_model"
	MissingCredential ConfigKind = "missing_credential"
	UnsupportedEngine ConfigKind = "unsupported_engine"
	InvalidSettings   ConfigKind = "invalid_settings"
)

// ConfigError reports an unresolvable runtime configuration. Err carries
// the underlying cause for InvalidSettings.
type ConfigError struct {
	Kind     ConfigKind
	Provider string
	Err      error
}

func (e ConfigError) Error() string {
	msg := string(e.Kind)
	if e.Provider != "" {
		msg = fmt.Sprintf("%s: %s", e.Kind, e.Provider)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e ConfigError) Unwrap() error { return e.Err }

// IsConfigError returns the config error, if err carries one.
func IsConfigError(err error) (ConfigError, bool) {
	var ce ConfigError
	ok := errors.As(err, &ce)
	return ce, ok
}

// ProviderFailure is a non-2xx provider response. Retryable is derived from
// the status code at construction: 429 and 5xx are retryable, everything
// else is fatal. BodySummary holds either the raw response body or, when
// privacy mode is active, a key-name/length summary.
type ProviderFailure struct {
	Provider          string
	StatusCode        int
	Suggestion        string
	Retryable         bool
	UpstreamRequestID string
	BodySummary       string
}

func (e ProviderFailure) Error() string {
	msg := fmt.Sprintf("%s: provider failure (status %d)", e.Provider, e.StatusCode)
	if e.Suggestion != "" {
		msg += ": " + e.Suggestion
	}
	return msg
}

// IsProviderFailure returns the provider failure, if err carries one.
func IsProviderFailure(err error) (ProviderFailure, bool) {
	var pf ProviderFailure
	ok := errors.As(err, &pf)
	return pf, ok
}

// ErrMissingTranscription is surfaced when the primary provider, every
// language-coercion attempt, and every fallback provider produced no text.
var ErrMissingTranscription = errors.New("no transcription produced")

// InvalidAudioInput rejects audio a provider cannot accept (wrong container).
type InvalidAudioInput struct {
	Provider string
	Mime     string
}

func (e InvalidAudioInput) Error() string {
	return fmt.Sprintf("%s: unsupported audio input %q", e.Provider, e.Mime)
}

// IsRetryable reports whether an attempt may be repeated: transport-level
// connectivity/timeout errors and provider failures explicitly marked
// retryable. Cancellation and configuration errors are never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if pf, ok := IsProviderFailure(err); ok {
		return pf.Retryable
	}
	if _, ok := IsConfigError(err); ok {
		return false
	}
	var nerr net.Error
	return errors.As(err, &nerr)
}

// IsCancellation reports whether err is a cooperative cancellation outcome.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
