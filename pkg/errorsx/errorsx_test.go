package errorsx

import (
	"context"
	"fmt"
	"testing"
)

func TestWrapAndReason(t *testing.T) {
	err := Wrap(assertErr{}, ReasonLLMGenerate)
	if Reason(err) != ReasonLLMGenerate {
		t.Fatalf("expected reason %s, got %s", ReasonLLMGenerate, Reason(err))
	}
	if !HasReason(err, ReasonLLMGenerate) {
		t.Fatalf("expected HasReason true")
	}
}

func TestWrapPreservesExistingReason(t *testing.T) {
	first := Wrap(assertErr{}, ReasonASRTransport)
	second := Wrap(first, ReasonLLMGenerate)
	if Reason(second) != ReasonASRTransport {
		t.Fatalf("expected reason preserved, got %s", Reason(second))
	}
}

func TestProviderFailureRetryable(t *testing.T) {
	cases := []struct {
		status    int
		retryable bool
	}{
		{429, true},
		{500, true},
		{503, true},
		{401, false},
		{404, false},
		{400, false},
	}
	for _, tc := range cases {
		pf := ProviderFailure{Provider: "x", StatusCode: tc.status, Retryable: tc.status == 429 || tc.status >= 500}
		if IsRetryable(pf) != tc.retryable {
			t.Fatalf("status %d: expected retryable=%v", tc.status, tc.retryable)
		}
	}
}

func TestCancellationNeverRetryable(t *testing.T) {
	if IsRetryable(context.Canceled) {
		t.Fatalf("cancellation must not be retryable")
	}
	if IsRetryable(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)) {
		t.Fatalf("deadline must not be retryable")
	}
	if !IsCancellation(fmt.Errorf("wrapped: %w", context.Canceled)) {
		t.Fatalf("expected cancellation detection through wrapping")
	}
}

func TestConfigErrorFatal(t *testing.T) {
	err := ConfigError{Kind: MissingCredential, Provider: "deepgram"}
	if IsRetryable(err) {
		t.Fatalf("config errors must be fatal")
	}
	ce, ok := IsConfigError(fmt.Errorf("resolve: %w", err))
	if !ok || ce.Kind != MissingCredential {
		t.Fatalf("expected config error through wrapping, got %v", ce)
	}
}

func TestProviderFailureThroughWrap(t *testing.T) {
	pf := ProviderFailure{Provider: "openai", StatusCode: 503, Retryable: true}
	wrapped := Wrap(fmt.Errorf("call: %w", pf), ReasonASRProvider)
	got, ok := IsProviderFailure(wrapped)
	if !ok || got.StatusCode != 503 {
		t.Fatalf("expected provider failure through wrapping, got %v", got)
	}
	if !IsRetryable(wrapped) {
		t.Fatalf("expected wrapped 503 retryable")
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
