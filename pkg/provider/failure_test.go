package provider

import (
	"net/http"
	"testing"
)

func TestFailureRetryability(t *testing.T) {
	cases := []struct {
		status    int
		retryable bool
	}{
		{429, true},
		{500, true},
		{502, true},
		{400, false},
		{401, false},
		{404, false},
	}
	for _, tc := range cases {
		pf := Failure("openai", tc.status, nil, nil)
		if pf.Retryable != tc.retryable {
			t.Fatalf("status %d: expected retryable=%v", tc.status, tc.retryable)
		}
	}
}

func TestFailureCarriesRequestID(t *testing.T) {
	header := http.Header{}
	header.Set("X-Request-Id", "req_123")
	pf := Failure("openai", 500, header, []byte(`{"error":"boom"}`))
	if pf.UpstreamRequestID != "req_123" {
		t.Fatalf("expected upstream request id, got %q", pf.UpstreamRequestID)
	}
	if pf.Suggestion == "" {
		t.Fatalf("expected a suggestion for status 500")
	}
}

func TestRegistryKindAgreement(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.ASR(RuntimeConfig{Kind: KindMultipartASR}); err == nil {
		t.Fatalf("expected error for unregistered kind")
	}
}
