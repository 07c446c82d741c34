package provider

import (
	"io"
	"net/http"

	"github.com/voxgate/voxgate/pkg/errorsx"
	"github.com/voxgate/voxgate/pkg/redact"
)

// requestIDHeaders are checked in order for an upstream correlation id.
var requestIDHeaders = []string{
	"X-Request-Id",
	"Request-Id",
	"X-Amzn-Requestid",
	"Cf-Ray",
}

// maxFailureBody bounds how much of an error body is kept for diagnostics.
const maxFailureBody = 4 << 10

// FailureFromResponse turns a non-2xx provider response into a typed
// ProviderFailure. It consumes (a bounded prefix of) the body; the body
// is summarized when privacy mode is active.
func FailureFromResponse(providerID string, resp *http.Response) errorsx.ProviderFailure {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxFailureBody))
	return Failure(providerID, resp.StatusCode, resp.Header, body)
}

// Failure builds a ProviderFailure from already-read response parts.
func Failure(providerID string, status int, header http.Header, body []byte) errorsx.ProviderFailure {
	pf := errorsx.ProviderFailure{
		Provider:    providerID,
		StatusCode:  status,
		Retryable:   status == http.StatusTooManyRequests || status >= 500,
		Suggestion:  suggestion(status),
		BodySummary: redact.Body(body),
	}
	for _, h := range requestIDHeaders {
		if header == nil {
			break
		}
		if id := header.Get(h); id != "" {
			pf.UpstreamRequestID = id
			break
		}
	}
	return pf
}

func suggestion(status int) string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "check the API key for this provider"
	case status == http.StatusNotFound:
		return "check the base URL and model name"
	case status == http.StatusRequestTimeout:
		return "the provider timed out; try a shorter recording"
	case status == http.StatusRequestEntityTooLarge:
		return "the audio file is too large for this provider"
	case status == http.StatusTooManyRequests:
		return "rate limited; the call will be retried with backoff"
	case status >= 500:
		return "provider outage; retrying, consider a fallback provider"
	default:
		return ""
	}
}
