package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sethvargo/go-retry"

	"github.com/Engusseus/Warframe-Market-Set-Profit-Analyzer/internal/domain"
)

// classifyStatus maps an HTTP status code to a CodedError and reports
// whether the failure is transient and worth retrying.
// Non-transient 4xx errors (everything but 429) fail the attempt
// immediately; 5xx and 429 are wrapped as retry.RetryableError so the
// go-retry backoff loop keeps trying.
func classifyStatus(op string, status int) error {
	switch {
	case status == http.StatusNotFound:
		return domain.NewCodedError(domain.KindNotFound, fmt.Sprintf("upstream: %s: not found", op))
	case status == http.StatusTooManyRequests:
		return retry.RetryableError(domain.NewCodedError(domain.KindRateLimited, fmt.Sprintf("upstream: %s: rate limited", op)))
	case status >= 500:
		return retry.RetryableError(domain.NewCodedError(domain.KindUpstreamUnavailable, fmt.Sprintf("upstream: %s: server error %d", op, status)))
	case status >= 400:
		return domain.NewCodedError(domain.KindUpstreamUnavailable, fmt.Sprintf("upstream: %s: client error %d", op, status))
	default:
		return nil
	}
}

// classifyNetErr wraps a transport-level failure (connection refused, DNS,
// TLS, deadline exceeded) as a retryable Timeout/UpstreamUnavailable error.
func classifyNetErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return retry.RetryableError(domain.NewCodedError(domain.KindTimeout, fmt.Sprintf("upstream: %s: timed out: %v", op, err)))
	}
	return retry.RetryableError(domain.NewCodedError(domain.KindUpstreamUnavailable, fmt.Sprintf("upstream: %s: %v", op, err)))
}
