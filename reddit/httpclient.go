package reddit

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// leveledSlog adapts slog for retryablehttp, demoting client ERROR lines to
// WARN because intermediate attempts are expected to fail sometimes.
type leveledSlog struct {
	inner *slog.Logger
}

func (l leveledSlog) Error(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l leveledSlog) Warn(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l leveledSlog) Info(msg string, keysAndValues ...any) {
	l.inner.Info(msg, keysAndValues...)
}

func (l leveledSlog) Debug(msg string, keysAndValues ...any) {
	l.inner.Debug(msg, keysAndValues...)
}

// readRetryPolicy retries connection errors and 5xx, but treats 429 as
// non-retryable so rate limiting is handled by the Actions dispatcher's
// throttle instead of hammering the API.
func readRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// NewReadClient builds the HTTP client used for listing and info fetches.
// Transport-level retries are safe here because reads are idempotent.
func NewReadClient(logger *slog.Logger, transport http.RoundTripper) *http.Client {
	retryClient := retryablehttp.NewClient()
	if transport != nil {
		retryClient.HTTPClient.Transport = transport
	}
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = retryablehttp.LeveledLogger(leveledSlog{inner: logger})
	retryClient.CheckRetry = readRetryPolicy

	client := retryClient.StandardClient()
	client.Timeout = 30 * time.Second
	return client
}

// NewWriteClient builds the HTTP client used for mutations. No transport
// retries: replaying a non-idempotent POST can duplicate comments, so the
// Actions dispatcher owns the retry policy.
func NewWriteClient(transport http.RoundTripper) *http.Client {
	client := &http.Client{Timeout: 30 * time.Second}
	if transport != nil {
		client.Transport = transport
	}
	return client
}
