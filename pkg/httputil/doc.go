// Package httputil provides the HTTP plumbing shared by remote layout
// engines.
//
// # Retry
//
// [Retry] re-runs an operation with exponential backoff, but only for errors
// wrapped in [RetryableError]:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// Anything else, including 4xx responses and cancelled contexts, is returned
// at once.
//
//	err := httputil.Retry(ctx, 3, 250*time.Millisecond, func() error {
//	    return callService(ctx)
//	})
//
// # Client
//
// [Client] posts JSON and decodes JSON, applying the retry policy and
// reporting every round trip to the registered HTTP hooks of package
// observability. Failures carry codes from package errors (NETWORK_ERROR,
// NOT_FOUND, TIMEOUT, INVALID_FORMAT).
package httputil
