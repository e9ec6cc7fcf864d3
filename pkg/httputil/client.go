package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/lineagraph/pkg/errors"
	"github.com/matzehuels/lineagraph/pkg/observability"
)

// DefaultTimeout bounds a single HTTP round trip.
const DefaultTimeout = 30 * time.Second

// maxErrorBody limits how much of an error response is echoed into errors.
const maxErrorBody = 512

// NewHTTPClient creates an HTTP client with the given timeout, or
// DefaultTimeout when zero.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Client sends JSON requests with retries and reports them to the
// registered [observability.HTTPHooks].
type Client struct {
	http     *http.Client
	headers  map[string]string
	attempts int
	delay    time.Duration
}

// NewClient creates a Client. A nil http client uses NewHTTPClient(0);
// headers are applied to every request and may be nil.
func NewClient(hc *http.Client, headers map[string]string) *Client {
	if hc == nil {
		hc = NewHTTPClient(0)
	}
	return &Client{http: hc, headers: headers, attempts: DefaultAttempts, delay: DefaultDelay}
}

// WithRetry returns a copy of c using the given retry policy.
func (c *Client) WithRetry(attempts int, delay time.Duration) *Client {
	cp := *c
	cp.attempts, cp.delay = attempts, delay
	return &cp
}

// PostJSON encodes in as JSON, posts it to rawURL and decodes the response
// into out. Network failures and 5xx/429 responses are retried.
func (c *Client) PostJSON(ctx context.Context, rawURL string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "encode request")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid url %q", rawURL)
	}

	return Retry(ctx, c.attempts, c.delay, func() error {
		return c.do(ctx, u, body, out)
	})
}

func (c *Client) do(ctx context.Context, u *url.URL, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, u.Host, u.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, u.Host, u.Path, err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "POST %s", u.Redacted())}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if err := CheckStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode response")
	}
	return nil
}

// CheckStatus maps a non-2xx response to an error. 5xx and 429 responses
// are retryable.
func CheckStatus(resp *http.Response) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := fmt.Sprintf("status %d", code)
	if s := bytes.TrimSpace(snippet); len(s) > 0 {
		msg += ": " + string(s)
	}

	switch {
	case code == http.StatusTooManyRequests || code >= 500:
		return &RetryableError{Err: errors.New(errors.ErrCodeNetwork, "%s", msg)}
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "%s", msg)
	case code == http.StatusRequestTimeout:
		return errors.New(errors.ErrCodeTimeout, "%s", msg)
	default:
		return errors.New(errors.ErrCodeNetwork, "%s", msg)
	}
}
