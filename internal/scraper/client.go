package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// maxBodySize caps how much of a response is read
const maxBodySize = 10 << 20

// StatusError is returned for non-200 responses
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.Code, e.URL)
}

// Temporary reports whether the request is worth retrying
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// httpClient performs rate limited GETs with retries for a single source
type httpClient struct {
	client     *http.Client
	userAgent  string
	limiter    *rate.Limiter
	maxRetries int
	newBackOff func() backoff.BackOff
}

func newHTTPClient(client *http.Client, userAgent string, ratePerSecond float64, burst, maxRetries int) *httpClient {
	return &httpClient{
		client:     client,
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		maxRetries: maxRetries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxElapsedTime = 2 * time.Minute
			return b
		},
	}
}

func (c *httpClient) get(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("waiting for rate limiter: %w", err))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", url, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			statusErr := &StatusError{URL: url, Code: resp.StatusCode}
			if statusErr.Temporary() {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.maxRetries)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return body, nil
}
