package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/nameloc/internal/logging"
	"github.com/muurk/nameloc/internal/roster"
	"github.com/muurk/nameloc/internal/urls"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 250 * time.Millisecond

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 5 * time.Second

	// DefaultCacheDuration is how long a name-check result is reused
	DefaultCacheDuration = 30 * time.Second
)

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type cachedCheck struct {
	valid bool
	at    time.Time
}

// Client is a Directory backed by the HTTP directory API
type Client struct {
	// BaseURL is the server root (e.g., "http://127.0.0.1:8080")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient HTTPClient

	// MaxRetries is the maximum number of retry attempts for failed requests
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff doubles the delay after each failed attempt
	UseExponentialBackoff bool

	// CacheDuration is how long name-check results are cached (0 = no cache)
	CacheDuration time.Duration

	cacheMutex sync.RWMutex
	cache      map[string]cachedCheck
}

// NewClient creates a directory client for the given base URL
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:               strings.TrimRight(baseURL, "/"),
		HTTPClient:            &http.Client{Timeout: DefaultTimeout},
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
		CacheDuration:         DefaultCacheDuration,
		cache:                 make(map[string]cachedCheck),
	}
}

// SetTimeout sets the HTTP request timeout. It only applies when HTTPClient
// is an *http.Client.
func (c *Client) SetTimeout(timeout time.Duration) {
	if hc, ok := c.HTTPClient.(*http.Client); ok {
		hc.Timeout = timeout
	}
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// Locations implements Directory
func (c *Client) Locations(ctx context.Context) ([]roster.Location, error) {
	start := time.Now()

	var resp LocationsResponse
	err := c.withRetry(ctx, OpFetchLocations, func() error {
		return c.getJSON(ctx, OpFetchLocations, urls.LocationsPath, nil, &resp)
	})
	logging.LogLookup(string(OpFetchLocations), "", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	return resp.Locations, nil
}

// CheckName implements Directory
func (c *Client) CheckName(ctx context.Context, name string) (bool, error) {
	if valid, ok := c.cached(name); ok {
		logging.Debug("Name check served from cache", zap.String("name", name), zap.Bool("valid", valid))
		return valid, nil
	}

	start := time.Now()

	var resp NameCheckResponse
	query := url.Values{urls.NameParam: {name}}
	err := c.withRetry(ctx, OpCheckName, func() error {
		return c.getJSON(ctx, OpCheckName, urls.NameCheckPath, query, &resp)
	})
	logging.LogLookup(string(OpCheckName), name, time.Since(start), err)
	if err != nil {
		return false, err
	}

	c.store(name, resp.Valid)
	return resp.Valid, nil
}

// InvalidateCache drops all cached name-check results
func (c *Client) InvalidateCache() {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()
	c.cache = make(map[string]cachedCheck)
}

func (c *Client) cached(name string) (bool, bool) {
	if c.CacheDuration <= 0 {
		return false, false
	}

	c.cacheMutex.RLock()
	defer c.cacheMutex.RUnlock()

	entry, ok := c.cache[name]
	if !ok || time.Since(entry.at) >= c.CacheDuration {
		return false, false
	}
	return entry.valid, true
}

func (c *Client) store(name string, valid bool) {
	if c.CacheDuration <= 0 {
		return
	}

	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()
	if c.cache == nil {
		c.cache = make(map[string]cachedCheck)
	}
	c.cache[name] = cachedCheck{valid: valid, at: time.Now()}
}

// withRetry runs attempt until it succeeds, returns a non-retryable error,
// or runs out of retries.
func (c *Client) withRetry(ctx context.Context, op Op, attempt func() error) error {
	var lastErr error
	currentDelay := c.RetryDelay

	for i := 0; i <= c.MaxRetries; i++ {
		if i > 0 {
			logging.Debug("Retrying directory request",
				zap.String("op", string(op)),
				zap.Int("attempt", i),
				zap.Duration("delay", currentDelay),
				zap.Error(lastErr),
			)

			select {
			case <-time.After(currentDelay):
			case <-ctx.Done():
				return classifyTransportError(op, "request abandoned", ctx.Err())
			}

			if c.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > c.MaxRetryDelay {
					currentDelay = c.MaxRetryDelay
				}
			}
		}

		err := attempt()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
	}

	return lastErr
}

// getJSON performs a single GET and decodes a 200 response into out
func (c *Client) getJSON(ctx context.Context, op Op, path string, query url.Values, out interface{}) error {
	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &Error{Op: op, Type: ErrTypeNetwork, Message: "failed to create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return classifyTransportError(op, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransportError(op, "failed to read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		message := fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
		var apiErr ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			message = apiErr.Error
		}
		return newHTTPError(op, resp.StatusCode, message)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return newParseError(op, "failed to parse JSON response", err)
	}

	return nil
}
