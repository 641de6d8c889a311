// Package client is the HTTP client for the SeafoodAI REST API: bearer
// authentication, rate-limit gating, error classification, optional retries
// and decoding of bare-array or enveloped record responses.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/seafoodai/seafood-terminal/pkg/auth"
	"github.com/seafoodai/seafood-terminal/pkg/dataset"
	"github.com/seafoodai/seafood-terminal/pkg/logging"
	"github.com/seafoodai/seafood-terminal/pkg/ratelimit"
)

// Prometheus metrics for API client operations.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seafood_api_requests_total",
		Help: "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "seafood_api_request_duration_seconds",
		Help:    "API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seafood_api_errors_total",
		Help: "Total API errors by class",
	}, []string{"class"})
)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// Client talks to the dashboard REST API.
type Client struct {
	httpClient  *http.Client
	baseURL     *url.URL
	tokens      auth.TokenProvider
	rateLimiter *ratelimit.Tracker
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is prefixed to relative endpoints, e.g. "http://localhost:8080".
	BaseURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout per HTTP request.
	Timeout time.Duration

	// Tokens supplies the bearer token for authenticated requests (optional).
	Tokens auth.TokenProvider

	// RateLimiter gates requests on the API's advertised budget (optional).
	RateLimiter *ratelimit.Tracker

	// Retry configures retries of server, rate limit and network failures.
	Retry RetryConfig
}

// DefaultConfig returns a default configuration for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: "seafood-terminal/0.1.0",
		Timeout:   30 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry = DefaultRetryConfig()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     base,
		tokens:      cfg.Tokens,
		rateLimiter: cfg.RateLimiter,
		config:      cfg,
		logger:      logging.NewLogger(logging.ComponentClient),
	}, nil
}

// Resolve turns an endpoint into an absolute URL. Absolute endpoints are
// used as-is; relative ones are joined onto the base URL path.
func (c *Client) Resolve(endpoint string) (*url.URL, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if u.IsAbs() {
		return u, nil
	}

	resolved := *c.baseURL
	resolved.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(u.Path, "/")
	resolved.RawQuery = u.RawQuery
	return &resolved, nil
}

// Do performs an HTTP request with rate limiting, retries and error
// classification. Non-2xx responses are returned as *APIError with the
// body already consumed; successful responses are returned open.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.do(req, "")
}

// do is Do with a custom message for error bodies lacking an "error" field.
func (c *Client) do(req *http.Request, fallbackMessage string) (*http.Response, error) {
	ctx := req.Context()
	endpoint := req.URL.Path

	startTime := time.Now()
	defer func() {
		apiRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	if c.rateLimiter != nil {
		allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Rate limit check failed, sending request anyway")
		} else if !allowed {
			apiRequestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
			apiErrorsTotal.WithLabelValues(string(ErrorClassRateLimit)).Inc()
			return nil, &APIError{
				StatusCode: http.StatusTooManyRequests,
				Class:      ErrorClassRateLimit,
				Message:    "request blocked until rate limit window resets",
				Err:        ratelimit.ErrBudgetExhausted,
			}
		}
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Msg("Executing API request")

	var resp *http.Response
	err := retryWithBackoff(ctx, c.config.Retry, func() (ErrorClass, error) {
		attemptReq, err := rewind(req)
		if err != nil {
			return ErrorClassClient, err
		}

		r, reqErr := c.httpClient.Do(attemptReq)
		if reqErr != nil {
			class := classify(0, reqErr)
			apiErrorsTotal.WithLabelValues(string(class)).Inc()
			apiRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			c.logger.Error().Err(reqErr).Str("endpoint", endpoint).Msg("HTTP request failed")
			return class, &APIError{Class: class, Message: "request failed", Err: reqErr}
		}

		if c.rateLimiter != nil {
			if err := c.rateLimiter.UpdateFromHeaders(ctx, r.Header); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
			}
		}

		apiRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(r.StatusCode)).Inc()

		if r.StatusCode < 200 || r.StatusCode > 299 {
			class := classify(r.StatusCode, nil)
			apiErrorsTotal.WithLabelValues(string(class)).Inc()

			body, _ := io.ReadAll(io.LimitReader(r.Body, maxErrorBody))
			r.Body.Close()

			apiErr := &APIError{
				StatusCode: r.StatusCode,
				Class:      class,
				Message:    errorMessage(r.StatusCode, body, fallbackMessage),
			}
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status_code", r.StatusCode).
				Str("error_class", string(class)).
				Msg("API request error")
			return class, apiErr
		}

		resp = r
		return "", nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// rewind returns a request ready for another attempt, restoring the body
// when the request carries one.
func rewind(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.GetBody == nil {
		return req, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("rewind request body: %w", err)
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}

// newRequest builds a request for endpoint. With authenticated set, the
// bearer token is attached when the token provider has one; without a
// token the request goes out unauthenticated and the server decides.
func (c *Client) newRequest(ctx context.Context, method, endpoint string, query url.Values, body []byte, authenticated bool) (*http.Request, error) {
	u, err := c.Resolve(endpoint)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Set(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authenticated && c.tokens != nil {
		if token, ok := c.tokens.Token(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		} else {
			c.logger.Debug().Str("endpoint", endpoint).Msg("No token available, sending unauthenticated request")
		}
	}
	return req, nil
}

// Get performs a GET request against endpoint.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values, authenticated bool) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, query, nil, authenticated)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Result is a decoded record response.
type Result struct {
	Records []dataset.Record

	// Envelope is set when the response used the paged envelope form.
	Envelope *Envelope
}

// GetRecords fetches endpoint and decodes its records. Bodies that cannot
// be decoded yield an empty result, not an error.
func (c *Client) GetRecords(ctx context.Context, endpoint string, query url.Values, authenticated bool) (Result, error) {
	resp, err := c.Get(ctx, endpoint, query, authenticated)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &APIError{
			StatusCode: resp.StatusCode,
			Class:      ErrorClassNetwork,
			Message:    "read response body",
			Err:        err,
		}
	}

	records, env, ok := DecodeRecords(body)
	if !ok {
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("bytes", len(body)).
			Msg("Malformed response body, using empty dataset")
	}
	return Result{Records: records, Envelope: env}, nil
}

// FetchPage fetches one page of an enveloped endpoint and reports the total
// page count. Bare-array responses are treated as a single page.
func (c *Client) FetchPage(ctx context.Context, endpoint string, page, pageSize int, authenticated bool) ([]dataset.Record, int, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	if pageSize > 0 {
		query.Set("page_size", strconv.Itoa(pageSize))
	}

	result, err := c.GetRecords(ctx, endpoint, query, authenticated)
	if err != nil {
		return nil, 0, err
	}
	totalPages := 1
	if result.Envelope != nil {
		totalPages = result.Envelope.TotalPages
	}
	return result.Records, totalPages, nil
}

// PageSource adapts the client to pagination.PageFetcher for one
// authentication mode and page size.
type PageSource struct {
	client        *Client
	pageSize      int
	authenticated bool
}

// PageSource returns a page fetcher over this client.
func (c *Client) PageSource(pageSize int, authenticated bool) *PageSource {
	return &PageSource{client: c, pageSize: pageSize, authenticated: authenticated}
}

// FetchPage implements pagination.PageFetcher.
func (p *PageSource) FetchPage(ctx context.Context, endpoint string, pageNum int) ([]dataset.Record, int, error) {
	return p.client.FetchPage(ctx, endpoint, pageNum, p.pageSize, p.authenticated)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
