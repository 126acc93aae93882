package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ClientConfig holds transport settings shared by every provider attempt.
type ClientConfig struct {
	AttemptTimeout   time.Duration
	MaxResponseBytes int64
	BreakerEnabled   bool
	BreakerFailures  uint32
	BreakerOpenFor   time.Duration
}

func (c ClientConfig) normalize() ClientConfig {
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 60 * time.Second
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = 4 << 20
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerOpenFor <= 0 {
		c.BreakerOpenFor = 60 * time.Second
	}
	return c
}

// Client sends adapter requests. Every call is bounded by the caller's context
// and a per-attempt timeout; no retries are made.
type Client struct {
	cfg    ClientConfig
	http   *http.Client
	logger *zap.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates a provider client.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	return NewClientWithHTTP(cfg, &http.Client{}, logger)
}

// NewClientWithHTTP creates a provider client around an existing http.Client (for testing).
func NewClientWithHTTP(cfg ClientConfig, hc *http.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:      cfg.normalize(),
		http:     hc,
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker[[]byte]),
	}
}

// Send executes req for provider and returns the response body of a 2xx reply.
// Failures are *TransportError or *RateLimitError.
func (c *Client) Send(ctx context.Context, provider string, req *Request) ([]byte, error) {
	if !c.cfg.BreakerEnabled {
		return c.do(ctx, provider, req)
	}

	body, err := c.breaker(provider, req.URL, req.Scope).Execute(func() ([]byte, error) {
		return c.do(ctx, provider, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &TransportError{Provider: provider, Err: fmt.Errorf("circuit open: %w", err)}
	}
	return body, err
}

func (c *Client) do(ctx context.Context, provider string, req *Request) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return nil, &TransportError{Provider: provider, Err: fmt.Errorf("creating request: %w", err)}
	}
	for k, vals := range req.Header {
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Provider: provider, Err: fmt.Errorf("calling %s API: %w", provider, redactURLError(err))}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxResponseBytes))
	if err != nil {
		return nil, &TransportError{Provider: provider, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		baseErr := fmt.Errorf("%s API error: %s", provider, truncate(string(respBody), 500))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, NewRateLimitError(provider, &TransportError{Provider: provider, StatusCode: resp.StatusCode, Err: baseErr}, retryAfter)
		}
		return nil, &TransportError{Provider: provider, StatusCode: resp.StatusCode, Err: baseErr}
	}
	return respBody, nil
}

// breaker returns the circuit breaker for a provider endpoint and scope,
// creating it on first use.
func (c *Client) breaker(provider, rawURL, scope string) *gobreaker.CircuitBreaker[[]byte] {
	key := provider
	if u, err := url.Parse(rawURL); err == nil {
		key = provider + "@" + u.Host
	}
	if scope != "" {
		key += "/" + scope
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.breakers[key]; ok {
		return b
	}

	threshold := c.cfg.BreakerFailures
	b := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        key,
		MaxRequests: 1,
		Timeout:     c.cfg.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return !countsAgainstBreaker(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("provider circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	c.breakers[key] = b
	return b
}

// countsAgainstBreaker reports whether err says the provider itself is
// unhealthy: network failures, timeouts and 5xx. Client errors and 429s are
// caused by one caller's key or quota; 429s are handled by Cooldowns.
func countsAgainstBreaker(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		return false
	}
	var tErr *TransportError
	if errors.As(err, &tErr) && tErr.StatusCode >= 400 && tErr.StatusCode < 500 {
		return false
	}
	return true
}

// redactURLError strips the request URL from transport errors; some dialects
// carry the API key in the query string.
func redactURLError(err error) error {
	var uErr *url.Error
	if errors.As(err, &uErr) {
		return fmt.Errorf("%s request: %w", uErr.Op, uErr.Err)
	}
	return err
}
