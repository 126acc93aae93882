package parser

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"docextract/internal/domain"
)

// ConfigurationError indicates a provider attempt could not be built from its
// configuration, e.g. a required API key is missing or the provider tag is unknown.
type ConfigurationError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s configuration error: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s configuration error: %s", e.Provider, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewMissingKeyError reports a provider that requires an API key but has none.
func NewMissingKeyError(provider domain.ProviderKind) *ConfigurationError {
	return &ConfigurationError{Provider: string(provider), Reason: "api key is required"}
}

// TransportError indicates a network failure, timeout, open circuit or
// non-success HTTP status from a provider.
type TransportError struct {
	Provider   string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s transport error (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s transport error: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RateLimitError indicates a provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

// ErrUnparsableResponse marks a response that arrived but held no recoverable JSON object.
var ErrUnparsableResponse = errors.New("no JSON object found in model output")

// Attempt outcomes, used as log fields and metric labels.
const (
	OutcomeSuccess   = "success"
	OutcomeParseFail = "parse_failure"
	OutcomeTransport = "transport_failure"
	OutcomeRateLimit = "rate_limited"
	OutcomeConfig    = "config_failure"
	OutcomeQuota     = "quota_exhausted"
)

// ClassifyAttemptError maps an attempt error to its outcome label.
func ClassifyAttemptError(err error) string {
	var cfgErr *ConfigurationError
	var rlErr *RateLimitError
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &cfgErr):
		return OutcomeConfig
	case errors.As(err, &rlErr):
		return OutcomeRateLimit
	case errors.Is(err, ErrUnparsableResponse):
		return OutcomeParseFail
	case errors.Is(err, domain.ErrQuotaExceeded):
		return OutcomeQuota
	default:
		return OutcomeTransport
	}
}
