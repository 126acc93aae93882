package parser

import (
	"net/http"
	"strings"

	"docextract/internal/domain"
)

// Request is a provider-specific HTTP request ready to send.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
	// Scope partitions circuit breaker state between callers of the same
	// endpoint. The orchestrator sets it to the provider config ID.
	Scope string
}

// Adapter translates between the extraction core and one backend dialect.
type Adapter interface {
	Kind() domain.ProviderKind
	DefaultModel() string
	DefaultEndpoint() string
	RequiresAPIKey() bool
	// AcceptsImage reports whether the dialect sends the document payload.
	// Text-only dialects silently drop it and rely on the prompt alone.
	AcceptsImage() bool
	// BuildRequest fails with *ConfigurationError when a required key is absent.
	BuildRequest(cfg *domain.ProviderConfig, input *domain.ExtractionInput, prompt string) (*Request, error)
	// ExtractText returns the model's text output, or "" when the body does
	// not have the expected shape.
	ExtractText(body []byte) string
}

// EndpointFor returns the configured base URL or the adapter default, without a trailing slash.
func EndpointFor(cfg *domain.ProviderConfig, a Adapter) string {
	if cfg.BaseURL != nil && strings.TrimSpace(*cfg.BaseURL) != "" {
		return strings.TrimRight(strings.TrimSpace(*cfg.BaseURL), "/")
	}
	return strings.TrimRight(a.DefaultEndpoint(), "/")
}

// ModelFor returns the configured model or the adapter default.
func ModelFor(cfg *domain.ProviderConfig, a Adapter) string {
	if cfg != nil && cfg.Model != nil && strings.TrimSpace(*cfg.Model) != "" {
		return strings.TrimSpace(*cfg.Model)
	}
	return a.DefaultModel()
}

// MaxTokensFor returns the configured output token cap or def.
func MaxTokensFor(cfg *domain.ProviderConfig, def int) int {
	if cfg.MaxTokens != nil && *cfg.MaxTokens > 0 {
		return *cfg.MaxTokens
	}
	return def
}

// TemperatureFor returns the configured temperature or def.
func TemperatureFor(cfg *domain.ProviderConfig, def float64) float64 {
	if cfg.Temperature != nil {
		return *cfg.Temperature
	}
	return def
}

// JSONHeader returns a header set with the JSON content type.
func JSONHeader() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return h
}

// DataURI renders the input payload as a base64 data URI.
func DataURI(input *domain.ExtractionInput) string {
	return "data:" + input.MIMEType + ";base64," + input.ImageBase64
}
