package ollama

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"docextract/internal/domain"
	"docextract/internal/parser"
)

const (
	defaultBaseURL   = "http://localhost:11434"
	defaultModel     = "llava"
	defaultMaxTokens = 2048
)

// Adapter speaks the Ollama /api/generate dialect of a locally hosted model.
// Images go in the images array; PDFs cannot be sent and are dropped.
type Adapter struct{}

// New creates an Ollama adapter.
func New() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Kind() domain.ProviderKind { return domain.ProviderOllama }
func (a *Adapter) DefaultModel() string { return defaultModel }
func (a *Adapter) DefaultEndpoint() string { return defaultBaseURL }
func (a *Adapter) RequiresAPIKey() bool { return false }
func (a *Adapter) AcceptsImage() bool { return true }

func (a *Adapter) BuildRequest(cfg *domain.ProviderConfig, input *domain.ExtractionInput, prompt string) (*parser.Request, error) {
	reqBody := map[string]interface{}{
		"model":  parser.ModelFor(cfg, a),
		"prompt": prompt,
		"stream": false,
		"format": "json",
		"options": map[string]interface{}{
			"temperature": parser.TemperatureFor(cfg, 0.1),
			"num_predict": parser.MaxTokensFor(cfg, defaultMaxTokens),
		},
	}
	if input.HasPayload() && !input.IsPDF() {
		reqBody["images"] = []string{input.ImageBase64}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	header := parser.JSONHeader()
	// Ollama itself is unauthenticated; a key is only forwarded to a fronting proxy.
	if cfg.HasAPIKey() {
		header.Set("Authorization", "Bearer "+cfg.Key())
	}

	return &parser.Request{
		Method: http.MethodPost,
		URL:    parser.EndpointFor(cfg, a) + "/api/generate",
		Header: header,
		Body:   body,
	}, nil
}

func (a *Adapter) ExtractText(body []byte) string {
	var resp struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	return strings.TrimSpace(resp.Response)
}
