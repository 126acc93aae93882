package claude

import (
	"encoding/json"
	"fmt"
	"net/http"

	"docextract/internal/domain"
	"docextract/internal/parser"
)

const (
	apiBaseURL       = "https://api.anthropic.com"
	apiVersion       = "2023-06-01"
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4096
)

// Adapter speaks the Anthropic Messages dialect. The key travels in the x-api-key header.
type Adapter struct{}

// New creates a Claude adapter.
func New() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Kind() domain.ProviderKind { return domain.ProviderClaude }
func (a *Adapter) DefaultModel() string { return defaultModel }
func (a *Adapter) DefaultEndpoint() string { return apiBaseURL }
func (a *Adapter) RequiresAPIKey() bool { return true }
func (a *Adapter) AcceptsImage() bool { return true }

func (a *Adapter) BuildRequest(cfg *domain.ProviderConfig, input *domain.ExtractionInput, prompt string) (*parser.Request, error) {
	if !cfg.HasAPIKey() {
		return nil, parser.NewMissingKeyError(a.Kind())
	}

	reqBody := map[string]interface{}{
		"model":       parser.ModelFor(cfg, a),
		"max_tokens":  parser.MaxTokensFor(cfg, defaultMaxTokens),
		"temperature": parser.TemperatureFor(cfg, 0.1),
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": buildContentBlocks(input, prompt),
			},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	header := parser.JSONHeader()
	header.Set("x-api-key", cfg.Key())
	header.Set("anthropic-version", apiVersion)

	return &parser.Request{
		Method: http.MethodPost,
		URL:    parser.EndpointFor(cfg, a) + "/v1/messages",
		Header: header,
		Body:   body,
	}, nil
}

func buildContentBlocks(input *domain.ExtractionInput, prompt string) []map[string]interface{} {
	var blocks []map[string]interface{}

	if input.HasPayload() {
		blockType := "image"
		if input.IsPDF() {
			blockType = "document"
		}
		blocks = append(blocks, map[string]interface{}{
			"type": blockType,
			"source": map[string]interface{}{
				"type":       "base64",
				"media_type": input.MIMEType,
				"data":       input.ImageBase64,
			},
		})
	}

	return append(blocks, map[string]interface{}{
		"type": "text",
		"text": prompt,
	})
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (a *Adapter) ExtractText(body []byte) string {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text
		}
	}
	return ""
}
