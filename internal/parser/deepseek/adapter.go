package deepseek

import (
	"encoding/json"
	"fmt"
	"net/http"

	"docextract/internal/domain"
	"docextract/internal/parser"
)

const (
	apiBaseURL       = "https://api.deepseek.com"
	defaultModel     = "deepseek-chat"
	defaultMaxTokens = 4096
)

// Adapter speaks DeepSeek's OpenAI-compatible chat dialect. The API has no
// vision input, so the document payload is dropped and only the prompt is sent.
type Adapter struct{}

// New creates a DeepSeek adapter.
func New() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Kind() domain.ProviderKind { return domain.ProviderDeepSeek }
func (a *Adapter) DefaultModel() string { return defaultModel }
func (a *Adapter) DefaultEndpoint() string { return apiBaseURL }
func (a *Adapter) RequiresAPIKey() bool { return true }
func (a *Adapter) AcceptsImage() bool { return false }

func (a *Adapter) BuildRequest(cfg *domain.ProviderConfig, _ *domain.ExtractionInput, prompt string) (*parser.Request, error) {
	if !cfg.HasAPIKey() {
		return nil, parser.NewMissingKeyError(a.Kind())
	}

	reqBody := map[string]interface{}{
		"model":       parser.ModelFor(cfg, a),
		"max_tokens":  parser.MaxTokensFor(cfg, defaultMaxTokens),
		"temperature": parser.TemperatureFor(cfg, 0.1),
		"stream":      false,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": prompt,
			},
		},
		"response_format": map[string]interface{}{
			"type": "json_object",
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	header := parser.JSONHeader()
	header.Set("Authorization", "Bearer "+cfg.Key())

	return &parser.Request{
		Method: http.MethodPost,
		URL:    parser.EndpointFor(cfg, a) + "/chat/completions",
		Header: header,
		Body:   body,
	}, nil
}

type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (a *Adapter) ExtractText(body []byte) string {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	if len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Message.Content
}
