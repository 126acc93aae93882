package openai

import (
	"encoding/json"
	"fmt"
	"net/http"

	"docextract/internal/domain"
	"docextract/internal/parser"
)

const (
	apiBaseURL       = "https://api.openai.com/v1"
	defaultModel     = "gpt-4o"
	defaultMaxTokens = 4096
)

// Adapter speaks the OpenAI Chat Completions dialect with vision content blocks.
type Adapter struct{}

// New creates an OpenAI adapter.
func New() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Kind() domain.ProviderKind { return domain.ProviderOpenAI }
func (a *Adapter) DefaultModel() string { return defaultModel }
func (a *Adapter) DefaultEndpoint() string { return apiBaseURL }
func (a *Adapter) RequiresAPIKey() bool { return true }
func (a *Adapter) AcceptsImage() bool { return true }

func (a *Adapter) BuildRequest(cfg *domain.ProviderConfig, input *domain.ExtractionInput, prompt string) (*parser.Request, error) {
	if !cfg.HasAPIKey() {
		return nil, parser.NewMissingKeyError(a.Kind())
	}

	reqBody := map[string]interface{}{
		"model":                 parser.ModelFor(cfg, a),
		"max_completion_tokens": parser.MaxTokensFor(cfg, defaultMaxTokens),
		"temperature":           parser.TemperatureFor(cfg, 0.1),
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": buildContentBlocks(input, prompt),
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

func buildContentBlocks(input *domain.ExtractionInput, prompt string) []map[string]interface{} {
	var blocks []map[string]interface{}

	switch {
	case !input.HasPayload():
	case input.IsPDF():
		blocks = append(blocks, map[string]interface{}{
			"type": "file",
			"file": map[string]interface{}{
				"filename":  "document.pdf",
				"file_data": parser.DataURI(input),
			},
		})
	default:
		blocks = append(blocks, map[string]interface{}{
			"type": "image_url",
			"image_url": map[string]interface{}{
				"url": parser.DataURI(input),
			},
		})
	}

	return append(blocks, map[string]interface{}{
		"type": "text",
		"text": prompt,
	})
}

// apiResponse models the OpenAI Chat Completions API response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
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
