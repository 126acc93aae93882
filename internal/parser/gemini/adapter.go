package gemini

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"docextract/internal/domain"
	"docextract/internal/parser"
)

const (
	apiBaseURL       = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel     = "gemini-2.0-flash"
	defaultMaxTokens = 8192
)

// Adapter speaks the Gemini generateContent dialect. The key travels in the query string.
type Adapter struct{}

// New creates a Gemini adapter.
func New() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Kind() domain.ProviderKind { return domain.ProviderGemini }
func (a *Adapter) DefaultModel() string { return defaultModel }
func (a *Adapter) DefaultEndpoint() string { return apiBaseURL }
func (a *Adapter) RequiresAPIKey() bool { return true }
func (a *Adapter) AcceptsImage() bool { return true }

func (a *Adapter) BuildRequest(cfg *domain.ProviderConfig, input *domain.ExtractionInput, prompt string) (*parser.Request, error) {
	if !cfg.HasAPIKey() {
		return nil, parser.NewMissingKeyError(a.Kind())
	}

	var parts []map[string]interface{}
	if input.HasPayload() {
		parts = append(parts, map[string]interface{}{
			"inline_data": map[string]interface{}{
				"mime_type": input.MIMEType,
				"data":      input.ImageBase64,
			},
		})
	}
	parts = append(parts, map[string]interface{}{"text": prompt})

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role":  "user",
				"parts": parts,
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"maxOutputTokens":  parser.MaxTokensFor(cfg, defaultMaxTokens),
			"temperature":      parser.TemperatureFor(cfg, 0.1),
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		parser.EndpointFor(cfg, a), url.PathEscape(parser.ModelFor(cfg, a)), url.QueryEscape(cfg.Key()))

	return &parser.Request{
		Method: http.MethodPost,
		URL:    endpoint,
		Header: parser.JSONHeader(),
		Body:   body,
	}, nil
}

// apiResponse models the Gemini API response.
type apiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func (a *Adapter) ExtractText(body []byte) string {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return resp.Candidates[0].Content.Parts[0].Text
}
