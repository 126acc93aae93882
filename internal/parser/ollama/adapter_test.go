package ollama_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docextract/internal/domain"
	"docextract/internal/parser/ollama"
)

func strPtr(s string) *string { return &s }

func TestAdapter_BuildRequest_NoKeyNeeded(t *testing.T) {
	a := ollama.New()
	assert.False(t, a.RequiresAPIKey())

	cfg := &domain.ProviderConfig{BaseURL: strPtr("http://gpu-box:11434/"), IsLocal: true}
	req, err := a.BuildRequest(cfg, &domain.ExtractionInput{ImageBase64: "SU1H", MIMEType: "image/png"}, "p")
	require.NoError(t, err)

	assert.Equal(t, "http://gpu-box:11434/api/generate", req.URL)
	assert.Empty(t, req.Header.Get("Authorization"))

	var reqBody map[string]interface{}
	require.NoError(t, json.Unmarshal(req.Body, &reqBody))
	assert.Equal(t, "llava", reqBody["model"])
	assert.Equal(t, false, reqBody["stream"])
	assert.Equal(t, "json", reqBody["format"])
	assert.Equal(t, []interface{}{"SU1H"}, reqBody["images"])
	options := reqBody["options"].(map[string]interface{})
	assert.Equal(t, float64(2048), options["num_predict"])
}

func TestAdapter_BuildRequest_PDFDropped(t *testing.T) {
	req, err := ollama.New().BuildRequest(&domain.ProviderConfig{},
		&domain.ExtractionInput{ImageBase64: "JVBER", MIMEType: domain.MIMETypePDF}, "p")
	require.NoError(t, err)

	var reqBody map[string]interface{}
	require.NoError(t, json.Unmarshal(req.Body, &reqBody))
	assert.NotContains(t, reqBody, "images")
}

func TestAdapter_BuildRequest_ForwardsOptionalKey(t *testing.T) {
	req, err := ollama.New().BuildRequest(&domain.ProviderConfig{APIKey: strPtr("proxy-token")},
		&domain.ExtractionInput{}, "p")
	require.NoError(t, err)
	assert.Equal(t, "Bearer proxy-token", req.Header.Get("Authorization"))
}

func TestAdapter_ExtractText(t *testing.T) {
	a := ollama.New()
	assert.Equal(t, `{"a":1}`, a.ExtractText([]byte(`{"model":"llava","response":"  {\"a\":1}\n","done":true}`)))
	assert.Equal(t, "", a.ExtractText([]byte(`{"error":"model not found"}`)))
}
