package domain

import "strings"

// ProviderKind is the closed set of supported extraction backends.
type ProviderKind string

const (
	ProviderGemini   ProviderKind = "gemini"
	ProviderOpenAI   ProviderKind = "openai"
	ProviderClaude   ProviderKind = "claude"
	ProviderDeepSeek ProviderKind = "deepseek"
	ProviderOllama   ProviderKind = "ollama"
)

// ProviderNone is reported as provider and model when no backend produced a result.
const ProviderNone = "none"

// AllProviderKinds lists every supported backend.
var AllProviderKinds = []ProviderKind{
	ProviderGemini,
	ProviderOpenAI,
	ProviderClaude,
	ProviderDeepSeek,
	ProviderOllama,
}

// ParseProviderKind maps a stored provider tag to its kind.
func ParseProviderKind(name string) (ProviderKind, bool) {
	k := ProviderKind(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range AllProviderKinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// Supported document MIME types.
const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
	MIMETypeWEBP = "image/webp"
	MIMETypePDF  = "application/pdf"
)

// AllowedContentTypes is the set of MIME types accepted for inline payloads.
var AllowedContentTypes = map[string]bool{
	MIMETypeJPEG: true,
	MIMETypePNG:  true,
	MIMETypeWEBP: true,
	MIMETypePDF:  true,
}
