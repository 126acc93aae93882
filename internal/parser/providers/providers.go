// Package providers assembles the adapter registry for every supported backend.
package providers

import (
	"docextract/internal/parser"
	"docextract/internal/parser/claude"
	"docextract/internal/parser/deepseek"
	"docextract/internal/parser/gemini"
	"docextract/internal/parser/ollama"
	"docextract/internal/parser/openai"
)

// NewRegistry returns a registry holding one adapter per provider kind.
func NewRegistry() *parser.Registry {
	return parser.NewRegistry(
		gemini.New(),
		openai.New(),
		claude.New(),
		deepseek.New(),
		ollama.New(),
	)
}
