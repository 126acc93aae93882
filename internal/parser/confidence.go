package parser

import "docextract/internal/domain"

// confidenceByKind is a static prior per backend. None of the backends report a
// calibrated confidence, so this only ranks results for downstream thresholds.
var confidenceByKind = map[domain.ProviderKind]float64{
	domain.ProviderGemini:   0.92,
	domain.ProviderOpenAI:   0.90,
	domain.ProviderClaude:   0.90,
	domain.ProviderDeepSeek: 0.80,
	domain.ProviderOllama:   0.75,
}

// ConfidenceFor returns the fixed confidence score for a provider kind.
func ConfidenceFor(kind domain.ProviderKind) float64 {
	return confidenceByKind[kind]
}
