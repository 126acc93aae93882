package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docextract/internal/domain"
	"docextract/internal/service"
)

// ProviderHandler handles provider configuration endpoints.
type ProviderHandler struct {
	providers  service.ProviderConfigService
	extraction service.ExtractionService
	logger     *zap.Logger
}

// NewProviderHandler creates a new ProviderHandler.
func NewProviderHandler(providers service.ProviderConfigService, extraction service.ExtractionService, logger *zap.Logger) *ProviderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProviderHandler{providers: providers, extraction: extraction, logger: logger}
}

// providerResponse exposes a config without its API key.
type providerResponse struct {
	domain.ProviderConfig
	HasAPIKey bool `json:"has_api_key"`
}

type upsertProviderRequest struct {
	DisplayName string   `json:"display_name"`
	BaseURL     *string  `json:"base_url"`
	APIKey      *string  `json:"api_key"`
	Model       *string  `json:"model"`
	MaxTokens   *int     `json:"max_tokens"`
	Temperature *float64 `json:"temperature"`
	IsEnabled   *bool    `json:"is_enabled"`
	IsPrimary   bool     `json:"is_primary"`
	Position    int      `json:"position"`
	UsageLimit  *int     `json:"usage_limit"`
}

type usageResponse struct {
	domain.UsageCounter
	OverLimit bool `json:"over_limit"`
}

// Catalog handles GET /api/v1/providers/catalog.
// @Summary List supported providers
// @Description Static catalog of provider kinds with their default endpoints and models
// @Tags providers
// @Produce json
// @Success 200 {object} APIResponse{data=[]domain.ProviderInfo}
// @Router /api/v1/providers/catalog [get]
func (h *ProviderHandler) Catalog(c *gin.Context) {
	RespondOK(c, h.providers.Catalog())
}

// List handles GET /api/v1/providers.
// @Summary List provider configurations
// @Description List the organization's provider configurations in attempt order, without API keys
// @Tags providers
// @Produce json
// @Success 200 {object} APIResponse{data=[]providerResponse}
// @Failure 401 {object} APIResponse "Missing organization"
// @Failure 500 {object} APIResponse "Lookup failed"
// @Security OrganizationID
// @Router /api/v1/providers [get]
func (h *ProviderHandler) List(c *gin.Context) {
	orgID, ok := organizationID(c)
	if !ok {
		return
	}

	configs, err := h.providers.List(c.Request.Context(), orgID)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}

	out := make([]providerResponse, len(configs))
	for i := range configs {
		out[i] = providerResponse{ProviderConfig: configs[i], HasAPIKey: configs[i].HasAPIKey()}
	}
	RespondOK(c, out)
}

// Upsert handles PUT /api/v1/providers/:provider.
// @Summary Create or update a provider configuration
// @Description Omitted fields fall back to the catalog defaults for the provider
// @Tags providers
// @Accept json
// @Produce json
// @Param provider path string true "Provider kind (gemini, openai, claude, deepseek, ollama)"
// @Param request body upsertProviderRequest true "Provider configuration"
// @Success 200 {object} APIResponse{data=providerResponse}
// @Failure 400 {object} APIResponse "Malformed configuration or unknown provider"
// @Failure 401 {object} APIResponse "Missing organization"
// @Failure 500 {object} APIResponse "Save failed"
// @Security OrganizationID
// @Router /api/v1/providers/{provider} [put]
func (h *ProviderHandler) Upsert(c *gin.Context) {
	orgID, ok := organizationID(c)
	if !ok {
		return
	}

	var req upsertProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "malformed provider configuration")
		return
	}

	enabled := true
	if req.IsEnabled != nil {
		enabled = *req.IsEnabled
	}
	cfg, err := h.providers.Upsert(c.Request.Context(), &service.UpsertProviderInput{
		OrganizationID: orgID,
		Provider:       c.Param("provider"),
		DisplayName:    req.DisplayName,
		BaseURL:        req.BaseURL,
		APIKey:         req.APIKey,
		Model:          req.Model,
		MaxTokens:      req.MaxTokens,
		Temperature:    req.Temperature,
		IsEnabled:      enabled,
		IsPrimary:      req.IsPrimary,
		Position:       req.Position,
		UsageLimit:     req.UsageLimit,
	})
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	RespondOK(c, providerResponse{ProviderConfig: *cfg, HasAPIKey: cfg.HasAPIKey()})
}

// Usage handles GET /api/v1/providers/:id/usage.
// @Summary Get provider usage
// @Description Current monthly call count and cap for one provider configuration
// @Tags providers
// @Produce json
// @Param id path string true "Provider configuration ID"
// @Success 200 {object} APIResponse{data=usageResponse}
// @Failure 400 {object} APIResponse "Invalid ID"
// @Failure 401 {object} APIResponse "Missing organization"
// @Failure 404 {object} APIResponse "Provider configuration not found"
// @Security OrganizationID
// @Router /api/v1/providers/{id}/usage [get]
func (h *ProviderHandler) Usage(c *gin.Context) {
	orgID, ok := organizationID(c)
	if !ok {
		return
	}
	providerID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	counter, err := h.providers.Usage(c.Request.Context(), orgID, providerID)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	over, err := h.extraction.CheckUsageLimit(c.Request.Context(), orgID, providerID)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	RespondOK(c, usageResponse{UsageCounter: *counter, OverLimit: over})
}
