package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"docextract/internal/domain"
	"docextract/internal/service"
)

// ExtractionHandler handles document extraction and usage maintenance endpoints.
type ExtractionHandler struct {
	svc    service.ExtractionService
	logger *zap.Logger
}

// NewExtractionHandler creates a new ExtractionHandler.
func NewExtractionHandler(svc service.ExtractionService, logger *zap.Logger) *ExtractionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExtractionHandler{svc: svc, logger: logger}
}

type extractRequest struct {
	DocumentType string  `json:"document_type" binding:"required"`
	ImageBase64  string  `json:"image_base64"`
	PDFRef       string  `json:"pdf_ref"`
	MIMEType     string  `json:"mime_type"`
	ProviderID   *string `json:"provider_id"`
}

// Extract handles POST /api/v1/extractions.
// A provider failure still carries the result, with success=false.
// @Summary Extract document fields
// @Description Extract structured fields from a base64 image or a stored PDF, trying enabled providers in order
// @Tags extractions
// @Accept json
// @Produce json
// @Param request body extractRequest true "Document to extract"
// @Success 200 {object} APIResponse{data=domain.ExtractionResult} "Extraction succeeded"
// @Failure 400 {object} APIResponse "Invalid request or unsupported file type"
// @Failure 401 {object} APIResponse "Missing organization"
// @Failure 422 {object} APIResponse{data=domain.ExtractionResult} "No providers configured"
// @Failure 502 {object} APIResponse{data=domain.ExtractionResult} "All providers failed"
// @Security OrganizationID
// @Router /api/v1/extractions [post]
func (h *ExtractionHandler) Extract(c *gin.Context) {
	orgID, ok := organizationID(c)
	if !ok {
		return
	}

	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "document_type is required")
		return
	}

	var providerID *uuid.UUID
	if req.ProviderID != nil && *req.ProviderID != "" {
		id, err := uuid.Parse(*req.ProviderID)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid provider_id")
			return
		}
		providerID = &id
	}

	input := &domain.ExtractionInput{
		DocumentType: req.DocumentType,
		ImageBase64:  req.ImageBase64,
		PDFRef:       req.PDFRef,
		MIMEType:     req.MIMEType,
	}
	result, err := h.svc.ExtractWithOverride(c.Request.Context(), orgID, providerID, input)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}

	if !result.Success {
		status, code, msg := MapDomainError(resultError(result))
		c.JSON(status, APIResponse{Success: false, Data: result, Error: &APIError{Code: code, Message: msg}})
		return
	}
	RespondOK(c, result)
}

// resultError recovers the sentinel behind a failed result's reason.
func resultError(r *domain.ExtractionResult) error {
	switch r.Error {
	case domain.ErrNoProvidersConfigured.Error():
		return domain.ErrNoProvidersConfigured
	case domain.ErrAllProvidersFailed.Error():
		return domain.ErrAllProvidersFailed
	default:
		return errors.New(r.Error)
	}
}

// ResetUsage handles POST /api/v1/admin/usage/reset.
// @Summary Reset usage counters
// @Description Zero the monthly usage counter of every provider configuration
// @Tags admin
// @Produce json
// @Success 200 {object} APIResponse "Number of counters reset"
// @Failure 401 {object} APIResponse "Missing or wrong admin token"
// @Failure 500 {object} APIResponse "Reset failed"
// @Security AdminToken
// @Router /api/v1/admin/usage/reset [post]
func (h *ExtractionHandler) ResetUsage(c *gin.Context) {
	n, err := h.svc.ResetMonthlyUsage(c.Request.Context())
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	h.logger.Info("usage counters reset on request", zap.Int64("counters", n))
	RespondOK(c, gin.H{"reset": n})
}
