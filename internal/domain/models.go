package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProviderConfig is an organization's configuration for one extraction backend.
// The orchestrator works on an immutable snapshot for the duration of one call.
type ProviderConfig struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	Provider       string    `db:"provider" json:"provider"`
	DisplayName    string    `db:"display_name" json:"display_name"`
	BaseURL        *string   `db:"base_url" json:"base_url"`
	APIKey         *string   `db:"api_key" json:"-"`
	Model          *string   `db:"model" json:"model"`
	IsLocal        bool      `db:"is_local" json:"is_local"`
	MaxTokens      *int      `db:"max_tokens" json:"max_tokens"`
	Temperature    *float64  `db:"temperature" json:"temperature"`
	IsEnabled      bool      `db:"is_enabled" json:"is_enabled"`
	IsPrimary      bool      `db:"is_primary" json:"is_primary"`
	Position       int       `db:"position" json:"position"`
	UsageCount     int       `db:"usage_count" json:"usage_count"`
	UsageLimit     *int      `db:"usage_limit" json:"usage_limit"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// HasAPIKey reports whether a non-empty API key is configured.
func (c *ProviderConfig) HasAPIKey() bool {
	return c.APIKey != nil && strings.TrimSpace(*c.APIKey) != ""
}

// Key returns the configured API key or an empty string.
func (c *ProviderConfig) Key() string {
	if c.APIKey == nil {
		return ""
	}
	return *c.APIKey
}

// Usage returns the usage counter carried by this snapshot.
func (c *ProviderConfig) Usage() UsageCounter {
	return UsageCounter{
		OrganizationID: c.OrganizationID,
		ProviderID:     c.ID,
		Count:          c.UsageCount,
		Limit:          c.UsageLimit,
	}
}

// FieldKind is the primitive kind of an extracted field.
type FieldKind string

const (
	FieldString FieldKind = "string"
	FieldDate   FieldKind = "date"
	FieldNumber FieldKind = "number"
	FieldArray  FieldKind = "array"
)

// SchemaField is one named field expected from a document.
type SchemaField struct {
	Name string    `json:"name"`
	Kind FieldKind `json:"kind"`
}

// ExtractionSchema is the ordered set of fields requested for a document type.
type ExtractionSchema []SchemaField

// ExtractionInput carries one document to extract. It is never mutated after construction.
type ExtractionInput struct {
	DocumentType string `json:"document_type"`
	ImageBase64  string `json:"image_base64,omitempty"`
	PDFRef       string `json:"pdf_ref,omitempty"`
	MIMEType     string `json:"mime_type,omitempty"`
}

// HasPayload reports whether inline document bytes are attached.
func (in *ExtractionInput) HasPayload() bool {
	return in.ImageBase64 != ""
}

// IsPDF reports whether the attached payload is a PDF.
func (in *ExtractionInput) IsPDF() bool {
	return in.MIMEType == MIMETypePDF
}

// ExtractionResult is the single outcome of an extraction call.
//
// Success implies Fields is non-nil. A failed result always has zero
// confidence and a non-empty Error.
type ExtractionResult struct {
	Success        bool           `json:"success"`
	Fields         map[string]any `json:"fields"`
	Confidence     float64        `json:"confidence"`
	Provider       string         `json:"provider"`
	Model          string         `json:"model"`
	ProcessingTime int64          `json:"processing_time_ms"`
	Error          string         `json:"error,omitempty"`
}

// FailedResult builds a terminal failure result.
func FailedResult(reason string, elapsed time.Duration) *ExtractionResult {
	return &ExtractionResult{
		Success:        false,
		Provider:       ProviderNone,
		Model:          ProviderNone,
		ProcessingTime: elapsed.Milliseconds(),
		Error:          reason,
	}
}

// UsageCounter is the monthly call count for an (organization, provider) pair.
type UsageCounter struct {
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	ProviderID     uuid.UUID `db:"id" json:"provider_id"`
	Count          int       `db:"usage_count" json:"count"`
	Limit          *int      `db:"usage_limit" json:"limit"`
}

// OverLimit is true only when a cap is configured and the count has reached it.
func (u UsageCounter) OverLimit() bool {
	return u.Limit != nil && u.Count >= *u.Limit
}

// ProviderInfo is organization-independent reference data about a backend.
type ProviderInfo struct {
	Name           string   `yaml:"name" json:"name"`
	DisplayName    string   `yaml:"display_name" json:"display_name"`
	IsLocal        bool     `yaml:"is_local" json:"is_local"`
	RequiresAPIKey bool     `yaml:"requires_api_key" json:"requires_api_key"`
	SupportsImages bool     `yaml:"supports_images" json:"supports_images"`
	DocumentTypes  []string `yaml:"document_types" json:"document_types"`
}
