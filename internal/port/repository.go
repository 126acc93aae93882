package port

import (
	"context"

	"github.com/google/uuid"

	"docextract/internal/domain"
)

// ProviderConfigRepository defines the contract for per-organization provider configuration.
// All query methods include organizationID to enforce isolation at the data layer.
type ProviderConfigRepository interface {
	// ListEnabled returns enabled configs, primary first, then by stored position.
	ListEnabled(ctx context.Context, organizationID uuid.UUID) ([]domain.ProviderConfig, error)
	ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]domain.ProviderConfig, error)
	GetByID(ctx context.Context, organizationID, providerID uuid.UUID) (*domain.ProviderConfig, error)
	// Upsert creates or updates the config keyed by (organization, provider tag).
	// Marking a config primary clears the flag on the organization's other configs.
	Upsert(ctx context.Context, cfg *domain.ProviderConfig) error
}

// UsageRepository defines the contract for monthly usage counters.
type UsageRepository interface {
	// Increment atomically adds one call and returns the new count.
	Increment(ctx context.Context, organizationID, providerID uuid.UUID) (int, error)
	// Reserve atomically counts one call only while the counter is under its cap.
	// It returns domain.ErrQuotaExceeded when the cap is reached.
	Reserve(ctx context.Context, organizationID, providerID uuid.UUID) (int, error)
	// Release gives back a reserved call whose attempt failed.
	Release(ctx context.Context, organizationID, providerID uuid.UUID) error
	Get(ctx context.Context, organizationID, providerID uuid.UUID) (*domain.UsageCounter, error)
	// ResetAll zeroes every counter and returns how many were reset.
	ResetAll(ctx context.Context) (int64, error)
}
