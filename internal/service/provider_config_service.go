package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docextract/internal/domain"
	"docextract/internal/port"
)

// UpsertProviderInput holds the fields an organization may set on a provider config.
type UpsertProviderInput struct {
	OrganizationID uuid.UUID
	Provider       string
	DisplayName    string
	BaseURL        *string
	APIKey         *string
	Model          *string
	MaxTokens      *int
	Temperature    *float64
	IsEnabled      bool
	IsPrimary      bool
	Position       int
	UsageLimit     *int
}

// ProviderConfigService manages an organization's provider configurations.
type ProviderConfigService interface {
	List(ctx context.Context, orgID uuid.UUID) ([]domain.ProviderConfig, error)
	Upsert(ctx context.Context, input *UpsertProviderInput) (*domain.ProviderConfig, error)
	Usage(ctx context.Context, orgID, providerID uuid.UUID) (*domain.UsageCounter, error)
	Catalog() []domain.ProviderInfo
}

type providerConfigService struct {
	repo      port.ProviderConfigRepository
	usageRepo port.UsageRepository
	catalog   port.ProviderCatalog
	logger    *zap.Logger
}

// NewProviderConfigService creates a new ProviderConfigService.
func NewProviderConfigService(
	repo port.ProviderConfigRepository,
	usageRepo port.UsageRepository,
	catalog port.ProviderCatalog,
	logger *zap.Logger,
) ProviderConfigService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &providerConfigService{repo: repo, usageRepo: usageRepo, catalog: catalog, logger: logger.Named("providers")}
}

func (s *providerConfigService) List(ctx context.Context, orgID uuid.UUID) ([]domain.ProviderConfig, error) {
	return s.repo.ListByOrganization(ctx, orgID)
}

func (s *providerConfigService) Upsert(ctx context.Context, input *UpsertProviderInput) (*domain.ProviderConfig, error) {
	kind, ok := domain.ParseProviderKind(input.Provider)
	if !ok {
		return nil, fmt.Errorf("%q: %w", input.Provider, domain.ErrUnknownProvider)
	}
	info, ok := s.catalog.Get(string(kind))
	if !ok {
		return nil, fmt.Errorf("%q has no catalog entry: %w", kind, domain.ErrUnknownProvider)
	}
	if err := validateUpsert(input); err != nil {
		return nil, err
	}

	cfg := &domain.ProviderConfig{
		OrganizationID: input.OrganizationID,
		Provider:       string(kind),
		DisplayName:    strings.TrimSpace(input.DisplayName),
		BaseURL:        trimmedOrNil(input.BaseURL),
		APIKey:         trimmedOrNil(input.APIKey),
		Model:          trimmedOrNil(input.Model),
		IsLocal:        info.IsLocal,
		MaxTokens:      input.MaxTokens,
		Temperature:    input.Temperature,
		IsEnabled:      input.IsEnabled,
		IsPrimary:      input.IsPrimary,
		Position:       input.Position,
		UsageLimit:     input.UsageLimit,
	}
	if cfg.DisplayName == "" {
		cfg.DisplayName = info.DisplayName
	}

	if err := s.repo.Upsert(ctx, cfg); err != nil {
		return nil, fmt.Errorf("saving provider config: %w", err)
	}

	s.logger.Info("provider config saved",
		zap.String("organization_id", cfg.OrganizationID.String()),
		zap.String("provider", cfg.Provider),
		zap.Bool("enabled", cfg.IsEnabled),
		zap.Bool("primary", cfg.IsPrimary),
	)
	return cfg, nil
}

func (s *providerConfigService) Usage(ctx context.Context, orgID, providerID uuid.UUID) (*domain.UsageCounter, error) {
	return s.usageRepo.Get(ctx, orgID, providerID)
}

func (s *providerConfigService) Catalog() []domain.ProviderInfo {
	return s.catalog.List()
}

func validateUpsert(input *UpsertProviderInput) error {
	if input.MaxTokens != nil && *input.MaxTokens <= 0 {
		return fmt.Errorf("%w: max_tokens must be positive", domain.ErrInvalidInput)
	}
	if input.Temperature != nil && (*input.Temperature < 0 || *input.Temperature > 2) {
		return fmt.Errorf("%w: temperature must be between 0 and 2", domain.ErrInvalidInput)
	}
	if input.UsageLimit != nil && *input.UsageLimit < 0 {
		return fmt.Errorf("%w: usage_limit must not be negative", domain.ErrInvalidInput)
	}
	if input.Position < 0 {
		return fmt.Errorf("%w: position must not be negative", domain.ErrInvalidInput)
	}
	if b := trimmedOrNil(input.BaseURL); b != nil {
		u, err := url.Parse(*b)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: base_url must be an absolute http(s) URL", domain.ErrInvalidInput)
		}
	}
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
