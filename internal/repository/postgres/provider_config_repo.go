package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"docextract/internal/domain"
	"docextract/internal/port"
)

const providerConfigColumns = `id, organization_id, provider, display_name, base_url, api_key, model,
	is_local, max_tokens, temperature, is_enabled, is_primary, position, usage_count, usage_limit,
	created_at, updated_at`

type providerConfigRepo struct {
	db *sqlx.DB
}

// NewProviderConfigRepo creates a new PostgreSQL-backed ProviderConfigRepository.
func NewProviderConfigRepo(db *sqlx.DB) port.ProviderConfigRepository {
	return &providerConfigRepo{db: db}
}

func (r *providerConfigRepo) ListEnabled(ctx context.Context, organizationID uuid.UUID) ([]domain.ProviderConfig, error) {
	var configs []domain.ProviderConfig
	err := r.db.SelectContext(ctx, &configs,
		`SELECT `+providerConfigColumns+` FROM provider_configs
		 WHERE organization_id = $1 AND is_enabled = true
		 ORDER BY is_primary DESC, position ASC, created_at ASC`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("providerConfigRepo.ListEnabled: %w", err)
	}
	return configs, nil
}

func (r *providerConfigRepo) ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]domain.ProviderConfig, error) {
	var configs []domain.ProviderConfig
	err := r.db.SelectContext(ctx, &configs,
		`SELECT `+providerConfigColumns+` FROM provider_configs
		 WHERE organization_id = $1
		 ORDER BY is_primary DESC, position ASC, created_at ASC`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("providerConfigRepo.ListByOrganization: %w", err)
	}
	return configs, nil
}

func (r *providerConfigRepo) GetByID(ctx context.Context, organizationID, providerID uuid.UUID) (*domain.ProviderConfig, error) {
	var cfg domain.ProviderConfig
	err := r.db.GetContext(ctx, &cfg,
		`SELECT `+providerConfigColumns+` FROM provider_configs
		 WHERE id = $1 AND organization_id = $2`, providerID, organizationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("providerConfigRepo.GetByID: %w", err)
	}
	return &cfg, nil
}

func (r *providerConfigRepo) Upsert(ctx context.Context, cfg *domain.ProviderConfig) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("providerConfigRepo.Upsert begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	if cfg.IsPrimary {
		_, err = tx.ExecContext(ctx,
			`UPDATE provider_configs SET is_primary = false, updated_at = $1
			 WHERE organization_id = $2 AND provider <> $3 AND is_primary = true`,
			now, cfg.OrganizationID, cfg.Provider)
		if err != nil {
			return fmt.Errorf("providerConfigRepo.Upsert clear primary: %w", err)
		}
	}

	if cfg.ID == uuid.Nil {
		cfg.ID = uuid.New()
	}
	query := `INSERT INTO provider_configs (id, organization_id, provider, display_name, base_url, api_key, model,
			is_local, max_tokens, temperature, is_enabled, is_primary, position, usage_limit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
		ON CONFLICT (organization_id, provider) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			base_url = EXCLUDED.base_url,
			api_key = COALESCE(EXCLUDED.api_key, provider_configs.api_key),
			model = EXCLUDED.model,
			is_local = EXCLUDED.is_local,
			max_tokens = EXCLUDED.max_tokens,
			temperature = EXCLUDED.temperature,
			is_enabled = EXCLUDED.is_enabled,
			is_primary = EXCLUDED.is_primary,
			position = EXCLUDED.position,
			usage_limit = EXCLUDED.usage_limit,
			updated_at = EXCLUDED.updated_at
		RETURNING id, usage_count, created_at, updated_at`

	err = tx.QueryRowxContext(ctx, query,
		cfg.ID, cfg.OrganizationID, cfg.Provider, cfg.DisplayName, cfg.BaseURL, cfg.APIKey, cfg.Model,
		cfg.IsLocal, cfg.MaxTokens, cfg.Temperature, cfg.IsEnabled, cfg.IsPrimary, cfg.Position, cfg.UsageLimit, now,
	).Scan(&cfg.ID, &cfg.UsageCount, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("providerConfigRepo.Upsert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("providerConfigRepo.Upsert commit: %w", err)
	}
	return nil
}
