package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"docextract/internal/domain"
	"docextract/internal/port"
)

type usageRepo struct {
	db *sqlx.DB
}

// NewUsageRepo creates a new PostgreSQL-backed UsageRepository. Counters live
// on the provider_configs rows they belong to.
func NewUsageRepo(db *sqlx.DB) port.UsageRepository {
	return &usageRepo{db: db}
}

// Increment is a single UPDATE ... RETURNING so concurrent successes never under-count.
func (r *usageRepo) Increment(ctx context.Context, organizationID, providerID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`UPDATE provider_configs SET usage_count = usage_count + 1, updated_at = NOW()
		 WHERE organization_id = $1 AND id = $2
		 RETURNING usage_count`, organizationID, providerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("usageRepo.Increment: %w", err)
	}
	return count, nil
}

// Reserve is Increment guarded by the cap in the same statement, so concurrent
// callers can never take more than usage_limit calls between resets.
func (r *usageRepo) Reserve(ctx context.Context, organizationID, providerID uuid.UUID) (int, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM provider_configs WHERE organization_id = $1 AND id = $2)`,
		organizationID, providerID)
	if err != nil {
		return 0, fmt.Errorf("usageRepo.Reserve lookup: %w", err)
	}
	if !exists {
		return 0, domain.ErrNotFound
	}

	var count int
	err = r.db.GetContext(ctx, &count,
		`UPDATE provider_configs SET usage_count = usage_count + 1, updated_at = NOW()
		 WHERE organization_id = $1 AND id = $2
		   AND (usage_limit IS NULL OR usage_count < usage_limit)
		 RETURNING usage_count`, organizationID, providerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrQuotaExceeded
		}
		return 0, fmt.Errorf("usageRepo.Reserve: %w", err)
	}
	return count, nil
}

func (r *usageRepo) Release(ctx context.Context, organizationID, providerID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE provider_configs SET usage_count = usage_count - 1, updated_at = NOW()
		 WHERE organization_id = $1 AND id = $2 AND usage_count > 0`, organizationID, providerID)
	if err != nil {
		return fmt.Errorf("usageRepo.Release: %w", err)
	}
	return nil
}

func (r *usageRepo) Get(ctx context.Context, organizationID, providerID uuid.UUID) (*domain.UsageCounter, error) {
	var counter domain.UsageCounter
	err := r.db.GetContext(ctx, &counter,
		`SELECT organization_id, id, usage_count, usage_limit FROM provider_configs
		 WHERE organization_id = $1 AND id = $2`, organizationID, providerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("usageRepo.Get: %w", err)
	}
	return &counter, nil
}

func (r *usageRepo) ResetAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE provider_configs SET usage_count = 0, updated_at = NOW() WHERE usage_count <> 0`)
	if err != nil {
		return 0, fmt.Errorf("usageRepo.ResetAll: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}
