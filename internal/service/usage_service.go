package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docextract/internal/metrics"
	"docextract/internal/port"
)

// UsageService tracks per-(organization, provider) monthly call counts.
type UsageService interface {
	// Increment adds one call and returns the new count. It is a single atomic
	// statement, so concurrent callers never lose an update.
	Increment(ctx context.Context, orgID, providerID uuid.UUID) (int, error)
	// Reserve counts one call ahead of a capped provider attempt and fails with
	// domain.ErrQuotaExceeded once the cap is reached.
	Reserve(ctx context.Context, orgID, providerID uuid.UUID) (int, error)
	// Release returns a reservation whose attempt did not succeed.
	Release(ctx context.Context, orgID, providerID uuid.UUID) error
	// OverLimit is true only when a cap is configured and the count has reached it.
	OverLimit(ctx context.Context, orgID, providerID uuid.UUID) (bool, error)
	// ResetAll zeroes every counter and returns how many were non-zero.
	ResetAll(ctx context.Context) (int64, error)
}

type usageService struct {
	repo    port.UsageRepository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewUsageService creates a new UsageService.
func NewUsageService(repo port.UsageRepository, m *metrics.Metrics, logger *zap.Logger) UsageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &usageService{repo: repo, metrics: m, logger: logger.Named("usage")}
}

func (s *usageService) Increment(ctx context.Context, orgID, providerID uuid.UUID) (int, error) {
	count, err := s.repo.Increment(ctx, orgID, providerID)
	if err != nil {
		return 0, fmt.Errorf("incrementing usage: %w", err)
	}
	s.logger.Debug("usage recorded",
		zap.String("organization_id", orgID.String()),
		zap.String("provider_id", providerID.String()),
		zap.Int("count", count),
	)
	return count, nil
}

func (s *usageService) Reserve(ctx context.Context, orgID, providerID uuid.UUID) (int, error) {
	count, err := s.repo.Reserve(ctx, orgID, providerID)
	if err != nil {
		return 0, fmt.Errorf("reserving usage: %w", err)
	}
	s.logger.Debug("usage reserved",
		zap.String("organization_id", orgID.String()),
		zap.String("provider_id", providerID.String()),
		zap.Int("count", count),
	)
	return count, nil
}

func (s *usageService) Release(ctx context.Context, orgID, providerID uuid.UUID) error {
	if err := s.repo.Release(ctx, orgID, providerID); err != nil {
		return fmt.Errorf("releasing usage: %w", err)
	}
	return nil
}

func (s *usageService) OverLimit(ctx context.Context, orgID, providerID uuid.UUID) (bool, error) {
	counter, err := s.repo.Get(ctx, orgID, providerID)
	if err != nil {
		return false, fmt.Errorf("reading usage: %w", err)
	}
	return counter.OverLimit(), nil
}

func (s *usageService) ResetAll(ctx context.Context) (int64, error) {
	n, err := s.repo.ResetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("resetting usage: %w", err)
	}
	s.metrics.UsageReset()
	s.logger.Info("monthly usage counters reset", zap.Int64("counters", n))
	return n, nil
}
