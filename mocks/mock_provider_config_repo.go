package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docextract/internal/domain"
)

// MockProviderConfigRepo is a mock implementation of port.ProviderConfigRepository.
type MockProviderConfigRepo struct {
	mock.Mock
}

func (m *MockProviderConfigRepo) ListEnabled(ctx context.Context, organizationID uuid.UUID) ([]domain.ProviderConfig, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProviderConfig), args.Error(1)
}

func (m *MockProviderConfigRepo) ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]domain.ProviderConfig, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProviderConfig), args.Error(1)
}

func (m *MockProviderConfigRepo) GetByID(ctx context.Context, organizationID, providerID uuid.UUID) (*domain.ProviderConfig, error) {
	args := m.Called(ctx, organizationID, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProviderConfig), args.Error(1)
}

func (m *MockProviderConfigRepo) Upsert(ctx context.Context, cfg *domain.ProviderConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}
