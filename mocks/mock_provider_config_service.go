package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docextract/internal/domain"
	"docextract/internal/service"
)

// MockProviderConfigService is a mock implementation of service.ProviderConfigService.
type MockProviderConfigService struct {
	mock.Mock
}

func (m *MockProviderConfigService) List(ctx context.Context, orgID uuid.UUID) ([]domain.ProviderConfig, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProviderConfig), args.Error(1)
}

func (m *MockProviderConfigService) Upsert(ctx context.Context, input *service.UpsertProviderInput) (*domain.ProviderConfig, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProviderConfig), args.Error(1)
}

func (m *MockProviderConfigService) Usage(ctx context.Context, orgID, providerID uuid.UUID) (*domain.UsageCounter, error) {
	args := m.Called(ctx, orgID, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UsageCounter), args.Error(1)
}

func (m *MockProviderConfigService) Catalog() []domain.ProviderInfo {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.ProviderInfo)
}
