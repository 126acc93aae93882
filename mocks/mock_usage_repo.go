package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docextract/internal/domain"
)

// MockUsageRepo is a mock implementation of port.UsageRepository.
type MockUsageRepo struct {
	mock.Mock
}

func (m *MockUsageRepo) Increment(ctx context.Context, organizationID, providerID uuid.UUID) (int, error) {
	args := m.Called(ctx, organizationID, providerID)
	return args.Int(0), args.Error(1)
}

func (m *MockUsageRepo) Get(ctx context.Context, organizationID, providerID uuid.UUID) (*domain.UsageCounter, error) {
	args := m.Called(ctx, organizationID, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UsageCounter), args.Error(1)
}

func (m *MockUsageRepo) ResetAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUsageRepo) Reserve(ctx context.Context, organizationID, providerID uuid.UUID) (int, error) {
	args := m.Called(ctx, organizationID, providerID)
	return args.Int(0), args.Error(1)
}

func (m *MockUsageRepo) Release(ctx context.Context, organizationID, providerID uuid.UUID) error {
	args := m.Called(ctx, organizationID, providerID)
	return args.Error(0)
}
