package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUsageService is a mock implementation of service.UsageService.
type MockUsageService struct {
	mock.Mock
}

func (m *MockUsageService) Increment(ctx context.Context, orgID, providerID uuid.UUID) (int, error) {
	args := m.Called(ctx, orgID, providerID)
	return args.Int(0), args.Error(1)
}

func (m *MockUsageService) OverLimit(ctx context.Context, orgID, providerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, orgID, providerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsageService) ResetAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUsageService) Reserve(ctx context.Context, orgID, providerID uuid.UUID) (int, error) {
	args := m.Called(ctx, orgID, providerID)
	return args.Int(0), args.Error(1)
}

func (m *MockUsageService) Release(ctx context.Context, orgID, providerID uuid.UUID) error {
	args := m.Called(ctx, orgID, providerID)
	return args.Error(0)
}
