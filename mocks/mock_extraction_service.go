package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docextract/internal/domain"
)

// MockExtractionService is a mock implementation of service.ExtractionService.
type MockExtractionService struct {
	mock.Mock
}

func (m *MockExtractionService) Extract(ctx context.Context, orgID uuid.UUID, input *domain.ExtractionInput) (*domain.ExtractionResult, error) {
	args := m.Called(ctx, orgID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionResult), args.Error(1)
}

func (m *MockExtractionService) ExtractWithOverride(ctx context.Context, orgID uuid.UUID, providerID *uuid.UUID, input *domain.ExtractionInput) (*domain.ExtractionResult, error) {
	args := m.Called(ctx, orgID, providerID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionResult), args.Error(1)
}

func (m *MockExtractionService) CheckUsageLimit(ctx context.Context, orgID, providerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, orgID, providerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockExtractionService) ResetMonthlyUsage(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
