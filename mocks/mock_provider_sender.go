package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docextract/internal/parser"
)

// MockProviderSender is a mock implementation of service.ProviderSender.
type MockProviderSender struct {
	mock.Mock
}

func (m *MockProviderSender) Send(ctx context.Context, provider string, req *parser.Request) ([]byte, error) {
	args := m.Called(ctx, provider, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
