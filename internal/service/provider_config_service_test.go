package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docextract/internal/catalog"
	"docextract/internal/domain"
	"docextract/internal/service"
	"docextract/mocks"
)

func newProviderConfigService(t *testing.T) (service.ProviderConfigService, *mocks.MockProviderConfigRepo, *mocks.MockUsageRepo) {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)
	repo := new(mocks.MockProviderConfigRepo)
	usageRepo := new(mocks.MockUsageRepo)
	return service.NewProviderConfigService(repo, usageRepo, cat, nil), repo, usageRepo
}

func TestProviderConfigService_Upsert_FillsFromCatalog(t *testing.T) {
	svc, repo, _ := newProviderConfigService(t)
	orgID := uuid.New()
	baseURL := " http://gpu-box:11434 "

	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(cfg *domain.ProviderConfig) bool {
		return cfg.Provider == "ollama" && cfg.IsLocal && cfg.DisplayName == "Ollama (local)" &&
			cfg.BaseURL != nil && *cfg.BaseURL == "http://gpu-box:11434" && cfg.APIKey == nil
	})).Return(nil)

	cfg, err := svc.Upsert(context.Background(), &service.UpsertProviderInput{
		OrganizationID: orgID,
		Provider:       "Ollama",
		BaseURL:        &baseURL,
		IsEnabled:      true,
		IsPrimary:      true,
	})

	require.NoError(t, err)
	assert.Equal(t, orgID, cfg.OrganizationID)
	assert.True(t, cfg.IsPrimary)
	repo.AssertExpectations(t)
}

func TestProviderConfigService_Upsert_Rejections(t *testing.T) {
	zero, hot, negative := 0, 2.5, -1
	badURL := "ftp://files"
	tests := []struct {
		name    string
		input   service.UpsertProviderInput
		wantErr error
	}{
		{"unknown provider", service.UpsertProviderInput{Provider: "mistral"}, domain.ErrUnknownProvider},
		{"zero max tokens", service.UpsertProviderInput{Provider: "gemini", MaxTokens: &zero}, domain.ErrInvalidInput},
		{"temperature out of range", service.UpsertProviderInput{Provider: "gemini", Temperature: &hot}, domain.ErrInvalidInput},
		{"negative limit", service.UpsertProviderInput{Provider: "gemini", UsageLimit: &negative}, domain.ErrInvalidInput},
		{"non-http base url", service.UpsertProviderInput{Provider: "openai", BaseURL: &badURL}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newProviderConfigService(t)

			_, err := svc.Upsert(context.Background(), &tt.input)

			assert.ErrorIs(t, err, tt.wantErr)
			repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
		})
	}
}

func TestProviderConfigService_Upsert_RepoError(t *testing.T) {
	svc, repo, _ := newProviderConfigService(t)
	repo.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("unique violation"))

	_, err := svc.Upsert(context.Background(), &service.UpsertProviderInput{OrganizationID: uuid.New(), Provider: "claude"})
	assert.Error(t, err)
}

func TestProviderConfigService_ListUsageCatalog(t *testing.T) {
	svc, repo, usageRepo := newProviderConfigService(t)
	orgID, providerID := uuid.New(), uuid.New()
	repo.On("ListByOrganization", mock.Anything, orgID).Return([]domain.ProviderConfig{{Provider: "gemini"}}, nil)
	usageRepo.On("Get", mock.Anything, orgID, providerID).Return(&domain.UsageCounter{Count: 4}, nil)

	list, err := svc.List(context.Background(), orgID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	usage, err := svc.Usage(context.Background(), orgID, providerID)
	require.NoError(t, err)
	assert.Equal(t, 4, usage.Count)

	assert.Len(t, svc.Catalog(), len(domain.AllProviderKinds))
}
