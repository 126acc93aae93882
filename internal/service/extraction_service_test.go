package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docextract/internal/domain"
	"docextract/internal/metrics"
	"docextract/internal/parser"
	"docextract/internal/parser/providers"
	"docextract/internal/service"
	"docextract/mocks"
)

type extractionFixture struct {
	orgID   uuid.UUID
	repo    *mocks.MockProviderConfigRepo
	usage   *mocks.MockUsageService
	sender  *mocks.MockProviderSender
	storage *mocks.MockObjectStorage
	svc     service.ExtractionService
}

func newExtractionFixture() *extractionFixture {
	f := &extractionFixture{
		orgID:   uuid.New(),
		repo:    new(mocks.MockProviderConfigRepo),
		usage:   new(mocks.MockUsageService),
		sender:  new(mocks.MockProviderSender),
		storage: new(mocks.MockObjectStorage),
	}
	f.svc = service.NewExtractionService(f.repo, f.usage, providers.NewRegistry(), f.sender, f.storage,
		"docextract-uploads", metrics.New(), nil)
	return f
}

func (f *extractionFixture) provider(tag string, key string) domain.ProviderConfig {
	cfg := domain.ProviderConfig{
		ID:             uuid.New(),
		OrganizationID: f.orgID,
		Provider:       tag,
		IsEnabled:      true,
	}
	if key != "" {
		cfg.APIKey = &key
	}
	return cfg
}

func passportInput() *domain.ExtractionInput {
	return &domain.ExtractionInput{
		DocumentType: "PASSPORT",
		ImageBase64:  "aGVsbG8gd29ybGQ=",
		MIMEType:     domain.MIMETypeJPEG,
	}
}

func geminiBody(text string) []byte {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"parts": []any{map[string]any{"text": text}}},
		}},
	})
	return b
}

func openaiBody(text string) []byte {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": text}}},
	})
	return b
}

func ollamaBody(text string) []byte {
	b, _ := json.Marshal(map[string]any{"model": "llava", "response": text, "done": true})
	return b
}

func TestExtract_ZeroProviders_NoNetworkCall(t *testing.T) {
	f := newExtractionFixture()
	f.repo.On("ListEnabled", mock.Anything, f.orgID).Return([]domain.ProviderConfig{}, nil)

	result, err := f.svc.Extract(context.Background(), f.orgID, passportInput())

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "none", result.Provider)
	assert.Equal(t, "none", result.Model)
	assert.Equal(t, "no providers configured", result.Error)
	assert.Zero(t, result.Confidence)
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	f.usage.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything, mock.Anything)
}

func TestExtract_ProviderLookupError_TreatedAsNoProviders(t *testing.T) {
	f := newExtractionFixture()
	f.repo.On("ListEnabled", mock.Anything, f.orgID).Return(nil, errors.New("db down"))

	result, err := f.svc.Extract(context.Background(), f.orgID, passportInput())

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "no providers configured", result.Error)
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestExtract_FirstSuccessWins(t *testing.T) {
	f := newExtractionFixture()
	gemini := f.provider("gemini", "g-key")
	openai := f.provider("openai", "o-key")
	f.repo.On("ListEnabled", mock.Anything, f.orgID).Return([]domain.ProviderConfig{gemini, openai}, nil)
	f.sender.On("Send", mock.Anything, "gemini", mock.Anything).
		Return(geminiBody(`{"passportNumber":"X1234567","firstName":"Ada","lastName":"Lovelace"}`), nil)
	f.usage.On("Increment", mock.Anything, f.orgID, gemini.ID).Return(1, nil)

	result, err := f.svc.Extract(context.Background(), f.orgID, passportInput())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "gemini", result.Provider)
	assert.Equal(t, "gemini-2.0-flash", result.Model)
	assert.Equal(t, 0.92, result.Confidence)
	assert.Equal(t, "X1234567", result.Fields["passportNumber"])
	assert.Empty(t, result.Error)
	f.sender.AssertNotCalled(t, "Send", mock.Anything, "openai", mock.Anything)
	f.usage.AssertNumberOfCalls(t, "Increment", 1)
}

func TestExtract_AllProvidersFail_UsageUnchanged(t *testing.T) {
	f := newExtractionFixture()
	gemini := f.provider("gemini", "g-key")
	openaiNoKey := f.provider("openai", "")
	claude := f.provider("claude", "c-key")
	f.repo.On("ListEnabled", mock.Anything, f.orgID).
		Return([]domain.ProviderConfig{gemini, openaiNoKey, claude}, nil)
	f.sender.On("Send", mock.Anything, "gemini", mock.Anything).
		Return(nil, &parser.TransportError{Provider: "gemini", StatusCode: 503, Err: errors.New("unavailable")})
	f.sender.On("Send", mock.Anything, "claude", mock.Anything).
		Return([]byte(`{"content":[{"type":"text","text":"Sorry, I can't help with that."}]}`), nil)

	result, err := f.svc.Extract(context.Background(), f.orgID, passportInput())

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "all providers failed", result.Error)
	assert.Equal(t, "none", result.Provider)
	assert.Equal(t, "none", result.Model)
	assert.Nil(t, result.Fields)
	f.sender.AssertNotCalled(t, "Send", mock.Anything, "openai", mock.Anything)
	f.usage.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything, mock.Anything)
}

func TestExtract_PassportLocalFallsThroughToCloud(t *testing.T) {
	f := newExtractionFixture()
	local := f.provider("ollama", "")
	local.IsLocal = true
	local.IsPrimary = true
	cloud := f.provider("gemini", "g-key")
	f.repo.On("ListEnabled", mock.Anything, f.orgID).Return([]domain.ProviderConfig{local, cloud}, nil)
	f.sender.On("Send", mock.Anything, "ollama", mock.Anything).
		Return(ollamaBody("The image is too blurry to read."), nil).Once()
	f.sender.On("Send", mock.Anything, "gemini", mock.Anything).
		Return(geminiBody("```json\n{\"passportNumber\":\"P998877\",\"firstName\":\"Grace\",\"lastName\":\"Hopper\"}\n```"), nil).Once()
	f.usage.On("Increment", mock.Anything, f.orgID, cloud.ID).Return(7, nil)

	result, err := f.svc.Extract(context.Background(), f.orgID, passportInput())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "gemini", result.Provider)
	assert.Equal(t, parser.ConfidenceFor(domain.ProviderGemini), result.Confidence)
	assert.Equal(t, map[string]any{"passportNumber": "P998877", "firstName": "Grace", "lastName": "Hopper"}, result.Fields)
	f.usage.AssertNumberOfCalls(t, "Increment", 1)
	f.usage.AssertCalled(t, "Increment", mock.Anything, f.orgID, cloud.ID)
	f.usage.AssertNotCalled(t, "Increment", mock.Anything, f.orgID, local.ID)
	f.sender.AssertExpectations(t)
}

func TestExtract_UnknownDocumentType_EmptySchemaProceeds(t *testing.T) {
	f := newExtractionFixture()
	gemini := f.provider("gemini", "g-key")
	f.repo.On("ListEnabled", mock.Anything, f.orgID).Return([]domain.ProviderConfig{gemini}, nil)

	var sentPrompt string
	f.sender.On("Send", mock.Anything, "gemini", mock.MatchedBy(func(req *parser.Request) bool {
		var body struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		if err := json.Unmarshal(req.Body, &body); err != nil || len(body.Contents) == 0 {
			return false
		}
		parts := body.Contents[0].Parts
		sentPrompt = parts[len(parts)-1].Text
		return true
	})).Return(geminiBody(`{"title":"Lemon cake"}`), nil)
	f.usage.On("Increment", mock.Anything, f.orgID, gemini.ID).Return(1, nil)

	input := &domain.ExtractionInput{DocumentType: "RECIPE_CARD", ImageBase64: "aGk=", MIMEType: domain.MIMETypePNG}
	result, err := f.svc.Extract(context.Background(), f.orgID, input)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, sentPrompt, "RECIPE_CARD")
	assert.NotContains(t, sentPrompt, "\n- ")
}

func TestExtract_UsageFailureDoesNotDowngradeSuccess(t *testing.T) {
	f := newExtractionFixture()
	gemini := f.provider("gemini", "g-key")
	f.repo.On("ListEnabled", mock.Anything, f.orgID).Return([]domain.ProviderConfig{gemini}, nil)
	f.sender.On("Send", mock.Anything, "gemini", mock.Anything).Return(geminiBody(`{"firstName":"Ada"}`), nil)
	f.usage.On("Increment", mock.Anything, f.orgID, gemini.ID).Return(0, errors.New("deadlock detected"))

	result, err := f.svc.Extract(context.Background(), f.orgID, passportInput())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "gemini", result.Provider)
	assert.Empty(t, result.Error)
}

func TestExtract_UsageRecordedEvenIfCallerCancelsAfterSuccess(t *testing.T) {
	f := newExtractionFixture()
	gemini := f.provider("gemini", "g-key")
	ctx, cancel := context.WithCancel(context.Background())
	f.repo.On("ListEnabled", mock.Anything, f.orgID).Return([]domain.ProviderConfig{gemini}, nil)
	f.sender.On("Send", mock.Anything, "gemini", mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(geminiBody(`{"firstName":"Ada"}`), nil)
	f.usage.On("Increment", mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil }), f.orgID, gemini.ID).
		Return(1, nil)

	result, err := f.svc.Extract(ctx, f.orgID, passportInput())

	require.NoError(t, err)
	assert.True(t, result.Success)
	f.usage.AssertNumberOfCalls(t, "Increment", 1)
}

func TestExtract_UnknownProviderTagSkipped(t *testing.T) {
	f := newExtractionFixture()
	stale := f.provider("mistral", "m-key")
	openai := f.provider("openai", "o-key")
	f.repo.On("ListEnabled", mock.Anything, f.orgID).Return([]domain.ProviderConfig{stale, openai}, nil)
	f.sender.On("Send", mock.Anything, "openai", mock.Anything).Return(openaiBody(`{"firstName":"Ada"}`), nil)
	f.usage.On("Increment", mock.Anything, f.orgID, openai.ID).Return(1, nil)

	result, err := f.svc.Extract(context.Background(), f.orgID, passportInput())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "openai", result.Provider)
	f.sender.AssertNotCalled(t, "Send", mock.Anything, "mistral", mock.Anything)
}

func TestExtract_OverCapProviderSkipped(t *testing.T) {
	f := newExtractionFixture()
	capped := f.provider("gemini", "g-key")
	limit := 100
	capped.UsageLimit = &limit
	capped.UsageCount = 100
	openai := f.provider("openai", "o-key")
	f.repo.On("ListEnabled", mock.Anything, f.orgID).Return([]domain.ProviderConfig{capped, openai}, nil)
	f.sender.On("Send", mock.Anything, "openai", mock.Anything).Return(openaiBody(`{"total":1}`), nil)
	f.usage.On("Increment", mock.Anything, f.orgID, openai.ID).Return(1, nil)

	result, err := f.svc.Extract(context.Background(), f.orgID, passportInput())

	require.NoError(t, err)
	assert.Equal(t, "openai", result.Provider)
	assert.Equal(t, 0.90, result.Confidence)
	f.sender.AssertNotCalled(t, "Send", mock.Anything, "gemini", mock.Anything)
}

func TestExtract_CappedProviderReservedBeforeSend(t *testing.T) {
	f := newExtractionFixture()
	capped := f.provider("gemini", "g-key")
	limit := 10
	capped.UsageLimit = &limit
	capped.UsageCount = 4
	f.repo.On("ListEnabled", mock.Anything, f.orgID).Return([]domain.ProviderConfig{capped}, nil)
	f.usage.On("Reserve", mock.Anything, f.orgID, capped.ID).Return(5, nil).Once()
	f.sender.On("Send", mock.Anything, "gemini", mock.MatchedBy(func(req *parser.Request) bool {
		return req.Scope == capped.ID.String()
	})).Return(geminiBody(`{"firstName":"Ada"}`), nil)

	result, err := f.svc.Extract(context.Background(), f.orgID, passportInput())

	require.NoError(t, err)
	assert.True(t, result.Success)
	f.usage.AssertNumberOfCalls(t, "Reserve", 1)
	f.usage.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything, mock.Anything)
	f.usage.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

func TestExtract_ReservationRejectedSkipsProvider(t *testing.T) {
	f := newExtractionFixture()
	capped := f.provider("gemini", "g-key")
	limit := 10
	capped.UsageLimit = &limit
	capped.UsageCount = 9 // stale: concurrent calls used the last slot
	openai := f.provider("openai", "o-key")
	f.repo.On("ListEnabled", mock.Anything, f.orgID).Return([]domain.ProviderConfig{capped, openai}, nil)
	f.usage.On("Reserve", mock.Anything, f.orgID, capped.ID).
		Return(0, fmt.Errorf("reserving usage: %w", domain.ErrQuotaExceeded))
	f.sender.On("Send", mock.Anything, "openai", mock.Anything).Return(openaiBody(`{"a":1}`), nil)
	f.usage.On("Increment", mock.Anything, f.orgID, openai.ID).Return(1, nil)

	result, err := f.svc.Extract(context.Background(), f.orgID, passportInput())

	require.NoError(t, err)
	assert.Equal(t, "openai", result.Provider)
	f.sender.AssertNotCalled(t, "Send", mock.Anything, "gemini", mock.Anything)
	f.usage.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

func TestExtract_FailedCappedAttemptReleasesReservation(t *testing.T) {
	f := newExtractionFixture()
	capped := f.provider("claude", "c-key")
	limit := 10
	capped.UsageLimit = &limit
	f.repo.On("ListEnabled", mock.Anything, f.orgID).Return([]domain.ProviderConfig{capped}, nil)
	f.usage.On("Reserve", mock.Anything, f.orgID, capped.ID).Return(1, nil)
	f.sender.On("Send", mock.Anything, "claude", mock.Anything).
		Return([]byte(`{"content":[{"type":"text","text":"no json here"}]}`), nil)
	f.usage.On("Release", mock.Anything, f.orgID, capped.ID).Return(nil)

	result, err := f.svc.Extract(context.Background(), f.orgID, passportInput())

	require.NoError(t, err)
	assert.False(t, result.Success)
	f.usage.AssertNumberOfCalls(t, "Release", 1)
	f.usage.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything, mock.Anything)
}

func TestExtract_RateLimitedProviderCoolsDown(t *testing.T) {
	f := newExtractionFixture()
	gemini := f.provider("gemini", "g-key")
	openai := f.provider("openai", "o-key")
	f.repo.On("ListEnabled", mock.Anything, f.orgID).Return([]domain.ProviderConfig{gemini, openai}, nil)
	f.sender.On("Send", mock.Anything, "gemini", mock.Anything).
		Return(nil, parser.NewRateLimitError("gemini", errors.New("429"), 120))
	f.sender.On("Send", mock.Anything, "openai", mock.Anything).Return(openaiBody(`{"a":1}`), nil)
	f.usage.On("Increment", mock.Anything, f.orgID, openai.ID).Return(1, nil)

	for i := 0; i < 2; i++ {
		result, err := f.svc.Extract(context.Background(), f.orgID, passportInput())
		require.NoError(t, err)
		assert.Equal(t, "openai", result.Provider)
	}

	var geminiCalls int
	for _, c := range f.sender.Calls {
		if c.Arguments.String(1) == "gemini" {
			geminiCalls++
		}
	}
	assert.Equal(t, 1, geminiCalls)
}

func TestExtractWithOverride_TriesOverrideFirst(t *testing.T) {
	f := newExtractionFixture()
	gemini := f.provider("gemini", "g-key")
	openai := f.provider("openai", "o-key")
	f.repo.On("ListEnabled", mock.Anything, f.orgID).Return([]domain.ProviderConfig{gemini, openai}, nil)
	f.repo.On("GetByID", mock.Anything, f.orgID, openai.ID).Return(&openai, nil)
	f.sender.On("Send", mock.Anything, "openai", mock.Anything).
		Return(nil, &parser.TransportError{Provider: "openai", StatusCode: 500, Err: errors.New("boom")}).Once()
	f.sender.On("Send", mock.Anything, "gemini", mock.Anything).Return(geminiBody(`{"a":1}`), nil).Once()
	f.usage.On("Increment", mock.Anything, f.orgID, gemini.ID).Return(1, nil)

	result, err := f.svc.ExtractWithOverride(context.Background(), f.orgID, &openai.ID, passportInput())

	require.NoError(t, err)
	assert.Equal(t, "gemini", result.Provider)
	require.Len(t, f.sender.Calls, 2)
	assert.Equal(t, "openai", f.sender.Calls[0].Arguments.String(1))
	assert.Equal(t, "gemini", f.sender.Calls[1].Arguments.String(1))
}

func TestExtractWithOverride_LookupMissKeepsDefaultOrder(t *testing.T) {
	f := newExtractionFixture()
	gemini := f.provider("gemini", "g-key")
	missing := uuid.New()
	f.repo.On("ListEnabled", mock.Anything, f.orgID).Return([]domain.ProviderConfig{gemini}, nil)
	f.repo.On("GetByID", mock.Anything, f.orgID, missing).Return(nil, domain.ErrNotFound)
	f.sender.On("Send", mock.Anything, "gemini", mock.Anything).Return(geminiBody(`{"a":1}`), nil)
	f.usage.On("Increment", mock.Anything, f.orgID, gemini.ID).Return(1, nil)

	result, err := f.svc.ExtractWithOverride(context.Background(), f.orgID, &missing, passportInput())

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "gemini", result.Provider)
}

func TestExtract_PDFRefResolvedFromStorage(t *testing.T) {
	f := newExtractionFixture()
	claude := f.provider("claude", "c-key")
	f.repo.On("ListEnabled", mock.Anything, f.orgID).Return([]domain.ProviderConfig{claude}, nil)
	f.storage.On("Download", mock.Anything, "archive", "2026/statement.pdf").Return([]byte("%PDF-1.7"), nil)
	f.sender.On("Send", mock.Anything, "claude", mock.MatchedBy(func(req *parser.Request) bool {
		return strings.Contains(string(req.Body), `"type":"document"`) &&
			strings.Contains(string(req.Body), "JVBERi0xLjc=")
	})).Return([]byte(`{"content":[{"type":"text","text":"{\"bankName\":\"Nordbank\"}"}]}`), nil)
	f.usage.On("Increment", mock.Anything, f.orgID, claude.ID).Return(1, nil)

	input := &domain.ExtractionInput{DocumentType: "BANK_STATEMENT", PDFRef: "s3://archive/2026/statement.pdf"}
	result, err := f.svc.Extract(context.Background(), f.orgID, input)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Nordbank", result.Fields["bankName"])
	assert.Empty(t, input.ImageBase64, "caller input must not be mutated")
}

func TestExtract_PDFRefDownloadFails(t *testing.T) {
	f := newExtractionFixture()
	f.storage.On("Download", mock.Anything, "docextract-uploads", "missing.pdf").Return(nil, errors.New("timeout"))

	result, err := f.svc.Extract(context.Background(), f.orgID,
		&domain.ExtractionInput{DocumentType: "INVOICE", PDFRef: "missing.pdf"})

	assert.ErrorIs(t, err, domain.ErrDownloadFailed)
	assert.False(t, result.Success)
	f.repo.AssertNotCalled(t, "ListEnabled", mock.Anything, mock.Anything)
}

func TestExtract_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		input   *domain.ExtractionInput
		wantErr error
	}{
		{"nil", nil, domain.ErrInvalidInput},
		{"no document type", &domain.ExtractionInput{ImageBase64: "aGk=", MIMEType: domain.MIMETypePNG}, domain.ErrInvalidInput},
		{"unsupported mime", &domain.ExtractionInput{DocumentType: "INVOICE", ImageBase64: "aGk=", MIMEType: "image/gif"}, domain.ErrUnsupportedFileType},
		{"bad base64", &domain.ExtractionInput{DocumentType: "INVOICE", ImageBase64: "%%%", MIMEType: domain.MIMETypePNG}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newExtractionFixture()

			result, err := f.svc.Extract(context.Background(), f.orgID, tt.input)

			assert.ErrorIs(t, err, tt.wantErr)
			require.NotNil(t, result)
			assert.False(t, result.Success)
			assert.Equal(t, "none", result.Provider)
			f.repo.AssertNotCalled(t, "ListEnabled", mock.Anything, mock.Anything)
		})
	}
}

func TestCheckUsageLimitAndReset_Delegate(t *testing.T) {
	f := newExtractionFixture()
	providerID := uuid.New()
	f.usage.On("OverLimit", mock.Anything, f.orgID, providerID).Return(true, nil)
	f.usage.On("ResetAll", mock.Anything).Return(int64(3), nil)

	over, err := f.svc.CheckUsageLimit(context.Background(), f.orgID, providerID)
	require.NoError(t, err)
	assert.True(t, over)

	n, err := f.svc.ResetMonthlyUsage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
