package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docextract/internal/domain"
	"docextract/internal/metrics"
	"docextract/internal/parser"
	"docextract/internal/port"
)

const usageRecordTimeout = 5 * time.Second

// ProviderSender sends a built provider request and returns the raw response body.
// *parser.Client implements it.
type ProviderSender interface {
	Send(ctx context.Context, provider string, req *parser.Request) ([]byte, error)
}

// ExtractionService runs a document through an organization's providers in
// priority order and returns the first parseable result.
type ExtractionService interface {
	// Extract always returns a result. The error is non-nil only when the input
	// itself is rejected before any provider is consulted; provider failures are
	// reported in the result.
	Extract(ctx context.Context, orgID uuid.UUID, input *domain.ExtractionInput) (*domain.ExtractionResult, error)
	// ExtractWithOverride tries providerID first when it resolves; an override
	// that cannot be loaded is ignored and the default order is used.
	ExtractWithOverride(ctx context.Context, orgID uuid.UUID, providerID *uuid.UUID, input *domain.ExtractionInput) (*domain.ExtractionResult, error)
	CheckUsageLimit(ctx context.Context, orgID, providerID uuid.UUID) (bool, error)
	ResetMonthlyUsage(ctx context.Context) (int64, error)
}

type extractionService struct {
	configRepo port.ProviderConfigRepository
	usage      UsageService
	registry   *parser.Registry
	sender     ProviderSender
	storage    port.ObjectStorage
	bucket     string
	cooldowns  *parser.Cooldowns
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewExtractionService creates a new ExtractionService. PDF references are
// resolved against bucket unless they carry an s3:// prefix.
func NewExtractionService(
	configRepo port.ProviderConfigRepository,
	usage UsageService,
	registry *parser.Registry,
	sender ProviderSender,
	storage port.ObjectStorage,
	bucket string,
	m *metrics.Metrics,
	logger *zap.Logger,
) ExtractionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &extractionService{
		configRepo: configRepo,
		usage:      usage,
		registry:   registry,
		sender:     sender,
		storage:    storage,
		bucket:     bucket,
		cooldowns:  parser.NewCooldowns(),
		metrics:    m,
		logger:     logger.Named("extraction"),
	}
}

func (s *extractionService) Extract(ctx context.Context, orgID uuid.UUID, input *domain.ExtractionInput) (*domain.ExtractionResult, error) {
	return s.ExtractWithOverride(ctx, orgID, nil, input)
}

func (s *extractionService) ExtractWithOverride(ctx context.Context, orgID uuid.UUID, providerID *uuid.UUID, input *domain.ExtractionInput) (*domain.ExtractionResult, error) {
	start := time.Now()
	log := s.logger.With(zap.String("organization_id", orgID.String()))

	if err := ValidateInput(input); err != nil {
		return domain.FailedResult(err.Error(), time.Since(start)), err
	}
	prepared, err := s.resolvePayload(ctx, input)
	if err != nil {
		log.Warn("document payload could not be resolved", zap.String("pdf_ref", input.PDFRef), zap.Error(err))
		return domain.FailedResult(err.Error(), time.Since(start)), err
	}

	configs := s.resolveProviders(ctx, log, orgID, providerID)
	if len(configs) == 0 {
		return s.fail(log, domain.ErrNoProvidersConfigured, start), nil
	}

	schema := parser.FieldsFor(prepared.DocumentType)
	prompt := parser.BuildPrompt(prepared.DocumentType, schema)
	log = log.With(zap.String("document_type", prepared.DocumentType), zap.Int("schema_fields", len(schema)))

	for i := range configs {
		if ctx.Err() != nil {
			log.Warn("extraction abandoned by caller", zap.Error(ctx.Err()))
			break
		}

		cfg := configs[i]
		attemptStart := time.Now()
		result, counted, err := s.attempt(ctx, &cfg, prepared, prompt)
		outcome := parser.ClassifyAttemptError(err)
		s.metrics.ObserveAttempt(cfg.Provider, outcome, time.Since(attemptStart))

		attemptLog := log.With(
			zap.String("provider", cfg.Provider),
			zap.String("provider_id", cfg.ID.String()),
			zap.Int("attempt", i+1),
			zap.String("outcome", outcome),
			zap.Duration("latency", time.Since(attemptStart)),
		)
		if err != nil {
			attemptLog.Warn("provider attempt failed", zap.Error(err))
			continue
		}

		result.ProcessingTime = time.Since(start).Milliseconds()
		attemptLog.Info("extraction succeeded", zap.Int("fields", len(result.Fields)))
		s.metrics.ObserveExtraction(true, cfg.Provider, time.Since(start))

		// The result is final; recording usage cannot change it. Capped
		// providers were already counted by their reservation.
		if !counted {
			s.recordUsage(ctx, log, &cfg)
		}
		return result, nil
	}

	return s.fail(log, domain.ErrAllProvidersFailed, start), nil
}

// attempt runs one provider. Every failure is scoped to this attempt. counted
// reports whether a successful call was already recorded through a reservation.
func (s *extractionService) attempt(ctx context.Context, cfg *domain.ProviderConfig, input *domain.ExtractionInput, prompt string) (result *domain.ExtractionResult, counted bool, err error) {
	adapter, err := s.registry.Resolve(cfg.Provider)
	if err != nil {
		return nil, false, err
	}

	if cfg.Usage().OverLimit() {
		return nil, false, fmt.Errorf("%s: %w", cfg.Provider, domain.ErrQuotaExceeded)
	}

	cooldownKey := cfg.ID.String()
	if resetAt, open := s.cooldowns.Until(cooldownKey, time.Now()); open {
		return nil, false, parser.NewRateLimitError(cfg.Provider,
			fmt.Errorf("cooling down until %s", resetAt.Format(time.RFC3339)),
			int(time.Until(resetAt).Seconds())+1)
	}

	req, err := adapter.BuildRequest(cfg, input, prompt)
	if err != nil {
		return nil, false, err
	}
	req.Scope = cfg.ID.String()

	// The snapshot may be stale; a capped provider is only called once the
	// database has admitted the call.
	if cfg.UsageLimit != nil {
		if _, err := s.usage.Reserve(ctx, cfg.OrganizationID, cfg.ID); err != nil {
			if errors.Is(err, domain.ErrQuotaExceeded) {
				return nil, false, fmt.Errorf("%s: %w", cfg.Provider, domain.ErrQuotaExceeded)
			}
			return nil, false, fmt.Errorf("%s: %w", cfg.Provider, err)
		}
		defer func() {
			if err != nil {
				s.releaseUsage(ctx, cfg)
			}
		}()
	}

	body, err := s.sender.Send(ctx, cfg.Provider, req)
	if err != nil {
		var rlErr *parser.RateLimitError
		if errors.As(err, &rlErr) {
			s.cooldowns.Open(cooldownKey, time.Now().Add(rlErr.RetryAfter))
		}
		return nil, false, err
	}

	fields := parser.ParseFields(adapter.ExtractText(body))
	if fields == nil {
		return nil, false, fmt.Errorf("%s: %w", cfg.Provider, parser.ErrUnparsableResponse)
	}

	return &domain.ExtractionResult{
		Success:    true,
		Fields:     fields,
		Confidence: parser.ConfidenceFor(adapter.Kind()),
		Provider:   string(adapter.Kind()),
		Model:      parser.ModelFor(cfg, adapter),
	}, cfg.UsageLimit != nil, nil
}

// resolveProviders snapshots the organization's provider order. A lookup
// failure is treated as having no providers.
func (s *extractionService) resolveProviders(ctx context.Context, log *zap.Logger, orgID uuid.UUID, providerID *uuid.UUID) []domain.ProviderConfig {
	configs, err := s.configRepo.ListEnabled(ctx, orgID)
	if err != nil {
		log.Error("listing enabled providers", zap.Error(err))
		configs = nil
	}
	if providerID == nil {
		return configs
	}

	override, err := s.configRepo.GetByID(ctx, orgID, *providerID)
	if err != nil {
		log.Warn("provider override not applied, using default order",
			zap.String("provider_id", providerID.String()), zap.Error(err))
		return configs
	}

	ordered := make([]domain.ProviderConfig, 0, len(configs)+1)
	ordered = append(ordered, *override)
	for _, c := range configs {
		if c.ID != override.ID {
			ordered = append(ordered, c)
		}
	}
	return ordered
}

// resolvePayload returns the input with a PDF reference replaced by its
// inline base64 content. Inputs without a reference are returned unchanged.
func (s *extractionService) resolvePayload(ctx context.Context, input *domain.ExtractionInput) (*domain.ExtractionInput, error) {
	if input.HasPayload() || input.PDFRef == "" {
		return input, nil
	}
	if s.storage == nil {
		return nil, fmt.Errorf("resolving %s: no object storage configured: %w", input.PDFRef, domain.ErrDownloadFailed)
	}

	bucket, key := splitObjectRef(input.PDFRef, s.bucket)
	data, err := s.storage.Download(ctx, bucket, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}

	resolved := *input
	resolved.ImageBase64 = base64.StdEncoding.EncodeToString(data)
	resolved.MIMEType = domain.MIMETypePDF
	return &resolved, nil
}

func (s *extractionService) recordUsage(ctx context.Context, log *zap.Logger, cfg *domain.ProviderConfig) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), usageRecordTimeout)
	defer cancel()

	if _, err := s.usage.Increment(ctx, cfg.OrganizationID, cfg.ID); err != nil {
		s.metrics.UsageRecordFailed(cfg.Provider)
		log.Error("usage not recorded after successful extraction",
			zap.String("provider", cfg.Provider),
			zap.String("provider_id", cfg.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *extractionService) releaseUsage(ctx context.Context, cfg *domain.ProviderConfig) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), usageRecordTimeout)
	defer cancel()

	if err := s.usage.Release(ctx, cfg.OrganizationID, cfg.ID); err != nil {
		s.logger.Error("usage reservation not released after failed attempt",
			zap.String("organization_id", cfg.OrganizationID.String()),
			zap.String("provider", cfg.Provider),
			zap.String("provider_id", cfg.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *extractionService) fail(log *zap.Logger, reason error, start time.Time) *domain.ExtractionResult {
	elapsed := time.Since(start)
	s.metrics.ObserveExtraction(false, domain.ProviderNone, elapsed)
	log.Warn("extraction failed", zap.String("reason", reason.Error()), zap.Duration("elapsed", elapsed))
	return domain.FailedResult(reason.Error(), elapsed)
}

func (s *extractionService) CheckUsageLimit(ctx context.Context, orgID, providerID uuid.UUID) (bool, error) {
	return s.usage.OverLimit(ctx, orgID, providerID)
}

func (s *extractionService) ResetMonthlyUsage(ctx context.Context) (int64, error) {
	return s.usage.ResetAll(ctx)
}

// ValidateInput rejects inputs no provider could act on.
func ValidateInput(input *domain.ExtractionInput) error {
	if input == nil {
		return fmt.Errorf("%w: input is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(input.DocumentType) == "" {
		return fmt.Errorf("%w: document_type is required", domain.ErrInvalidInput)
	}
	if input.HasPayload() {
		if !domain.AllowedContentTypes[input.MIMEType] {
			return fmt.Errorf("%w: %q", domain.ErrUnsupportedFileType, input.MIMEType)
		}
		if _, err := base64.StdEncoding.DecodeString(input.ImageBase64); err != nil {
			return fmt.Errorf("%w: image_base64 is not valid base64", domain.ErrInvalidInput)
		}
	}
	return nil
}

// splitObjectRef accepts "s3://bucket/key" or a bare key in the default bucket.
func splitObjectRef(ref, defaultBucket string) (bucket, key string) {
	if rest, ok := strings.CutPrefix(ref, "s3://"); ok {
		if b, k, found := strings.Cut(rest, "/"); found && b != "" && k != "" {
			return b, k
		}
	}
	return defaultBucket, strings.TrimPrefix(ref, "/")
}
