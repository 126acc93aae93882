package domain

import "errors"

var (
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidInput          = errors.New("invalid extraction input")
	ErrUnsupportedFileType   = errors.New("unsupported file type")
	ErrUnknownProvider       = errors.New("unknown provider")
	ErrNoProvidersConfigured = errors.New("no providers configured")
	ErrAllProvidersFailed    = errors.New("all providers failed")
	ErrQuotaExceeded         = errors.New("monthly usage limit reached")
	ErrDownloadFailed        = errors.New("document download from storage failed")
)
