package port

import "docextract/internal/domain"

// ProviderCatalog exposes read-only reference data about supported backends.
type ProviderCatalog interface {
	List() []domain.ProviderInfo
	Get(name string) (domain.ProviderInfo, bool)
}
