package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docextract/internal/catalog"
	"docextract/internal/domain"
	"docextract/internal/parser/providers"
)

func TestLoad_CoversEveryRegisteredKind(t *testing.T) {
	c, err := catalog.Load()
	require.NoError(t, err)

	entries := c.List()
	assert.Len(t, entries, len(domain.AllProviderKinds))

	reg := providers.NewRegistry()
	for _, k := range domain.AllProviderKinds {
		info, ok := c.Get(string(k))
		require.True(t, ok, k)

		a, err := reg.Resolve(string(k))
		require.NoError(t, err)
		assert.Equal(t, a.RequiresAPIKey(), info.RequiresAPIKey, k)
		assert.Equal(t, a.AcceptsImage(), info.SupportsImages, k)
	}
}

func TestGet_CaseInsensitive(t *testing.T) {
	c, err := catalog.Load()
	require.NoError(t, err)

	info, ok := c.Get(" Ollama ")
	require.True(t, ok)
	assert.True(t, info.IsLocal)
	assert.False(t, info.RequiresAPIKey)

	_, ok = c.Get("mistral")
	assert.False(t, ok)
}

func TestList_ReturnsCopies(t *testing.T) {
	c, err := catalog.Load()
	require.NoError(t, err)

	first := c.List()
	first[0].DocumentTypes[0] = "MUTATED"
	first[0].DisplayName = "MUTATED"

	again := c.List()
	assert.NotEqual(t, "MUTATED", again[0].DocumentTypes[0])
	assert.NotEqual(t, "MUTATED", again[0].DisplayName)
}

func TestParse_RejectsUnknownProvider(t *testing.T) {
	_, err := catalog.Parse([]byte("providers:\n  - name: mistral\n"))
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}

func TestParse_RejectsDuplicate(t *testing.T) {
	_, err := catalog.Parse([]byte("providers:\n  - name: gemini\n  - name: GEMINI\n"))
	assert.Error(t, err)
}

func TestParse_Malformed(t *testing.T) {
	_, err := catalog.Parse([]byte("providers: [unterminated"))
	assert.Error(t, err)
}
