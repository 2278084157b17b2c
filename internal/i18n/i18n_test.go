package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	require.NoError(t, Initialize("tr"))

	assert.Equal(t, "Ürün bulunamadı", T("tr", KeyProductNotFound))
	assert.Equal(t, "Product not found", T("en", KeyProductNotFound))
	assert.Equal(t, "Invalid input", T("en", KeyValidationInvalid, "input"))

	// Unknown languages fall back to the default, unknown keys to themselves.
	assert.Equal(t, "Stokta yeterli ürün yok", T("de", KeyStockInsufficient))
	assert.Equal(t, "no.such.key", T("en", "no.such.key"))

	assert.ElementsMatch(t, []string{"en", "tr"}, GetSupportedLanguages())
	assert.Equal(t, "tr", DefaultLanguage())
}

func TestLocalesHaveSameKeys(t *testing.T) {
	require.NoError(t, Initialize("tr"))

	en := instance.translations["en"]
	tr := instance.translations["tr"]
	require.NotEmpty(t, en)
	for key := range en {
		_, ok := tr[key]
		assert.True(t, ok, "tr is missing %s", key)
	}
	assert.Len(t, tr, len(en))
}
