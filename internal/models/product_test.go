package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPLUCodesAcceptBothShapes(t *testing.T) {
	var codes PLUCodes
	err := json.Unmarshal([]byte(`["10001", {"plu": "10002", "multiplier": 6}, {"plu": 10003}, {"plu": "10004", "multiplier": 0}]`), &codes)
	require.NoError(t, err)
	require.Len(t, codes, 4)

	assert.Equal(t, "10001", codes[0].PLU)
	assert.False(t, codes[0].HasMultiplier())

	assert.Equal(t, "10002", codes[1].PLU)
	require.True(t, codes[1].HasMultiplier())
	assert.True(t, codes[1].Multiplier.Equal(decimal.NewFromInt(6)))

	assert.Equal(t, "10003", codes[2].PLU)
	assert.False(t, codes[2].HasMultiplier())

	assert.Nil(t, codes[3].Multiplier)
}

func TestPLUCodesStoredInObjectForm(t *testing.T) {
	var codes PLUCodes
	require.NoError(t, json.Unmarshal([]byte(`["10001"]`), &codes))

	v, err := codes.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"plu":"10001"}]`, v.(string))
}

func TestJSONColumnScan(t *testing.T) {
	var opts PackagingOptions
	require.NoError(t, opts.Scan([]byte(`[{"barcode":"8690000000001","quantity":12}]`)))
	require.Len(t, opts, 1)
	assert.True(t, opts[0].Quantity.Equal(decimal.NewFromInt(12)))

	var outputs RecipeOutputs
	require.NoError(t, outputs.Scan(`[]`))
	assert.Empty(t, outputs)

	var details JSONB
	require.NoError(t, details.Scan(nil))
	assert.Nil(t, details)

	assert.Error(t, details.Scan(42))
}

func TestNilListsStoreEmptyArray(t *testing.T) {
	v, err := PackagingOptions(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestProfilePassword(t *testing.T) {
	p := &Profile{}
	require.NoError(t, p.SetPassword("correct horse"))
	assert.NoError(t, p.CheckPassword("correct horse"))
	assert.Error(t, p.CheckPassword("wrong"))
}
