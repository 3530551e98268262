package service

import (
	"testing"

	"stock-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePacksArray(t *testing.T) {
	codec := NewPackCodec()

	raw := `[{"pi":"p1","ps":"1","pu":"kg","stk":10,"in_stk":1,"tx":"5","op":"100","rp":"120","sn":1,"promo":"weekend"},` +
		`{"pi":"p2","ps":500,"pu":"gm","stk":"20","in_stk":"1","sn":2}]`

	packs, err := codec.ParsePacks(raw)
	require.NoError(t, err)
	require.Len(t, packs, 2)

	assert.Equal(t, "p1", packs[0].PackID)
	assert.Equal(t, "1", packs[0].PackSize)
	assert.Equal(t, "kg", packs[0].PackUnit)
	assert.Equal(t, "10", packs[0].Stock.String())
	assert.Equal(t, 1, packs[0].InStock)
	assert.Equal(t, "120", packs[0].RetailPrice)
	assert.Contains(t, packs[0].Extra, "promo")

	// Numeric and string forms are both accepted for the legacy columns.
	assert.Equal(t, "500", packs[1].PackSize)
	assert.Equal(t, "20", packs[1].Stock.String())
	assert.Equal(t, 1, packs[1].InStock)
	assert.Equal(t, 2, packs[1].SerialNumber)
}

func TestParsePacksEmptyInput(t *testing.T) {
	codec := NewPackCodec()

	for _, raw := range []string{"", "  ", "null", "[]"} {
		packs, err := codec.ParsePacks(raw)
		require.NoError(t, err, "input %q", raw)
		assert.Empty(t, packs, "input %q", raw)
	}
}

func TestParsePacksLegacyObjectForm(t *testing.T) {
	codec := NewPackCodec()

	raw := `{"p2":{"pi":"p2","ps":"500","pu":"gm","stk":20},"p1":{"pi":"p1","ps":"1","pu":"kg","stk":10}}`

	packs, err := codec.ParsePacks(raw)
	require.NoError(t, err)
	require.Len(t, packs, 2)

	// Stored key order survives, not lexical order.
	assert.Equal(t, "p2", packs[0].PackID)
	assert.Equal(t, "p1", packs[1].PackID)
}

func TestParsePacksMalformed(t *testing.T) {
	codec := NewPackCodec()

	_, err := codec.ParsePacks(`[{"pi":"p1"`)
	require.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
	assert.Equal(t, `[{"pi":"p1"`, parseErr.Raw)
}

func TestParsePacksScalarPayload(t *testing.T) {
	codec := NewPackCodec()

	// Valid JSON that is not a collection degrades to empty, not an error.
	packs, err := codec.ParsePacks(`"not a collection"`)
	require.NoError(t, err)
	assert.Empty(t, packs)
}

func TestParsePacksSkipsInvalidElement(t *testing.T) {
	codec := NewPackCodec()

	packs, err := codec.ParsePacks(`[{"pi":"p1","ps":"1","pu":"kg","stk":10},123]`)
	require.NoError(t, err)
	require.Len(t, packs, 1)
	assert.Equal(t, "p1", packs[0].PackID)
}

func TestSerializePacksRoundTrip(t *testing.T) {
	codec := NewPackCodec()

	raw := `[{"pi":"p1","ps":"1","pu":"kg","stk":10.5,"in_stk":1,"tx":"","op":"100","rp":"120","sn":1,"custom":{"a":1}}]`

	packs, err := codec.ParsePacks(raw)
	require.NoError(t, err)

	encoded, err := codec.SerializePacks(packs)
	require.NoError(t, err)

	// Stock is a bare JSON number and pass-through fields survive.
	assert.Contains(t, encoded, `"stk":10.5`)
	assert.Contains(t, encoded, `"custom":{"a":1}`)

	reparsed, err := codec.ParsePacks(encoded)
	require.NoError(t, err)
	require.Len(t, reparsed, 1)
	assert.Equal(t, packs[0].PackID, reparsed[0].PackID)
	assert.Equal(t, packs[0].Stock.String(), reparsed[0].Stock.String())
	assert.Equal(t, packs[0].Extra["custom"], reparsed[0].Extra["custom"])
}

func TestSerializePacksEmpty(t *testing.T) {
	codec := NewPackCodec()

	encoded, err := codec.SerializePacks(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", encoded)
}

func TestApplyStockUpdates(t *testing.T) {
	codec := NewPackCodec()

	packs := []*models.Pack{
		{PackID: "p1", Stock: decimal.NewFromInt(10), InStock: 1},
		{PackID: "p2", Stock: decimal.NewFromInt(5), InStock: 1},
		{PackID: "p3", Stock: decimal.NewFromInt(3), InStock: 1},
	}

	updates := map[string]decimal.Decimal{
		"p1": decimal.NewFromInt(0),
		"p2": decimal.RequireFromString("-2"),
	}

	codec.ApplyStockUpdates(packs, updates)

	assert.Equal(t, "0", packs[0].Stock.String())
	assert.Equal(t, 0, packs[0].InStock)

	// Negative stock is written as-is, never clamped.
	assert.Equal(t, "-2", packs[1].Stock.String())
	assert.Equal(t, 0, packs[1].InStock)

	// Packs absent from the updates map are untouched.
	assert.Equal(t, "3", packs[2].Stock.String())
	assert.Equal(t, 1, packs[2].InStock)
}

func TestHasAnyStock(t *testing.T) {
	codec := NewPackCodec()

	assert.False(t, codec.HasAnyStock(nil))
	assert.False(t, codec.HasAnyStock([]*models.Pack{
		{PackID: "p1", Stock: decimal.Zero},
		{PackID: "p2", Stock: decimal.RequireFromString("-1")},
	}))
	assert.True(t, codec.HasAnyStock([]*models.Pack{
		{PackID: "p1", Stock: decimal.Zero},
		{PackID: "p2", Stock: decimal.RequireFromString("0.001")},
	}))
}
