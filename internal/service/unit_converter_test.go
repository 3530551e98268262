package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateConversionFactor(t *testing.T) {
	uc := NewUnitConverter()

	factor, err := uc.CalculateConversionFactor("500", "gm")
	require.NoError(t, err)
	assert.Equal(t, "0.5", factor.String())

	factor, err = uc.CalculateConversionFactor("5", "kg")
	require.NoError(t, err)
	assert.Equal(t, "5", factor.String())

	factor, err = uc.CalculateConversionFactor("250", "ml")
	require.NoError(t, err)
	assert.Equal(t, "0.25", factor.String())

	factor, err = uc.CalculateConversionFactor("12", "nos")
	require.NoError(t, err)
	assert.Equal(t, "12", factor.String())

	// Unit symbols are trimmed and lowercased before lookup.
	factor, err = uc.CalculateConversionFactor(" 2 ", " KG ")
	require.NoError(t, err)
	assert.Equal(t, "2", factor.String())
}

func TestCalculateConversionFactorInvalid(t *testing.T) {
	uc := NewUnitConverter()

	_, err := uc.CalculateConversionFactor("0", "kg")
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = uc.CalculateConversionFactor("-1", "kg")
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = uc.CalculateConversionFactor("abc", "kg")
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = uc.CalculateConversionFactor("", "kg")
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = uc.CalculateConversionFactor("5", "lbs")
	assert.ErrorIs(t, err, ErrInvalidUnit)

	_, err = uc.CalculateConversionFactor("5", "")
	assert.ErrorIs(t, err, ErrInvalidUnit)
}

func TestToBaseUnits(t *testing.T) {
	uc := NewUnitConverter()

	got := uc.ToBaseUnits(decimal.RequireFromString("10"), decimal.RequireFromString("0.5"))
	assert.Equal(t, "5", got.String())

	got = uc.ToBaseUnits(decimal.RequireFromString("-3"), decimal.RequireFromString("2"))
	assert.Equal(t, "-6", got.String())
}

func TestFromBaseUnits(t *testing.T) {
	uc := NewUnitConverter()

	// Discrete units round half away from zero to whole counts.
	got, err := uc.FromBaseUnits(decimal.RequireFromString("10.5"), decimal.NewFromInt(1), "nos")
	require.NoError(t, err)
	assert.Equal(t, "11", got.String())

	got, err = uc.FromBaseUnits(decimal.RequireFromString("10.4"), decimal.NewFromInt(1), "nos")
	require.NoError(t, err)
	assert.Equal(t, "10", got.String())

	got, err = uc.FromBaseUnits(decimal.RequireFromString("-10.5"), decimal.NewFromInt(1), "piece")
	require.NoError(t, err)
	assert.Equal(t, "-11", got.String())

	// Continuous units keep the full fractional quantity.
	got, err = uc.FromBaseUnits(decimal.RequireFromString("10.5"), decimal.NewFromInt(3), "kg")
	require.NoError(t, err)
	assert.Equal(t, "3.5", got.String())

	_, err = uc.FromBaseUnits(decimal.NewFromInt(10), decimal.Zero, "kg")
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestBaseUnit(t *testing.T) {
	uc := NewUnitConverter()

	base, err := uc.BaseUnit("gm")
	require.NoError(t, err)
	assert.Equal(t, "kg", base)

	base, err = uc.BaseUnit("ml")
	require.NoError(t, err)
	assert.Equal(t, "litre", base)

	base, err = uc.BaseUnit("box")
	require.NoError(t, err)
	assert.Equal(t, "box", base)

	_, err = uc.BaseUnit("gallon")
	assert.ErrorIs(t, err, ErrInvalidUnit)
}

func TestUnitPredicates(t *testing.T) {
	assert.True(t, IsSupportedUnit("kg"))
	assert.True(t, IsSupportedUnit(" Dozen "))
	assert.False(t, IsSupportedUnit("lbs"))

	assert.True(t, IsDiscreteUnit("nos"))
	assert.True(t, IsDiscreteUnit("barrel"))
	assert.False(t, IsDiscreteUnit("kg"))
	assert.False(t, IsDiscreteUnit("ml"))
}
