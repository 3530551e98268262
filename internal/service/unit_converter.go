package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Converter errors
var (
	ErrInvalidUnit     = errors.New("unsupported unit type")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// unitBaseMap maps every supported unit symbol to its base unit: kg for
// weight, litre for volume, the unit itself for discrete types.
var unitBaseMap = map[string]string{
	"kg":     "kg",
	"gm":     "kg",
	"litre":  "litre",
	"ml":     "litre",
	"nos":    "nos",
	"piece":  "piece",
	"pack":   "pack",
	"dozen":  "dozen",
	"box":    "box",
	"bag":    "bag",
	"bunch":  "bunch",
	"tin":    "tin",
	"pouch":  "pouch",
	"cs":     "cs",
	"barrel": "barrel",
	"jar":    "jar",
}

// discreteUnits are counted in whole numbers and round when derived from
// base-unit quantities.
var discreteUnits = map[string]struct{}{
	"nos": {}, "piece": {}, "pack": {}, "dozen": {}, "box": {}, "bag": {},
	"bunch": {}, "tin": {}, "pouch": {}, "cs": {}, "barrel": {}, "jar": {},
}

// unitToBaseFactor holds the scale applied for units that are not their
// own base: 1 gm = 0.001 kg, 1 ml = 0.001 litre.
var unitToBaseFactor = map[string]decimal.Decimal{
	"gm": decimal.New(1, -3),
	"ml": decimal.New(1, -3),
}

// UnitConverter performs deterministic conversions between pack units and
// base units. It holds no state.
type UnitConverter struct{}

// NewUnitConverter creates a unit converter.
func NewUnitConverter() *UnitConverter {
	return &UnitConverter{}
}

func normalizeUnit(unit string) string {
	return strings.ToLower(strings.TrimSpace(unit))
}

// CalculateConversionFactor computes the base-unit quantity represented by
// one unit of a pack. A "5 kg" pack has factor 5, a "500 gm" pack 0.5, a
// "12 nos" pack 12.
func (c *UnitConverter) CalculateConversionFactor(packSize, packUnit string) (decimal.Decimal, error) {
	size, err := decimal.NewFromString(strings.TrimSpace(packSize))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: pack size %q is not numeric", ErrInvalidQuantity, packSize)
	}
	if size.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: pack size %q must be positive", ErrInvalidQuantity, packSize)
	}

	unit := normalizeUnit(packUnit)
	if _, ok := unitBaseMap[unit]; !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidUnit, packUnit)
	}

	if scale, ok := unitToBaseFactor[unit]; ok {
		return size.Mul(scale), nil
	}
	return size, nil
}

// ToBaseUnits converts a pack-unit quantity to base units. The caller
// guarantees the factor is positive.
func (c *UnitConverter) ToBaseUnits(quantity, conversionFactor decimal.Decimal) decimal.Decimal {
	return quantity.Mul(conversionFactor)
}

// FromBaseUnits converts a base-unit quantity back to a pack-unit
// quantity, rounding half away from zero to a whole number for discrete
// unit types.
func (c *UnitConverter) FromBaseUnits(baseUnits, conversionFactor decimal.Decimal, unitType string) (decimal.Decimal, error) {
	if conversionFactor.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: conversion factor cannot be zero", ErrInvalidQuantity)
	}

	quantity := baseUnits.Div(conversionFactor)
	if unitType != "" && IsDiscreteUnit(unitType) {
		return quantity.Round(0), nil
	}
	return quantity, nil
}

// BaseUnit returns the base unit symbol for a unit type.
func (c *UnitConverter) BaseUnit(unitType string) (string, error) {
	base, ok := unitBaseMap[normalizeUnit(unitType)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidUnit, unitType)
	}
	return base, nil
}

// IsSupportedUnit reports whether the symbol is one of the enumerated
// units.
func IsSupportedUnit(unitType string) bool {
	_, ok := unitBaseMap[normalizeUnit(unitType)]
	return ok
}

// IsDiscreteUnit reports whether the unit counts whole items.
func IsDiscreteUnit(unitType string) bool {
	_, ok := discreteUnits[normalizeUnit(unitType)]
	return ok
}
