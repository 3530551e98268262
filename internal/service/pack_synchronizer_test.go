package service

import (
	"testing"

	"stock-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPack(id, size, unit, stock string) *models.Pack {
	uc := NewUnitConverter()
	pack := &models.Pack{
		PackID:   id,
		PackSize: size,
		PackUnit: unit,
		Stock:    decimal.RequireFromString(stock),
	}
	factor, err := uc.CalculateConversionFactor(size, unit)
	if err == nil {
		pack.ConversionFactor = factor
	}
	return pack
}

func TestSynchronizeReduction(t *testing.T) {
	s := NewPackSynchronizer(NewUnitConverter())

	// 10 kg packs holding 10 units (100 kg) alongside 5 kg packs holding
	// 20 units (also 100 kg). Removing 10 kg leaves 90 kg total.
	packs := []*models.Pack{
		testPack("p1", "10", "kg", "10"),
		testPack("p2", "5", "kg", "20"),
	}

	updates := s.Synchronize(packs, decimal.RequireFromString("-10"), "p1")
	require.Len(t, updates, 2)

	assert.Equal(t, "p1", updates[0].PackID)
	assert.Equal(t, "9", updates[0].NewStock.String())
	assert.Equal(t, "-1", updates[0].Change.String())

	assert.Equal(t, "p2", updates[1].PackID)
	assert.Equal(t, "18", updates[1].NewStock.String())
	assert.Equal(t, "-2", updates[1].Change.String())
}

func TestSynchronizeIncrease(t *testing.T) {
	s := NewPackSynchronizer(NewUnitConverter())

	packs := []*models.Pack{
		testPack("p1", "1", "kg", "10"),
		testPack("p2", "500", "gm", "20"),
	}

	updates := s.Synchronize(packs, decimal.NewFromInt(5), "p1")
	require.Len(t, updates, 2)

	assert.Equal(t, "15", updates[0].NewStock.String())
	assert.Equal(t, "30", updates[1].NewStock.String())
}

func TestSynchronizeDiscreteRounding(t *testing.T) {
	s := NewPackSynchronizer(NewUnitConverter())

	packs := []*models.Pack{
		testPack("single", "1", "nos", "10"),
		testPack("dozen", "12", "nos", "1"),
	}

	// New total is 15 units; the dozen pack derives 15/12 = 1.25 and
	// rounds to a whole count.
	updates := s.Synchronize(packs, decimal.NewFromInt(5), "single")
	require.Len(t, updates, 2)

	assert.Equal(t, "15", updates[0].NewStock.String())
	assert.Equal(t, "1", updates[1].NewStock.String())
}

func TestSynchronizeMissingTrigger(t *testing.T) {
	s := NewPackSynchronizer(NewUnitConverter())

	packs := []*models.Pack{testPack("p1", "1", "kg", "10")}

	updates := s.Synchronize(packs, decimal.NewFromInt(1), "nope")
	assert.Empty(t, updates)
}

func TestSynchronizeSkipsInvalidPack(t *testing.T) {
	s := NewPackSynchronizer(NewUnitConverter())

	broken := &models.Pack{PackID: "bad", PackSize: "abc", PackUnit: "kg", Stock: decimal.NewFromInt(3)}
	packs := []*models.Pack{
		testPack("p1", "1", "kg", "10"),
		broken,
		testPack("p2", "2", "kg", "5"),
	}

	updates := s.Synchronize(packs, decimal.NewFromInt(2), "p1")
	require.Len(t, updates, 2)
	assert.Equal(t, "p1", updates[0].PackID)
	assert.Equal(t, "12", updates[0].NewStock.String())
	assert.Equal(t, "p2", updates[1].PackID)
	assert.Equal(t, "6", updates[1].NewStock.String())
}

func TestValidateConsistencyAgreement(t *testing.T) {
	s := NewPackSynchronizer(NewUnitConverter())

	// Both packs imply 10 kg.
	packs := []*models.Pack{
		testPack("p1", "1", "kg", "10"),
		testPack("p2", "2", "kg", "5"),
	}

	result := s.ValidateConsistency(packs)
	assert.True(t, result.IsConsistent)
	assert.Equal(t, models.ConsistencyStatusConsistent, result.Status)
	assert.Empty(t, result.Inconsistencies)
	assert.Equal(t, "10", result.ReferenceBaseUnits.String())
}

func TestValidateConsistencyViolation(t *testing.T) {
	s := NewPackSynchronizer(NewUnitConverter())

	// Reference implies 10 kg but the second pack holds 12 kg worth.
	packs := []*models.Pack{
		testPack("p1", "1", "kg", "10"),
		testPack("p2", "2", "kg", "6"),
	}

	result := s.ValidateConsistency(packs)
	assert.False(t, result.IsConsistent)
	assert.Equal(t, models.ConsistencyStatusInconsistent, result.Status)
	require.Len(t, result.Inconsistencies, 1)

	violation := result.Inconsistencies[0]
	assert.Equal(t, "p2", violation.PackID)
	assert.Equal(t, "5", violation.ExpectedStock.String())
	assert.Equal(t, "6", violation.ActualStock.String())
	assert.Equal(t, "2", violation.DifferenceBaseUnits.String())
}

func TestValidateConsistencyWithinTolerance(t *testing.T) {
	s := NewPackSynchronizer(NewUnitConverter())

	// 0.005 kg of drift stays under the 0.01 base-unit tolerance.
	packs := []*models.Pack{
		testPack("p1", "1", "kg", "10"),
		testPack("p2", "2", "kg", "4.9975"),
	}

	result := s.ValidateConsistency(packs)
	assert.True(t, result.IsConsistent)
	assert.Empty(t, result.Inconsistencies)
}

func TestValidateConsistencyNoValidPacks(t *testing.T) {
	s := NewPackSynchronizer(NewUnitConverter())

	packs := []*models.Pack{
		{PackID: "bad1", PackSize: "", PackUnit: "kg"},
		{PackID: "bad2", PackSize: "x", PackUnit: "kg"},
	}

	result := s.ValidateConsistency(packs)
	assert.True(t, result.IsConsistent)
	assert.Equal(t, "0", result.ReferenceBaseUnits.String())
}
