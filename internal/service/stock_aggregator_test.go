package service

import (
	"testing"

	"stock-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSumPackBaseUnits(t *testing.T) {
	uc := NewUnitConverter()

	packs := []*models.Pack{
		testPack("p1", "1", "kg", "10"),     // 10 kg
		testPack("p2", "500", "gm", "20"),   // 10 kg
		testPack("p3", "2", "kg", "-1"),     // -2 kg, negative counts
		{PackID: "bad", PackSize: "x", PackUnit: "kg", Stock: decimal.NewFromInt(100)},
	}

	total := sumPackBaseUnits(uc, packs)
	assert.Equal(t, "18", total.String())
}

func TestSumPackBaseUnitsEmpty(t *testing.T) {
	uc := NewUnitConverter()

	assert.Equal(t, "0", sumPackBaseUnits(uc, nil).String())
	assert.Equal(t, "0", sumPackBaseUnits(uc, []*models.Pack{
		{PackID: "bad", PackSize: "", PackUnit: ""},
	}).String())
}
