package service

import (
	"strings"

	"stock-service/internal/models"
	"stock-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// consistencyTolerance is the maximum base-unit discrepancy allowed
// between a pack's actual stock and the reference-implied stock before it
// is flagged (0.01 base units, absorbs discrete rounding).
var consistencyTolerance = decimal.New(1, -2)

// PackSynchronizer keeps sibling packs of one offering agreed on a single
// underlying physical quantity. Packs sharing an offering are different
// package granularities of the SAME stock; the trigger pack only supplies
// the reference delta.
type PackSynchronizer struct {
	unitConverter *UnitConverter
	logger        *zap.Logger
}

// NewPackSynchronizer creates a pack synchronizer.
func NewPackSynchronizer(unitConverter *UnitConverter) *PackSynchronizer {
	return &PackSynchronizer{
		unitConverter: unitConverter,
		logger:        util.GetLogger(),
	}
}

// Synchronize computes the proportional new stock for every valid pack
// after applying baseUnitChange against the trigger pack. A missing
// trigger yields an empty result; the caller must treat that as "nothing
// to update". Update order follows input order.
func (s *PackSynchronizer) Synchronize(packs []*models.Pack, baseUnitChange decimal.Decimal, triggerPackID string) []models.PackStockUpdate {
	triggerPack := findPackByID(packs, triggerPackID)
	if triggerPack == nil {
		s.logger.Warn("Trigger pack not found", zap.String("pack_id", triggerPackID))
		return []models.PackStockUpdate{}
	}

	currentBaseUnits := s.unitConverter.ToBaseUnits(triggerPack.Stock, triggerPack.ConversionFactor)
	newTotalBaseUnits := currentBaseUnits.Add(baseUnitChange)

	updates := make([]models.PackStockUpdate, 0, len(packs))
	for _, pack := range packs {
		if !isValidPack(pack) {
			s.logger.Warn("Skipping invalid package during synchronization",
				zap.String("pack_id", pack.PackID),
				zap.String("pack_size", pack.PackSize),
				zap.String("pack_unit", pack.PackUnit))
			continue
		}

		newStock, err := s.unitConverter.FromBaseUnits(newTotalBaseUnits, pack.ConversionFactor, pack.PackUnit)
		if err != nil {
			// Unreachable for valid packs; kept for symmetry with the
			// converter contract.
			s.logger.Warn("Failed to derive pack stock",
				zap.String("pack_id", pack.PackID),
				zap.Error(err))
			continue
		}

		updates = append(updates, models.PackStockUpdate{
			PackID:   pack.PackID,
			OldStock: pack.Stock,
			NewStock: newStock,
			Change:   newStock.Sub(pack.Stock),
		})
	}

	return updates
}

// ValidateConsistency checks that all valid packs imply the same
// base-unit total within tolerance, using the first valid pack as the
// reference. Empty or all-invalid input is consistent with reference 0.
func (s *PackSynchronizer) ValidateConsistency(packs []*models.Pack) models.ConsistencyCheckResult {
	validPacks := make([]*models.Pack, 0, len(packs))
	for _, pack := range packs {
		if isValidPack(pack) {
			validPacks = append(validPacks, pack)
		}
	}

	if len(validPacks) == 0 {
		return models.ConsistentResult(decimal.Zero)
	}

	referencePack := validPacks[0]
	referenceBaseUnits := s.unitConverter.ToBaseUnits(referencePack.Stock, referencePack.ConversionFactor)

	var inconsistencies []models.PackInconsistency
	for _, pack := range validPacks {
		expectedStock, err := s.unitConverter.FromBaseUnits(referenceBaseUnits, pack.ConversionFactor, pack.PackUnit)
		if err != nil {
			continue
		}

		difference := expectedStock.Sub(pack.Stock).Abs()
		differenceBaseUnits := s.unitConverter.ToBaseUnits(difference, pack.ConversionFactor)

		if differenceBaseUnits.GreaterThan(consistencyTolerance) {
			inconsistencies = append(inconsistencies, models.PackInconsistency{
				PackID:              pack.PackID,
				PackSize:            pack.PackSize,
				PackUnit:            pack.PackUnit,
				ExpectedStock:       expectedStock,
				ActualStock:         pack.Stock,
				Difference:          difference,
				DifferenceBaseUnits: differenceBaseUnits,
			})
		}
	}

	if len(inconsistencies) == 0 {
		return models.ConsistentResult(referenceBaseUnits)
	}
	return models.InconsistentResult(inconsistencies, referenceBaseUnits)
}

func findPackByID(packs []*models.Pack, packID string) *models.Pack {
	for _, pack := range packs {
		if pack.PackID == packID {
			return pack
		}
	}
	return nil
}

// isValidPack reports whether a pack can participate in synchronization:
// it needs a numeric size, a unit, and a positive conversion factor.
func isValidPack(pack *models.Pack) bool {
	if pack == nil {
		return false
	}
	if strings.TrimSpace(pack.PackSize) == "" || strings.TrimSpace(pack.PackUnit) == "" {
		return false
	}
	if _, err := decimal.NewFromString(strings.TrimSpace(pack.PackSize)); err != nil {
		return false
	}
	return pack.ConversionFactor.IsPositive()
}
