package service

import (
	"context"
	"testing"

	"stock-service/internal/models"
	"stock-service/internal/util"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDeltaForAction(t *testing.T) {
	qty := decimal.NewFromInt(5)

	assert.Equal(t, "5", deltaForAction(models.ActionPurchase, qty).String())
	assert.Equal(t, "5", deltaForAction(models.ActionReturn, qty).String())
	assert.Equal(t, "5", deltaForAction(models.ActionAdjustmentIncrease, qty).String())

	assert.Equal(t, "-5", deltaForAction(models.ActionSale, qty).String())
	assert.Equal(t, "-5", deltaForAction(models.ActionDamage, qty).String())
	assert.Equal(t, "-5", deltaForAction(models.ActionAdjustmentDecrease, qty).String())

	// Unknown kinds pass through unsigned.
	assert.Equal(t, "5", deltaForAction("recount", qty).String())
}

func TestTransactionReason(t *testing.T) {
	assert.Equal(t, "purchase transaction", transactionReason(models.ActionPurchase, ""))
	assert.Equal(t, "sale transaction: invoice 42", transactionReason(models.ActionSale, "invoice 42"))
}

func TestSelectTriggerPack(t *testing.T) {
	packs := []*models.Pack{
		testPack("p1", "1", "kg", "10"),
		testPack("p2", "2", "kg", "5"),
	}

	assert.Equal(t, "p2", selectTriggerPack(packs, "p2").PackID)

	// An unknown or invalid default falls back to the first valid pack.
	assert.Equal(t, "p1", selectTriggerPack(packs, "missing").PackID)
	assert.Equal(t, "p1", selectTriggerPack(packs, "").PackID)

	broken := []*models.Pack{{PackID: "bad", PackSize: "x", PackUnit: "kg"}}
	assert.Nil(t, selectTriggerPack(broken, "bad"))
}

func TestProcessInventoryTransactionMissingFields(t *testing.T) {
	s := &StockManagerService{logger: util.GetLogger()}
	qty := decimal.NewFromInt(5)

	// Each missing required field fails before any storage access.
	result := s.ProcessInventoryTransaction(context.Background(), models.InventoryTransaction{
		PackID: "p1", Quantity: &qty,
	})
	assert.False(t, result.Success)
	assert.Equal(t, "Missing required transaction fields", result.Message)

	result = s.ProcessInventoryTransaction(context.Background(), models.InventoryTransaction{
		VendorProductID: 1, Quantity: &qty,
	})
	assert.False(t, result.Success)

	result = s.ProcessInventoryTransaction(context.Background(), models.InventoryTransaction{
		VendorProductID: 1, PackID: "p1",
	})
	assert.False(t, result.Success)
}
