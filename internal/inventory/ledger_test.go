package inventory

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_platform/internal/apperr"
	"github.com/Skotchmaster/shop_platform/internal/models"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	return &Ledger{DB: db}
}

func seedProduct(t *testing.T, db *gorm.DB, quantity int64) models.Product {
	t.Helper()

	p := models.Product{Name: "widget", Price: 2500, AdminID: 1}
	require.NoError(t, db.Create(&p).Error)
	require.NoError(t, db.Create(&models.Inventory{ProductID: p.ID, Quantity: quantity}).Error)
	return p
}

func quantityOf(t *testing.T, db *gorm.DB, productID uint) int64 {
	t.Helper()

	var inv models.Inventory
	require.NoError(t, db.Where("product_id = ?", productID).First(&inv).Error)
	return inv.Quantity
}

func TestLedger_Reserve(t *testing.T) {
	l := newTestLedger(t)
	p := seedProduct(t, l.DB, 5)

	var entry *models.InventoryLog
	err := l.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = l.Reserve(tx, p.ID, 3, 1, "Order 123")
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), quantityOf(t, l.DB, p.ID))
	assert.Equal(t, int64(-3), entry.Change)
	assert.Equal(t, int64(5), entry.PreviousQuantity)
	assert.Equal(t, int64(2), entry.NewQuantity)
	assert.Equal(t, "Order 123", entry.Reason)

	var logCount int64
	require.NoError(t, l.DB.Model(&models.InventoryLog{}).Where("product_id = ?", p.ID).Count(&logCount).Error)
	assert.Equal(t, int64(1), logCount)
}

func TestLedger_Reserve_InsufficientStock(t *testing.T) {
	l := newTestLedger(t)
	p := seedProduct(t, l.DB, 2)

	err := l.DB.Transaction(func(tx *gorm.DB) error {
		_, err := l.Reserve(tx, p.ID, 3, 1, "Order 124")
		return err
	})
	require.Error(t, err)

	var stockErr *apperr.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, p.ID, stockErr.ProductID)
	assert.Equal(t, int64(3), stockErr.Requested)
	assert.Equal(t, int64(2), stockErr.Available)

	// Failed reservation leaves no trace.
	assert.Equal(t, int64(2), quantityOf(t, l.DB, p.ID))
	var logCount int64
	require.NoError(t, l.DB.Model(&models.InventoryLog{}).Count(&logCount).Error)
	assert.Equal(t, int64(0), logCount)
}

func TestLedger_Reserve_UnknownProduct(t *testing.T) {
	l := newTestLedger(t)

	err := l.DB.Transaction(func(tx *gorm.DB) error {
		_, err := l.Reserve(tx, 999, 1, 1, "Order 125")
		return err
	})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLedger_Reserve_DrainsToZeroNeverNegative(t *testing.T) {
	l := newTestLedger(t)
	p := seedProduct(t, l.DB, 5)

	requests := []int64{2, 2, 2, 1, 3}
	var reserved int64
	for _, qty := range requests {
		err := l.DB.Transaction(func(tx *gorm.DB) error {
			_, err := l.Reserve(tx, p.ID, qty, 1, "drain")
			return err
		})
		if err == nil {
			reserved += qty
		} else {
			require.ErrorIs(t, err, apperr.ErrConflict)
		}
		require.GreaterOrEqual(t, quantityOf(t, l.DB, p.ID), int64(0))
	}

	assert.Equal(t, int64(5)-reserved, quantityOf(t, l.DB, p.ID))
}

func TestLedger_Release(t *testing.T) {
	l := newTestLedger(t)
	p := seedProduct(t, l.DB, 2)

	var entry *models.InventoryLog
	err := l.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = l.Release(tx, p.ID, 3, 7, "Order 42 return/refund")
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, int64(5), quantityOf(t, l.DB, p.ID))
	assert.Equal(t, int64(3), entry.Change)
	assert.Equal(t, int64(2), entry.PreviousQuantity)
	assert.Equal(t, int64(5), entry.NewQuantity)
	assert.Equal(t, uint(7), entry.AdminID)
}

func TestLedger_Adjust(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	t.Run("positive change", func(t *testing.T) {
		p := seedProduct(t, l.DB, 1)

		inv, entry, err := l.Adjust(ctx, p.ID, 9, 3, "restock")
		require.NoError(t, err)
		assert.Equal(t, int64(10), inv.Quantity)
		assert.Equal(t, int64(9), entry.Change)
	})

	t.Run("negative change below zero rejected", func(t *testing.T) {
		p := seedProduct(t, l.DB, 4)

		_, _, err := l.Adjust(ctx, p.ID, -5, 3, "shrinkage")
		require.Error(t, err)
		var stockErr *apperr.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, int64(4), quantityOf(t, l.DB, p.ID))
	})

	t.Run("zero change rejected", func(t *testing.T) {
		p := seedProduct(t, l.DB, 4)

		_, _, err := l.Adjust(ctx, p.ID, 0, 3, "noop")
		require.ErrorIs(t, err, apperr.ErrValidation)
	})
}

func TestLedger_LowStockAndLogs(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	low := seedProduct(t, l.DB, 3)
	seedProduct(t, l.DB, 500)

	items, err := l.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, low.ID, items[0].ProductID)

	for i := 0; i < 3; i++ {
		_, _, err := l.Adjust(ctx, low.ID, 1, 9, "restock")
		require.NoError(t, err)
	}

	entries, total, err := l.LogsByProduct(ctx, low.ID, 2, 0, true)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, entries, 2)

	adminEntries, adminTotal, err := l.LogsByAdmin(ctx, 9, 10, 0, true)
	require.NoError(t, err)
	assert.Equal(t, int64(3), adminTotal)
	assert.Len(t, adminEntries, 3)
}
