package inventory

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_platform/internal/apperr"
	"github.com/Skotchmaster/shop_platform/internal/models"
)

// Ledger is the only writer of inventory quantities. Every mutation pairs a
// guarded quantity update with exactly one InventoryLog row, inside the
// transaction handle the caller supplies.
type Ledger struct {
	DB *gorm.DB
}

// Reserve decrements stock for an order. The decrement is a single guarded
// UPDATE (quantity >= qty in the WHERE clause), so two concurrent
// reservations for the same product can never both win the last units:
// the row is locked by the UPDATE itself and the guard re-evaluates on the
// committed value. RowsAffected == 0 means either no inventory row or not
// enough stock; the follow-up read inside the same tx tells them apart.
func (l *Ledger) Reserve(tx *gorm.DB, productID uint, qty int64, actingAdminID uint, reason string) (*models.InventoryLog, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: reserve quantity must be > 0", apperr.ErrValidation)
	}

	res := tx.Model(&models.Inventory{}).
		Where("product_id = ? AND quantity >= ?", productID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var inv models.Inventory
		if err := tx.Where("product_id = ?", productID).First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &apperr.NotFoundError{Entity: "inventory for product", ID: productID}
			}
			return nil, err
		}
		return nil, &apperr.InsufficientStockError{ProductID: productID, Requested: qty, Available: inv.Quantity}
	}

	return l.appendLog(tx, productID, -qty, actingAdminID, reason)
}

// Release returns previously reserved stock on cancel/return/refund paths.
// Callers must guarantee at-most-once invocation per order transition; the
// ledger itself appends a new entry on every call.
func (l *Ledger) Release(tx *gorm.DB, productID uint, qty int64, actingAdminID uint, reason string) (*models.InventoryLog, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: release quantity must be > 0", apperr.ErrValidation)
	}

	res := tx.Model(&models.Inventory{}).
		Where("product_id = ?", productID).
		Update("quantity", gorm.Expr("quantity + ?", qty))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &apperr.NotFoundError{Entity: "inventory for product", ID: productID}
	}

	return l.appendLog(tx, productID, qty, actingAdminID, reason)
}

// Adjust applies a manual signed correction in its own transaction.
func (l *Ledger) Adjust(ctx context.Context, productID uint, change int64, actingAdminID uint, reason string) (*models.Inventory, *models.InventoryLog, error) {
	if change == 0 {
		return nil, nil, fmt.Errorf("%w: change must be nonzero", apperr.ErrValidation)
	}

	var (
		inv   models.Inventory
		entry *models.InventoryLog
	)
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if change < 0 {
			entry, err = l.Reserve(tx, productID, -change, actingAdminID, reason)
		} else {
			entry, err = l.Release(tx, productID, change, actingAdminID, reason)
		}
		if err != nil {
			return err
		}
		return tx.Preload("Product").Where("product_id = ?", productID).First(&inv).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &inv, entry, nil
}

// appendLog reads the post-update quantity and writes the audit row. The
// previous quantity is derived from the applied change, so the pair always
// matches the mutation that preceded it in this tx.
func (l *Ledger) appendLog(tx *gorm.DB, productID uint, change int64, actingAdminID uint, reason string) (*models.InventoryLog, error) {
	var inv models.Inventory
	if err := tx.Where("product_id = ?", productID).First(&inv).Error; err != nil {
		return nil, err
	}

	entry := models.InventoryLog{
		ProductID:        productID,
		Change:           change,
		Reason:           reason,
		PreviousQuantity: inv.Quantity - change,
		NewQuantity:      inv.Quantity,
		AdminID:          actingAdminID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}
