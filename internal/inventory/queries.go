package inventory

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_platform/internal/apperr"
	"github.com/Skotchmaster/shop_platform/internal/models"
)

const LowStockThreshold = 10

func (l *Ledger) Get(ctx context.Context, productID uint) (*models.Inventory, error) {
	var inv models.Inventory
	err := l.DB.WithContext(ctx).Preload("Product").Where("product_id = ?", productID).First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Entity: "inventory for product", ID: productID}
		}
		return nil, err
	}
	return &inv, nil
}

func (l *Ledger) LowStock(ctx context.Context) ([]models.Inventory, error) {
	var items []models.Inventory
	err := l.DB.WithContext(ctx).Preload("Product").
		Where("quantity <= ?", LowStockThreshold).
		Order("quantity ASC").
		Find(&items).Error
	return items, err
}

func (l *Ledger) LogByID(ctx context.Context, logID uint) (*models.InventoryLog, error) {
	var entry models.InventoryLog
	err := l.DB.WithContext(ctx).Preload("Product").First(&entry, logID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Entity: "inventory log", ID: logID}
		}
		return nil, err
	}
	return &entry, nil
}

func (l *Ledger) LogsByProduct(ctx context.Context, productID uint, limit, offset int, newestFirst bool) ([]models.InventoryLog, int64, error) {
	return l.logs(ctx, "product_id = ?", productID, limit, offset, newestFirst)
}

func (l *Ledger) LogsByAdmin(ctx context.Context, adminID uint, limit, offset int, newestFirst bool) ([]models.InventoryLog, int64, error) {
	return l.logs(ctx, "admin_id = ?", adminID, limit, offset, newestFirst)
}

func (l *Ledger) logs(ctx context.Context, cond string, arg uint, limit, offset int, newestFirst bool) ([]models.InventoryLog, int64, error) {
	q := l.DB.WithContext(ctx).Model(&models.InventoryLog{}).Where(cond, arg)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at ASC"
	if newestFirst {
		order = "created_at DESC"
	}

	var entries []models.InventoryLog
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
