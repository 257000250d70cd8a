package order

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_platform/internal/apperr"
	"github.com/Skotchmaster/shop_platform/internal/models"
)

func (s *Service) Get(ctx context.Context, orderID uint) (*models.Order, error) {
	var ord models.Order
	err := s.DB.WithContext(ctx).
		Preload("Items.Product").
		Preload("Discount").
		Preload("Admin").
		First(&ord, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Entity: "order", ID: orderID}
		}
		return nil, err
	}
	return &ord, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uint, status models.OrderStatus, limit, offset int) ([]models.Order, int64, error) {
	return s.list(ctx, "user_id = ?", userID, status, limit, offset)
}

func (s *Service) ListByAdmin(ctx context.Context, adminID uint, status models.OrderStatus, limit, offset int) ([]models.Order, int64, error) {
	return s.list(ctx, "admin_id = ?", adminID, status, limit, offset)
}

func (s *Service) list(ctx context.Context, cond string, id uint, status models.OrderStatus, limit, offset int) ([]models.Order, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.Order{}).Where(cond, id)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := q.Preload("Items.Product").Preload("Discount").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
