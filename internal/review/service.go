package review

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_platform/internal/apperr"
	"github.com/Skotchmaster/shop_platform/internal/auth"
	"github.com/Skotchmaster/shop_platform/internal/models"
)

type Service struct {
	DB *gorm.DB
}

type CreateInput struct {
	ProductID uint
	UserID    uint
	Rating    int
	Comment   string
}

// Create adds one review per user per product.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", apperr.ErrValidation)
	}

	var product models.Product
	if err := s.DB.WithContext(ctx).First(&product, in.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Entity: "product", ID: in.ProductID}
		}
		return nil, err
	}

	r := models.Review{
		ProductID: in.ProductID,
		UserID:    in.UserID,
		Rating:    in.Rating,
		Comment:   in.Comment,
	}
	if err := s.DB.WithContext(ctx).Create(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: product already reviewed", apperr.ErrConflict)
		}
		return nil, err
	}
	return &r, nil
}

func (s *Service) ListByProduct(ctx context.Context, productID uint, limit, offset int) ([]models.Review, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.Review{}).Where("product_id = ?", productID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// Delete removes a review; permitted for its author or any admin.
func (s *Service) Delete(ctx context.Context, reviewID uint, actor auth.Principal) error {
	var r models.Review
	if err := s.DB.WithContext(ctx).First(&r, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperr.NotFoundError{Entity: "review", ID: reviewID}
		}
		return err
	}

	if !actor.IsAdmin() && r.UserID != actor.ID {
		return fmt.Errorf("%w: not your review", apperr.ErrForbidden)
	}
	return s.DB.WithContext(ctx).Delete(&r).Error
}
