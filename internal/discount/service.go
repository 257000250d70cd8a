package discount

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_platform/internal/apperr"
	"github.com/Skotchmaster/shop_platform/internal/auth"
	"github.com/Skotchmaster/shop_platform/internal/models"
)

type Service struct {
	DB *gorm.DB
}

type CreateInput struct {
	Code       string
	Percentage int64
	ValidTill  time.Time
	AdminID    uint
}

type UpdateInput struct {
	Percentage *int64
	ValidTill  *time.Time
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Discount, error) {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	if in.Code == "" {
		return nil, fmt.Errorf("%w: code required", apperr.ErrValidation)
	}
	if in.Percentage < 1 || in.Percentage > 100 {
		return nil, fmt.Errorf("%w: percentage must be between 1 and 100", apperr.ErrValidation)
	}
	if in.ValidTill.Before(time.Now()) {
		return nil, fmt.Errorf("%w: valid_till must be in the future", apperr.ErrValidation)
	}

	d := models.Discount{
		Code:       in.Code,
		Percentage: in.Percentage,
		ValidTill:  in.ValidTill,
		AdminID:    in.AdminID,
	}
	if err := s.DB.WithContext(ctx).Create(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: code %s already exists", apperr.ErrConflict, in.Code)
		}
		return nil, err
	}
	return &d, nil
}

func (s *Service) List(ctx context.Context) ([]models.Discount, error) {
	var discounts []models.Discount
	err := s.DB.WithContext(ctx).
		Preload("Products").Preload("Users").
		Order("created_at DESC").
		Find(&discounts).Error
	return discounts, err
}

// DetailView adds usage figures to a discount payload.
type DetailView struct {
	models.Discount
	ProductCount int   `json:"product_count"`
	UserCount    int   `json:"user_count"`
	UsageCount   int64 `json:"usage_count"`
}

func (s *Service) Get(ctx context.Context, id uint) (*DetailView, error) {
	var d models.Discount
	err := s.DB.WithContext(ctx).Preload("Products").Preload("Users").First(&d, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Entity: "discount", ID: id}
		}
		return nil, err
	}

	var usage int64
	if err := s.DB.WithContext(ctx).Model(&models.Order{}).Where("discount_id = ?", id).Count(&usage).Error; err != nil {
		return nil, err
	}

	return &DetailView{
		Discount:     d,
		ProductCount: len(d.Products),
		UserCount:    len(d.Users),
		UsageCount:   usage,
	}, nil
}

func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (*models.Discount, error) {
	updates := map[string]any{}
	if in.Percentage != nil {
		if *in.Percentage < 1 || *in.Percentage > 100 {
			return nil, fmt.Errorf("%w: percentage must be between 1 and 100", apperr.ErrValidation)
		}
		updates["percentage"] = *in.Percentage
	}
	if in.ValidTill != nil {
		updates["valid_till"] = *in.ValidTill
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", apperr.ErrValidation)
	}

	res := s.DB.WithContext(ctx).Model(&models.Discount{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &apperr.NotFoundError{Entity: "discount", ID: id}
	}

	var d models.Discount
	if err := s.DB.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Discount{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &apperr.NotFoundError{Entity: "discount", ID: id}
	}
	return nil
}

// AttachProduct makes products eligible for a discount. Only the product's
// owning admin or a superadmin may bind it.
func (s *Service) AttachProduct(ctx context.Context, discountID, productID uint, actor auth.Principal) error {
	return s.bindProduct(ctx, discountID, productID, actor, true)
}

func (s *Service) DetachProduct(ctx context.Context, discountID, productID uint, actor auth.Principal) error {
	return s.bindProduct(ctx, discountID, productID, actor, false)
}

func (s *Service) bindProduct(ctx context.Context, discountID, productID uint, actor auth.Principal, attach bool) error {
	var d models.Discount
	if err := s.DB.WithContext(ctx).First(&d, discountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperr.NotFoundError{Entity: "discount", ID: discountID}
		}
		return err
	}

	var p models.Product
	if err := s.DB.WithContext(ctx).First(&p, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperr.NotFoundError{Entity: "product", ID: productID}
		}
		return err
	}
	if actor.Role != auth.RoleSuperAdmin && p.AdminID != actor.ID {
		return fmt.Errorf("%w: not your product", apperr.ErrForbidden)
	}

	assoc := s.DB.WithContext(ctx).Model(&p).Association("Discounts")
	if attach {
		return assoc.Append(&d)
	}
	return assoc.Delete(&d)
}

// ListForProduct returns the discounts bound to a product; validOnly drops
// expired codes.
func (s *Service) ListForProduct(ctx context.Context, productID uint, validOnly bool) ([]models.Discount, error) {
	q := s.DB.WithContext(ctx).
		Joins("JOIN product_discounts pd ON pd.discount_id = discounts.id").
		Where("pd.product_id = ?", productID)
	if validOnly {
		q = q.Where("discounts.valid_till >= ?", time.Now())
	}

	var discounts []models.Discount
	err := q.Order("discounts.created_at DESC").Find(&discounts).Error
	return discounts, err
}
