package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_platform/internal/apperr"
	"github.com/Skotchmaster/shop_platform/internal/auth"
	"github.com/Skotchmaster/shop_platform/internal/inventory"
	"github.com/Skotchmaster/shop_platform/internal/models"
)

type Service struct {
	DB     *gorm.DB
	Ledger *inventory.Ledger
}

type CreateInput struct {
	Name        string
	Description string
	Price       int64
	ImageURL    string
	AdminID     uint
	// InitialStock seeds the inventory through the ledger so even the very
	// first units have an audit entry.
	InitialStock int64
}

type UpdateInput struct {
	Name        *string
	Description *string
	Price       *int64
	ImageURL    *string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Product, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name required", apperr.ErrValidation)
	}
	if in.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be > 0", apperr.ErrValidation)
	}
	if in.InitialStock < 0 {
		return nil, fmt.Errorf("%w: initial stock must be >= 0", apperr.ErrValidation)
	}

	p := models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
		AdminID:     in.AdminID,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.Inventory{ProductID: p.ID, Quantity: 0}).Error; err != nil {
			return err
		}
		if in.InitialStock > 0 {
			_, err := s.Ledger.Release(tx, p.ID, in.InitialStock, in.AdminID, "Initial stock")
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, p.ID)
}

// View decorates a product with its review average.
type View struct {
	models.Product
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := s.DB.WithContext(ctx).Preload("Inventory").First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Entity: "product", ID: id}
		}
		return nil, err
	}
	return &p, nil
}

func (s *Service) GetView(ctx context.Context, id uint) (*View, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	v := &View{Product: *p}
	row := s.DB.WithContext(ctx).Model(&models.Review{}).
		Where("product_id = ?", id).
		Select("COALESCE(AVG(rating), 0), COUNT(*)").
		Row()
	if err := row.Scan(&v.AverageRating, &v.ReviewCount); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]models.Product, int64, error) {
	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Product
	err := s.DB.WithContext(ctx).Preload("Inventory").
		Order("id ASC").Limit(limit).Offset(offset).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Service) Update(ctx context.Context, id uint, in UpdateInput, actor auth.Principal) (*models.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(p, actor); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Price != nil {
		if *in.Price <= 0 {
			return nil, fmt.Errorf("%w: price must be > 0", apperr.ErrValidation)
		}
		updates["price"] = *in.Price
	}
	if in.ImageURL != nil {
		updates["image_url"] = *in.ImageURL
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", apperr.ErrValidation)
	}

	if err := s.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uint, actor auth.Principal) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(p, actor); err != nil {
		return err
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.Inventory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, id).Error
	})
}

func (s *Service) authorize(p *models.Product, actor auth.Principal) error {
	if actor.Role == auth.RoleSuperAdmin || p.AdminID == actor.ID {
		return nil
	}
	return fmt.Errorf("%w: not your product", apperr.ErrForbidden)
}
