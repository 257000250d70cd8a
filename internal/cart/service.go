package cart

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_platform/internal/apperr"
	"github.com/Skotchmaster/shop_platform/internal/models"
	"github.com/Skotchmaster/shop_platform/internal/pricing"
)

// Service manages the per-user cart. Carts are ephemeral: fully replaced on
// update and cleared inside the checkout transaction by the order service.
type Service struct {
	DB *gorm.DB
}

type ItemInput struct {
	ProductID uint
	Quantity  uint
}

// View is a cart plus a totals preview priced from the current catalog.
type View struct {
	models.Cart
	Meta pricing.Totals `json:"meta"`
}

// Get returns the user's cart, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, userID uint) (*View, error) {
	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(cart)
}

// Replace swaps the entire cart contents for the given items.
func (s *Service) Replace(ctx context.Context, userID uint, items []ItemInput) (*View, error) {
	for _, it := range items {
		if it.ProductID == 0 || it.Quantity == 0 {
			return nil, fmt.Errorf("%w: product_id and quantity must be > 0", apperr.ErrValidation)
		}
	}

	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkProductsExist(tx, items); err != nil {
			return err
		}
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		for _, it := range items {
			ci := models.CartItem{CartID: cart.ID, ProductID: it.ProductID, Quantity: it.Quantity}
			if err := tx.Create(&ci).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

// Add increments an existing line or inserts a new one. The conditional
// UPDATE keeps concurrent adds for the same product from racing.
func (s *Service) Add(ctx context.Context, userID uint, item ItemInput) (*View, error) {
	if item.ProductID == 0 || item.Quantity == 0 {
		return nil, fmt.Errorf("%w: product_id and quantity must be > 0", apperr.ErrValidation)
	}

	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkProductsExist(tx, []ItemInput{item}); err != nil {
			return err
		}

		res := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND product_id = ?", cart.ID, item.ProductID).
			Update("quantity", gorm.Expr("quantity + ?", item.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		ci := models.CartItem{CartID: cart.ID, ProductID: item.ProductID, Quantity: item.Quantity}
		return tx.Create(&ci).Error
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

// Remove deletes one product line from the cart.
func (s *Service) Remove(ctx context.Context, userID, productID uint) (*View, error) {
	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := s.DB.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cart.ID, productID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &apperr.NotFoundError{Entity: "cart item for product", ID: productID}
	}

	return s.Get(ctx, userID)
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, userID uint) error {
	cart, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error
}

func (s *Service) getOrCreate(ctx context.Context, userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart = models.Cart{UserID: userID}
	if err := s.DB.WithContext(ctx).Create(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *Service) view(cart *models.Cart) (*View, error) {
	var loaded models.Cart
	err := s.DB.Preload("Items.Product").First(&loaded, cart.ID).Error
	if err != nil {
		return nil, err
	}

	v := &View{Cart: loaded}
	if len(loaded.Items) == 0 {
		return v, nil
	}

	lines := make([]pricing.Line, 0, len(loaded.Items))
	for _, it := range loaded.Items {
		if it.Product == nil {
			continue
		}
		lines = append(lines, pricing.Line{
			ProductID: it.ProductID,
			UnitPrice: it.Product.Price,
			Quantity:  it.Quantity,
		})
	}
	if len(lines) > 0 {
		totals, err := pricing.ComputeTotals(lines, 0)
		if err != nil {
			return nil, err
		}
		v.Meta = totals
	}
	return v, nil
}

func checkProductsExist(tx *gorm.DB, items []ItemInput) error {
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}

	var found []uint
	if err := tx.Model(&models.Product{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return err
	}
	seen := make(map[uint]bool, len(found))
	for _, id := range found {
		seen[id] = true
	}
	for _, it := range items {
		if !seen[it.ProductID] {
			return &apperr.NotFoundError{Entity: "product", ID: it.ProductID}
		}
	}
	return nil
}
