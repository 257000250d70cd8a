package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_platform/internal/apperr"
	"github.com/Skotchmaster/shop_platform/internal/inventory"
	"github.com/Skotchmaster/shop_platform/internal/models"
	"github.com/Skotchmaster/shop_platform/internal/pricing"
)

// Service owns order creation and the status lifecycle. Every mutating
// operation runs inside a single database transaction; the transaction
// boundary is the unit of atomicity for stock, totals and cart clearing.
type Service struct {
	DB     *gorm.DB
	Ledger *inventory.Ledger
}

type ItemInput struct {
	ProductID uint
	Quantity  uint
	// Price overrides the product's current price when > 0 (minor units).
	// Zero means snapshot the catalog price at order time.
	Price int64
}

type CreateInput struct {
	UserID     uint
	AdminID    *uint
	DiscountID *uint
	Items      []ItemInput
}

// Create validates every referenced entity, prices the order, persists it
// with PENDING status, reserves stock through the ledger and clears the
// user's cart, all in one transaction. Any failure rolls everything back.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: items required", apperr.ErrValidation)
	}
	for _, it := range in.Items {
		if it.ProductID == 0 {
			return nil, fmt.Errorf("%w: product_id required", apperr.ErrValidation)
		}
		if it.Quantity == 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", apperr.ErrValidation)
		}
	}

	var created models.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.validateParties(tx, in); err != nil {
			return err
		}

		var discountPercent int64
		if in.DiscountID != nil {
			discount, err := s.validateDiscount(tx, *in.DiscountID, in.UserID)
			if err != nil {
				return err
			}
			discountPercent = discount.Percentage
		}

		lines, orderItems, err := s.snapshotItems(tx, in.Items)
		if err != nil {
			return err
		}

		totals, err := pricing.ComputeTotals(lines, discountPercent)
		if err != nil {
			return err
		}

		created = models.Order{
			UserID:         in.UserID,
			AdminID:        in.AdminID,
			DiscountID:     in.DiscountID,
			TotalAmount:    totals.Total,
			DiscountAmount: totals.DiscountAmount,
			Status:         models.OrderStatusPending,
			Items:          orderItems,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		actor := in.UserID
		if in.AdminID != nil {
			actor = *in.AdminID
		}
		for _, item := range created.Items {
			reason := fmt.Sprintf("Order %d", created.ID)
			if _, err := s.Ledger.Reserve(tx, item.ProductID, int64(item.Quantity), actor, reason); err != nil {
				return err
			}
		}

		return clearCart(tx, in.UserID)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, created.ID)
}

// Checkout builds the item list from the user's stored cart, optionally
// resolving a discount code, and delegates to Create.
func (s *Service) Checkout(ctx context.Context, userID uint, discountCode string) (*models.Order, error) {
	var cart models.Cart
	err := s.DB.WithContext(ctx).Preload("Items").Where("user_id = ?", userID).First(&cart).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, fmt.Errorf("%w: no items in cart", apperr.ErrValidation)
	}

	in := CreateInput{UserID: userID}
	for _, it := range cart.Items {
		in.Items = append(in.Items, ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	if discountCode != "" {
		var discount models.Discount
		if err := s.DB.WithContext(ctx).Where("code = ?", discountCode).First(&discount).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: discount code %q", apperr.ErrNotFound, discountCode)
			}
			return nil, err
		}
		in.DiscountID = &discount.ID
	}

	return s.Create(ctx, in)
}

func (s *Service) validateParties(tx *gorm.DB, in CreateInput) error {
	var user models.User
	if err := tx.First(&user, in.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperr.NotFoundError{Entity: "user", ID: in.UserID}
		}
		return err
	}

	if in.AdminID != nil {
		var admin models.Admin
		if err := tx.First(&admin, *in.AdminID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &apperr.NotFoundError{Entity: "admin", ID: *in.AdminID}
			}
			return err
		}
	}
	return nil
}

// validateDiscount runs inside the order-creation transaction so the
// already-used check cannot race a concurrent checkout with the same code.
func (s *Service) validateDiscount(tx *gorm.DB, discountID, userID uint) (*models.Discount, error) {
	var discount models.Discount
	if err := tx.First(&discount, discountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Entity: "discount", ID: discountID}
		}
		return nil, err
	}

	if time.Now().After(discount.ValidTill) {
		return nil, fmt.Errorf("%w: code %s", apperr.ErrDiscountExpired, discount.Code)
	}

	var used int64
	err := tx.Model(&models.Order{}).
		Where("user_id = ? AND discount_id = ?", userID, discountID).
		Count(&used).Error
	if err != nil {
		return nil, err
	}
	if used > 0 {
		return nil, fmt.Errorf("%w: code %s", apperr.ErrDiscountAlreadyUsed, discount.Code)
	}
	return &discount, nil
}

// snapshotItems loads every referenced product and freezes unit prices into
// the order items, so later catalog price changes never touch past orders.
func (s *Service) snapshotItems(tx *gorm.DB, items []ItemInput) ([]pricing.Line, []models.OrderItem, error) {
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}

	var products []models.Product
	if err := tx.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, nil, err
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]pricing.Line, 0, len(items))
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, nil, &apperr.NotFoundError{Entity: "product", ID: it.ProductID}
		}

		price := p.Price
		if it.Price > 0 {
			price = it.Price
		}
		lines = append(lines, pricing.Line{ProductID: p.ID, UnitPrice: price, Quantity: it.Quantity})
		orderItems = append(orderItems, models.OrderItem{
			ProductID: p.ID,
			Quantity:  it.Quantity,
			Price:     price,
		})
	}
	return lines, orderItems, nil
}

func clearCart(tx *gorm.DB, userID uint) error {
	var cart models.Cart
	err := tx.Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error
}
