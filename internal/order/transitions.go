package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_platform/internal/apperr"
	"github.com/Skotchmaster/shop_platform/internal/models"
)

type ReturnItemInput struct {
	ProductID uint
	Quantity  uint
	Reason    string
}

// UpdateStatus moves an order along the lifecycle graph. The write is a
// compare-and-swap on the current status, so two concurrent transitions on
// the same order cannot both win.
func (s *Service) UpdateStatus(ctx context.Context, orderID uint, to models.OrderStatus, actingAdminID uint, adminNote string) (*models.Order, error) {
	if !ValidStatus(to) {
		return nil, fmt.Errorf("%w: unknown status %q", apperr.ErrValidation, to)
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ord, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if !CanTransition(ord.Status, to) {
			return &apperr.InvalidStatusTransitionError{From: string(ord.Status), To: string(to)}
		}

		updates := map[string]any{"status": to}
		if adminNote != "" {
			updates["admin_note"] = adminNote
		}
		if err := casStatus(tx, ord, updates); err != nil {
			return err
		}

		if releasesStock(to) {
			reason := fmt.Sprintf("Order %d return/refund", ord.ID)
			if to == models.OrderStatusCancelled {
				reason = fmt.Sprintf("Order %d cancelled", ord.ID)
			}
			return s.releaseStockOnce(tx, ord, actingAdminID, reason)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

// Cancel is the user-facing cancellation path, legal only while the order is
// PENDING or PROCESSING. Admins may cancel on behalf of the user.
func (s *Service) Cancel(ctx context.Context, orderID, actorID uint, isAdmin bool, reason string) (*models.Order, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ord, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if !isAdmin && ord.UserID != actorID {
			return fmt.Errorf("%w: not your order", apperr.ErrForbidden)
		}
		if !CanTransition(ord.Status, models.OrderStatusCancelled) {
			return &apperr.InvalidStatusTransitionError{From: string(ord.Status), To: string(models.OrderStatusCancelled)}
		}

		updates := map[string]any{"status": models.OrderStatusCancelled}
		if reason != "" {
			updates["cancellation_reason"] = reason
		}
		if err := casStatus(tx, ord, updates); err != nil {
			return err
		}

		// Stock is reserved at creation, so leaving the pre-shipment states
		// always returns it.
		return s.releaseStockOnce(tx, ord, actorID, fmt.Sprintf("Order %d cancelled", ord.ID))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

// RequestReturn records a return request for a SHIPPED or DELIVERED order
// owned by userID and moves the order to RETURN_REQUESTED. Inventory is not
// touched until the return is approved.
func (s *Service) RequestReturn(ctx context.Context, orderID, userID uint, reason string, items []ReturnItemInput) (*models.ReturnRequest, error) {
	var request models.ReturnRequest
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ord, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if ord.UserID != userID {
			return fmt.Errorf("%w: not your order", apperr.ErrForbidden)
		}
		if !CanTransition(ord.Status, models.OrderStatusReturnRequested) {
			return &apperr.InvalidStatusTransitionError{From: string(ord.Status), To: string(models.OrderStatusReturnRequested)}
		}

		ordered := make(map[uint]uint, len(ord.Items))
		for _, item := range ord.Items {
			ordered[item.ProductID] = item.Quantity
		}
		var reqItems []models.ReturnRequestItem
		for _, it := range items {
			max, ok := ordered[it.ProductID]
			if !ok {
				return fmt.Errorf("%w: product %d is not part of order %d", apperr.ErrValidation, it.ProductID, ord.ID)
			}
			if it.Quantity == 0 || it.Quantity > max {
				return fmt.Errorf("%w: invalid return quantity for product %d", apperr.ErrValidation, it.ProductID)
			}
			reqItems = append(reqItems, models.ReturnRequestItem{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Reason:    it.Reason,
			})
		}

		request = models.ReturnRequest{
			Reference: uuid.NewString(),
			OrderID:   ord.ID,
			UserID:    userID,
			Reason:    reason,
			Status:    "PENDING",
			Items:     reqItems,
		}
		if err := tx.Create(&request).Error; err != nil {
			return err
		}

		return casStatus(tx, ord, map[string]any{"status": models.OrderStatusReturnRequested})
	})
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// releaseStockOnce flips the stock_released flag with a guarded UPDATE and
// performs the per-item releases only when this call won the flip. A second
// transition into a releasing state is a no-op here, which is what keeps
// double-cancel and approve-then-refund from over-crediting stock.
func (s *Service) releaseStockOnce(tx *gorm.DB, ord *models.Order, actorID uint, reason string) error {
	res := tx.Model(&models.Order{}).
		Where("id = ? AND stock_released = ?", ord.ID, false).
		Update("stock_released", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}

	for _, item := range ord.Items {
		if _, err := s.Ledger.Release(tx, item.ProductID, int64(item.Quantity), actorID, reason); err != nil {
			return err
		}
	}
	return nil
}

func lockOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var ord models.Order
	if err := tx.Preload("Items").First(&ord, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Entity: "order", ID: orderID}
		}
		return nil, err
	}
	return &ord, nil
}

func casStatus(tx *gorm.DB, ord *models.Order, updates map[string]any) error {
	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", ord.ID, ord.Status).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: order %d was modified concurrently", apperr.ErrConflict, ord.ID)
	}
	return nil
}
