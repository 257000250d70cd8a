package order

import (
	"github.com/Skotchmaster/shop_platform/internal/models"
)

// statusTransitions is the full lifecycle topology. Any move not listed here
// is rejected before any mutation happens.
var statusTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:         {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing:      {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:         {models.OrderStatusDelivered, models.OrderStatusReturnRequested},
	models.OrderStatusDelivered:       {models.OrderStatusReturnRequested},
	models.OrderStatusReturnRequested: {models.OrderStatusReturnApproved, models.OrderStatusReturnRejected},
	models.OrderStatusReturnApproved:  {models.OrderStatusRefunded},
	models.OrderStatusCancelled:       {},
	models.OrderStatusReturnRejected:  {},
	models.OrderStatusRefunded:        {},
}

func ValidStatus(s models.OrderStatus) bool {
	_, ok := statusTransitions[s]
	return ok
}

func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminal(s models.OrderStatus) bool {
	return len(statusTransitions[s]) == 0
}

// releasesStock reports whether entering the status undoes a live
// stock reservation. The release itself still runs at most once per order,
// guarded by the stock_released flag.
func releasesStock(to models.OrderStatus) bool {
	switch to {
	case models.OrderStatusCancelled, models.OrderStatusReturnApproved, models.OrderStatusRefunded:
		return true
	}
	return false
}
