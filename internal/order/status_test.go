package order

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/shop_platform/internal/models"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	allowed := []struct{ from, to models.OrderStatus }{
		{models.OrderStatusPending, models.OrderStatusProcessing},
		{models.OrderStatusPending, models.OrderStatusCancelled},
		{models.OrderStatusProcessing, models.OrderStatusShipped},
		{models.OrderStatusProcessing, models.OrderStatusCancelled},
		{models.OrderStatusShipped, models.OrderStatusDelivered},
		{models.OrderStatusShipped, models.OrderStatusReturnRequested},
		{models.OrderStatusDelivered, models.OrderStatusReturnRequested},
		{models.OrderStatusReturnRequested, models.OrderStatusReturnApproved},
		{models.OrderStatusReturnRequested, models.OrderStatusReturnRejected},
		{models.OrderStatusReturnApproved, models.OrderStatusRefunded},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr.from, tr.to), "%s -> %s should be legal", tr.from, tr.to)
	}

	rejected := []struct{ from, to models.OrderStatus }{
		{models.OrderStatusDelivered, models.OrderStatusCancelled},
		{models.OrderStatusPending, models.OrderStatusShipped},
		{models.OrderStatusPending, models.OrderStatusReturnRequested},
		{models.OrderStatusShipped, models.OrderStatusCancelled},
		{models.OrderStatusCancelled, models.OrderStatusPending},
		{models.OrderStatusRefunded, models.OrderStatusReturnApproved},
		{models.OrderStatusReturnRejected, models.OrderStatusReturnRequested},
		{models.OrderStatusPending, models.OrderStatusPending},
	}
	for _, tr := range rejected {
		assert.False(t, CanTransition(tr.from, tr.to), "%s -> %s should be rejected", tr.from, tr.to)
	}
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	assert.True(t, IsTerminal(models.OrderStatusCancelled))
	assert.True(t, IsTerminal(models.OrderStatusRefunded))
	assert.True(t, IsTerminal(models.OrderStatusReturnRejected))

	// DELIVERED can still move to RETURN_REQUESTED.
	assert.False(t, IsTerminal(models.OrderStatusDelivered))
	assert.False(t, IsTerminal(models.OrderStatusPending))
}

// The only path to REFUNDED runs through a return:
// (SHIPPED|DELIVERED) -> RETURN_REQUESTED -> RETURN_APPROVED -> REFUNDED.
func TestRefundedReachability(t *testing.T) {
	t.Parallel()

	var parents []models.OrderStatus
	for from, tos := range statusTransitions {
		for _, to := range tos {
			if to == models.OrderStatusRefunded {
				parents = append(parents, from)
			}
		}
	}
	assert.Equal(t, []models.OrderStatus{models.OrderStatusReturnApproved}, parents)

	// From PENDING, REFUNDED needs at least 4 hops.
	dist := map[models.OrderStatus]int{models.OrderStatusPending: 0}
	queue := []models.OrderStatus{models.OrderStatusPending}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range statusTransitions[cur] {
			if _, seen := dist[next]; !seen {
				dist[next] = dist[cur] + 1
				queue = append(queue, next)
			}
		}
	}
	assert.Equal(t, 5, dist[models.OrderStatusRefunded])
}
