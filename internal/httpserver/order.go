package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_platform/internal/apperr"
	"github.com/Skotchmaster/shop_platform/internal/auth"
	"github.com/Skotchmaster/shop_platform/internal/models"
	"github.com/Skotchmaster/shop_platform/internal/mykafka"
	"github.com/Skotchmaster/shop_platform/internal/order"
)

type OrderHandler struct {
	Svc      *order.Service
	Producer *mykafka.Producer
}

type orderItemRequest struct {
	ProductID uint  `json:"product_id"`
	Quantity  uint  `json:"quantity"`
	Price     int64 `json:"price"`
}

type createOrderRequest struct {
	UserID     uint               `json:"user_id"`
	DiscountID *uint              `json:"discount_id"`
	Items      []orderItemRequest `json:"items"`
}

// CreateOrder places an order with an explicit item list. A regular user
// orders for themselves; an admin may place an order on a user's behalf,
// in which case the item prices from the request are honored as overrides.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return respondErr(c, err)
	}

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	in := order.CreateInput{
		UserID:     p.ID,
		DiscountID: req.DiscountID,
	}
	if p.IsAdmin() {
		adminID := p.ID
		in.AdminID = &adminID
		in.UserID = req.UserID
	}
	for _, it := range req.Items {
		item := order.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity}
		if p.IsAdmin() {
			item.Price = it.Price
		}
		in.Items = append(in.Items, item)
	}

	ord, err := h.Svc.Create(c.Request().Context(), in)
	if err != nil {
		return respondErr(c, err)
	}

	h.publishOrderEvent(c, "order_created", ord)
	h.publishStockEvent(c, "stock_reserved", ord)
	return respond(c, http.StatusCreated, "order created", ord)
}

type checkoutRequest struct {
	DiscountCode string `json:"discount_code"`
}

// Checkout turns the caller's cart into an order.
func (h *OrderHandler) Checkout(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return respondErr(c, err)
	}

	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	ord, err := h.Svc.Checkout(c.Request().Context(), p.ID, req.DiscountCode)
	if err != nil {
		return respondErr(c, err)
	}

	h.publishOrderEvent(c, "order_created", ord)
	h.publishStockEvent(c, "stock_reserved", ord)
	return respond(c, http.StatusCreated, "order created", ord)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return respondErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}

	ord, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	if ord.UserID != p.ID && !p.IsAdmin() {
		return respondErr(c, fmt.Errorf("%w: not your order", apperr.ErrForbidden))
	}
	return respond(c, http.StatusOK, "order", ord)
}

// ListOrders returns the caller's own orders, newest first. ?status narrows
// to a single lifecycle status.
func (h *OrderHandler) ListOrders(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return respondErr(c, err)
	}
	offset, limit := pagination(c)
	status := models.OrderStatus(c.QueryParam("status"))

	orders, total, err := h.Svc.ListByUser(c.Request().Context(), p.ID, status, limit, offset)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "orders", echo.Map{
		"orders": orders,
		"meta":   listMeta{Total: total, Limit: limit, Offset: offset},
	})
}

// ListManagedOrders returns orders the acting admin placed on behalf of users.
func (h *OrderHandler) ListManagedOrders(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return respondErr(c, err)
	}
	offset, limit := pagination(c)
	status := models.OrderStatus(c.QueryParam("status"))

	orders, total, err := h.Svc.ListByAdmin(c.Request().Context(), p.ID, status, limit, offset)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "orders", echo.Map{
		"orders": orders,
		"meta":   listMeta{Total: total, Limit: limit, Offset: offset},
	})
}

type updateStatusRequest struct {
	Status    models.OrderStatus `json:"status"`
	AdminNote string             `json:"admin_note"`
}

// UpdateStatus moves an order along the lifecycle graph. Admin only.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return respondErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}

	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	ord, err := h.Svc.UpdateStatus(c.Request().Context(), id, req.Status, p.ID, req.AdminNote)
	if err != nil {
		return respondErr(c, err)
	}

	h.publishOrderEvent(c, "order_status_changed", ord)
	// the flip to released happens at most once, on cancel or return approval
	if ord.StockReleased &&
		(ord.Status == models.OrderStatusCancelled || ord.Status == models.OrderStatusReturnApproved) {
		h.publishStockEvent(c, "stock_released", ord)
	}
	return respond(c, http.StatusOK, "order status updated", ord)
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return respondErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}

	var req cancelOrderRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	ord, err := h.Svc.Cancel(c.Request().Context(), id, p.ID, p.IsAdmin(), req.Reason)
	if err != nil {
		return respondErr(c, err)
	}

	h.publishOrderEvent(c, "order_cancelled", ord)
	h.publishStockEvent(c, "stock_released", ord)
	return respond(c, http.StatusOK, "order cancelled", ord)
}

type returnRequest struct {
	Reason string             `json:"reason"`
	Items  []orderItemRequest `json:"items"`
}

// RequestReturn opens a return for a shipped or delivered order. Stock does
// not move until an admin approves the return.
func (h *OrderHandler) RequestReturn(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return respondErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}

	var req returnRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	items := make([]order.ReturnItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, order.ReturnItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	rr, err := h.Svc.RequestReturn(c.Request().Context(), id, p.ID, req.Reason, items)
	if err != nil {
		return respondErr(c, err)
	}

	publishEvent(c, h.Producer, mykafka.TopicOrderEvents, fmt.Sprint(id), echo.Map{
		"type":      "return_requested",
		"order_id":  id,
		"reference": rr.Reference,
	})
	return respond(c, http.StatusCreated, "return requested", rr)
}

func (h *OrderHandler) publishStockEvent(c echo.Context, kind string, ord *models.Order) {
	items := make([]echo.Map, 0, len(ord.Items))
	for _, it := range ord.Items {
		items = append(items, echo.Map{"product_id": it.ProductID, "quantity": it.Quantity})
	}
	publishEvent(c, h.Producer, mykafka.TopicInventoryEvents, fmt.Sprint(ord.ID), echo.Map{
		"type":     kind,
		"order_id": ord.ID,
		"items":    items,
	})
}

func (h *OrderHandler) publishOrderEvent(c echo.Context, kind string, ord *models.Order) {
	publishEvent(c, h.Producer, mykafka.TopicOrderEvents, fmt.Sprint(ord.ID), echo.Map{
		"type":         kind,
		"order_id":     ord.ID,
		"user_id":      ord.UserID,
		"status":       ord.Status,
		"total_amount": ord.TotalAmount,
	})
}
