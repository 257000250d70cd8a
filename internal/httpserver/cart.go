package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_platform/internal/auth"
	"github.com/Skotchmaster/shop_platform/internal/cart"
)

type CartHandler struct {
	Svc *cart.Service
}

type cartItemRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  uint `json:"quantity"`
}

func (h *CartHandler) GetCart(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return respondErr(c, err)
	}
	view, err := h.Svc.Get(c.Request().Context(), p.ID)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "cart", view)
}

type replaceCartRequest struct {
	Items []cartItemRequest `json:"items"`
}

// ReplaceCart swaps the entire cart contents in one shot.
func (h *CartHandler) ReplaceCart(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return respondErr(c, err)
	}
	var req replaceCartRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	items := make([]cart.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, cart.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	view, err := h.Svc.Replace(c.Request().Context(), p.ID, items)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "cart updated", view)
}

// AddItem merges one item into the cart, bumping the quantity if the
// product is already there.
func (h *CartHandler) AddItem(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return respondErr(c, err)
	}
	var req cartItemRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	view, err := h.Svc.Add(c.Request().Context(), p.ID, cart.ItemInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "item added", view)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return respondErr(c, err)
	}
	productID, err := parseID(c, "product_id")
	if err != nil {
		return respondErr(c, err)
	}

	view, err := h.Svc.Remove(c.Request().Context(), p.ID, productID)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "item removed", view)
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return respondErr(c, err)
	}
	if err := h.Svc.Clear(c.Request().Context(), p.ID); err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "cart cleared", nil)
}
