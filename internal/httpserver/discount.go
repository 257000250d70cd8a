package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_platform/internal/auth"
	"github.com/Skotchmaster/shop_platform/internal/discount"
)

type DiscountHandler struct {
	Svc *discount.Service
}

type createDiscountRequest struct {
	Code       string    `json:"code"`
	Percentage int64     `json:"percentage"`
	ValidTill  time.Time `json:"valid_till"`
}

func (h *DiscountHandler) CreateDiscount(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return respondErr(c, err)
	}
	var req createDiscountRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	d, err := h.Svc.Create(c.Request().Context(), discount.CreateInput{
		Code:       req.Code,
		Percentage: req.Percentage,
		ValidTill:  req.ValidTill,
		AdminID:    p.ID,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusCreated, "discount created", d)
}

func (h *DiscountHandler) ListDiscounts(c echo.Context) error {
	discounts, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "discounts", discounts)
}

func (h *DiscountHandler) GetDiscount(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	view, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "discount", view)
}

type updateDiscountRequest struct {
	Percentage *int64     `json:"percentage"`
	ValidTill  *time.Time `json:"valid_till"`
}

func (h *DiscountHandler) UpdateDiscount(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	var req updateDiscountRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	d, err := h.Svc.Update(c.Request().Context(), id, discount.UpdateInput{
		Percentage: req.Percentage,
		ValidTill:  req.ValidTill,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "discount updated", d)
}

func (h *DiscountHandler) DeleteDiscount(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "discount deleted", nil)
}

// AttachProduct makes a discount applicable to a product. Only the product
// owner or a superadmin may bind it.
func (h *DiscountHandler) AttachProduct(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return respondErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	productID, err := parseID(c, "product_id")
	if err != nil {
		return respondErr(c, err)
	}

	if err := h.Svc.AttachProduct(c.Request().Context(), id, productID, p); err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "product attached", nil)
}

func (h *DiscountHandler) DetachProduct(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return respondErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	productID, err := parseID(c, "product_id")
	if err != nil {
		return respondErr(c, err)
	}

	if err := h.Svc.DetachProduct(c.Request().Context(), id, productID, p); err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "product detached", nil)
}

// ListForProduct returns the discounts bound to a product. ?valid_only=true
// hides expired ones.
func (h *DiscountHandler) ListForProduct(c echo.Context) error {
	productID, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	validOnly := c.QueryParam("valid_only") == "true"

	discounts, err := h.Svc.ListForProduct(c.Request().Context(), productID, validOnly)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "discounts", discounts)
}
