package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_platform/internal/auth"
	"github.com/Skotchmaster/shop_platform/internal/review"
)

type ReviewHandler struct {
	Svc *review.Service
}

type createReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *ReviewHandler) CreateReview(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return respondErr(c, err)
	}
	productID, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	var req createReviewRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	r, err := h.Svc.Create(c.Request().Context(), review.CreateInput{
		ProductID: productID,
		UserID:    p.ID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusCreated, "review created", r)
}

func (h *ReviewHandler) ListReviews(c echo.Context) error {
	productID, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	offset, limit := pagination(c)

	reviews, total, err := h.Svc.ListByProduct(c.Request().Context(), productID, limit, offset)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "reviews", echo.Map{
		"reviews": reviews,
		"meta":    listMeta{Total: total, Limit: limit, Offset: offset},
	})
}

func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return respondErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	if err := h.Svc.Delete(c.Request().Context(), id, p); err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "review deleted", nil)
}
