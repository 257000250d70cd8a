package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_platform/internal/auth"
	"github.com/Skotchmaster/shop_platform/internal/catalog"
	"github.com/Skotchmaster/shop_platform/internal/logging"
	"github.com/Skotchmaster/shop_platform/internal/models"
	"github.com/Skotchmaster/shop_platform/internal/mykafka"
	"github.com/Skotchmaster/shop_platform/internal/search"
)

type ProductHandler struct {
	Svc      *catalog.Service
	Indexer  *search.Indexer
	Producer *mykafka.Producer
}

type createProductRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        int64  `json:"price"`
	ImageURL     string `json:"image_url"`
	InitialStock int64  `json:"initial_stock"`
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return respondErr(c, err)
	}
	var req createProductRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	product, err := h.Svc.Create(c.Request().Context(), catalog.CreateInput{
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		ImageURL:     req.ImageURL,
		AdminID:      p.ID,
		InitialStock: req.InitialStock,
	})
	if err != nil {
		return respondErr(c, err)
	}

	h.index(c, *product)
	h.publishProductEvent(c, "product_created", product)
	return respond(c, http.StatusCreated, "product created", product)
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	view, err := h.Svc.GetView(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "product", view)
}

func (h *ProductHandler) ListProducts(c echo.Context) error {
	offset, limit := pagination(c)
	products, total, err := h.Svc.List(c.Request().Context(), limit, offset)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "products", echo.Map{
		"products": products,
		"meta":     listMeta{Total: total, Limit: limit, Offset: offset},
	})
}

type updateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	ImageURL    *string `json:"image_url"`
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return respondErr(c, err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	var req updateProductRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	product, err := h.Svc.Update(c.Request().Context(), id, catalog.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
	}, p)
	if err != nil {
		return respondErr(c, err)
	}

	h.index(c, *product)
	h.publishProductEvent(c, "product_updated", product)
	return respond(c, http.StatusOK, "product updated", product)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
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

	if h.Indexer != nil {
		if err := h.Indexer.DeleteProduct(c.Request().Context(), id); err != nil {
			logging.FromContext(c.Request().Context()).Error("deindex product failed",
				"product_id", id, "error", err)
		}
	}
	publishEvent(c, h.Producer, mykafka.TopicProductEvents, fmt.Sprint(id), echo.Map{
		"type":       "product_deleted",
		"product_id": id,
	})
	return respond(c, http.StatusOK, "product deleted", nil)
}

// SearchProducts runs a fuzzy full-text query over the product index.
func (h *ProductHandler) SearchProducts(c echo.Context) error {
	if h.Indexer == nil {
		return fail(c, http.StatusServiceUnavailable, "search is not available")
	}
	query := c.QueryParam("q")
	if query == "" {
		return fail(c, http.StatusBadRequest, "query parameter q is required")
	}
	offset, limit := pagination(c)

	total, products, err := search.Products(c.Request().Context(), h.Indexer.ES, h.Indexer.Index, query, offset, limit)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "search results", echo.Map{
		"products": products,
		"meta":     listMeta{Total: total, Limit: limit, Offset: offset},
	})
}

// index mirrors a product into the search index best-effort.
func (h *ProductHandler) index(c echo.Context, product models.Product) {
	if h.Indexer == nil {
		return
	}
	if err := h.Indexer.IndexProduct(c.Request().Context(), product); err != nil {
		logging.FromContext(c.Request().Context()).Error("index product failed",
			"product_id", product.ID, "error", err)
	}
}

func (h *ProductHandler) publishProductEvent(c echo.Context, kind string, product *models.Product) {
	publishEvent(c, h.Producer, mykafka.TopicProductEvents, fmt.Sprint(product.ID), echo.Map{
		"type":       kind,
		"product_id": product.ID,
		"name":       product.Name,
		"price":      product.Price,
	})
}
