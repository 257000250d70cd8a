package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_platform/internal/auth"
	"github.com/Skotchmaster/shop_platform/internal/inventory"
	"github.com/Skotchmaster/shop_platform/internal/mykafka"
)

type InventoryHandler struct {
	Ledger   *inventory.Ledger
	Producer *mykafka.Producer
}

func (h *InventoryHandler) GetInventory(c echo.Context) error {
	productID, err := parseID(c, "product_id")
	if err != nil {
		return respondErr(c, err)
	}
	inv, err := h.Ledger.Get(c.Request().Context(), productID)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "inventory", inv)
}

type adjustStockRequest struct {
	Change int64  `json:"change"`
	Reason string `json:"reason"`
}

// AdjustStock applies a manual correction through the ledger. Positive
// change restocks, negative removes units; the write fails instead of
// driving the quantity below zero.
func (h *InventoryHandler) AdjustStock(c echo.Context) error {
	p, err := auth.FromContext(c)
	if err != nil {
		return respondErr(c, err)
	}
	productID, err := parseID(c, "product_id")
	if err != nil {
		return respondErr(c, err)
	}

	var req adjustStockRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	inv, entry, err := h.Ledger.Adjust(c.Request().Context(), productID, req.Change, p.ID, req.Reason)
	if err != nil {
		return respondErr(c, err)
	}

	publishEvent(c, h.Producer, mykafka.TopicInventoryEvents, fmt.Sprint(productID), echo.Map{
		"type":       "inventory_adjusted",
		"product_id": productID,
		"change":     req.Change,
		"quantity":   inv.Quantity,
		"admin_id":   p.ID,
	})
	return respond(c, http.StatusOK, "stock adjusted", echo.Map{
		"inventory": inv,
		"log":       entry,
	})
}

func (h *InventoryHandler) LowStock(c echo.Context) error {
	items, err := h.Ledger.LowStock(c.Request().Context())
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "low stock", items)
}

func (h *InventoryHandler) GetLog(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondErr(c, err)
	}
	entry, err := h.Ledger.LogByID(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "inventory log", entry)
}

func (h *InventoryHandler) LogsByProduct(c echo.Context) error {
	productID, err := parseID(c, "product_id")
	if err != nil {
		return respondErr(c, err)
	}
	offset, limit := pagination(c)
	newestFirst := c.QueryParam("order") != "asc"

	logs, total, err := h.Ledger.LogsByProduct(c.Request().Context(), productID, limit, offset, newestFirst)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "inventory logs", echo.Map{
		"logs": logs,
		"meta": listMeta{Total: total, Limit: limit, Offset: offset},
	})
}

func (h *InventoryHandler) LogsByAdmin(c echo.Context) error {
	adminID, err := parseID(c, "admin_id")
	if err != nil {
		return respondErr(c, err)
	}
	offset, limit := pagination(c)
	newestFirst := c.QueryParam("order") != "asc"

	logs, total, err := h.Ledger.LogsByAdmin(c.Request().Context(), adminID, limit, offset, newestFirst)
	if err != nil {
		return respondErr(c, err)
	}
	return respond(c, http.StatusOK, "inventory logs", echo.Map{
		"logs": logs,
		"meta": listMeta{Total: total, Limit: limit, Offset: offset},
	})
}
