package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_platform/internal/auth"
	"github.com/Skotchmaster/shop_platform/internal/cart"
	"github.com/Skotchmaster/shop_platform/internal/catalog"
	"github.com/Skotchmaster/shop_platform/internal/discount"
	"github.com/Skotchmaster/shop_platform/internal/inventory"
	"github.com/Skotchmaster/shop_platform/internal/mykafka"
	"github.com/Skotchmaster/shop_platform/internal/order"
	"github.com/Skotchmaster/shop_platform/internal/review"
	"github.com/Skotchmaster/shop_platform/internal/search"
)

// Deps holds everything the HTTP layer needs. Producer and Indexer may be
// nil; the handlers then skip events and search.
type Deps struct {
	DB               *gorm.DB
	JWTSecret        []byte
	SuperAdminSecret string

	Orders    *order.Service
	Inventory *inventory.Ledger
	Cart      *cart.Service
	Catalog   *catalog.Service
	Discounts *discount.Service
	Reviews   *review.Service

	Producer *mykafka.Producer
	Indexer  *search.Indexer
}

// Register mounts every route on the echo instance.
func Register(e *echo.Echo, d Deps) {
	bootstrap := &BootstrapHandler{DB: d.DB, SuperAdminSecret: d.SuperAdminSecret}
	orders := &OrderHandler{Svc: d.Orders, Producer: d.Producer}
	stock := &InventoryHandler{Ledger: d.Inventory, Producer: d.Producer}
	carts := &CartHandler{Svc: d.Cart}
	products := &ProductHandler{Svc: d.Catalog, Indexer: d.Indexer, Producer: d.Producer}
	discounts := &DiscountHandler{Svc: d.Discounts}
	reviews := &ReviewHandler{Svc: d.Reviews}

	e.GET("/health/live", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/health/ready", func(c echo.Context) error {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request().Context())
		}
		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	api := e.Group("/api/v1")

	api.POST("/bootstrap/admin", bootstrap.RegisterAdmin)

	api.GET("/products", products.ListProducts)
	api.GET("/products/:id", products.GetProduct)
	api.GET("/products/:id/reviews", reviews.ListReviews)
	api.GET("/products/:id/discounts", discounts.ListForProduct)
	api.GET("/search", products.SearchProducts)

	user := api.Group("", auth.Middleware(d.JWTSecret))

	user.GET("/cart", carts.GetCart)
	user.PUT("/cart", carts.ReplaceCart)
	user.DELETE("/cart", carts.ClearCart)
	user.POST("/cart/items", carts.AddItem)
	user.DELETE("/cart/items/:product_id", carts.RemoveItem)

	user.POST("/orders", orders.CreateOrder)
	user.POST("/orders/checkout", orders.Checkout)
	user.GET("/orders", orders.ListOrders)
	user.GET("/orders/:id", orders.GetOrder)
	user.POST("/orders/:id/cancel", orders.CancelOrder)
	user.POST("/orders/:id/return", orders.RequestReturn)

	user.POST("/products/:id/reviews", reviews.CreateReview)
	user.DELETE("/reviews/:id", reviews.DeleteReview)

	admin := api.Group("/admin", auth.Middleware(d.JWTSecret), auth.RequireAdmin)

	admin.POST("/products", products.CreateProduct)
	admin.PATCH("/products/:id", products.UpdateProduct)
	admin.DELETE("/products/:id", products.DeleteProduct)

	admin.GET("/inventory/low-stock", stock.LowStock)
	admin.GET("/inventory/logs/:id", stock.GetLog)
	admin.GET("/inventory/:product_id", stock.GetInventory)
	admin.POST("/inventory/:product_id/adjust", stock.AdjustStock)
	admin.GET("/inventory/:product_id/logs", stock.LogsByProduct)
	admin.GET("/admins/:admin_id/inventory-logs", stock.LogsByAdmin)

	admin.POST("/discounts", discounts.CreateDiscount)
	admin.GET("/discounts", discounts.ListDiscounts)
	admin.GET("/discounts/:id", discounts.GetDiscount)
	admin.PATCH("/discounts/:id", discounts.UpdateDiscount)
	admin.DELETE("/discounts/:id", discounts.DeleteDiscount)
	admin.POST("/discounts/:id/products/:product_id", discounts.AttachProduct)
	admin.DELETE("/discounts/:id/products/:product_id", discounts.DetachProduct)

	admin.GET("/orders", orders.ListManagedOrders)
	admin.PATCH("/orders/:id/status", orders.UpdateStatus)
}
