package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_platform/internal/auth"
	"github.com/Skotchmaster/shop_platform/internal/inventory"
	"github.com/Skotchmaster/shop_platform/internal/models"
	"github.com/Skotchmaster/shop_platform/internal/order"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedShop(t *testing.T, db *gorm.DB, stock int64) (models.User, models.Product) {
	t.Helper()

	user := models.User{Name: "alice", Email: "alice@example.com", PasswordHash: "x"}
	admin := models.Admin{Name: "bob", Email: "bob@example.com", PasswordHash: "x", Role: "ADMIN"}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&admin).Error)

	product := models.Product{Name: "widget", Price: 2500, AdminID: admin.ID}
	require.NoError(t, db.Create(&product).Error)
	require.NoError(t, db.Create(&models.Inventory{ProductID: product.ID, Quantity: stock}).Error)
	return user, product
}

// newRequest builds an echo context with an optional JSON body and the
// given principal already authenticated.
func newRequest(t *testing.T, method, target, body string, p auth.Principal) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	auth.WithPrincipal(c, p)
	return c, rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateOrderHandler(t *testing.T) {
	db := newTestDB(t)
	user, product := seedShop(t, db, 5)
	h := &OrderHandler{Svc: &order.Service{DB: db, Ledger: &inventory.Ledger{DB: db}}}

	c, rec := newRequest(t, http.MethodPost, "/api/v1/orders",
		`{"items":[{"product_id":1,"quantity":2}]}`,
		auth.Principal{ID: user.ID, Role: auth.RoleUser})

	require.NoError(t, h.CreateOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decodeResponse(t, rec)
	assert.Equal(t, "success", resp.Status)

	var inv models.Inventory
	require.NoError(t, db.Where("product_id = ?", product.ID).First(&inv).Error)
	assert.Equal(t, int64(3), inv.Quantity)
}

func TestCreateOrderHandler_InsufficientStock(t *testing.T) {
	db := newTestDB(t)
	user, _ := seedShop(t, db, 1)
	h := &OrderHandler{Svc: &order.Service{DB: db, Ledger: &inventory.Ledger{DB: db}}}

	c, rec := newRequest(t, http.MethodPost, "/api/v1/orders",
		`{"items":[{"product_id":1,"quantity":5}]}`,
		auth.Principal{ID: user.ID, Role: auth.RoleUser})

	require.NoError(t, h.CreateOrder(c))
	require.Equal(t, http.StatusConflict, rec.Code)

	resp := decodeResponse(t, rec)
	assert.Equal(t, "fail", resp.Status)
	assert.Contains(t, resp.Message, "insufficient stock")
}

func TestCreateOrderHandler_PriceOverrideIgnoredForUsers(t *testing.T) {
	db := newTestDB(t)
	user, _ := seedShop(t, db, 5)
	h := &OrderHandler{Svc: &order.Service{DB: db, Ledger: &inventory.Ledger{DB: db}}}

	c, rec := newRequest(t, http.MethodPost, "/api/v1/orders",
		`{"items":[{"product_id":1,"quantity":1,"price":1}]}`,
		auth.Principal{ID: user.ID, Role: auth.RoleUser})

	require.NoError(t, h.CreateOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var ord models.Order
	require.NoError(t, db.Preload("Items").First(&ord).Error)
	assert.Equal(t, int64(2500), ord.Items[0].Price)
}

func TestGetOrderHandler_Ownership(t *testing.T) {
	db := newTestDB(t)
	user, _ := seedShop(t, db, 5)
	svc := &order.Service{DB: db, Ledger: &inventory.Ledger{DB: db}}
	h := &OrderHandler{Svc: svc}

	_, err := svc.Create(t.Context(), order.CreateInput{
		UserID: user.ID,
		Items:  []order.ItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	stranger := models.User{Name: "mallory", Email: "mallory@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&stranger).Error)

	c, rec := newRequest(t, http.MethodGet, "/", "",
		auth.Principal{ID: stranger.ID, Role: auth.RoleUser})
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.GetOrder(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// an admin may read any order
	c, rec = newRequest(t, http.MethodGet, "/", "",
		auth.Principal{ID: 1, Role: auth.RoleAdmin})
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.GetOrder(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateStatusHandler_InvalidTransition(t *testing.T) {
	db := newTestDB(t)
	user, _ := seedShop(t, db, 5)
	svc := &order.Service{DB: db, Ledger: &inventory.Ledger{DB: db}}
	h := &OrderHandler{Svc: svc}

	_, err := svc.Create(t.Context(), order.CreateInput{
		UserID: user.ID,
		Items:  []order.ItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	c, rec := newRequest(t, http.MethodPatch, "/", `{"status":"DELIVERED"}`,
		auth.Principal{ID: 1, Role: auth.RoleAdmin})
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.UpdateStatus(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeResponse(t, rec)
	assert.Contains(t, resp.Message, "PENDING")
	assert.Contains(t, resp.Message, "DELIVERED")
}

func TestCancelOrderHandler_RestoresStock(t *testing.T) {
	db := newTestDB(t)
	user, product := seedShop(t, db, 5)
	svc := &order.Service{DB: db, Ledger: &inventory.Ledger{DB: db}}
	h := &OrderHandler{Svc: svc}

	_, err := svc.Create(t.Context(), order.CreateInput{
		UserID: user.ID,
		Items:  []order.ItemInput{{ProductID: product.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	c, rec := newRequest(t, http.MethodPost, "/", `{"reason":"changed my mind"}`,
		auth.Principal{ID: user.ID, Role: auth.RoleUser})
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.CancelOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var inv models.Inventory
	require.NoError(t, db.Where("product_id = ?", product.ID).First(&inv).Error)
	assert.Equal(t, int64(5), inv.Quantity)
}
