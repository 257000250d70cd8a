package httpserver

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_platform/internal/auth"
	"github.com/Skotchmaster/shop_platform/internal/hash"
	"github.com/Skotchmaster/shop_platform/internal/models"
)

// BootstrapHandler mints admin accounts. Token issuance lives elsewhere;
// this exists so a fresh deployment can create its first superadmin without
// touching the database by hand.
type BootstrapHandler struct {
	DB               *gorm.DB
	SuperAdminSecret string
}

type bootstrapRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *BootstrapHandler) RegisterAdmin(c echo.Context) error {
	secret := c.Request().Header.Get("X-Superadmin-Secret")
	if h.SuperAdminSecret == "" ||
		subtle.ConstantTimeCompare([]byte(secret), []byte(h.SuperAdminSecret)) != 1 {
		return fail(c, http.StatusForbidden, "invalid bootstrap secret")
	}

	var req bootstrapRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	switch {
	case req.Name == "":
		return fail(c, http.StatusBadRequest, "name required")
	case !strings.Contains(req.Email, "@"):
		return fail(c, http.StatusBadRequest, "valid email required")
	case len(req.Password) < 8:
		return fail(c, http.StatusBadRequest, "password must be at least 8 characters")
	}

	role := strings.ToUpper(req.Role)
	if role == "" {
		role = auth.RoleSuperAdmin
	}
	if role != auth.RoleAdmin && role != auth.RoleSuperAdmin {
		return fail(c, http.StatusBadRequest, "role must be ADMIN or SUPERADMIN")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return respondErr(c, err)
	}

	admin := models.Admin{Name: req.Name, Email: req.Email, PasswordHash: pwHash, Role: role}
	if err := h.DB.WithContext(c.Request().Context()).Create(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fail(c, http.StatusConflict, "email already registered")
		}
		return respondErr(c, err)
	}

	return respond(c, http.StatusCreated, "admin created", admin)
}
