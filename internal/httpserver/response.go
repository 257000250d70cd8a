package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_platform/internal/apperr"
	"github.com/Skotchmaster/shop_platform/internal/logging"
)

// Response is the envelope every endpoint returns: status is "success",
// "fail" (client error) or "error" (server error).
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respond(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, Response{Status: "success", Message: message, Data: data})
}

func fail(c echo.Context, code int, message string) error {
	status := "fail"
	if code >= 500 {
		status = "error"
	}
	return c.JSON(code, Response{Status: status, Message: message})
}

// respondErr translates the error taxonomy into HTTP codes. Unexpected
// errors are logged with full detail and surfaced with a generic message.
func respondErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, apperr.ErrDiscountExpired),
		errors.Is(err, apperr.ErrDiscountAlreadyUsed):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrValidation):
		return fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrForbidden):
		return fail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		return fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrConflict):
		return fail(c, http.StatusConflict, err.Error())
	}

	logging.FromContext(c.Request().Context()).Error("internal error", "error", err)
	return fail(c, http.StatusInternalServerError, "internal server error")
}
