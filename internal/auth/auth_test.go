package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func doRequest(t *testing.T, mw echo.MiddlewareFunc, token string, next echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	return rec, mw(next)(c)
}

func TestMiddleware_RoundTrip(t *testing.T) {
	t.Parallel()

	token, err := IssueToken(testSecret, 42, RoleAdmin)
	require.NoError(t, err)

	var got Principal
	_, err = doRequest(t, Middleware(testSecret), token, func(c echo.Context) error {
		p, err := FromContext(c)
		require.NoError(t, err)
		got = p
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, err)

	assert.Equal(t, uint(42), got.ID)
	assert.Equal(t, RoleAdmin, got.Role)
	assert.True(t, got.IsAdmin())
}

func TestMiddleware_RejectsBadTokens(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not-a-jwt"},
		{"wrong secret", mustToken(t, []byte("other-secret"), 1, RoleUser)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := doRequest(t, Middleware(testSecret), tc.token, func(c echo.Context) error {
				t.Fatal("handler must not run")
				return nil
			})
			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, http.StatusUnauthorized, he.Code)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := echo.New().NewContext(req, httptest.NewRecorder())
	WithPrincipal(c, Principal{ID: 7, Role: RoleUser})

	err := RequireAdmin(func(c echo.Context) error {
		t.Fatal("handler must not run")
		return nil
	})(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusForbidden, he.Code)

	WithPrincipal(c, Principal{ID: 7, Role: RoleSuperAdmin})
	err = RequireAdmin(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
}

func mustToken(t *testing.T, secret []byte, id uint, role string) string {
	t.Helper()

	token, err := IssueToken(secret, id, role)
	require.NoError(t, err)
	return token
}
