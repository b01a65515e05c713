package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/utils"
)

const testSecret = "test-secret"

func protectedEcho() *echo.Echo {
	e := echo.New()
	g := e.Group("", JWTAuth(testSecret))
	g.GET("/me", func(c echo.Context) error {
		uid, _ := UserID(c)
		return c.JSON(http.StatusOK, echo.Map{"id": uid, "role": Role(c)})
	})
	g.GET("/admin", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, RequireRole("ADMIN"))
	return e
}

func do(e *echo.Echo, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := protectedEcho()
	tok, err := utils.NewAccessToken(testSecret, 7, "USER", 5)
	require.NoError(t, err)

	rec := do(e, "/me", tok.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7,"role":"USER"}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(e, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, "/me", "garbage").Code)

	other, err := utils.NewAccessToken("other-secret", 7, "USER", 5)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(e, "/me", other.Token).Code)
}

func TestRequireRole(t *testing.T) {
	e := protectedEcho()
	user, err := utils.NewAccessToken(testSecret, 7, "USER", 5)
	require.NoError(t, err)
	admin, err := utils.NewAccessToken(testSecret, 1, "ADMIN", 5)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, do(e, "/admin", user.Token).Code)
	assert.Equal(t, http.StatusNoContent, do(e, "/admin", admin.Token).Code)
}
