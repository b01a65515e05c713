package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/config"
)

func cacheCfg() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestRedisCache_MissThenHit(t *testing.T) {
	_, rdb := newMiniRedis(t)
	calls := 0
	e := echo.New()
	e.GET("/v1/movies", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"calls": calls})
	}, NewRedisCache(cacheCfg(), rdb, nil))

	first := get(e, "/v1/movies?page=0&limit=5")
	second := get(e, "/v1/movies?limit=5&page=0")

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, first.Header().Get(echo.HeaderContentType), second.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, calls)

	other := get(e, "/v1/movies?page=1")
	assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}

func TestRedisCache_StoresOnlyOK(t *testing.T) {
	_, rdb := newMiniRedis(t)
	calls := 0
	e := echo.New()
	e.GET("/v1/movies/:id", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	}, NewRedisCache(cacheCfg(), rdb, nil))

	for i := 0; i < 2; i++ {
		rec := get(e, "/v1/movies/9")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, calls)
}

func TestRedisCache_ParamsAreDistinctKeys(t *testing.T) {
	_, rdb := newMiniRedis(t)
	e := echo.New()
	e.GET("/v1/movies/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Param("id"))
	}, NewRedisCache(cacheCfg(), rdb, nil))

	assert.Equal(t, "1", get(e, "/v1/movies/1").Body.String())
	assert.Equal(t, "2", get(e, "/v1/movies/2").Body.String())
	hit := get(e, "/v1/movies/1")
	assert.Equal(t, "HIT", hit.Header().Get("X-Cache"))
	assert.Equal(t, "1", hit.Body.String())
}

func TestRedisCache_RedisDownServesFromHandler(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	mr.Close()
	calls := 0
	e := echo.New()
	e.GET("/v1/cinemas", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"items": []int{}})
	}, NewRedisCache(cacheCfg(), rdb, nil))

	assert.Equal(t, http.StatusOK, get(e, "/v1/cinemas").Code)
	assert.Equal(t, http.StatusOK, get(e, "/v1/cinemas").Code)
	assert.Equal(t, 2, calls)
}
