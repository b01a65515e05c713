package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/repository"
)

func queryContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestParseListQuery_Defaults(t *testing.T) {
	q, err := parseListQuery(queryContext("/v1/cinemas/all"), repository.SortByName, true)
	require.NoError(t, err)
	assert.Equal(t, 0, q.Page.Number)
	assert.Equal(t, repository.DefaultLimit, q.Page.Limit)
	assert.Equal(t, repository.SortByName, q.Order.Field)
	assert.True(t, q.Order.Desc)
}

func TestParseListQuery_Overrides(t *testing.T) {
	q, err := parseListQuery(queryContext("/x?page=2&limit=10&order=asc&orderBy=showTime"), repository.SortByName, true)
	require.NoError(t, err)
	assert.Equal(t, 2, q.Page.Number)
	assert.Equal(t, 10, q.Page.Limit)
	assert.Equal(t, repository.SortByShowTime, q.Order.Field)
	assert.False(t, q.Order.Desc)

	q, err = parseListQuery(queryContext("/x?order=dsc"), repository.SortByShowTime, false)
	require.NoError(t, err)
	assert.True(t, q.Order.Desc)
}

func TestParseListQuery_Invalid(t *testing.T) {
	for _, target := range []string{
		"/x?page=-1",
		"/x?page=a",
		"/x?limit=0",
		"/x?limit=101",
		"/x?order=up",
		"/x?orderBy=seats",
	} {
		_, err := parseListQuery(queryContext(target), repository.SortByName, false)
		assert.Error(t, err, target)
	}
}

func TestAnyID(t *testing.T) {
	id, ok := anyID(float64(12))
	assert.True(t, ok)
	assert.Equal(t, uint64(12), id)

	id, ok = anyID(" 34 ")
	assert.True(t, ok)
	assert.Equal(t, uint64(34), id)

	for _, v := range []any{nil, 0.0, -1.0, 1.5, 1e20, "", "abc", "0", true} {
		_, ok := anyID(v)
		assert.False(t, ok, "%v", v)
	}
}
