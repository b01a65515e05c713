package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis is an in-memory IdempotencyStore; TTLs are ignored.
type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeRedis() *fakeRedis { return &fakeRedis{data: map[string]string{}} }

func toString(v any) string {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case string:
		return t
	}
	return ""
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = toString(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = toString(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeRedis) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.data)
}

func idemEcho(store IdempotencyStore, h echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	withUser := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(CtxUserID, uint64(5))
			return next(c)
		}
	}
	e.POST("/tickets", h, withUser, Idempotency(IdempotencyConfig{Store: store, TTL: time.Minute}))
	return e
}

func post(e *echo.Echo, key string) *httptest.ResponseRecorder {
	return postBody(e, key, "")
}

func postBody(e *echo.Echo, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/tickets", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestIdempotencyReplaysSuccess(t *testing.T) {
	calls := 0
	e := idemEcho(newFakeRedis(), func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusCreated, echo.Map{"ticket": calls})
	})

	first := post(e, "abc")
	second := post(e, "abc")

	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, 1, calls)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(IdempotentReplayHeader))
	assert.Empty(t, first.Header().Get(IdempotentReplayHeader))

	post(e, "other")
	assert.Equal(t, 2, calls)
}

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	calls := 0
	store := newFakeRedis()
	e := idemEcho(store, func(c echo.Context) error {
		calls++
		return c.NoContent(http.StatusCreated)
	})

	post(e, "")
	post(e, "")
	assert.Equal(t, 2, calls)
	assert.Zero(t, store.len())
}

func TestIdempotencyReleasesOnFailure(t *testing.T) {
	calls := 0
	store := newFakeRedis()
	e := idemEcho(store, func(c echo.Context) error {
		calls++
		if calls == 1 {
			return c.JSON(http.StatusConflict, echo.Map{"error": "insufficient seats available"})
		}
		return c.JSON(http.StatusCreated, echo.Map{"ok": true})
	})

	assert.Equal(t, http.StatusConflict, post(e, "k").Code)
	assert.Zero(t, store.len())
	assert.Equal(t, http.StatusCreated, post(e, "k").Code)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyInFlightConflict(t *testing.T) {
	store := newFakeRedis()
	release := make(chan struct{})
	entered := make(chan struct{})
	e := idemEcho(store, func(c echo.Context) error {
		close(entered)
		<-release
		return c.NoContent(http.StatusCreated)
	})

	done := make(chan *httptest.ResponseRecorder)
	go func() { done <- post(e, "slow") }()
	<-entered

	dup := post(e, "slow")
	assert.Equal(t, http.StatusConflict, dup.Code)

	close(release)
	assert.Equal(t, http.StatusCreated, (<-done).Code)
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	var seen []string
	e := idemEcho(newFakeRedis(), func(c echo.Context) error {
		var body map[string]any
		if err := c.Bind(&body); err != nil {
			return err
		}
		seen = append(seen, fmt.Sprint(body["mid"]))
		return c.JSON(http.StatusCreated, echo.Map{"mid": body["mid"]})
	})

	first := postBody(e, "k1", `{"mid":1,"numberOfTickets":2}`)
	require.Equal(t, http.StatusCreated, first.Code)

	same := postBody(e, "k1", `{"mid":1,"numberOfTickets":2}`)
	assert.Equal(t, http.StatusCreated, same.Code)
	assert.Equal(t, "true", same.Header().Get(IdempotentReplayHeader))

	other := postBody(e, "k1", `{"mid":2,"numberOfTickets":2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, other.Code)
	assert.Empty(t, other.Header().Get(IdempotentReplayHeader))

	assert.Equal(t, []string{"1"}, seen)
}
