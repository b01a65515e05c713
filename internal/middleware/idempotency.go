package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-ticket-booking/internal/logger"
)

const (
	// IdempotencyKeyHeader carries the client chosen key.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayHeader marks a response served from a stored result.
	IdempotentReplayHeader = "Idempotent-Replay"

	idempotencyPrefix    = "idem:"
	defaultProcessingTTL = 30 * time.Second
	maxIdempotencyKeyLen = 128
	maxFingerprintBody   = 1 << 20
)

// IdempotencyStore is the subset of a Redis client the middleware needs.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type idemStatus string

const (
	idemProcessing idemStatus = "processing"
	idemCompleted  idemStatus = "completed"
)

// idemRecord is the JSON stored under an idempotency key.
type idemRecord struct {
	Status      idemStatus `json:"status"`
	Code        int        `json:"code,omitempty"`
	ContentType string     `json:"content_type,omitempty"`
	Body        []byte     `json:"body,omitempty"`
	BodyHash    string     `json:"body_hash"`
	CreatedAt   time.Time  `json:"created_at"`
}

// IdempotencyConfig configures Idempotency.
type IdempotencyConfig struct {
	Store         IdempotencyStore // nil disables the middleware
	TTL           time.Duration    // how long completed responses are replayed
	ProcessingTTL time.Duration    // lease on an in-flight request
	Log           *zap.Logger
}

// Idempotency makes a request replay-safe when the client sends an
// Idempotency-Key header.  The first request for a (user, key) pair claims
// the key with SETNX and runs; a 2xx result is stored and later duplicates
// get it back with Idempotent-Replay: true.  A duplicate arriving while the
// first is still running gets 409, and a reused key with a different body
// gets 422.  Non-2xx results release the key so the
// client may retry.  Requests without the header, and any Redis failure,
// pass straight through.  It must run after JWTAuth.
func Idempotency(cfg IdempotencyConfig) echo.MiddlewareFunc {
	if cfg.Store == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.ProcessingTTL <= 0 {
		cfg.ProcessingTTL = defaultProcessingTTL
	}
	log := logger.OrNop(cfg.Log)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := strings.TrimSpace(c.Request().Header.Get(IdempotencyKeyHeader))
			if key == "" {
				return next(c)
			}
			if len(key) > maxIdempotencyKeyLen {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "Idempotency-Key too long"})
			}
			hash, err := bodyHash(c.Request())
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
			}
			ctx := c.Request().Context()
			rkey := idempotencyPrefix + userKey(c) + ":" + c.Request().Method + ":" + c.Path() + ":" + key

			lease, _ := json.Marshal(idemRecord{Status: idemProcessing, BodyHash: hash, CreatedAt: time.Now().UTC()})
			claimed, err := cfg.Store.SetNX(ctx, rkey, lease, cfg.ProcessingTTL).Result()
			if err != nil {
				log.Warn("idempotency: redis setnx failed", zap.Error(err))
				return next(c)
			}
			if !claimed {
				return replay(c, cfg.Store, rkey, hash, log, next)
			}

			cw := newCaptureWriter(c.Response().Writer, 0)
			c.Response().Writer = cw
			herr := next(c)

			// Detached: the stored result must not depend on the client staying.
			bg := context.WithoutCancel(ctx)
			if herr == nil && cw.status >= 200 && cw.status < 300 {
				rec, _ := json.Marshal(idemRecord{
					Status:      idemCompleted,
					Code:        cw.status,
					ContentType: c.Response().Header().Get(echo.HeaderContentType),
					Body:        cw.buf.Bytes(),
					BodyHash:    hash,
					CreatedAt:   time.Now().UTC(),
				})
				if err := cfg.Store.Set(bg, rkey, rec, cfg.TTL).Err(); err != nil {
					log.Warn("idempotency: store result failed", zap.Error(err))
				}
				return nil
			}
			if err := cfg.Store.Del(bg, rkey).Err(); err != nil {
				log.Warn("idempotency: release key failed", zap.Error(err))
			}
			return herr
		}
	}
}

// bodyHash reads the request body, puts it back for the handler and returns
// its SHA-256.
func bodyHash(r *http.Request) (string, error) {
	var body []byte
	if r.Body != nil {
		b, err := io.ReadAll(io.LimitReader(r.Body, maxFingerprintBody))
		if err != nil {
			return "", err
		}
		_ = r.Body.Close()
		body = b
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

func replay(c echo.Context, store IdempotencyStore, rkey, hash string, log *zap.Logger, next echo.HandlerFunc) error {
	raw, err := store.Get(c.Request().Context(), rkey).Bytes()
	if errors.Is(err, redis.Nil) {
		// Released between SETNX and GET: the first attempt failed.
		return c.JSON(http.StatusConflict, echo.Map{"error": "request with this Idempotency-Key is being retried; try again"})
	}
	if err != nil {
		log.Warn("idempotency: redis get failed", zap.Error(err))
		return next(c)
	}
	var rec idemRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		log.Warn("idempotency: corrupt record", zap.String("key", rkey), zap.Error(err))
		return c.JSON(http.StatusConflict, echo.Map{"error": "request with this Idempotency-Key is in progress"})
	}
	if rec.BodyHash != "" && rec.BodyHash != hash {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "Idempotency-Key was already used with a different request body"})
	}
	if rec.Status != idemCompleted {
		return c.JSON(http.StatusConflict, echo.Map{"error": "request with this Idempotency-Key is in progress"})
	}
	c.Response().Header().Set(IdempotentReplayHeader, "true")
	ct := rec.ContentType
	if ct == "" {
		ct = echo.MIMEApplicationJSON
	}
	return c.Blob(rec.Code, ct, rec.Body)
}
