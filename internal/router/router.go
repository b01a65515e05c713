// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"database/sql"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/handler"
	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
	"github.com/iliyamo/movie-ticket-booking/internal/validator"
)

// Deps is everything the routes need.  Redis may be nil; cache, rate limit
// and idempotency are then skipped.
type Deps struct {
	Cfg       config.Config
	DB        *sql.DB
	Redis     *redis.Client
	Log       *zap.Logger
	Reserver  handler.Reserver
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
}

// New builds the echo instance with all routes registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validator.NewEcho()

	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(d.Log))

	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(d.DB))

	users := repository.NewUserRepo(d.DB)
	tokens := repository.NewTokenRepo(d.DB)
	tickets := repository.NewTicketRepo(d.DB)
	shows := repository.NewShowRepo(d.DB)
	cinemas := repository.NewCinemaRepo(d.DB)

	registerAuth(e, d, handler.NewAuthHandler(d.Cfg, users, tokens, tickets, d.Log))
	registerCatalog(e, d, handler.NewCinemaHandler(cinemas, d.Log), handler.NewMovieHandler(shows, d.Log))
	registerTickets(e, d, handler.NewTicketHandler(d.Reserver, d.Log))
	return e
}

func registerAuth(e *echo.Echo, d Deps, a *handler.AuthHandler) {
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)

	e.POST("/v1/users", a.Register, limit)
	e.POST("/v1/auth/login", a.Login, limit)
	e.POST("/v1/admin/auth", a.AdminLogin, limit)
	e.POST("/v1/auth/refresh", a.Refresh, limit)
	e.POST("/v1/logout", a.Logout)
	e.POST("/v1/auth/logout", a.Logout)

	e.GET("/v1/users/me", a.Me,
		middleware.JWTAuth(d.Cfg.JWTSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin))
}

func registerCatalog(e *echo.Echo, d Deps, ch *handler.CinemaHandler, mh *handler.MovieHandler) {
	cache := middleware.NewRedisCache(d.Cache, d.Redis, d.Log)

	e.GET("/v1/cinemas", ch.List, cache)
	e.GET("/v1/cinemas/certain", ch.ListCertain, cache)
	e.GET("/v1/movies", mh.List, cache)
	e.GET("/v1/movies/certain", mh.ListCertain, cache)
	e.GET("/v1/movies/:id", mh.Get, cache)

	admin := e.Group("/v1",
		middleware.JWTAuth(d.Cfg.JWTSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	admin.POST("/cinemas", ch.Create)
	admin.POST("/movies", mh.Create)
}

func registerTickets(e *echo.Echo, d Deps, th *handler.TicketHandler) {
	idem := middleware.IdempotencyConfig{
		TTL:           d.Cfg.IdempotencyTTL,
		ProcessingTTL: 30 * time.Second,
		Log:           d.Log,
	}
	if d.Redis != nil {
		idem.Store = d.Redis
	}
	e.POST("/v1/tickets", th.Create,
		middleware.JWTAuth(d.Cfg.JWTSecret),
		middleware.RequireRole(model.RoleUser),
		middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log),
		middleware.Idempotency(idem),
	)
}
