package handler

import (
	"context"
	"time"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
)

// The handlers depend on these narrow views of the repositories; the MySQL
// repositories satisfy them.

type UserStore interface {
	Create(ctx context.Context, name, email, password, role string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	Rotate(ctx context.Context, userID uint64, oldHash, newHash string, exp time.Time) error
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

type TicketLister interface {
	ListByUser(ctx context.Context, userID uint64, scope repository.TicketScope, now time.Time) ([]model.Ticket, error)
}

type CinemaStore interface {
	Create(ctx context.Context, c *model.Cinema) error
	List(ctx context.Context, page repository.Page, showOrder repository.SortOrder) ([]model.CinemaWithShows, error)
	ListByName(ctx context.Context, name string, page repository.Page) ([]model.CinemaWithShows, error)
}

type ShowStore interface {
	Create(ctx context.Context, s *model.Show) error
	List(ctx context.Context, f repository.ShowFilter, order repository.SortOrder, page repository.Page) ([]model.ShowWithCinema, error)
	GetWithCinema(ctx context.Context, id uint64) (*model.ShowWithCinema, error)
}

var (
	_ UserStore    = (*repository.UserRepo)(nil)
	_ TokenStore   = (*repository.TokenRepo)(nil)
	_ TicketLister = (*repository.TicketRepo)(nil)
	_ CinemaStore  = (*repository.CinemaRepo)(nil)
	_ ShowStore    = (*repository.ShowRepo)(nil)
)
