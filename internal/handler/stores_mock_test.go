package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
	"github.com/iliyamo/movie-ticket-booking/internal/validator"
)

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Create(ctx context.Context, name, email, password, role string, cost int) (uint64, error) {
	args := m.Called(ctx, name, email, password, role, cost)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockUsers) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

type mockTokens struct{ mock.Mock }

func (m *mockTokens) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	return m.Called(ctx, userID, tokenHash, exp).Error(0)
}

func (m *mockTokens) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockTokens) Rotate(ctx context.Context, userID uint64, oldHash, newHash string, exp time.Time) error {
	return m.Called(ctx, userID, oldHash, newHash, exp).Error(0)
}

func (m *mockTokens) RevokeByHash(ctx context.Context, tokenHash string) error {
	return m.Called(ctx, tokenHash).Error(0)
}

func (m *mockTokens) RevokeAllForUser(ctx context.Context, userID uint64) error {
	return m.Called(ctx, userID).Error(0)
}

type mockTickets struct{ mock.Mock }

func (m *mockTickets) ListByUser(ctx context.Context, userID uint64, scope repository.TicketScope, now time.Time) ([]model.Ticket, error) {
	args := m.Called(ctx, userID, scope, now)
	t, _ := args.Get(0).([]model.Ticket)
	return t, args.Error(1)
}

type mockCinemas struct{ mock.Mock }

func (m *mockCinemas) Create(ctx context.Context, c *model.Cinema) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCinemas) List(ctx context.Context, page repository.Page, order repository.SortOrder) ([]model.CinemaWithShows, error) {
	args := m.Called(ctx, page, order)
	l, _ := args.Get(0).([]model.CinemaWithShows)
	return l, args.Error(1)
}

func (m *mockCinemas) ListByName(ctx context.Context, name string, page repository.Page) ([]model.CinemaWithShows, error) {
	args := m.Called(ctx, name, page)
	l, _ := args.Get(0).([]model.CinemaWithShows)
	return l, args.Error(1)
}

type mockShows struct{ mock.Mock }

func (m *mockShows) Create(ctx context.Context, s *model.Show) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockShows) List(ctx context.Context, f repository.ShowFilter, order repository.SortOrder, page repository.Page) ([]model.ShowWithCinema, error) {
	args := m.Called(ctx, f, order, page)
	l, _ := args.Get(0).([]model.ShowWithCinema)
	return l, args.Error(1)
}

func (m *mockShows) GetWithCinema(ctx context.Context, id uint64) (*model.ShowWithCinema, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*model.ShowWithCinema)
	return s, args.Error(1)
}

// newContext builds an echo context with the request validator installed.
// A non-zero uid is placed where JWTAuth would put it.
func newContext(method, target string, body io.Reader, uid uint64) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = validator.NewEcho()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if uid != 0 {
		c.Set(middleware.CtxUserID, uid)
	}
	return c, rec
}
