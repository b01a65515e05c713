package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
	"github.com/iliyamo/movie-ticket-booking/internal/utils"
)

var testAuthCfg = config.Config{JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4}

func userWithPassword(t *testing.T, id uint64, role, password string) *model.User {
	t.Helper()
	hash, err := utils.HashPassword(password, 4)
	require.NoError(t, err)
	return &model.User{ID: id, Name: "Ann", Email: "ann@example.com", PasswordHash: hash, Role: role}
}

const loginBody = `{"email":"ann@example.com","password":"secret123"}`

func TestAdminLogin_RejectsNonAdmin(t *testing.T) {
	users, tokens := new(mockUsers), new(mockTokens)
	users.On("GetByEmail", mock.Anything, "ann@example.com").Return(userWithPassword(t, 1, model.RoleUser, "secret123"), nil)
	h := NewAuthHandler(testAuthCfg, users, tokens, new(mockTickets), nil)

	c, rec := newContext(http.MethodPost, "/v1/admin/auth", strings.NewReader(loginBody), 0)
	require.NoError(t, h.AdminLogin(c))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	tokens.AssertNotCalled(t, "StoreRefresh", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminLogin_IssuesTokensForAdmin(t *testing.T) {
	users, tokens := new(mockUsers), new(mockTokens)
	users.On("GetByEmail", mock.Anything, "ann@example.com").Return(userWithPassword(t, 7, model.RoleAdmin, "secret123"), nil)
	tokens.On("StoreRefresh", mock.Anything, uint64(7), mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)
	h := NewAuthHandler(testAuthCfg, users, tokens, new(mockTickets), nil)

	c, rec := newContext(http.MethodPost, "/v1/admin/auth", strings.NewReader(loginBody), 0)
	require.NoError(t, h.AdminLogin(c))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	uid, role, err := utils.ParseAccessToken(testAuthCfg.JWTSecret, resp.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), uid)
	assert.Equal(t, model.RoleAdmin, role)
	assert.NotEmpty(t, resp.Refresh.Token)
	tokens.AssertExpectations(t)
}

func TestLogin_WrongPasswordAndUnknownUser(t *testing.T) {
	users := new(mockUsers)
	users.On("GetByEmail", mock.Anything, "ann@example.com").Return(userWithPassword(t, 1, model.RoleUser, "other-pass"), nil).Once()
	users.On("GetByEmail", mock.Anything, "ann@example.com").Return(nil, repository.ErrUserNotFound).Once()
	h := NewAuthHandler(testAuthCfg, users, new(mockTokens), new(mockTickets), nil)

	for i := 0; i < 2; i++ {
		c, rec := newContext(http.MethodPost, "/v1/auth/login", strings.NewReader(loginBody), 0)
		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := new(mockUsers)
	users.On("Create", mock.Anything, "Ann", "ann@example.com", "secret123", model.RoleUser, 4).Return(uint64(0), repository.ErrEmailExists)
	h := NewAuthHandler(testAuthCfg, users, new(mockTokens), new(mockTickets), nil)

	c, rec := newContext(http.MethodPost, "/v1/users", strings.NewReader(`{"name":"Ann","email":"ann@example.com","password":"secret123"}`), 0)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMe_Scope(t *testing.T) {
	cases := []struct {
		query string
		scope repository.TicketScope
	}{
		{"", repository.TicketScopeAll},
		{"?scope=upcoming", repository.TicketScopeUpcoming},
		{"?scope=past", repository.TicketScopePast},
		{"?scope=bogus", repository.TicketScopeAll},
	}
	for _, tc := range cases {
		t.Run(string(tc.scope)+tc.query, func(t *testing.T) {
			users, tickets := new(mockUsers), new(mockTickets)
			users.On("GetByID", mock.Anything, uint64(3)).Return(&model.User{ID: 3, Name: "Ann", Email: "ann@example.com", Role: model.RoleUser}, nil)
			tickets.On("ListByUser", mock.Anything, uint64(3), tc.scope, mock.AnythingOfType("time.Time")).
				Return([]model.Ticket{{ID: 9, NumberOfTickets: 2, ShowTime: time.Date(2030, 1, 1, 20, 0, 0, 0, time.UTC), Movie: "Dune", ShowID: 4, UserID: 3}}, nil)
			h := NewAuthHandler(testAuthCfg, users, new(mockTokens), tickets, nil)

			c, rec := newContext(http.MethodGet, "/v1/users/me"+tc.query, nil, 3)
			require.NoError(t, h.Me(c))

			require.Equal(t, http.StatusOK, rec.Code)
			var body struct {
				Scope   string      `json:"scope"`
				Tickets []ticketDTO `json:"tickets"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, string(tc.scope), body.Scope)
			require.Len(t, body.Tickets, 1)
			assert.Equal(t, uint64(4), body.Tickets[0].MovieID)
			tickets.AssertExpectations(t)
		})
	}
}

func TestMe_RequiresUser(t *testing.T) {
	h := NewAuthHandler(testAuthCfg, new(mockUsers), new(mockTokens), new(mockTickets), nil)
	c, rec := newContext(http.MethodGet, "/v1/users/me", nil, 0)
	require.NoError(t, h.Me(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
