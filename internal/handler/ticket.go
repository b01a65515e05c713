package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-ticket-booking/internal/logger"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/reservation"
)

// Reserver books seats.  *reservation.Service satisfies it.
type Reserver interface {
	Reserve(ctx context.Context, req reservation.Request) (*model.Ticket, error)
}

// TicketHandler serves POST /v1/tickets.
type TicketHandler struct {
	Reservations Reserver
	Log          *zap.Logger
}

func NewTicketHandler(r Reserver, log *zap.Logger) *TicketHandler {
	return &TicketHandler{Reservations: r, Log: logger.OrNop(log)}
}

// createTicketReq keeps numberOfTickets and mid loosely typed so that
// "3" and 3 are both accepted and 2.5 is rejected with a 400 instead of a
// bind error.
type createTicketReq struct {
	NumberOfTickets any    `json:"numberOfTickets"`
	ShowTime        string `json:"showTime"`
	Movie           string `json:"movie"`
	MovieID         any    `json:"mid"`
}

// Create reserves seats for the authenticated user and returns the ticket.
func (h *TicketHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createTicketReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.NumberOfTickets == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "numberOfTickets is required"})
	}
	n, err := reservation.ParseTicketCount(req.NumberOfTickets)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "numberOfTickets must be an integer"})
	}
	mid, ok := anyID(req.MovieID)
	if !ok {
		// an id that cannot name a movie names no movie
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	}

	t, err := h.Reservations.Reserve(c.Request().Context(), reservation.Request{
		ShowID:          mid,
		NumberOfTickets: n,
		ShowTime:        strings.TrimSpace(req.ShowTime),
		Movie:           strings.TrimSpace(req.Movie),
		RequesterID:     uid,
	})
	if err != nil {
		return h.reserveError(c, mid, err)
	}
	return c.JSON(http.StatusCreated, toTicketDTO(*t))
}

func (h *TicketHandler) reserveError(c echo.Context, mid uint64, err error) error {
	switch {
	case reservation.IsInvalidArgument(err):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case reservation.IsNotFound(err):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	case reservation.IsInsufficientCapacity(err):
		return c.JSON(http.StatusConflict, echo.Map{"error": "Not enough seats available"})
	case reservation.IsStoreUnavailable(err):
		h.Log.Warn("reservation store unavailable", zap.Uint64("mid", mid), zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "try again later"})
	}
	h.Log.Error("reserve failed", zap.Uint64("mid", mid), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reserve failed"})
}
