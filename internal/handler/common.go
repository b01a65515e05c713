// Package handler contains the HTTP handlers.  Handlers translate between
// JSON and the repository or service layer; they hold no business rules.
package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
	"github.com/iliyamo/movie-ticket-booking/internal/reservation"
	"github.com/iliyamo/movie-ticket-booking/internal/validator"
)

// dbTimeout bounds the database work of a single request.
const dbTimeout = 5 * time.Second

var errNoUser = errors.New("invalid user_id in context")

// getUserID returns the authenticated user id set by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	if id, ok := middleware.UserID(c); ok {
		return id, nil
	}
	return 0, errNoUser
}

// bindValid binds the request body into dst and runs struct validation.  On
// failure it has already written a 400 and returns false.
func bindValid(c echo.Context, dst any) (bool, error) {
	if err := c.Bind(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": validator.Describe(err)})
	}
	return true, nil
}

// listQuery is the parsed form of page/limit/order/orderBy.
type listQuery struct {
	Page  repository.Page
	Order repository.SortOrder
}

// parseListQuery reads page (0-based), limit, order (asc|dsc|desc) and
// orderBy (name|showTime).  Missing values take the given defaults.
func parseListQuery(c echo.Context, defOrderBy string, defDesc bool) (listQuery, error) {
	q := listQuery{
		Page:  repository.Page{Number: 0, Limit: repository.DefaultLimit},
		Order: repository.SortOrder{Field: defOrderBy, Desc: defDesc},
	}
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return q, errors.New("page must be a non-negative integer")
		}
		q.Page.Number = n
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > repository.MaxLimit {
			return q, errors.New("limit must be an integer between 1 and 100")
		}
		q.Page.Limit = n
	}
	switch strings.ToLower(c.QueryParam("order")) {
	case "":
	case "asc":
		q.Order.Desc = false
	case "dsc", "desc":
		q.Order.Desc = true
	default:
		return q, errors.New("order must be asc or dsc")
	}
	switch c.QueryParam("orderBy") {
	case "":
	case repository.SortByName, repository.SortByShowTime:
		q.Order.Field = c.QueryParam("orderBy")
	default:
		return q, errors.New("orderBy must be name or showTime")
	}
	return q, nil
}

// parseID parses a positive decimal id.
func parseID(s string) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	return id, err == nil && id > 0
}

// anyID accepts an id decoded from JSON as a number or a decimal string.
func anyID(v any) (uint64, bool) {
	switch n := v.(type) {
	case float64:
		if n < 1 || n >= math.MaxUint64 || n != math.Trunc(n) {
			return 0, false
		}
		return uint64(n), true
	case string:
		return parseID(n)
	}
	return 0, false
}

// ----- response DTOs -----

type cinemaDTO struct {
	ID       uint64     `json:"id"`
	Name     string     `json:"name"`
	Location string     `json:"location"`
	Movies   []movieDTO `json:"movies,omitempty"`
}

type movieDTO struct {
	ID             uint64     `json:"id"`
	Name           string     `json:"name"`
	ShowTime       string     `json:"showTime"`
	SeatsAvailable uint32     `json:"seatsAvailable"`
	CinemaID       uint64     `json:"cid"`
	Cinema         *cinemaDTO `json:"cinema,omitempty"`
}

type ticketDTO struct {
	ID              uint64 `json:"id"`
	NumberOfTickets uint32 `json:"numberOfTickets"`
	ShowTime        string `json:"showTime"`
	Movie           string `json:"movie"`
	MovieID         uint64 `json:"mid"`
	UserID          uint64 `json:"uid"`
	CreatedAt       string `json:"createdAt,omitempty"`
}

func toCinemaDTO(c model.Cinema) cinemaDTO {
	return cinemaDTO{ID: c.ID, Name: c.Name, Location: c.Location}
}

func toMovieDTO(s model.Show) movieDTO {
	return movieDTO{
		ID:             s.ID,
		Name:           s.Name,
		ShowTime:       reservation.FormatShowTime(s.ShowTime),
		SeatsAvailable: s.SeatsAvailable,
		CinemaID:       s.CinemaID,
	}
}

func toTicketDTO(t model.Ticket) ticketDTO {
	d := ticketDTO{
		ID:              t.ID,
		NumberOfTickets: t.NumberOfTickets,
		ShowTime:        reservation.FormatShowTime(t.ShowTime),
		Movie:           t.Movie,
		MovieID:         t.ShowID,
		UserID:          t.UserID,
	}
	if !t.CreatedAt.IsZero() {
		d.CreatedAt = t.CreatedAt.UTC().Format(time.RFC3339)
	}
	return d
}
