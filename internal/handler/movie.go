package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-ticket-booking/internal/logger"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
	"github.com/iliyamo/movie-ticket-booking/internal/reservation"
)

// MovieHandler serves the movie (show) endpoints.
type MovieHandler struct {
	Shows ShowStore
	Log   *zap.Logger
}

func NewMovieHandler(r ShowStore, log *zap.Logger) *MovieHandler {
	return &MovieHandler{Shows: r, Log: logger.OrNop(log)}
}

type createMovieReq struct {
	Name           string `json:"name" validate:"notblank,max=200"`
	ShowTime       string `json:"showTime" validate:"notblank"`
	SeatsAvailable *int64 `json:"seatsAvailable" validate:"required,min=0,max=4294967295"`
	CinemaID       any    `json:"cid" validate:"required"`
}

// Create schedules a movie in a cinema (ADMIN).  A cinema cannot show two
// movies at the same time.
func (h *MovieHandler) Create(c echo.Context) error {
	var req createMovieReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	showTime, err := reservation.NormalizeShowTime(req.ShowTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "showTime is not a valid date-time"})
	}
	cid, ok := anyID(req.CinemaID)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "cinema not found"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	s := model.Show{CinemaID: cid, Name: req.Name, ShowTime: showTime, SeatsAvailable: uint32(*req.SeatsAvailable)}
	if err := h.Shows.Create(ctx, &s); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateShowtime):
			return c.JSON(http.StatusConflict, echo.Map{"error": "Cinema already booked for this particular showtime"})
		case errors.Is(err, repository.ErrCinemaNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "cinema not found"})
		}
		h.Log.Error("create movie failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create movie failed"})
	}
	return c.JSON(http.StatusCreated, toMovieDTO(s))
}

// List pages through movies with their cinema, sorted by orderBy (default
// showTime) in order (default asc).
func (h *MovieHandler) List(c echo.Context) error {
	q, err := parseListQuery(c, repository.SortByShowTime, false)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return h.list(c, repository.ShowFilter{}, q)
}

// ListCertain filters movies by exact name (filterBy=name, the default) or
// exact show time (filterBy=showTime).
func (h *MovieHandler) ListCertain(c echo.Context) error {
	q, err := parseListQuery(c, repository.SortByShowTime, false)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	filter := c.QueryParam("filter")
	if filter == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "filter is required"})
	}
	var f repository.ShowFilter
	switch c.QueryParam("filterBy") {
	case "", "name":
		f.Name = filter
	case "showTime":
		t, err := reservation.NormalizeShowTime(filter)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "filter is not a valid date-time"})
		}
		f.ShowTime = &t
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "filterBy must be name or showTime"})
	}
	return h.list(c, f, q)
}

func (h *MovieHandler) list(c echo.Context, f repository.ShowFilter, q listQuery) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	list, err := h.Shows.List(ctx, f, q.Order, q.Page)
	if err != nil {
		h.Log.Error("list movies failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items := make([]movieDTO, 0, len(list))
	for _, sc := range list {
		d := toMovieDTO(sc.Show)
		cin := toCinemaDTO(sc.Cinema)
		d.Cinema = &cin
		items = append(items, d)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "page": q.Page.Number, "limit": q.Page.Limit})
}

// Get returns one movie with its current seat count.
func (h *MovieHandler) Get(c echo.Context) error {
	id, ok := parseID(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	sc, err := h.Shows.GetWithCinema(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		h.Log.Error("get movie failed", zap.Uint64("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	d := toMovieDTO(sc.Show)
	cin := toCinemaDTO(sc.Cinema)
	d.Cinema = &cin
	return c.JSON(http.StatusOK, d)
}
