package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-ticket-booking/internal/logger"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
)

// CinemaHandler serves the cinema endpoints.
type CinemaHandler struct {
	Cinemas CinemaStore
	Log     *zap.Logger
}

func NewCinemaHandler(r CinemaStore, log *zap.Logger) *CinemaHandler {
	return &CinemaHandler{Cinemas: r, Log: logger.OrNop(log)}
}

type createCinemaReq struct {
	Name     string `json:"name" validate:"notblank,max=150"`
	Location string `json:"location" validate:"notblank,max=255"`
}

// Create adds a cinema (ADMIN).
func (h *CinemaHandler) Create(c echo.Context) error {
	var req createCinemaReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	cin := model.Cinema{Name: strings.TrimSpace(req.Name), Location: strings.TrimSpace(req.Location)}
	if err := h.Cinemas.Create(ctx, &cin); err != nil {
		h.Log.Error("create cinema failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create cinema failed"})
	}
	return c.JSON(http.StatusCreated, toCinemaDTO(cin))
}

// List pages through cinemas with their movies.  Movies are sorted by
// orderBy (default name) in order (default dsc).
func (h *CinemaHandler) List(c echo.Context) error {
	q, err := parseListQuery(c, repository.SortByName, true)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	list, err := h.Cinemas.List(ctx, q.Page, q.Order)
	if err != nil {
		h.Log.Error("list cinemas failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, cinemaPage(list, q))
}

// ListCertain returns cinemas named exactly cinemaName.
func (h *CinemaHandler) ListCertain(c echo.Context) error {
	name := strings.TrimSpace(c.QueryParam("cinemaName"))
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cinemaName is required"})
	}
	q, err := parseListQuery(c, repository.SortByShowTime, false)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	list, err := h.Cinemas.ListByName(ctx, name, q.Page)
	if err != nil {
		h.Log.Error("find cinemas failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, cinemaPage(list, q))
}

func cinemaPage(list []model.CinemaWithShows, q listQuery) echo.Map {
	items := make([]cinemaDTO, 0, len(list))
	for _, cw := range list {
		d := toCinemaDTO(cw.Cinema)
		d.Movies = make([]movieDTO, 0, len(cw.Shows))
		for _, s := range cw.Shows {
			d.Movies = append(d.Movies, toMovieDTO(s))
		}
		items = append(items, d)
	}
	return echo.Map{"items": items, "page": q.Page.Number, "limit": q.Page.Limit}
}
