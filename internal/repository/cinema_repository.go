package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// CinemaRepo encapsulates all database queries related to cinemas.
type CinemaRepo struct {
	db    *sql.DB
	shows *ShowRepo
}

// NewCinemaRepo constructs a CinemaRepo.  Listings embed shows, so the
// repository shares the show queries.
func NewCinemaRepo(db *sql.DB) *CinemaRepo {
	return &CinemaRepo{db: db, shows: NewShowRepo(db)}
}

// Create inserts a new cinema and fills in its generated id and timestamp.
func (r *CinemaRepo) Create(ctx context.Context, c *model.Cinema) error {
	c.Name = strings.TrimSpace(c.Name)
	res, err := r.db.ExecContext(ctx, "INSERT INTO cinemas (name, location) VALUES (?, ?)", c.Name, c.Location)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return r.db.QueryRowContext(ctx, "SELECT created_at FROM cinemas WHERE id = ?", c.ID).Scan(&c.CreatedAt)
}

// GetByID fetches a cinema.  It returns ErrCinemaNotFound if no row exists.
func (r *CinemaRepo) GetByID(ctx context.Context, id uint64) (*model.Cinema, error) {
	const q = "SELECT id, name, location, created_at FROM cinemas WHERE id = ?"
	var c model.Cinema
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.Name, &c.Location, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCinemaNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List returns one page of cinemas ordered by id, each with its shows sorted
// by showOrder.
func (r *CinemaRepo) List(ctx context.Context, page Page, showOrder SortOrder) ([]model.CinemaWithShows, error) {
	page = page.Normalize()
	const q = `SELECT id, name, location, created_at FROM cinemas ORDER BY id LIMIT ? OFFSET ?`
	return r.listWithShows(ctx, q, showOrder, page.Limit, page.Offset())
}

// ListByName returns cinemas whose name equals name exactly, paged, each
// with its shows in show time order.
func (r *CinemaRepo) ListByName(ctx context.Context, name string, page Page) ([]model.CinemaWithShows, error) {
	page = page.Normalize()
	const q = `SELECT id, name, location, created_at FROM cinemas WHERE name = ? ORDER BY id LIMIT ? OFFSET ?`
	return r.listWithShows(ctx, q, SortOrder{Field: SortByShowTime}, strings.TrimSpace(name), page.Limit, page.Offset())
}

func (r *CinemaRepo) listWithShows(ctx context.Context, q string, showOrder SortOrder, args ...any) ([]model.CinemaWithShows, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.CinemaWithShows{}
	ids := []uint64{}
	for rows.Next() {
		var c model.CinemaWithShows
		if err := rows.Scan(&c.ID, &c.Name, &c.Location, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Shows = []model.Show{}
		out = append(out, c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	byCinema, err := r.shows.ListByCinemas(ctx, ids, showOrder)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if s, ok := byCinema[out[i].ID]; ok {
			out[i].Shows = s
		}
	}
	return out, nil
}
