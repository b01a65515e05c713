package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// ShowRepo manages persistence for shows, including the conditional seat
// decrement used by reservations.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning several repositories.
func (r *ShowRepo) DB() *sql.DB { return r.db }

const showColumns = "s.id, s.cinema_id, s.name, s.show_time, s.seats_available, s.created_at"

type scanner interface{ Scan(dest ...any) error }

func scanShow(row scanner, s *model.Show) error {
	return row.Scan(&s.ID, &s.CinemaID, &s.Name, &s.ShowTime, &s.SeatsAvailable, &s.CreatedAt)
}

// Create inserts a show.  ShowTime must already be normalized to UTC
// seconds.  A second show for the same cinema and time yields
// ErrDuplicateShowtime; an unknown cinema yields ErrCinemaNotFound.
func (r *ShowRepo) Create(ctx context.Context, s *model.Show) error {
	s.Name = strings.TrimSpace(s.Name)
	s.ShowTime = s.ShowTime.UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO shows (cinema_id, name, show_time, seats_available) VALUES (?, ?, ?, ?)",
		s.CinemaID, s.Name, s.ShowTime, s.SeatsAvailable)
	if err != nil {
		switch {
		case isDuplicateKey(err):
			return ErrDuplicateShowtime
		case isMissingParent(err):
			return ErrCinemaNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return r.db.QueryRowContext(ctx, "SELECT created_at FROM shows WHERE id = ?", s.ID).Scan(&s.CreatedAt)
}

// GetByID retrieves a show by id.  It returns ErrShowNotFound if there is no
// matching row.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
	var s model.Show
	err := scanShow(r.db.QueryRowContext(ctx, "SELECT "+showColumns+" FROM shows s WHERE s.id = ?", id), &s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetWithCinema retrieves a show with its cinema embedded.
func (r *ShowRepo) GetWithCinema(ctx context.Context, id uint64) (*model.ShowWithCinema, error) {
	q := "SELECT " + showColumns + ", c.id, c.name, c.location, c.created_at " +
		"FROM shows s JOIN cinemas c ON c.id = s.cinema_id WHERE s.id = ?"
	var sc model.ShowWithCinema
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&sc.ID, &sc.CinemaID, &sc.Name, &sc.ShowTime, &sc.SeatsAvailable, &sc.CreatedAt,
		&sc.Cinema.ID, &sc.Cinema.Name, &sc.Cinema.Location, &sc.Cinema.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowNotFound
		}
		return nil, err
	}
	return &sc, nil
}

// ShowFilter narrows a show listing.  Zero values mean "no filter".
type ShowFilter struct {
	Name     string
	ShowTime *time.Time
}

// List returns one page of shows with their cinema, sorted by order.  The
// sort is applied before paging so pages are consistent.
func (r *ShowRepo) List(ctx context.Context, f ShowFilter, order SortOrder, page Page) ([]model.ShowWithCinema, error) {
	page = page.Normalize()
	var (
		where []string
		args  []any
	)
	if name := strings.TrimSpace(f.Name); name != "" {
		where = append(where, "s.name = ?")
		args = append(args, name)
	}
	if f.ShowTime != nil {
		where = append(where, "s.show_time = ?")
		args = append(args, f.ShowTime.UTC().Truncate(time.Second))
	}
	q := "SELECT " + showColumns + ", c.id, c.name, c.location, c.created_at " +
		"FROM shows s JOIN cinemas c ON c.id = s.cinema_id"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + showOrderClause("s", order) + " LIMIT ? OFFSET ?"
	args = append(args, page.Limit, page.Offset())

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ShowWithCinema{}
	for rows.Next() {
		var sc model.ShowWithCinema
		if err := rows.Scan(
			&sc.ID, &sc.CinemaID, &sc.Name, &sc.ShowTime, &sc.SeatsAvailable, &sc.CreatedAt,
			&sc.Cinema.ID, &sc.Cinema.Name, &sc.Cinema.Location, &sc.Cinema.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// ListByCinemas loads the shows of several cinemas in one query, grouped by
// cinema id and sorted by order within each group.
func (r *ShowRepo) ListByCinemas(ctx context.Context, cinemaIDs []uint64, order SortOrder) (map[uint64][]model.Show, error) {
	out := make(map[uint64][]model.Show, len(cinemaIDs))
	if len(cinemaIDs) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cinemaIDs)), ",")
	args := make([]any, len(cinemaIDs))
	for i, id := range cinemaIDs {
		args[i] = id
	}
	q := "SELECT " + showColumns + " FROM shows s WHERE s.cinema_id IN (" + placeholders + ") ORDER BY " + showOrderClause("s", order)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s model.Show
		if err := scanShow(rows, &s); err != nil {
			return nil, err
		}
		out[s.CinemaID] = append(out[s.CinemaID], s)
	}
	return out, rows.Err()
}

// DecrementSeatsTx takes n seats from a show inside tx.  The guard in the
// WHERE clause makes the check and the write one atomic statement: when
// two transactions race for the last seats, InnoDB serializes them on the
// row lock and the loser re-evaluates the guard against the committed
// value.  Zero affected rows means either the show is gone
// (ErrShowNotFound) or it has fewer than n seats (ErrInsufficientSeats).
// It returns the seats left after the decrement.
func (r *ShowRepo) DecrementSeatsTx(ctx context.Context, tx *sql.Tx, showID uint64, n uint32) (uint32, error) {
	const q = `UPDATE shows SET seats_available = seats_available - ?
	           WHERE id = ? AND seats_available >= ?`
	res, err := tx.ExecContext(ctx, q, n, showID, n)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		var one int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM shows WHERE id = ?", showID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrShowNotFound
		}
		if err != nil {
			return 0, err
		}
		return 0, ErrInsufficientSeats
	}
	var left uint32
	if err := tx.QueryRowContext(ctx, "SELECT seats_available FROM shows WHERE id = ?", showID).Scan(&left); err != nil {
		return 0, err
	}
	return left, nil
}
