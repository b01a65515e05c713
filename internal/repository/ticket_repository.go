package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// TicketScope selects which of a user's tickets to list.
type TicketScope string

const (
	TicketScopeAll      TicketScope = "all"
	TicketScopeUpcoming TicketScope = "upcoming"
	TicketScopePast     TicketScope = "past"
)

// ParseTicketScope maps a query value to a scope, defaulting to all.
func ParseTicketScope(s string) TicketScope {
	switch TicketScope(s) {
	case TicketScopeUpcoming, TicketScopePast:
		return TicketScope(s)
	}
	return TicketScopeAll
}

// TicketRepo persists tickets.  Tickets are append-only: there is no update
// or delete.
type TicketRepo struct {
	db *sql.DB
}

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// CreateTx inserts t using tx and fills its id and created_at.  The caller
// owns the transaction.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
	const q = `INSERT INTO tickets (show_id, user_id, number_of_tickets, movie, show_time)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, t.ShowID, t.UserID, t.NumberOfTickets, t.Movie, t.ShowTime.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return tx.QueryRowContext(ctx, "SELECT created_at FROM tickets WHERE id = ?", t.ID).Scan(&t.CreatedAt)
}

// ListByUser returns the user's tickets ordered by show time.  now splits
// upcoming from past.
func (r *TicketRepo) ListByUser(ctx context.Context, userID uint64, scope TicketScope, now time.Time) ([]model.Ticket, error) {
	q := `SELECT id, number_of_tickets, show_time, movie, show_id, user_id, created_at
	      FROM tickets WHERE user_id = ?`
	args := []any{userID}
	switch scope {
	case TicketScopeUpcoming:
		q += " AND show_time >= ?"
		args = append(args, now.UTC())
	case TicketScopePast:
		q += " AND show_time < ?"
		args = append(args, now.UTC())
	}
	q += " ORDER BY show_time ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Ticket{}
	for rows.Next() {
		var t model.Ticket
		if err := rows.Scan(&t.ID, &t.NumberOfTickets, &t.ShowTime, &t.Movie, &t.ShowID, &t.UserID, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
