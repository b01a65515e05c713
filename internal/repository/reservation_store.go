package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/telemetry"
)

// ReservationStore is the MySQL implementation of the reservation service's
// store.  It owns the transaction that ties the seat decrement to the
// ticket insert.
type ReservationStore struct {
	shows   *ShowRepo
	tickets *TicketRepo
}

func NewReservationStore(db *sql.DB) *ReservationStore {
	return &ReservationStore{shows: NewShowRepo(db), tickets: NewTicketRepo(db)}
}

// GetShow reads a show; ErrShowNotFound when absent.
func (s *ReservationStore) GetShow(ctx context.Context, id uint64) (*model.Show, error) {
	return s.shows.GetByID(ctx, id)
}

// ReserveSeats decrements t.NumberOfTickets seats from t.ShowID and inserts
// t, both in one transaction.  Either both writes commit or neither does.
// On success t carries its id and created_at, and the seats left on the
// show are returned.
func (s *ReservationStore) ReserveSeats(ctx context.Context, t *model.Ticket) (left uint32, err error) {
	ctx, span := telemetry.StartSpan(ctx, "repository.ReserveSeats",
		attribute.Int64("show.id", int64(t.ShowID)),
		attribute.Int64("ticket.count", int64(t.NumberOfTickets)))
	defer func() { telemetry.EndSpan(span, err) }()

	tx, err := s.shows.DB().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin reservation tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	left, err = s.shows.DecrementSeatsTx(ctx, tx, t.ShowID, t.NumberOfTickets)
	if err != nil {
		return 0, err
	}
	if err = s.tickets.CreateTx(ctx, tx, t); err != nil {
		return 0, fmt.Errorf("insert ticket: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reservation: %w", err)
	}
	committed = true
	return left, nil
}
