// Package reservation implements ticket booking against a show's seat
// counter.  A reservation either takes all requested seats and records one
// ticket, or changes nothing.  Overbooking is prevented by the store's
// single conditional decrement, not by locks in this process, so any number
// of server replicas can run Reserve concurrently.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-ticket-booking/internal/logger"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/queue"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
	"github.com/iliyamo/movie-ticket-booking/internal/telemetry"
)

// Store is the persistence the service needs.
//
// ReserveSeats must, atomically, decrement the show's seats by
// t.NumberOfTickets only if at least that many are free and record t.  It
// reports repository.ErrShowNotFound or repository.ErrInsufficientSeats
// when the guard fails, and returns the seats left on success.
type Store interface {
	GetShow(ctx context.Context, id uint64) (*model.Show, error)
	ReserveSeats(ctx context.Context, t *model.Ticket) (uint32, error)
}

// EventPublisher receives a ticket.issued event after each commit.
type EventPublisher interface {
	PublishTicketIssued(ctx context.Context, ev queue.TicketIssuedEvent) error
}

// Request is one booking attempt.
type Request struct {
	ShowID          uint64
	NumberOfTickets int64
	ShowTime        string // optional; must match the show when set
	Movie           string // informational only
	RequesterID     uint64
}

// Service runs reservations.
type Service struct {
	store          Store
	events         EventPublisher
	log            *zap.Logger
	publishTimeout time.Duration
	now            func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithPublisher sets the ticket.issued publisher.
func WithPublisher(p EventPublisher) Option { return func(s *Service) { s.events = p } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = logger.OrNop(l) } }

// NewService builds a Service over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:          store,
		log:            zap.NewNop(),
		publishTimeout: 3 * time.Second,
		now:            time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Reserve books req.NumberOfTickets seats on req.ShowID for the requester.
// On success the returned ticket has been durably recorded and the seat
// count reduced by exactly the requested amount.  Every error leaves both
// untouched.  Errors wrap one of ErrInvalidArgument, ErrNotFound,
// ErrInsufficientCapacity or ErrStoreUnavailable.
func (s *Service) Reserve(ctx context.Context, req Request) (t *model.Ticket, err error) {
	ctx, span := telemetry.StartSpan(ctx, "reservation.Reserve",
		attribute.Int64("show.id", int64(req.ShowID)),
		attribute.Int64("ticket.count", req.NumberOfTickets))
	defer func() { telemetry.EndSpan(span, err) }()

	if req.NumberOfTickets <= 0 || req.NumberOfTickets > math.MaxUint32 {
		return nil, fmt.Errorf("%w: numberOfTickets must be a positive integer", ErrInvalidArgument)
	}
	if req.RequesterID == 0 {
		return nil, fmt.Errorf("%w: requester is required", ErrInvalidArgument)
	}
	count := uint32(req.NumberOfTickets)

	show, err := s.store.GetShow(ctx, req.ShowID)
	if err != nil {
		return nil, s.storeError("load show", req, err)
	}

	if strings.TrimSpace(req.ShowTime) != "" {
		want, err := NormalizeShowTime(req.ShowTime)
		if err != nil {
			return nil, err
		}
		if !want.Equal(show.ShowTime.UTC().Truncate(time.Second)) {
			return nil, fmt.Errorf("%w: show %d starts at %s, not %s",
				ErrInvalidArgument, show.ID, FormatShowTime(show.ShowTime), FormatShowTime(want))
		}
	}

	// Early answer for the common case; the store re-checks atomically.
	if show.SeatsAvailable < count {
		return nil, fmt.Errorf("%w: requested %d, available %d", ErrInsufficientCapacity, count, show.SeatsAvailable)
	}

	ticket := &model.Ticket{
		NumberOfTickets: count,
		ShowTime:        show.ShowTime.UTC().Truncate(time.Second),
		Movie:           show.Name,
		ShowID:          show.ID,
		UserID:          req.RequesterID,
	}
	left, err := s.store.ReserveSeats(ctx, ticket)
	if err != nil {
		return nil, s.storeError("reserve seats", req, err)
	}

	s.log.Info("ticket issued",
		zap.Uint64("ticket_id", ticket.ID),
		zap.Uint64("show_id", ticket.ShowID),
		zap.Uint64("user_id", ticket.UserID),
		zap.Uint32("count", count),
		zap.Uint32("seats_left", left),
		zap.String("trace_id", telemetry.TraceID(ctx)))
	s.publish(ctx, ticket, show.CinemaID, left)
	return ticket, nil
}

// storeError maps store failures onto the service's error kinds.
func (s *Service) storeError(op string, req Request, err error) error {
	switch {
	case errors.Is(err, repository.ErrShowNotFound):
		return fmt.Errorf("%w: show %d", ErrNotFound, req.ShowID)
	case errors.Is(err, repository.ErrInsufficientSeats):
		return fmt.Errorf("%w: requested %d", ErrInsufficientCapacity, req.NumberOfTickets)
	}
	s.log.Error("reservation store failure",
		zap.String("op", op), zap.Uint64("show_id", req.ShowID), zap.Error(err))
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

// publish emits ticket.issued.  The reservation is already committed, so a
// failure is only logged.
func (s *Service) publish(ctx context.Context, t *model.Ticket, cinemaID uint64, left uint32) {
	if s.events == nil {
		return
	}
	ev := queue.NewTicketIssuedEvent(t, cinemaID, left, s.now())
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	if err := s.events.PublishTicketIssued(pctx, ev); err != nil {
		s.log.Warn("ticket.issued publish failed",
			zap.Uint64("ticket_id", t.ID), zap.String("message_id", ev.MessageID), zap.Error(err))
	}
}
