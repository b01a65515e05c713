// Package queue carries ticket.issued events over RabbitMQ: the payload, a
// publisher used by the reservation path and a background consumer.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// TicketIssuedQueue is the durable queue ticket events are routed to.
const TicketIssuedQueue = "ticket.issued"

// TicketIssuedEvent is published after a reservation commits.  It carries
// enough for downstream consumers to log, notify or aggregate without
// querying the primary database.  MessageID lets consumers drop redeliveries.
type TicketIssuedEvent struct {
	MessageID       string `json:"message_id"`
	TicketID        uint64 `json:"ticket_id"`
	UserID          uint64 `json:"user_id"`
	ShowID          uint64 `json:"show_id"`
	CinemaID        uint64 `json:"cinema_id"`
	Movie           string `json:"movie"`
	ShowTime        string `json:"show_time"` // RFC3339 UTC
	NumberOfTickets uint32 `json:"number_of_tickets"`
	SeatsRemaining  uint32 `json:"seats_remaining"`
	IssuedAt        string `json:"issued_at"` // RFC3339 UTC
}

// NewTicketIssuedEvent builds the event for a committed ticket.
func NewTicketIssuedEvent(t *model.Ticket, cinemaID uint64, seatsRemaining uint32, now time.Time) TicketIssuedEvent {
	return TicketIssuedEvent{
		MessageID:       uuid.NewString(),
		TicketID:        t.ID,
		UserID:          t.UserID,
		ShowID:          t.ShowID,
		CinemaID:        cinemaID,
		Movie:           t.Movie,
		ShowTime:        t.ShowTime.UTC().Format(time.RFC3339),
		NumberOfTickets: t.NumberOfTickets,
		SeatsRemaining:  seatsRemaining,
		IssuedAt:        now.UTC().Format(time.RFC3339),
	}
}
