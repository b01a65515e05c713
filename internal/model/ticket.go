package model

import "time"

// Ticket is the immutable record of a successful reservation: one row per
// reservation, regardless of how many seats it covers.  ShowTime and Movie
// are copied from the show at booking time.
type Ticket struct {
	ID              uint64    // tickets.id
	NumberOfTickets uint32    // tickets.number_of_tickets
	ShowTime        time.Time // tickets.show_time
	Movie           string    // tickets.movie
	ShowID          uint64    // tickets.show_id
	UserID          uint64    // tickets.user_id
	CreatedAt       time.Time // tickets.created_at
}
