package model

import "time"

// Show is one scheduled screening of a movie in a cinema (the HTTP API calls
// it a "movie").  SeatsAvailable is the capacity counter: it is set when the
// show is created and afterwards only ever decremented by a successful
// reservation.  It can never go below zero.
//
// Fields:
//
//	ID             primary key identifier.
//	CinemaID       cinema where the show takes place.
//	Name           movie name.
//	ShowTime       start time, UTC, second precision.
//	SeatsAvailable seats still free for booking.
//	CreatedAt      creation timestamp.
type Show struct {
	ID             uint64    // shows.id
	CinemaID       uint64    // shows.cinema_id
	Name           string    // shows.name
	ShowTime       time.Time // shows.show_time
	SeatsAvailable uint32    // shows.seats_available
	CreatedAt      time.Time // shows.created_at
}

// ShowWithCinema pairs a show with the cinema it belongs to.
type ShowWithCinema struct {
	Show
	Cinema Cinema
}
