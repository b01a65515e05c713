package model

import "time"

// Cinema represents a movie theatre venue.  Cinemas are static reference
// data created by administrators; shows are scheduled inside them.  This
// struct corresponds to a row in the `cinemas` table.
//
// Fields:
//
//	ID        primary key identifier.
//	Name      display name (not unique; lookups by name may return several).
//	Location  free-form address or city.
//	CreatedAt timestamp when the cinema was created.
type Cinema struct {
	ID        uint64    // cinemas.id
	Name      string    // cinemas.name
	Location  string    // cinemas.location
	CreatedAt time.Time // cinemas.created_at
}

// CinemaWithShows is a cinema together with its scheduled shows, as returned
// by the cinema listing endpoints.
type CinemaWithShows struct {
	Cinema
	Shows []Show
}
