// Package repository contains the MySQL data access layer.  The sentinel
// values below let higher layers distinguish failure scenarios with
// errors.Is without inspecting driver errors themselves.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrShowNotFound is returned when a show id does not exist.
	ErrShowNotFound = errors.New("show not found")
	// ErrInsufficientSeats is returned when the conditional decrement found
	// fewer free seats than requested.  Nothing was written.
	ErrInsufficientSeats = errors.New("insufficient seats")
	// ErrCinemaNotFound is returned when a cinema id does not exist.
	ErrCinemaNotFound = errors.New("cinema not found")
	// ErrDuplicateShowtime is returned when a cinema already has a show at
	// the requested time.
	ErrDuplicateShowtime = errors.New("cinema already booked for this showtime")
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists is returned on signup with an email already in use.
	ErrEmailExists = errors.New("email already exists")
	// ErrTokenInvalid covers unknown, expired and revoked refresh tokens.
	ErrTokenInvalid = errors.New("refresh token invalid")
)

// MySQL server error numbers the repositories translate.
const (
	mysqlDupEntry        = 1062
	mysqlNoReferencedRow = 1452
)

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicateKey(err error) bool { return mysqlErrNumber(err) == mysqlDupEntry }

func isMissingParent(err error) bool { return mysqlErrNumber(err) == mysqlNoReferencedRow }
