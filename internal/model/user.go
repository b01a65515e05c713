package model

import "time"

// Role names stored in users.role and carried in access tokens.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an application user record as stored in the `users` table.
// The json tags are omitted because these structs are used by the repository
// layer; handlers define their own response types.
//
// Fields:
//
//	ID           primary key identifier of the user.
//	Name         display name.
//	Email        unique, lower-cased email address.
//	PasswordHash bcrypt hashed password.
//	Role         USER or ADMIN.
//	CreatedAt    timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	CreatedAt    time.Time // users.created_at
}

// IsAdmin reports whether the user carries the ADMIN role.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is never stored, only its SHA-256 hex digest.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
