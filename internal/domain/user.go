package domain

import "time"

// UserRole is the application-wide role carried in the session payload.
type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

// User is the domain model for an account holder. The plaintext email address
// is never stored: EmailDigest is the deterministic lookup key and EmailCipher
// the reversible encrypted form for redisplay.
type User struct {
	ID               string
	DisplayName      string
	EmailDigest      string
	EmailCipher      string
	PasswordHash     string
	Role             UserRole
	SessionRevokedAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
