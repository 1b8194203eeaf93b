package domain

// Identity is the verified caller resolved from a session token.
type Identity struct {
	UserID      string
	DisplayName string
	Role        UserRole
}
