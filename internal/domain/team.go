package domain

import "time"

// TeamRole is a member's role within a team. Owner is not an assignable role;
// it is derived from team ownership.
type TeamRole string

const (
	TeamRoleMember TeamRole = "MEMBER"
	TeamRoleAdmin  TeamRole = "ADMIN"
	TeamRoleOwner  TeamRole = "OWNER"
)

// Team represents a tenant: a group of users sharing pantry inventory.
type Team struct {
	ID          string
	OwnerUserID string
	Name        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TeamMember is a membership row linking a user to a team with a role.
type TeamMember struct {
	TeamID    string
	UserID    string
	Role      TeamRole
	CreatedAt time.Time
}
