package authz

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/pantry-service/internal/domain"
	apperrors "github.com/spec-kit/pantry-service/pkg/util"
)

// Authorization error codes surfaced to callers.
const (
	CodeNotMember                = "NOT_MEMBER"
	CodeInsufficientRole         = "INSUFFICIENT_ROLE"
	CodeOwnerOnly                = "OWNER_ONLY"
	CodeOwnerRequiredForRole     = "OWNER_REQUIRED_FOR_ROLE"
	CodeOwnerAssignmentForbidden = "OWNER_ASSIGNMENT_FORBIDDEN"
)

// TeamStore is the persistence surface the guard needs. Absent rows are
// reported as pgx.ErrNoRows.
type TeamStore interface {
	GetTeam(ctx context.Context, teamID string) (*domain.Team, error)
	GetMember(ctx context.Context, teamID, userID string) (*domain.TeamMember, error)
}

// Membership is the resolved relationship between a caller and a team.
type Membership struct {
	TeamID  string
	UserID  string
	Role    domain.TeamRole
	IsOwner bool
}

// Guard resolves team membership and enforces minimum-role policies.
type Guard struct {
	teams TeamStore
}

// NewGuard constructs a guard over the team store.
func NewGuard(teams TeamStore) *Guard {
	return &Guard{teams: teams}
}

// Resolve determines the caller's standing in a team: ownership first, then
// the membership row. A nil Membership with nil error means "not a member".
func (g *Guard) Resolve(ctx context.Context, userID, teamID string) (*Membership, error) {
	team, err := g.teams.GetTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("team", nil)
		}
		return nil, err
	}

	if team.OwnerUserID == userID {
		return &Membership{TeamID: teamID, UserID: userID, Role: domain.TeamRoleOwner, IsOwner: true}, nil
	}

	member, err := g.teams.GetMember(ctx, teamID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &Membership{TeamID: teamID, UserID: userID, Role: member.Role}, nil
}

// RequireMember fails with NOT_MEMBER when the caller has no standing at all.
func (g *Guard) RequireMember(ctx context.Context, userID, teamID string) (*Membership, error) {
	membership, err := g.Resolve(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, apperrors.NewAuthorizationError(CodeNotMember, "not a member of this team")
	}
	return membership, nil
}

// RequireAdmin fails with INSUFFICIENT_ROLE unless the caller is an admin or
// the owner. Non-members get NOT_MEMBER, never INSUFFICIENT_ROLE.
func (g *Guard) RequireAdmin(ctx context.Context, userID, teamID string) (*Membership, error) {
	membership, err := g.RequireMember(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}
	if !membership.IsOwner && membership.Role != domain.TeamRoleAdmin {
		return nil, apperrors.NewAuthorizationError(CodeInsufficientRole, "admin role required")
	}
	return membership, nil
}

// RequireOwner fails with OWNER_ONLY for anyone but the team owner.
func (g *Guard) RequireOwner(ctx context.Context, userID, teamID string) (*Membership, error) {
	membership, err := g.RequireMember(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}
	if !membership.IsOwner {
		return nil, apperrors.NewAuthorizationError(CodeOwnerOnly, "owner role required")
	}
	return membership, nil
}

// CheckRoleAssignment enforces the role-assignment policy: owner is never
// assignable through this path, and granting admin requires the owner.
func (g *Guard) CheckRoleAssignment(actor *Membership, role domain.TeamRole) error {
	if role == domain.TeamRoleOwner {
		return apperrors.NewAuthorizationError(CodeOwnerAssignmentForbidden, "ownership cannot be assigned")
	}
	if role == domain.TeamRoleAdmin && !actor.IsOwner {
		return apperrors.NewAuthorizationError(CodeOwnerRequiredForRole, "only the owner may grant admin")
	}
	return nil
}

// RequireTeamResource composes "resource exists" with "caller is a member".
// Both failures come back with the same code and status so error shape cannot
// be used to enumerate resources; only the message text differs.
func (g *Guard) RequireTeamResource(ctx context.Context, userID, teamID string, exists func(ctx context.Context) (bool, error)) (*Membership, error) {
	membership, err := g.Resolve(ctx, userID, teamID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, apperrors.NewNotFound("resource", nil)
	}
	ok, err := exists(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NewNotFound("team resource", nil)
	}
	return membership, nil
}
