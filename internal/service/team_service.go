package service

import (
	"context"

	"github.com/spec-kit/pantry-service/internal/authz"
	"github.com/spec-kit/pantry-service/internal/domain"
	"github.com/spec-kit/pantry-service/internal/repository"
)

// TeamService manages teams and memberships behind the authorization guard.
type TeamService struct {
	teams repository.TeamRepository
	guard *authz.Guard
}

// NewTeamService builds the service.
func NewTeamService(teams repository.TeamRepository, guard *authz.Guard) *TeamService {
	return &TeamService{teams: teams, guard: guard}
}

// CreateTeam creates a team owned by the caller.
func (s *TeamService) CreateTeam(ctx context.Context, ownerUserID, name string) (*domain.Team, error) {
	team := &domain.Team{OwnerUserID: ownerUserID, Name: name}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

// GetTeam returns the team to members only.
func (s *TeamService) GetTeam(ctx context.Context, callerUserID, teamID string) (*domain.Team, *authz.Membership, error) {
	membership, err := s.guard.RequireMember(ctx, callerUserID, teamID)
	if err != nil {
		return nil, nil, err
	}
	team, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, nil, err
	}
	return team, membership, nil
}

// SetMemberRole adds a member or changes their role, subject to the guard's
// escalation and role-assignment policies.
func (s *TeamService) SetMemberRole(ctx context.Context, actorUserID, teamID, targetUserID string, role domain.TeamRole) (*domain.TeamMember, error) {
	actor, err := s.guard.RequireAdmin(ctx, actorUserID, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.CheckRoleAssignment(actor, role); err != nil {
		return nil, err
	}

	member := &domain.TeamMember{TeamID: teamID, UserID: targetUserID, Role: role}
	if err := s.teams.UpsertMember(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}
