package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/pantry-service/internal/domain"
)

// TeamRepository manages persistence for teams and their memberships.
type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	GetTeam(ctx context.Context, teamID string) (*domain.Team, error)
	GetMember(ctx context.Context, teamID, userID string) (*domain.TeamMember, error)
	UpsertMember(ctx context.Context, member *domain.TeamMember) error
}

type teamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository constructs repository.
func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &teamRepository{pool: pool}
}

func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	const query = `
        INSERT INTO teams (owner_user_id, name)
        VALUES ($1, $2)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		team.OwnerUserID,
		team.Name,
	).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
}

func (r *teamRepository) GetTeam(ctx context.Context, teamID string) (*domain.Team, error) {
	const query = `
        SELECT id, owner_user_id, name, created_at, updated_at
        FROM teams WHERE id=$1`
	var team domain.Team
	if err := r.pool.QueryRow(ctx, query, teamID).Scan(
		&team.ID,
		&team.OwnerUserID,
		&team.Name,
		&team.CreatedAt,
		&team.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) GetMember(ctx context.Context, teamID, userID string) (*domain.TeamMember, error) {
	const query = `
        SELECT team_id, user_id, role, created_at
        FROM team_members WHERE team_id=$1 AND user_id=$2`
	var member domain.TeamMember
	if err := r.pool.QueryRow(ctx, query, teamID, userID).Scan(
		&member.TeamID,
		&member.UserID,
		&member.Role,
		&member.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *teamRepository) UpsertMember(ctx context.Context, member *domain.TeamMember) error {
	const query = `
        INSERT INTO team_members (team_id, user_id, role)
        VALUES ($1, $2, $3)
        ON CONFLICT (team_id, user_id) DO UPDATE SET role=EXCLUDED.role
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		member.TeamID,
		member.UserID,
		member.Role,
	).Scan(&member.CreatedAt)
}
