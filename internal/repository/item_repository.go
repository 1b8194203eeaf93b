package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/pantry-service/internal/domain"
)

// ItemRepository persists the representative team-scoped resource.
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	GetByID(ctx context.Context, teamID, itemID string) (*domain.Item, error)
	Exists(ctx context.Context, teamID, itemID string) (bool, error)
}

type itemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository constructs repository.
func NewItemRepository(pool *pgxpool.Pool) ItemRepository {
	return &itemRepository{pool: pool}
}

func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	const query = `
        INSERT INTO items (team_id, created_by, name, quantity)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		item.TeamID,
		item.CreatedBy,
		item.Name,
		item.Quantity,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

func (r *itemRepository) GetByID(ctx context.Context, teamID, itemID string) (*domain.Item, error) {
	const query = `
        SELECT id, team_id, created_by, name, quantity, created_at, updated_at
        FROM items WHERE team_id=$1 AND id=$2`
	var item domain.Item
	if err := r.pool.QueryRow(ctx, query, teamID, itemID).Scan(
		&item.ID,
		&item.TeamID,
		&item.CreatedBy,
		&item.Name,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) Exists(ctx context.Context, teamID, itemID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM items WHERE team_id=$1 AND id=$2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, teamID, itemID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
