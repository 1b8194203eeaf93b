package service

import (
	"context"

	"github.com/spec-kit/pantry-service/internal/authz"
	"github.com/spec-kit/pantry-service/internal/domain"
	"github.com/spec-kit/pantry-service/internal/repository"
)

// ItemService is the representative team-scoped resource flow consuming the
// guard's decisions.
type ItemService struct {
	items repository.ItemRepository
	guard *authz.Guard
}

// NewItemService builds the service.
func NewItemService(items repository.ItemRepository, guard *authz.Guard) *ItemService {
	return &ItemService{items: items, guard: guard}
}

// CreateItem records an inventory entry for members of the team.
func (s *ItemService) CreateItem(ctx context.Context, callerUserID, teamID, name string, quantity int) (*domain.Item, error) {
	if _, err := s.guard.RequireMember(ctx, callerUserID, teamID); err != nil {
		return nil, err
	}

	item := &domain.Item{TeamID: teamID, CreatedBy: callerUserID, Name: name, Quantity: quantity}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem fetches an item through the guarded resource helper, so a missing
// item and a missing membership come back in the same error shape.
func (s *ItemService) GetItem(ctx context.Context, callerUserID, teamID, itemID string) (*domain.Item, error) {
	_, err := s.guard.RequireTeamResource(ctx, callerUserID, teamID, func(ctx context.Context) (bool, error) {
		return s.items.Exists(ctx, teamID, itemID)
	})
	if err != nil {
		return nil, err
	}
	return s.items.GetByID(ctx, teamID, itemID)
}
