package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pantry-service/internal/api/dto"
	"github.com/spec-kit/pantry-service/internal/auth"
	"github.com/spec-kit/pantry-service/internal/domain"
	"github.com/spec-kit/pantry-service/internal/service"
	apperrors "github.com/spec-kit/pantry-service/pkg/util"
)

// TeamsHandler exposes team and membership endpoints.
type TeamsHandler struct {
	teams *service.TeamService
	items *service.ItemService
}

// NewTeamsHandler constructs handler.
func NewTeamsHandler(teams *service.TeamService, items *service.ItemService) *TeamsHandler {
	return &TeamsHandler{teams: teams, items: items}
}

// Create handles POST /teams.
func (h *TeamsHandler) Create(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.TeamCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" {
		return apperrors.NewValidationError("name required", nil)
	}

	team, err := h.teams.CreateTeam(c.UserContext(), identity.UserID, req.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{"team": fiber.Map{"id": team.ID, "name": team.Name, "owner_user_id": team.OwnerUserID}},
	})
}

// Get handles GET /teams/:id for members.
func (h *TeamsHandler) Get(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	team, membership, err := h.teams.GetTeam(c.UserContext(), identity.UserID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"team":       fiber.Map{"id": team.ID, "name": team.Name, "owner_user_id": team.OwnerUserID},
			"membership": fiber.Map{"role": membership.Role, "is_owner": membership.IsOwner},
		},
	})
}

// SetMemberRole handles POST /teams/:id/members.
func (h *TeamsHandler) SetMemberRole(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.MemberRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" || req.Role == "" {
		return apperrors.NewValidationError("user_id and role required", nil)
	}

	member, err := h.teams.SetMemberRole(c.UserContext(), identity.UserID, c.Params("id"), req.UserID, domain.TeamRole(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{"member": fiber.Map{"user_id": member.UserID, "role": member.Role}},
	})
}

// CreateItem handles POST /teams/:id/items, the representative mutation
// behind the financial-mutation rate limit.
func (h *TeamsHandler) CreateItem(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ItemCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" {
		return apperrors.NewValidationError("name required", nil)
	}

	item, err := h.items.CreateItem(c.UserContext(), identity.UserID, c.Params("id"), req.Name, req.Quantity)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{"item": fiber.Map{"id": item.ID, "name": item.Name, "quantity": item.Quantity}},
	})
}

// GetItem handles GET /teams/:id/items/:itemID through the guarded resource helper.
func (h *TeamsHandler) GetItem(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	item, err := h.items.GetItem(c.UserContext(), identity.UserID, c.Params("id"), c.Params("itemID"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{"item": fiber.Map{"id": item.ID, "name": item.Name, "quantity": item.Quantity}},
	})
}
