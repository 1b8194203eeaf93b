package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pantry-service/internal/api/dto"
	"github.com/spec-kit/pantry-service/internal/auth"
	"github.com/spec-kit/pantry-service/internal/service"
	apperrors "github.com/spec-kit/pantry-service/pkg/util"
)

// resetRequestMessage is returned for every password reset request so the
// response cannot be used to probe which addresses exist.
const resetRequestMessage = "if that address exists, a reset link has been sent"

// AuthHandler exposes authentication and credential endpoints.
type AuthHandler struct {
	auth       *service.AuthService
	sessions   *auth.SessionService
	csrf       *auth.CSRFService
	production bool
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, sessions *auth.SessionService, csrf *auth.CSRFService, production bool) *AuthHandler {
	return &AuthHandler{auth: authService, sessions: sessions, csrf: csrf, production: production}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.DisplayName == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("display_name, email, password required", nil)
	}

	user, token, err := h.auth.Register(c.UserContext(), req.DisplayName, req.Email, req.Password, c.IP())
	if err != nil {
		return err
	}

	h.sessions.SetCookie(c, token)
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"user": fiber.Map{
				"id":           user.ID,
				"display_name": user.DisplayName,
				"role":         user.Role,
			},
		},
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, token, err := h.auth.Login(c.UserContext(), req.Email, req.Password, c.IP())
	if err != nil {
		return err
	}

	h.sessions.SetCookie(c, token)
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": fiber.Map{
				"id":           user.ID,
				"display_name": user.DisplayName,
				"role":         user.Role,
			},
		},
	})
}

// Logout handles POST /auth/logout: revokes all sessions and clears the cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.auth.Logout(c.UserContext(), identity.UserID, c.IP()); err != nil {
		return err
	}
	h.sessions.Clear(c)
	return c.JSON(fiber.Map{"data": fiber.Map{"logged_out": true}})
}

// CSRFToken handles GET /auth/csrf: mints a fresh token for the caller's session.
func (h *AuthHandler) CSRFToken(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(fiber.Map{"data": fiber.Map{"csrf_token": h.csrf.Issue(*identity)}})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user_id":      identity.UserID,
			"display_name": identity.DisplayName,
			"role":         identity.Role,
		},
	})
}

// RequestPasswordReset handles POST /auth/password/reset/request. The
// response is identical whether or not the address was found.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}

	token, err := h.auth.RequestPasswordReset(c.UserContext(), req.Email, c.IP())
	if err != nil {
		return err
	}

	data := fiber.Map{"message": resetRequestMessage}
	// Outbound mail is an external collaborator; in development the token is
	// surfaced directly so the flow can be exercised without a mail sink.
	if !h.production && token != "" {
		data["debug_token"] = token
	}
	return c.JSON(fiber.Map{"data": data})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirm
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("token and new_password required", nil)
	}
	if err := h.auth.ConfirmPasswordReset(c.UserContext(), req.Token, req.NewPassword, c.IP()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"reset": true}})
}

// ChangePassword handles POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("current_password and new_password required", nil)
	}
	if err := h.auth.ChangePassword(c.UserContext(), identity.UserID, req.CurrentPassword, req.NewPassword, c.IP()); err != nil {
		return err
	}
	h.sessions.Clear(c)
	return c.JSON(fiber.Map{"data": fiber.Map{"changed": true}})
}
