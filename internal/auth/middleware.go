package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pantry-service/internal/domain"
	apperrors "github.com/spec-kit/pantry-service/pkg/util"
)

const identityKey = "auth_identity"

// Middleware resolves the session cookie into an identity for downstream handlers.
type Middleware struct {
	sessions *SessionService
	csrf     *CSRFService
}

// NewMiddleware constructs middleware.
func NewMiddleware(sessions *SessionService, csrf *CSRFService) *Middleware {
	return &Middleware{sessions: sessions, csrf: csrf}
}

// RequireSession enforces a valid, unrevoked session.
func (m *Middleware) RequireSession(c *fiber.Ctx) error {
	token := c.Cookies(m.sessions.CookieName())
	if token == "" {
		return apperrors.NewUnauthorized("authentication required")
	}

	identity := m.sessions.Verify(c.UserContext(), token, VerifyOptions{})
	if identity == nil {
		return apperrors.NewUnauthorized("invalid or expired session")
	}

	c.Locals(identityKey, identity)
	return c.Next()
}

// OptionalSession resolves an identity hint without the revocation lookup and
// never fails the request. Handlers behind it must not gate privileged
// actions on the hint.
func (m *Middleware) OptionalSession(c *fiber.Ctx) error {
	token := c.Cookies(m.sessions.CookieName())
	if token != "" {
		if identity := m.sessions.Verify(c.UserContext(), token, VerifyOptions{SkipRevocationCheck: true}); identity != nil {
			c.Locals(identityKey, identity)
		}
	}
	return c.Next()
}

// RequireCSRF validates the anti-forgery token for mutating methods. It must
// run after RequireSession.
func (m *Middleware) RequireCSRF(c *fiber.Ctx) error {
	identity, _ := IdentityFromContext(c)
	if err := m.csrf.RequireValid(c, identity); err != nil {
		return err
	}
	return c.Next()
}

// IdentityFromContext retrieves the authenticated identity.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok
}
