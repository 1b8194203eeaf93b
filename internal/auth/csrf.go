package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/pantry-service/internal/domain"
	apperrors "github.com/spec-kit/pantry-service/pkg/util"
)

// CSRFHeaderNames are the request headers the token is accepted under. Two
// names are kept for compatibility with older clients.
var CSRFHeaderNames = [2]string{"X-CSRF-Token", "X-XSRF-Token"}

// CSRFService mints and verifies stateless anti-forgery tokens bound to the
// session's user through the signature alone; no server-side token state exists.
type CSRFService struct {
	secret []byte
}

// NewCSRFService builds the service with an injected signing secret.
func NewCSRFService(secret []byte) *CSRFService {
	return &CSRFService{secret: secret}
}

// Issue mints a fresh token for the identity. Tokens have no independent
// expiry; they stay valid for as long as the owning session does.
func (s *CSRFService) Issue(identity domain.Identity) string {
	nonce := uuid.NewString()
	return nonce + tokenSeparator + s.sign(nonce, identity.UserID)
}

// Verify recomputes the expected signature for the caller's user and compares
// in constant time. A token minted for another user fails here even when its
// signature string is untouched.
func (s *CSRFService) Verify(token string, identity domain.Identity) bool {
	sep := strings.LastIndex(token, tokenSeparator)
	if sep <= 0 || sep == len(token)-1 {
		return false
	}
	nonce, signature := token[:sep], token[sep+1:]
	expected := s.sign(nonce, identity.UserID)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// MethodRequiresProtection reports whether the HTTP method must carry a valid
// token. Only safe methods are exempt.
func MethodRequiresProtection(method string) bool {
	switch method {
	case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
		return false
	}
	return true
}

// TokenFromRequest extracts the token from either accepted header.
func TokenFromRequest(c *fiber.Ctx) string {
	for _, name := range CSRFHeaderNames {
		if v := c.Get(name); v != "" {
			return v
		}
	}
	return ""
}

// RequireValid checks the incoming request's token against the identity:
// 401 when no session exists, 403 when the token is missing or invalid.
func (s *CSRFService) RequireValid(c *fiber.Ctx, identity *domain.Identity) error {
	if !MethodRequiresProtection(c.Method()) {
		return nil
	}
	if identity == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	token := TokenFromRequest(c)
	if token == "" {
		return apperrors.NewCSRFError("missing csrf token")
	}
	if !s.Verify(token, *identity) {
		return apperrors.NewCSRFError("invalid csrf token")
	}
	return nil
}

func (s *CSRFService) sign(nonce, userID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(nonce + ":" + userID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
