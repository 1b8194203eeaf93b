package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/pantry-service/internal/domain"
)

const tokenSeparator = "."

// RevocationStore resolves and mutates the per-user session revocation mark.
// A storage error during lookup must make verification fail closed.
type RevocationStore interface {
	SessionRevokedAt(ctx context.Context, userID string) (*time.Time, error)
	RevokeAllSessions(ctx context.Context, userID string, at time.Time) error
}

// CookieSettings controls how the session cookie is written.
type CookieSettings struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// CookieSettingsFor returns the per-environment cookie settings. Production
// uses the host-locked prefix so the cookie cannot be set from a subdomain or
// over plain HTTP.
func CookieSettingsFor(production bool, maxAge time.Duration) CookieSettings {
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	if production {
		return CookieSettings{Name: "__Host-pantry_session", Secure: true, MaxAge: maxAge}
	}
	return CookieSettings{Name: "pantry_session", Secure: false, MaxAge: maxAge}
}

// VerifyOptions tunes a single verification call.
type VerifyOptions struct {
	// SkipRevocationCheck elides the revocation-store read. Only callers that
	// need a fast identity hint for a low-stakes read may set it; anything
	// gating a privileged action must leave it false.
	SkipRevocationCheck bool
}

type sessionPayload struct {
	UserID      string          `json:"uid"`
	DisplayName string          `json:"name"`
	Role        domain.UserRole `json:"role"`
	IssuedAt    int64           `json:"iat"`
	ExpiresAt   int64           `json:"exp"`
}

// SessionService issues, verifies and revokes signed session tokens carried
// in an HTTP-only cookie.
type SessionService struct {
	secret      []byte
	cookie      CookieSettings
	revocations RevocationStore
	now         func() time.Time
}

// NewSessionService builds the service with an injected signing secret.
func NewSessionService(secret []byte, cookie CookieSettings, revocations RevocationStore) *SessionService {
	return &SessionService{
		secret:      secret,
		cookie:      cookie,
		revocations: revocations,
		now:         time.Now,
	}
}

// Issue mints a signed token for the identity, valid for maxAge from now.
func (s *SessionService) Issue(identity domain.Identity, maxAge time.Duration) (string, error) {
	if maxAge <= 0 {
		maxAge = s.cookie.MaxAge
	}
	issuedAt := s.now()
	payload := sessionPayload{
		UserID:      identity.UserID,
		DisplayName: identity.DisplayName,
		Role:        identity.Role,
		IssuedAt:    issuedAt.Unix(),
		ExpiresAt:   issuedAt.Add(maxAge).Unix(),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	encoded := base64.RawURLEncoding.EncodeToString(raw)
	return encoded + tokenSeparator + s.sign(encoded), nil
}

// Verify checks a token's signature and expiry, and unless skipped, the
// user's revocation mark. It returns nil for any invalid token; verification
// failures are never surfaced as errors to avoid a "maybe valid" state.
func (s *SessionService) Verify(ctx context.Context, token string, opts VerifyOptions) *domain.Identity {
	sep := strings.LastIndex(token, tokenSeparator)
	if sep <= 0 || sep == len(token)-1 {
		return nil
	}
	encoded, signature := token[:sep], token[sep+1:]

	expected := s.sign(encoded)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}
	var payload sessionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	if payload.UserID == "" {
		return nil
	}

	now := s.now()
	if !now.Before(time.Unix(payload.ExpiresAt, 0)) {
		return nil
	}

	if !opts.SkipRevocationCheck {
		revokedAt, err := s.revocations.SessionRevokedAt(ctx, payload.UserID)
		if err != nil {
			// Fail closed: an unreachable store denies, never allows.
			return nil
		}
		if revokedAt != nil && payload.IssuedAt < revokedAt.Unix() {
			return nil
		}
	}

	return &domain.Identity{
		UserID:      payload.UserID,
		DisplayName: payload.DisplayName,
		Role:        payload.Role,
	}
}

// RevokeAll stamps the user's revocation mark so every token issued before
// now fails its next verification. No cookie is touched.
func (s *SessionService) RevokeAll(ctx context.Context, userID string) error {
	return s.revocations.RevokeAllSessions(ctx, userID, s.now())
}

// SetCookie writes the session cookie for an issued token.
func (s *SessionService) SetCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     s.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.cookie.MaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// Clear removes the cookie value and writes an already-expired cookie, which
// deletes more reliably across browsers than either action alone.
func (s *SessionService) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// CookieName exposes the configured cookie name for request parsing.
func (s *SessionService) CookieName() string {
	return s.cookie.Name
}

func (s *SessionService) sign(encodedPayload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encodedPayload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
