package service

import (
	"context"
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/pantry-service/internal/audit"
	"github.com/spec-kit/pantry-service/internal/auth"
	"github.com/spec-kit/pantry-service/internal/domain"
	"github.com/spec-kit/pantry-service/internal/privacy"
	"github.com/spec-kit/pantry-service/internal/repository"
	apperrors "github.com/spec-kit/pantry-service/pkg/util"
)

// resetTokenPurpose distinguishes password-reset tokens from any other JWT
// signed with the same secret.
const resetTokenPurpose = "password_reset"

// dummyHash absorbs a bcrypt comparison when no account matches, so a failed
// login takes the same time whether or not the address exists.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// AuthService coordinates registration, login and credential recovery flows.
type AuthService struct {
	users       repository.UserRepository
	codec       *privacy.Codec
	sessions    *auth.SessionService
	recorder    *audit.Recorder
	resetSecret []byte
	resetTTL    time.Duration
	bcryptCost  int
	maxAge      time.Duration
}

// AuthDependencies encapsulates the collaborators for the auth service.
type AuthDependencies struct {
	Users    repository.UserRepository
	Codec    *privacy.Codec
	Sessions *auth.SessionService
	Recorder *audit.Recorder
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies, resetSecret []byte, resetTTL time.Duration, bcryptCost int, sessionMaxAge time.Duration) *AuthService {
	return &AuthService{
		users:       deps.Users,
		codec:       deps.Codec,
		sessions:    deps.Sessions,
		recorder:    deps.Recorder,
		resetSecret: resetSecret,
		resetTTL:    resetTTL,
		bcryptCost:  bcryptCost,
		maxAge:      sessionMaxAge,
	}
}

// Register creates an account and issues a session token. The address is
// stored only as digest plus ciphertext.
func (s *AuthService) Register(ctx context.Context, displayName, email, password, ip string) (*domain.User, string, error) {
	normalized := s.codec.Normalize(email)
	digest := s.codec.Digest(normalized)

	if _, err := s.users.GetByEmailDigest(ctx, digest); err == nil {
		s.audit("register", "", normalized, digest, ip, false, "address already registered")
		return nil, "", apperrors.NewConflict("unable to register with that address", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", err
	}

	cipher, err := s.codec.Encrypt(normalized)
	if err != nil {
		return nil, "", err
	}
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		DisplayName:  displayName,
		EmailDigest:  digest,
		EmailCipher:  cipher,
		PasswordHash: hash,
		Role:         domain.UserRoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.sessions.Issue(identityOf(user), s.maxAge)
	if err != nil {
		return nil, "", err
	}

	s.audit("register", user.ID, normalized, digest, ip, true, "")
	return user, token, nil
}

// Login authenticates credentials and issues a session token. Failures are
// reported with one generic message regardless of cause.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*domain.User, string, error) {
	normalized := s.codec.Normalize(email)
	digest := s.codec.Digest(normalized)

	user, err := s.users.GetByEmailDigest(ctx, digest)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			_ = auth.ComparePassword(dummyHash, password)
			s.audit("login", "", normalized, digest, ip, false, "unknown address")
			return nil, "", apperrors.NewUnauthorized("invalid email or password")
		}
		return nil, "", err
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.audit("login", user.ID, normalized, digest, ip, false, "bad password")
		return nil, "", apperrors.NewUnauthorized("invalid email or password")
	}

	token, err := s.sessions.Issue(identityOf(user), s.maxAge)
	if err != nil {
		return nil, "", err
	}

	s.audit("login", user.ID, normalized, digest, ip, true, "")
	return user, token, nil
}

// Logout revokes every session for the user. Cookie removal is the
// transport layer's job.
func (s *AuthService) Logout(ctx context.Context, userID, ip string) error {
	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		return err
	}
	s.audit("logout", userID, "", "", ip, true, "")
	return nil
}

// RequestPasswordReset mints a stateless, time-bounded reset token when the
// address resolves to an account. The empty-token case is indistinguishable
// to the caller; handlers always answer with the same message.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email, ip string) (string, error) {
	normalized := s.codec.Normalize(email)
	digest := s.codec.Digest(normalized)

	user, err := s.users.GetByEmailDigest(ctx, digest)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.audit("password_reset_request", "", normalized, digest, ip, false, "unknown address")
			return "", nil
		}
		return "", err
	}

	now := time.Now()
	claims := resetClaims{
		Purpose: resetTokenPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.resetTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.resetSecret)
	if err != nil {
		return "", err
	}

	s.audit("password_reset_request", user.ID, normalized, digest, ip, true, "")
	return token, nil
}

// ConfirmPasswordReset validates the reset token, updates the password and
// revokes all existing sessions.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword, ip string) error {
	claims, err := s.parseResetToken(tokenStr)
	if err != nil {
		s.audit("password_reset_confirm", "", "", "", ip, false, "invalid token")
		return apperrors.NewUnauthorized("invalid or expired reset token")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, claims.Subject, hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("invalid or expired reset token")
		}
		return err
	}
	if err := s.sessions.RevokeAll(ctx, claims.Subject); err != nil {
		return err
	}

	s.audit("password_reset_confirm", claims.Subject, "", "", ip, true, "")
	return nil
}

// ChangePassword verifies the current password before updating, then revokes
// all sessions so stolen cookies die with the old credential.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, ip string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		s.audit("password_change", userID, "", user.EmailDigest, ip, false, "bad current password")
		return apperrors.NewUnauthorized("invalid email or password")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	if err := s.sessions.RevokeAll(ctx, userID); err != nil {
		return err
	}

	s.audit("password_change", userID, "", user.EmailDigest, ip, true, "")
	return nil
}

// EmailForDisplay decrypts the stored address for redisplay to its owner.
func (s *AuthService) EmailForDisplay(user *domain.User) (string, error) {
	return s.codec.Decrypt(user.EmailCipher)
}

type resetClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func (s *AuthService) parseResetToken(tokenStr string) (*resetClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &resetClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.resetSecret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*resetClaims)
	if !ok || !parsed.Valid || claims.Purpose != resetTokenPurpose || claims.Subject == "" {
		return nil, errors.New("invalid reset token claims")
	}
	return claims, nil
}

func (s *AuthService) audit(action, userID, email, digest, ip string, success bool, detail string) {
	s.recorder.Record(audit.Event{
		Action:  action,
		UserID:  userID,
		Email:   s.codec.Redact(email, digest),
		IP:      ip,
		Success: success,
		Detail:  detail,
	})
}

func identityOf(user *domain.User) domain.Identity {
	return domain.Identity{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	}
}
