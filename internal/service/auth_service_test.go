package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/pantry-service/internal/audit"
	"github.com/spec-kit/pantry-service/internal/auth"
	"github.com/spec-kit/pantry-service/internal/domain"
	"github.com/spec-kit/pantry-service/internal/privacy"
	apperrors "github.com/spec-kit/pantry-service/pkg/util"
)

type memUsers struct {
	byID     map[string]*domain.User
	byDigest map[string]*domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{
		byID:     make(map[string]*domain.User),
		byDigest: make(map[string]*domain.User),
	}
}

func (m *memUsers) Create(_ context.Context, user *domain.User) error {
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	m.byID[user.ID] = &clone
	m.byDigest[user.EmailDigest] = &clone
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	if user, ok := m.byID[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) GetByEmailDigest(_ context.Context, digest string) (*domain.User, error) {
	if user, ok := m.byDigest[digest]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) UpdatePassword(_ context.Context, userID, hash string) error {
	user, ok := m.byID[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = hash
	return nil
}

func (m *memUsers) SessionRevokedAt(_ context.Context, userID string) (*time.Time, error) {
	user, ok := m.byID[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user.SessionRevokedAt, nil
}

func (m *memUsers) RevokeAllSessions(_ context.Context, userID string, at time.Time) error {
	user, ok := m.byID[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	user.SessionRevokedAt = &at
	return nil
}

func newTestAuthService(t *testing.T) (*AuthService, *auth.SessionService, *memUsers) {
	t.Helper()

	secret := []byte("0123456789abcdef0123456789abcdef")
	codec, err := privacy.NewCodec(secret)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}

	users := newMemUsers()
	sessions := auth.NewSessionService(secret, auth.CookieSettingsFor(false, time.Hour), users)
	recorder := audit.NewRecorder(audit.NewZapSink(zap.NewNop()), 16)
	t.Cleanup(recorder.Close)

	svc := NewAuthService(AuthDependencies{
		Users:    users,
		Codec:    codec,
		Sessions: sessions,
		Recorder: recorder,
	}, secret, 30*time.Minute, 4, time.Hour)

	return svc, sessions, users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, sessions, _ := newTestAuthService(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "Alex", "Alex@Example.com", "hunter22", "1.2.3.4")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.EmailDigest == "" || user.EmailCipher == "" {
		t.Fatal("stored user must carry digest and ciphertext")
	}
	if identity := sessions.Verify(ctx, token, auth.VerifyOptions{}); identity == nil || identity.UserID != user.ID {
		t.Fatal("registration session token should verify")
	}

	// Case and whitespace variants resolve to the same account.
	if _, _, err := svc.Login(ctx, " alex@example.COM ", "hunter22", "1.2.3.4"); err != nil {
		t.Fatalf("login with variant spelling: %v", err)
	}

	_, _, err = svc.Login(ctx, "alex@example.com", "wrong", "1.2.3.4")
	if apperrors.CodeOf(err) != "UNAUTHORIZED" {
		t.Fatalf("bad password: got %v", err)
	}
	_, _, err = svc.Login(ctx, "ghost@example.com", "hunter22", "1.2.3.4")
	if apperrors.CodeOf(err) != "UNAUTHORIZED" {
		t.Fatalf("unknown address: got %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "Alex", "alex@example.com", "hunter22", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _, err := svc.Register(ctx, "Alex2", "ALEX@example.com", "hunter22", "")
	if apperrors.CodeOf(err) != "CONFLICT" {
		t.Fatalf("duplicate register: got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, sessions, _ := newTestAuthService(t)
	ctx := context.Background()

	// Unknown addresses yield no token and no error.
	token, err := svc.RequestPasswordReset(ctx, "ghost@example.com", "")
	if err != nil || token != "" {
		t.Fatalf("unknown address: token=%q err=%v", token, err)
	}

	_, sessionToken, err := svc.Register(ctx, "Alex", "alex@example.com", "oldpass1", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	resetToken, err := svc.RequestPasswordReset(ctx, "alex@example.com", "")
	if err != nil || resetToken == "" {
		t.Fatalf("known address: token=%q err=%v", resetToken, err)
	}

	// Tampered tokens are rejected with the generic message.
	tampered := resetToken + "x"
	if err := svc.ConfirmPasswordReset(ctx, tampered, "newpass1", ""); apperrors.CodeOf(err) != "UNAUTHORIZED" {
		t.Fatalf("tampered token: got %v", err)
	}

	time.Sleep(1100 * time.Millisecond) // revocation mark is second-granular

	if err := svc.ConfirmPasswordReset(ctx, resetToken, "newpass1", ""); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	// Old sessions die with the old credential.
	if sessions.Verify(ctx, sessionToken, auth.VerifyOptions{}) != nil {
		t.Fatal("pre-reset session should be revoked")
	}
	if _, _, err := svc.Login(ctx, "alex@example.com", "oldpass1", ""); err == nil {
		t.Fatal("old password should no longer work")
	}
	if _, newToken, err := svc.Login(ctx, "alex@example.com", "newpass1", ""); err != nil || newToken == "" {
		t.Fatalf("new password login: %v", err)
	}
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	svc, sessions, _ := newTestAuthService(t)
	ctx := context.Background()

	user, sessionToken, err := svc.Register(ctx, "Alex", "alex@example.com", "oldpass1", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.ChangePassword(ctx, user.ID, "wrong", "newpass1", ""); apperrors.CodeOf(err) != "UNAUTHORIZED" {
		t.Fatalf("wrong current password: got %v", err)
	}

	time.Sleep(1100 * time.Millisecond)

	if err := svc.ChangePassword(ctx, user.ID, "oldpass1", "newpass1", ""); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if sessions.Verify(ctx, sessionToken, auth.VerifyOptions{}) != nil {
		t.Fatal("old session should be revoked after password change")
	}
}

func TestEmailForDisplay(t *testing.T) {
	svc, _, users := newTestAuthService(t)
	ctx := context.Background()

	created, _, err := svc.Register(ctx, "Alex", "Alex@Example.com", "hunter22", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	stored, err := users.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	email, err := svc.EmailForDisplay(stored)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if email != "alex@example.com" {
		t.Fatalf("display email = %q", email)
	}
}
