package secrets

import (
	"crypto/sha256"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/pantry-service/internal/config"
	apperrors "github.com/spec-kit/pantry-service/pkg/util"
)

// minSecretBytes is the minimum accepted secret length. Anything shorter is
// treated the same as a missing secret.
const minSecretBytes = 32

// Kind names a secret resolved by the provider.
type Kind string

const (
	KindSession      Kind = "session"
	KindCSRF         Kind = "csrf"
	KindEmailPrivacy Kind = "email_privacy"
)

// Secrets holds the validated signing and encryption secrets for the process.
// It is built once at startup and injected into the services that need it;
// nothing reads the environment after Load returns.
type Secrets struct {
	Session      []byte
	CSRF         []byte
	EmailPrivacy []byte
}

// Load resolves and validates all secrets from configuration.
//
// In production a missing or weak secret is a startup failure: the returned
// error must prevent the process from serving traffic. In development the same
// condition logs a warning and substitutes a deterministic per-kind fallback so
// local iteration is not blocked.
func Load(cfg *config.Config, logger *zap.Logger) (*Secrets, error) {
	session, err := resolve(KindSession, cfg.Auth.SessionSecret, cfg.App.IsProduction(), logger)
	if err != nil {
		return nil, err
	}

	// The CSRF secret falls back to the session secret when not configured
	// separately; that is a supported configuration, not a weakness.
	csrf := []byte(cfg.Auth.CSRFSecret)
	if len(csrf) == 0 {
		csrf = session
	} else if len(csrf) < minSecretBytes {
		csrf, err = resolve(KindCSRF, cfg.Auth.CSRFSecret, cfg.App.IsProduction(), logger)
		if err != nil {
			return nil, err
		}
	}

	emailKey, err := resolve(KindEmailPrivacy, cfg.Auth.EmailPrivacyKey, cfg.App.IsProduction(), logger)
	if err != nil {
		return nil, err
	}

	return &Secrets{Session: session, CSRF: csrf, EmailPrivacy: emailKey}, nil
}

func resolve(kind Kind, value string, production bool, logger *zap.Logger) ([]byte, error) {
	switch {
	case len(value) >= minSecretBytes:
		return []byte(value), nil
	case production:
		return nil, apperrors.NewConfigError(
			fmt.Sprintf("secret %q is missing or shorter than %d bytes", kind, minSecretBytes), nil)
	default:
		logger.Warn("secret missing or weak; using development fallback",
			zap.String("kind", string(kind)),
			zap.Int("min_bytes", minSecretBytes),
		)
		return devFallback(kind), nil
	}
}

// devFallback derives a stable per-kind secret so signatures and digests
// survive process restarts during local development.
func devFallback(kind Kind) []byte {
	sum := sha256.Sum256([]byte("pantry-service-dev-secret:" + string(kind)))
	return sum[:]
}
