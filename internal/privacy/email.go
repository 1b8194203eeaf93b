package privacy

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCiphertext is returned when a stored email blob cannot be
	// authenticated or decoded.
	ErrInvalidCiphertext = errors.New("invalid email ciphertext")
)

// Codec derives the three storage forms of an email address: a deterministic
// keyed digest for equality lookup, an authenticated reversible ciphertext for
// redisplay, and a redacted form for logs. Plaintext addresses never persist.
type Codec struct {
	digestKey []byte
	aead      cipher.AEAD
}

// NewCodec builds a codec from the email privacy key. The digest key and the
// encryption key are derived separately so a leak of one does not expose the other.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) == 0 {
		return nil, errors.New("email privacy key required")
	}

	digestKey := deriveKey(key, "digest")
	encKey := deriveKey(key, "encrypt")

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, fmt.Errorf("build email cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("build email cipher: %w", err)
	}

	return &Codec{digestKey: digestKey, aead: aead}, nil
}

// Normalize lowercases and trims an address so equality is case and
// whitespace insensitive.
func (c *Codec) Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Digest returns the deterministic keyed digest of a normalized address.
// Two spellings of the same address always produce the same digest, and the
// digest cannot be inverted to the address without the key.
func (c *Codec) Digest(normalized string) string {
	mac := hmac.New(sha256.New, c.digestKey)
	mac.Write([]byte(normalized))
	return hex.EncodeToString(mac.Sum(nil))
}

// Encrypt seals a normalized address for storage. The nonce is prepended to
// the ciphertext and the whole blob is base64url encoded.
func (c *Codec) Encrypt(normalized string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("encrypt email: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(normalized), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a stored blob back into the normalized address.
func (c *Codec) Decrypt(blob string) (string, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(blob)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(sealed) < c.aead.NonceSize() {
		return "", ErrInvalidCiphertext
	}
	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plain), nil
}

// Redact produces a log-safe representation. With a known plaintext the local
// part is masked; without one, the digest stands in so audit entries never
// require the plaintext to exist.
func (c *Codec) Redact(email, digestFallback string) string {
	if email == "" {
		if len(digestFallback) > 8 {
			return "digest:" + digestFallback[:8]
		}
		return "digest:" + digestFallback
	}

	normalized := c.Normalize(email)
	at := strings.LastIndex(normalized, "@")
	if at <= 0 {
		return "***"
	}
	return normalized[:1] + "***" + normalized[at:]
}

func deriveKey(key []byte, purpose string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte("pantry-service/email/" + purpose))
	return mac.Sum(nil)
}
