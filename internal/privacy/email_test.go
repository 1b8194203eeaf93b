package privacy

import (
	"strings"
	"testing"
)

func testCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return codec
}

func TestDigestNormalization(t *testing.T) {
	codec := testCodec(t)

	a := codec.Digest(codec.Normalize("User@Example.com"))
	b := codec.Digest(codec.Normalize("user@example.com "))
	if a != b {
		t.Fatal("digests of equivalent spellings must match")
	}

	c := codec.Digest(codec.Normalize("other@example.com"))
	if a == c {
		t.Fatal("distinct addresses must not collide")
	}
}

func TestDigestNotPlaintext(t *testing.T) {
	codec := testCodec(t)
	digest := codec.Digest("user@example.com")
	if strings.Contains(digest, "user") || strings.Contains(digest, "example") {
		t.Fatal("digest leaks address content")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	codec := testCodec(t)

	for _, email := range []string{"user@example.com", "A.Long+tag@sub.domain.org", "x@y.z"} {
		normalized := codec.Normalize(email)
		blob, err := codec.Encrypt(normalized)
		if err != nil {
			t.Fatalf("encrypt %q: %v", email, err)
		}
		if blob == normalized {
			t.Fatal("ciphertext equals plaintext")
		}
		got, err := codec.Decrypt(blob)
		if err != nil {
			t.Fatalf("decrypt %q: %v", email, err)
		}
		if got != normalized {
			t.Fatalf("round trip mismatch: got %q want %q", got, normalized)
		}
	}
}

func TestEncryptionIsRandomized(t *testing.T) {
	codec := testCodec(t)

	first, err := codec.Encrypt("user@example.com")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	second, err := codec.Encrypt("user@example.com")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if first == second {
		t.Fatal("two encryptions of the same address must differ")
	}
}

func TestDecryptRejectsTamperedBlob(t *testing.T) {
	codec := testCodec(t)

	blob, err := codec.Encrypt("user@example.com")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	tampered := []byte(blob)
	tampered[len(tampered)-1] ^= 0x01
	if _, err := codec.Decrypt(string(tampered)); err == nil {
		t.Fatal("tampered ciphertext must not decrypt")
	}
	if _, err := codec.Decrypt("not-base64!!!"); err == nil {
		t.Fatal("garbage must not decrypt")
	}
}

func TestRedact(t *testing.T) {
	codec := testCodec(t)

	cases := []struct {
		email  string
		digest string
		want   string
	}{
		{"john@example.com", "", "j***@example.com"},
		{"John@Example.COM", "", "j***@example.com"},
		{"", "abcdef0123456789", "digest:abcdef01"},
		{"", "ab", "digest:ab"},
		{"no-at-sign", "", "***"},
	}
	for _, tc := range cases {
		if got := codec.Redact(tc.email, tc.digest); got != tc.want {
			t.Errorf("Redact(%q, %q) = %q, want %q", tc.email, tc.digest, got, tc.want)
		}
	}
}
