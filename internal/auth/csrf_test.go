package auth

import (
	"testing"

	"github.com/spec-kit/pantry-service/internal/domain"
)

func TestCSRFRoundTrip(t *testing.T) {
	svc := NewCSRFService([]byte("0123456789abcdef0123456789abcdef"))
	alice := domain.Identity{UserID: "alice"}

	token := svc.Issue(alice)
	if !svc.Verify(token, alice) {
		t.Fatal("token should verify for its own user")
	}
}

func TestCSRFRejectsOtherUser(t *testing.T) {
	svc := NewCSRFService([]byte("0123456789abcdef0123456789abcdef"))
	alice := domain.Identity{UserID: "alice"}
	bob := domain.Identity{UserID: "bob"}

	token := svc.Issue(alice)
	if svc.Verify(token, bob) {
		t.Fatal("token minted for alice must fail against bob's session")
	}
}

func TestCSRFRejectsMalformed(t *testing.T) {
	svc := NewCSRFService([]byte("0123456789abcdef0123456789abcdef"))
	alice := domain.Identity{UserID: "alice"}

	for _, token := range []string{"", ".", "nonce-only", "nonce.", ".sig"} {
		if svc.Verify(token, alice) {
			t.Fatalf("accepted malformed token %q", token)
		}
	}
}

func TestCSRFRejectsTamperedSignature(t *testing.T) {
	svc := NewCSRFService([]byte("0123456789abcdef0123456789abcdef"))
	alice := domain.Identity{UserID: "alice"}

	token := svc.Issue(alice)
	tampered := []byte(token)
	tampered[len(tampered)-1] ^= 0x01
	if svc.Verify(string(tampered), alice) {
		t.Fatal("accepted tampered signature")
	}
}

func TestMethodRequiresProtection(t *testing.T) {
	cases := map[string]bool{
		"GET":     false,
		"HEAD":    false,
		"OPTIONS": false,
		"POST":    true,
		"PUT":     true,
		"PATCH":   true,
		"DELETE":  true,
	}
	for method, want := range cases {
		if got := MethodRequiresProtection(method); got != want {
			t.Errorf("MethodRequiresProtection(%s) = %v, want %v", method, got, want)
		}
	}
}
