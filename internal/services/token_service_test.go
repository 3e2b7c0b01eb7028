package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret")
	token, err := svc.Issue(42)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	id, err := svc.Parse(token)
	if err != nil || id != 42 {
		t.Fatalf("Expected user 42, got %d, %v", id, err)
	}
}

func TestTokenRejected(t *testing.T) {
	svc := NewTokenService("test-secret")
	token, _ := svc.Issue(7)

	if _, err := NewTokenService("other-secret").Parse(token); err == nil {
		t.Error("Expected token signed with another secret to be rejected")
	}

	expired := NewTokenService("test-secret")
	expired.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	old, _ := expired.Issue(7)
	if _, err := svc.Parse(old); err == nil {
		t.Error("Expected expired token to be rejected")
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 7, "exp": time.Now().Add(time.Hour).Unix()})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := svc.Parse(unsigned); err == nil {
		t.Error("Expected unsigned token to be rejected")
	}

	if _, err := svc.Parse("garbage"); err == nil {
		t.Error("Expected garbage to be rejected")
	}
}
