package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func TestNewAccessTokenCarriesEligibility(t *testing.T) {
	at, err := NewAccessToken(testSecret, 42, "MEMBER", true, false, 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if at.Token == "" {
		t.Fatal("empty token")
	}
	if remaining := time.Until(at.Exp); remaining < 14*time.Minute || remaining > 16*time.Minute {
		t.Fatalf("expiry %v not ~15m out", at.Exp)
	}

	parsed, err := jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("parse: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["role"] != "MEMBER" {
		t.Fatalf("role claim = %v", claims["role"])
	}
	// Numeric claims come back as float64 from MapClaims.
	if sub, ok := claims["sub"].(float64); !ok || uint64(sub) != 42 {
		t.Fatalf("sub claim = %v", claims["sub"])
	}
	if member, ok := claims["member"].(bool); !ok || !member {
		t.Fatalf("member claim = %v", claims["member"])
	}
	if nft, ok := claims["nft"].(bool); !ok || nft {
		t.Fatalf("nft claim = %v", claims["nft"])
	}
}

func TestAccessTokenRejectsWrongSecret(t *testing.T) {
	at, err := NewAccessToken(testSecret, 1, "ADMIN", false, false, 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if _, err := jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
		return []byte("another-secret"), nil
	}); err == nil {
		t.Fatal("token verified with the wrong secret")
	}
}

func TestRefreshTokenHashing(t *testing.T) {
	rt, err := NewRefreshToken(30)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if len(rt.Raw) != 96 {
		t.Fatalf("raw length = %d, want 96 hex chars", len(rt.Raw))
	}
	other, _ := NewRefreshToken(30)
	if rt.Raw == other.Raw {
		t.Fatal("two refresh tokens collided")
	}
	if HashRefreshRaw(rt.Raw) != HashRefreshRaw(rt.Raw) {
		t.Fatal("hash not deterministic")
	}
	if HashRefreshRaw(rt.Raw) == rt.Raw {
		t.Fatal("hash equals the raw token")
	}
}
