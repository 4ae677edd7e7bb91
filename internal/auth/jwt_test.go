package auth

import (
	"testing"
	"time"
)

func TestMintParseRoundTrip(t *testing.T) {
	m := NewJWTManager("agricoop-backend", "agricoop-api", "test-secret")

	token, err := m.Mint("u-1", "s-1", RoleMember, "access", 15*time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u-1" || claims.SessionID != "s-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Role != RoleMember || claims.Type != "access" {
		t.Fatalf("unexpected role/type: %+v", claims)
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	m := NewJWTManager("agricoop-backend", "agricoop-api", "test-secret")
	other := NewJWTManager("agricoop-backend", "agricoop-api", "different-secret")

	token, err := m.Mint("u-1", "s-1", RoleAdmin, "access", 15*time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := other.Parse(token); err == nil {
		t.Fatalf("expected parse failure with a different key")
	}
}

func TestParseRejectsWrongIssuerOrAudience(t *testing.T) {
	m := NewJWTManager("agricoop-backend", "agricoop-api", "test-secret")
	token, err := m.Mint("u-1", "s-1", RoleMember, "access", 15*time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	wrongIssuer := NewJWTManager("someone-else", "agricoop-api", "test-secret")
	if _, err := wrongIssuer.Parse(token); err == nil {
		t.Fatalf("expected issuer mismatch to fail")
	}

	wrongAudience := NewJWTManager("agricoop-backend", "other-api", "test-secret")
	if _, err := wrongAudience.Parse(token); err == nil {
		t.Fatalf("expected audience mismatch to fail")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := NewJWTManager("agricoop-backend", "agricoop-api", "test-secret")
	token, err := m.Mint("u-1", "s-1", RoleMember, "access", -time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := m.Parse(token); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}
