package auth

import (
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)

	token, err := manager.GenerateToken("rider_42", RoleRider)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := manager.ParseToken(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.UserID != "rider_42" {
		t.Fatalf("expected rider_42, got %s", claims.UserID)
	}
	if claims.Role != RoleRider {
		t.Fatalf("expected rider role, got %s", claims.Role)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret-a", time.Hour).GenerateToken("rider_42", RoleRider)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := NewJWTManager("secret-b", time.Hour).ParseToken(token); err == nil {
		t.Fatalf("expected parse to fail with wrong secret")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := NewJWTManager("test-secret", -time.Minute).GenerateToken("rider_42", RoleRider)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := NewJWTManager("test-secret", time.Hour).ParseToken(token); err == nil {
		t.Fatalf("expected parse to fail for expired token")
	}
}
