package auth

import (
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	h, err := HashPassword("senha-forte-123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if h == "senha-forte-123" {
		t.Fatal("hash igual ao plaintext")
	}
	if !CheckPassword(h, "senha-forte-123") {
		t.Error("CheckPassword deveria aceitar a senha correta")
	}
	if CheckPassword(h, "senha-errada") {
		t.Error("CheckPassword aceitou senha errada")
	}
}

func TestBuildAndParseJWT(t *testing.T) {
	secret := []byte("test-secret")
	tok, err := BuildJWT(secret, "user-1", RoleProfessional, time.Hour)
	if err != nil {
		t.Fatalf("BuildJWT: %v", err)
	}
	c, err := ParseJWT(secret, tok)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if c.UserID != "user-1" {
		t.Errorf("UserID = %q", c.UserID)
	}
	if c.Role != RoleProfessional {
		t.Errorf("Role = %q", c.Role)
	}
}

func TestParseJWTWrongSecret(t *testing.T) {
	tok, err := BuildJWT([]byte("secret-a"), "user-1", RoleProfessional, time.Hour)
	if err != nil {
		t.Fatalf("BuildJWT: %v", err)
	}
	if _, err := ParseJWT([]byte("secret-b"), tok); err == nil {
		t.Error("ParseJWT aceitou token assinado com outro secret")
	}
}

func TestParseJWTExpired(t *testing.T) {
	secret := []byte("test-secret")
	tok, err := BuildJWT(secret, "user-1", RoleProfessional, -time.Minute)
	if err != nil {
		t.Fatalf("BuildJWT: %v", err)
	}
	if _, err := ParseJWT(secret, tok); err == nil {
		t.Error("ParseJWT aceitou token expirado")
	}
}
