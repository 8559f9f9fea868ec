package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestHashAndCheckPassword(t *testing.T) {
	password := "nachhilfe-herbst-2026!"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if hash == password {
		t.Errorf("hash must not equal the plaintext password")
	}
	if !CheckPassword(password, hash) {
		t.Errorf("expected correct password to verify")
	}
	if CheckPassword("wrong-password", hash) {
		t.Errorf("expected wrong password to be rejected")
	}
}

func TestTokenCarriesTutorClaims(t *testing.T) {
	secret := "tutorflow-test-secret"

	token, err := GenerateToken("42", "tutor", secret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token, secret)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.UserID != "42" {
		t.Errorf("expected UserID 42, got %s", claims.UserID)
	}
	if claims.Role != "tutor" {
		t.Errorf("expected role tutor, got %s", claims.Role)
	}
	if claims.ExpiresAt == nil {
		t.Fatalf("expected an expiry on the token")
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining < 71*time.Hour || remaining > 73*time.Hour {
		t.Errorf("expected ~72h validity, got %v", remaining)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("42", "tutor", "tutorflow-test-secret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := ValidateToken(token, "other-secret"); err == nil {
		t.Errorf("expected token signed with a different secret to be rejected")
	}
}

func TestValidateTokenRejectsExpiredToken(t *testing.T) {
	secret := "tutorflow-test-secret"
	claims := Claims{
		UserID: "42",
		Role:   "tutor",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-73 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}

	if _, err := ValidateToken(token, secret); err == nil {
		t.Errorf("expected expired token to be rejected")
	}
}

func TestValidateTokenRejectsUnsignedToken(t *testing.T) {
	claims := Claims{
		UserID: "42",
		Role:   "tutor",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	if _, err := ValidateToken(token, "tutorflow-test-secret"); err == nil {
		t.Errorf("expected token without an HMAC signature to be rejected")
	}
}
