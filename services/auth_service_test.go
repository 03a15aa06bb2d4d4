package services

import (
	"errors"
	"testing"

	"github.com/carlospion/AvocadoLegal/config"
	"github.com/carlospion/AvocadoLegal/models"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(newTestDB(t), &config.AuthConfig{
		JWTSecret:     "test-secret",
		TokenExpiry:   1,
		RefreshExpiry: 24,
	})
}

func TestLoginRoundTrip(t *testing.T) {
	auth := newAuthService(t)

	lawyer := &models.Lawyer{Name: "ana", Email: "ana@jcj.example.com"}
	if err := auth.RegisterLawyer(lawyer, "s3creta"); err != nil {
		t.Fatalf("RegisterLawyer failed: %v", err)
	}
	if lawyer.Password == "s3creta" {
		t.Fatalf("password stored in clear")
	}

	logged, err := auth.Login("ana@jcj.example.com", "s3creta")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if logged.ID != lawyer.ID {
		t.Fatalf("logged in as the wrong lawyer")
	}

	if _, err := auth.Login("ana@jcj.example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := auth.Login("nobody@jcj.example.com", "s3creta"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v, want ErrInvalidCredentials", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	auth := newAuthService(t)

	lawyer := &models.Lawyer{Name: "ana", Email: "ana@jcj.example.com"}
	if err := auth.RegisterLawyer(lawyer, "s3creta"); err != nil {
		t.Fatalf("RegisterLawyer failed: %v", err)
	}

	tokens, err := auth.GenerateTokens(lawyer)
	if err != nil {
		t.Fatalf("GenerateTokens failed: %v", err)
	}
	if tokens.TokenType != "Bearer" {
		t.Fatalf("token type = %q", tokens.TokenType)
	}

	claims, err := auth.ValidateToken(tokens.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.LawyerID != lawyer.ID || claims.Email != lawyer.Email {
		t.Fatalf("claims do not match the lawyer: %+v", claims)
	}

	if _, err := auth.ValidateToken(tokens.AccessToken + "x"); err == nil {
		t.Fatalf("tampered token accepted")
	}
}
