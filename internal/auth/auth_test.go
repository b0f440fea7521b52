package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/polishedlabs/salonpulse/pkg/models"
)

func testUser() *models.User {
	return &models.User{
		UserID:   uuid.New(),
		TenantID: uuid.New(),
		Email:    "owner@example.com",
		Role:     models.RoleOwner,
	}
}

func TestIssueAndValidate(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	user := testUser()

	token, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("unexpected error issuing token: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := issuer.Validate(token)
	if err != nil {
		t.Fatalf("unexpected error validating token: %v", err)
	}

	if claims.UserID != user.UserID {
		t.Errorf("expected user ID %s, got %s", user.UserID, claims.UserID)
	}
	if claims.TenantID != user.TenantID {
		t.Errorf("expected tenant ID %s, got %s", user.TenantID, claims.TenantID)
	}
	if claims.Email != user.Email {
		t.Errorf("expected email %s, got %s", user.Email, claims.Email)
	}
	if claims.Role != models.RoleOwner {
		t.Errorf("expected role owner, got %s", claims.Role)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Hour)
	token, err := issuer.Issue(testUser())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := NewTokenIssuer("secret-b", time.Hour)
	if _, err := other.Validate(token); err == nil {
		t.Error("expected validation to fail with wrong secret")
	}
}

func TestValidate_Expired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)
	token, err := issuer.Issue(testUser())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := issuer.Validate(token); err == nil {
		t.Error("expected validation to fail for expired token")
	}
}

func TestValidate_Garbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	if _, err := issuer.Validate("not-a-token"); err == nil {
		t.Error("expected validation to fail for garbage input")
	}
}

func TestRoleRank(t *testing.T) {
	tests := []struct {
		role models.Role
		rank int
	}{
		{models.RoleUser, 1},
		{models.RoleManager, 2},
		{models.RoleAdmin, 3},
		{models.RoleOwner, 4},
		{models.Role("intern"), 0},
	}

	for _, tt := range tests {
		if got := tt.role.Rank(); got != tt.rank {
			t.Errorf("Rank(%s) = %d, want %d", tt.role, got, tt.rank)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "hunter2hunter2" {
		t.Fatal("hash must not equal plaintext")
	}

	if !VerifyPassword("hunter2hunter2", hash) {
		t.Error("expected correct password to verify")
	}
	if VerifyPassword("wrong-password", hash) {
		t.Error("expected wrong password to fail verification")
	}
}
