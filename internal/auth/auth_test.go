package auth

import (
	"testing"

	"github.com/google/uuid"

	"github.com/lesserevil/miniscope/internal/models"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(hash, "correct horse battery staple") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}

func TestIssueAndParseToken(t *testing.T) {
	service := NewService("test-secret")
	user := &models.User{ID: uuid.New(), Username: "alice", Role: models.RoleAdmin}

	token, err := service.IssueToken(user)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := service.ParseToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != user.ID {
		t.Errorf("UserID = %v, want %v", claims.UserID, user.ID)
	}
	if claims.Role != models.RoleAdmin {
		t.Errorf("Role = %v, want admin", claims.Role)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	issuer := NewService("secret-a")
	verifier := NewService("secret-b")

	token, err := issuer.IssueToken(&models.User{ID: uuid.New()})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := verifier.ParseToken(token); err == nil {
		t.Fatal("token signed with a different secret must be rejected")
	}
}

func TestParseTokenGarbage(t *testing.T) {
	service := NewService("test-secret")
	if _, err := service.ParseToken("not.a.token"); err == nil {
		t.Fatal("garbage token must be rejected")
	}
}
