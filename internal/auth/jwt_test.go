package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/eventman/internal/model"
)

func newTestManager(t *testing.T, maxAge time.Duration) *TokenManager {
	t.Helper()
	m, err := NewTokenManager("test-secret-32bytes-long!!!!!!!!!", maxAge)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}
	return m
}

func testUser() *model.User {
	return &model.User{
		ID:        "user-123",
		Email:     "taro@example.com",
		FirstName: "Taro",
		LastName:  "Yamada",
		Role:      model.RoleUser,
	}
}

func TestNewTokenManager_EmptySecret_ReturnsError(t *testing.T) {
	if _, err := NewTokenManager("", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestTokenManager_GenerateAndVerify_RoundTrip(t *testing.T) {
	m := newTestManager(t, time.Hour)

	token, err := m.Generate(testUser())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	identity, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if identity.UserID != "user-123" {
		t.Errorf("UserID = %q, want %q", identity.UserID, "user-123")
	}
	if identity.Name != "Taro Yamada" {
		t.Errorf("Name = %q, want %q", identity.Name, "Taro Yamada")
	}
	if identity.Email != "taro@example.com" {
		t.Errorf("Email = %q, want %q", identity.Email, "taro@example.com")
	}
	if identity.Role != model.RoleUser {
		t.Errorf("Role = %q, want %q", identity.Role, model.RoleUser)
	}
}

func TestTokenManager_Verify_ExpiredToken_ReturnsError(t *testing.T) {
	m := newTestManager(t, -time.Minute)

	token, err := m.Generate(testUser())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := m.Verify(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestTokenManager_Verify_WrongSecret_ReturnsError(t *testing.T) {
	m := newTestManager(t, time.Hour)
	token, err := m.Generate(testUser())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	other, err := NewTokenManager("another-secret-32bytes-long!!!!!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager failed: %v", err)
	}

	if _, err := other.Verify(token); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}

func TestTokenManager_Verify_MalformedToken_ReturnsError(t *testing.T) {
	m := newTestManager(t, time.Hour)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.Verify(token); err == nil {
			t.Errorf("expected error for malformed token %q", token)
		}
	}
}

// alg=noneのトークンは署名検証で拒否されることを検証
func TestTokenManager_Verify_UnsignedToken_ReturnsError(t *testing.T) {
	m := newTestManager(t, time.Hour)

	// header {"alg":"none","typ":"JWT"} のトークン
	unsigned := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiJ1c2VyLTEyMyJ9."
	if _, err := m.Verify(unsigned); err == nil {
		t.Fatal("expected error for unsigned token")
	}
	if _, err := m.Verify(strings.TrimSuffix(unsigned, ".")); err == nil {
		t.Fatal("expected error for truncated token")
	}
}
