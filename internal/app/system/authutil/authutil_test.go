package authutil

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid", "mySecurePassword", nil},
		{"valid 72 bytes", strings.Repeat("a", 72), nil},
		{"empty", "", ErrPasswordRequired},
		{"too long", strings.Repeat("a", 73), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePassword(tt.password); err != tt.wantErr {
				t.Errorf("ValidatePassword(%q) = %v, want %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "s3cret-pass" || !strings.HasPrefix(hash, "$2") {
		t.Errorf("HashPassword() = %q, want a bcrypt hash", hash)
	}
	if !CheckPassword("s3cret-pass", hash) {
		t.Error("CheckPassword() should accept the original password")
	}
	if CheckPassword("wrong", hash) {
		t.Error("CheckPassword() should reject a different password")
	}
	if CheckPassword("s3cret-pass", "not-a-hash") {
		t.Error("CheckPassword() should reject an invalid hash")
	}
}

func TestHashPassword_Unique(t *testing.T) {
	h1, _ := HashPassword("same")
	h2, _ := HashPassword("same")
	if h1 == h2 {
		t.Error("hashes of the same password should differ by salt")
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	ti := NewTokenIssuer("test-secret", time.Hour, "stratagate")

	tok, err := ti.Issue("65a1b2c3d4e5f60718293a4b")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	claims, err := ti.Parse(tok)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.UserID != "65a1b2c3d4e5f60718293a4b" {
		t.Errorf("UserID = %q", claims.UserID)
	}
	if claims.Issuer != "stratagate" {
		t.Errorf("Issuer = %q", claims.Issuer)
	}
}

func TestTokenIssuer_Rejects(t *testing.T) {
	ti := NewTokenIssuer("test-secret", time.Hour, "")
	tok, err := ti.Issue("u1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenIssuer("other-secret", time.Hour, "")
		if _, err := other.Parse(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		late := NewTokenIssuer("test-secret", time.Hour, "")
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		if _, err := late.Parse(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := ti.Parse("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
		}
	})
}

func TestTokenIssuer_NoSecret(t *testing.T) {
	ti := NewTokenIssuer("", 0, "")
	if ti.Configured() {
		t.Error("Configured() should be false without a secret")
	}
	if _, err := ti.Issue("u1"); !errors.Is(err, ErrNoSecret) {
		t.Errorf("Issue() error = %v, want ErrNoSecret", err)
	}
	if _, err := ti.Parse("x"); !errors.Is(err, ErrNoSecret) {
		t.Errorf("Parse() error = %v, want ErrNoSecret", err)
	}
}
