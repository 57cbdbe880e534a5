// Package authutil holds password hashing and bearer token helpers for
// the auth endpoints.
package authutil

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Password constants. bcrypt ignores input past 72 bytes and newer
// versions of x/crypto reject it, so longer passwords are refused up front.
const (
	MaxPasswordLength = 72
	BcryptCost        = 10
)

// Password validation errors
var (
	ErrPasswordRequired = errors.New("Password is required.")
	ErrPasswordTooLong  = errors.New("Password must be at most 72 bytes.")
)

// ValidatePassword checks that a password can be hashed.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plain-text password with a bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
