package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/desertthunder/chorus/internal/models"
)

// HashPassword enforces the password policy and returns a bcrypt hash of
// the plaintext. Plaintext passwords are never stored.
func HashPassword(password string) (string, error) {
	if err := models.ValidatePassword(password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
