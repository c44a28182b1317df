package auth

import (
	"errors"
	"testing"

	"github.com/desertthunder/chorus/internal/shared"
)

func TestHashPassword(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		hash, err := HashPassword("listen1ng")
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}
		if hash == "listen1ng" {
			t.Fatal("hash must not equal the plaintext")
		}
		if !CheckPassword(hash, "listen1ng") {
			t.Error("correct password should verify")
		}
		if CheckPassword(hash, "listen1ngX") {
			t.Error("wrong password should not verify")
		}
	})

	t.Run("PolicyEnforced", func(t *testing.T) {
		rejected := []string{
			"short1",      // too short
			"lettersonly", // no digit
			"12345678",    // no letter
			"has space1",  // whitespace
		}
		for _, password := range rejected {
			if _, err := HashPassword(password); !errors.Is(err, shared.ErrValidation) {
				t.Errorf("password %q: expected ErrValidation, got %v", password, err)
			}
		}
	})
}
