// package auth implements the PKCE authorization codes, password
// hashing, and token lifecycle management for provider connections.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/desertthunder/chorus/internal/shared"
)

// pkceUnreserved is the RFC 7636 unreserved character set used for code
// verifiers.
const pkceUnreserved = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_.~-"

const (
	// MinVerifierLength and MaxVerifierLength bound PKCE code verifiers.
	MinVerifierLength = 43
	MaxVerifierLength = 128

	// DefaultVerifierLength is used when the caller has no preference.
	DefaultVerifierLength = 64
)

// GenerateVerifier returns a cryptographically random code verifier of
// the given length drawn from the PKCE unreserved character set. Length
// must be in [43, 128].
func GenerateVerifier(length int) (string, error) {
	if length < MinVerifierLength || length > MaxVerifierLength {
		return "", fmt.Errorf("%w: verifier length must be in [%d, %d], got %d",
			shared.ErrValidation, MinVerifierLength, MaxVerifierLength, length)
	}

	// Bytes at or above the largest multiple of the alphabet size are
	// rejected so no character is drawn more often than the rest.
	limit := byte(256 - 256%len(pkceUnreserved))

	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, pkceUnreserved[int(b)%len(pkceUnreserved)])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}

// Challenge derives the S256 code challenge for a verifier:
// base64url without padding of the verifier's SHA-256 digest.
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// GenerateState returns a random state token for CSRF protection during
// the authorization redirect.
func GenerateState() (string, error) {
	return GenerateVerifier(MinVerifierLength)
}
