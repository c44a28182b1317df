package auth

import (
	"errors"
	"regexp"
	"testing"

	"github.com/desertthunder/chorus/internal/shared"
)

var verifierPattern = regexp.MustCompile(`^[A-Za-z0-9_.~-]+$`)

func TestGenerateVerifier(t *testing.T) {
	t.Run("CharsetAndLength", func(t *testing.T) {
		verifier, err := GenerateVerifier(DefaultVerifierLength)
		if err != nil {
			t.Fatalf("failed to generate verifier: %v", err)
		}
		if len(verifier) != DefaultVerifierLength {
			t.Errorf("expected length %d, got %d", DefaultVerifierLength, len(verifier))
		}
		if !verifierPattern.MatchString(verifier) {
			t.Errorf("verifier %q contains characters outside the unreserved set", verifier)
		}
	})

	t.Run("LengthBounds", func(t *testing.T) {
		for _, length := range []int{MinVerifierLength - 1, MaxVerifierLength + 1, 0, -5} {
			if _, err := GenerateVerifier(length); !errors.Is(err, shared.ErrValidation) {
				t.Errorf("length %d: expected ErrValidation, got %v", length, err)
			}
		}
		for _, length := range []int{MinVerifierLength, MaxVerifierLength} {
			if _, err := GenerateVerifier(length); err != nil {
				t.Errorf("length %d should be accepted, got %v", length, err)
			}
		}
	})

	t.Run("DrawsFullAlphabet", func(t *testing.T) {
		seen := map[byte]bool{}
		for i := 0; i < 64; i++ {
			verifier, err := GenerateVerifier(MaxVerifierLength)
			if err != nil {
				t.Fatalf("failed to generate verifier: %v", err)
			}
			for j := 0; j < len(verifier); j++ {
				seen[verifier[j]] = true
			}
		}
		for i := 0; i < len(pkceUnreserved); i++ {
			if !seen[pkceUnreserved[i]] {
				t.Errorf("character %q never drawn across %d characters",
					pkceUnreserved[i], 64*MaxVerifierLength)
			}
		}
	})

	t.Run("Unpredictable", func(t *testing.T) {
		a, err := GenerateVerifier(DefaultVerifierLength)
		if err != nil {
			t.Fatalf("failed to generate verifier: %v", err)
		}
		b, err := GenerateVerifier(DefaultVerifierLength)
		if err != nil {
			t.Fatalf("failed to generate verifier: %v", err)
		}
		if a == b {
			t.Error("two verifiers should not collide")
		}
	})
}

func TestChallenge(t *testing.T) {
	// Worked example from RFC 7636 appendix B.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"

	if got := Challenge(verifier); got != want {
		t.Errorf("expected challenge %s, got %s", want, got)
	}
}

func TestGenerateState(t *testing.T) {
	state, err := GenerateState()
	if err != nil {
		t.Fatalf("failed to generate state: %v", err)
	}
	if len(state) != MinVerifierLength {
		t.Errorf("expected state length %d, got %d", MinVerifierLength, len(state))
	}
	if !verifierPattern.MatchString(state) {
		t.Errorf("state %q contains characters outside the unreserved set", state)
	}
}
