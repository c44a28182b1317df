package services

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/desertthunder/chorus/internal/shared"
)

func generateSigningKey(t *testing.T) (string, *ecdsa.PrivateKey) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("failed to marshal key: %v", err)
	}

	block := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	return string(block), key
}

func TestNewAppleMusicClient(t *testing.T) {
	pemKey, _ := generateSigningKey(t)

	t.Run("RequiresKeyMaterial", func(t *testing.T) {
		incomplete := []shared.AppleMusicConfig{
			{},
			{TeamID: "team"},
			{TeamID: "team", KeyID: "key"},
			{KeyID: "key", PrivateKey: pemKey},
		}
		for _, cfg := range incomplete {
			if _, err := NewAppleMusicClient(cfg); !errors.Is(err, shared.ErrValidation) {
				t.Errorf("config %+v: expected ErrValidation, got %v", cfg, err)
			}
		}
	})

	t.Run("Complete", func(t *testing.T) {
		client, err := NewAppleMusicClient(shared.AppleMusicConfig{
			TeamID: "team", KeyID: "key", PrivateKey: pemKey,
		})
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
		if client.Provider() != "AM" {
			t.Errorf("unexpected provider tag %s", client.Provider())
		}
	})
}

func TestDeveloperToken(t *testing.T) {
	pemKey, key := generateSigningKey(t)
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	client, err := NewAppleMusicClient(shared.AppleMusicConfig{
		TeamID: "TEAM123", KeyID: "KEY456", PrivateKey: pemKey,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	client.now = func() time.Time { return issued }

	signed, err := client.DeveloperToken()
	if err != nil {
		t.Fatalf("failed to mint developer token: %v", err)
	}

	parsed, err := jwt.Parse(signed, func(token *jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"ES256"}), jwt.WithTimeFunc(func() time.Time { return issued }))
	if err != nil {
		t.Fatalf("failed to verify token: %v", err)
	}

	if parsed.Header["kid"] != "KEY456" {
		t.Errorf("expected kid header KEY456, got %v", parsed.Header["kid"])
	}

	claims := parsed.Claims.(jwt.MapClaims)
	if claims["iss"] != "TEAM123" {
		t.Errorf("expected issuer TEAM123, got %v", claims["iss"])
	}
	if exp := int64(claims["exp"].(float64)); exp != issued.Add(time.Hour).Unix() {
		t.Errorf("expected expiry one hour out, got %d", exp)
	}
}

func TestDeveloperTokenEscapedNewlines(t *testing.T) {
	pemKey, _ := generateSigningKey(t)
	escaped := strings.ReplaceAll(strings.TrimSuffix(pemKey, "\n"), "\n", `\n`)

	client, err := NewAppleMusicClient(shared.AppleMusicConfig{
		TeamID: "team", KeyID: "key", PrivateKey: escaped,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	if _, err := client.DeveloperToken(); err != nil {
		t.Errorf("key with escaped newlines should parse: %v", err)
	}
}

func TestAppleMusicCatalogStubs(t *testing.T) {
	pemKey, _ := generateSigningKey(t)
	client, err := NewAppleMusicClient(shared.AppleMusicConfig{
		TeamID: "team", KeyID: "key", PrivateKey: pemKey,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	ctx := context.Background()
	if _, err := client.FetchPlaylist(ctx, "token", "pl"); !errors.Is(err, shared.ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented, got %v", err)
	}
	if _, err := client.Search(ctx, "token", "query"); !errors.Is(err, shared.ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented, got %v", err)
	}
}
