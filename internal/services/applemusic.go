// Apple Music implementation of [Catalog].
//
// Apple Music requires a developer token (an ES256-signed JWT) on every
// request in addition to the user's music token.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/desertthunder/chorus/internal/models"
	"github.com/desertthunder/chorus/internal/shared"
)

// developerTokenTTL is how long minted developer tokens stay valid.
const developerTokenTTL = time.Hour

// AppleMusicClient mints developer tokens for the Apple Music API.
// Catalog fetches beyond token minting are not implemented yet; the
// MusicKit flow handles user-facing fetches client-side.
type AppleMusicClient struct {
	teamID     string
	keyID      string
	privateKey string
	now        func() time.Time
}

// NewAppleMusicClient creates an Apple Music client from the configured
// key material.
func NewAppleMusicClient(cfg shared.AppleMusicConfig) (*AppleMusicClient, error) {
	if cfg.TeamID == "" || cfg.KeyID == "" || cfg.PrivateKey == "" {
		return nil, fmt.Errorf("%w: missing apple music key material", shared.ErrValidation)
	}

	return &AppleMusicClient{
		teamID:     cfg.TeamID,
		keyID:      cfg.KeyID,
		privateKey: cfg.PrivateKey,
		now:        time.Now,
	}, nil
}

func (a *AppleMusicClient) Name() string { return "Apple Music" }

// Provider returns the provider tag stored on credentials and posts.
func (a *AppleMusicClient) Provider() models.Provider { return models.ProviderAppleMusic }

// DeveloperToken mints a signed ES256 JWT developer token. Keys pasted
// through environment variables carry literal "\n" sequences; those are
// restored to newlines before parsing.
func (a *AppleMusicClient) DeveloperToken() (string, error) {
	pem := strings.ReplaceAll(a.privateKey, `\n`, "\n")

	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(pem))
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse signing key: %v", shared.ErrValidation, err)
	}

	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": a.teamID,
		"iat": now.Unix(),
		"exp": now.Add(developerTokenTTL).Unix(),
	})
	token.Header["kid"] = a.keyID

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign developer token: %w", err)
	}

	return signed, nil
}

// FetchUserIdentity is not implemented for Apple Music.
func (a *AppleMusicClient) FetchUserIdentity(ctx context.Context, accessToken string) (string, error) {
	return "", shared.ErrNotImplemented
}

// FetchOwnedPlaylists is not implemented for Apple Music.
func (a *AppleMusicClient) FetchOwnedPlaylists(ctx context.Context, accessToken string) ([]models.PlaylistPreview, error) {
	return nil, shared.ErrNotImplemented
}

// FetchPlaylist is not implemented for Apple Music.
func (a *AppleMusicClient) FetchPlaylist(ctx context.Context, accessToken, playlistID string) (*models.MusicItem, error) {
	return nil, shared.ErrNotImplemented
}

// FetchPlaylistTracks is not implemented for Apple Music.
func (a *AppleMusicClient) FetchPlaylistTracks(ctx context.Context, accessToken, playlistID string) ([]models.Song, error) {
	return nil, shared.ErrNotImplemented
}

// FetchTrack is not implemented for Apple Music.
func (a *AppleMusicClient) FetchTrack(ctx context.Context, accessToken, trackID string) (*models.MusicItem, error) {
	return nil, shared.ErrNotImplemented
}

// FetchAlbum is not implemented for Apple Music.
func (a *AppleMusicClient) FetchAlbum(ctx context.Context, accessToken, albumID string) (*models.MusicItem, error) {
	return nil, shared.ErrNotImplemented
}

// Search is not implemented for Apple Music.
func (a *AppleMusicClient) Search(ctx context.Context, accessToken, query string) ([]models.MusicItem, error) {
	return nil, shared.ErrNotImplemented
}
