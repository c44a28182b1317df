// package services defines interface Provider for interacting with
// external music catalog HTTP APIs (Spotify, Apple Music).
package services

import (
	"context"

	"github.com/desertthunder/chorus/internal/models"
)

// Catalog defines the music catalog operations providers expose. Tokens
// are passed explicitly on every call; callers run stored credentials
// through the token lifecycle manager first.
type Catalog interface {
	// FetchUserIdentity returns the provider-side user id for the token's owner.
	FetchUserIdentity(ctx context.Context, accessToken string) (string, error)

	// FetchOwnedPlaylists retrieves abbreviated previews of the playlists
	// owned by the token's user, for attaching to a profile or post.
	FetchOwnedPlaylists(ctx context.Context, accessToken string) ([]models.PlaylistPreview, error)

	// FetchPlaylist retrieves a full playlist with tracks as an embeddable music item.
	FetchPlaylist(ctx context.Context, accessToken, playlistID string) (*models.MusicItem, error)

	// FetchPlaylistTracks retrieves the track subdocuments of a playlist.
	FetchPlaylistTracks(ctx context.Context, accessToken, playlistID string) ([]models.Song, error)

	// FetchTrack retrieves a single track as an embeddable music item.
	FetchTrack(ctx context.Context, accessToken, trackID string) (*models.MusicItem, error)

	// FetchAlbum retrieves an album as an embeddable music item.
	FetchAlbum(ctx context.Context, accessToken, albumID string) (*models.MusicItem, error)

	// Search finds catalog content matching the query.
	Search(ctx context.Context, accessToken, query string) ([]models.MusicItem, error)

	// Name returns the name of the provider (e.g., "Spotify")
	Name() string
}
