// Spotify API implementation of [Catalog] and the token exchange surface.
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/chorus/internal/auth"
	"github.com/desertthunder/chorus/internal/models"
	"github.com/desertthunder/chorus/internal/shared"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// requestTimeout bounds every call against the provider; a slow
	// endpoint is a recoverable failure, never a hang.
	requestTimeout = 15 * time.Second
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalIDs struct {
	ISRC string `json:"isrc"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	ExternalIDs  externalIDs     `json:"external_ids"`
	ExternalURLs externalURLs    `json:"external_urls"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	TotalTracks  int             `json:"total_tracks"`
	Images       []SpotifyImage  `json:"images"`
	ExternalURLs externalURLs    `json:"external_urls"`
}

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracksRef struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Owner        owner             `json:"owner"`
	Tracks       playlistTracksRef `json:"tracks"`
	Images       []SpotifyImage    `json:"images"`
	ExternalURLs externalURLs      `json:"external_urls"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

type paginatedPlaylists struct {
	Items []SpotifyPlaylist `json:"items"`
	Next  *string           `json:"next"`
}

type paginatedPlaylistTracks struct {
	Items []SpotifyPlaylistTrack `json:"items"`
	Next  *string                `json:"next"`
}

// SpotifyClient implements [Catalog] and [auth.Exchanger] for the
// Spotify Web API. Authorization uses the PKCE variant of the code flow,
// so no client secret is held.
type SpotifyClient struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewSpotifyClient creates a Spotify client from PKCE credentials.
func NewSpotifyClient(cfg shared.SpotifyConfig) (*SpotifyClient, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: missing spotify client_id", shared.ErrValidation)
	}

	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:3000/callback"
	}

	scopes := cfg.Scopes
	if scopes == "" {
		scopes = "playlist-read-private user-read-private user-library-read"
	}

	config := &oauth2.Config{
		ClientID:    cfg.ClientID,
		RedirectURL: redirectURI,
		Scopes:      splitScopes(scopes),
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyClient{
		config:     config,
		httpClient: &http.Client{Timeout: requestTimeout},
	}, nil
}

func splitScopes(s string) []string {
	return strings.Fields(s)
}

func (s *SpotifyClient) Name() string { return "Spotify" }

// Provider returns the provider tag stored on credentials and posts.
func (s *SpotifyClient) Provider() models.Provider { return models.ProviderSpotify }

// AuthorizationURL builds the user-facing authorization URL carrying the
// S256 code challenge.
func (s *SpotifyClient) AuthorizationURL(state, challenge string) string {
	return s.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("code_challenge", challenge),
	)
}

// ExchangeCode trades an authorization code plus the held PKCE verifier
// for tokens at the provider's token endpoint.
func (s *SpotifyClient) ExchangeCode(ctx context.Context, code, verifier string) (*auth.Grant, error) {
	ctx, cancel := s.exchangeContext(ctx)
	defer cancel()

	token, err := s.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange: %v", shared.ErrExternalService, err)
	}

	return grantFromToken(token), nil
}

// ExchangeRefresh trades a refresh token for a fresh access token.
func (s *SpotifyClient) ExchangeRefresh(ctx context.Context, refreshToken string) (*auth.Grant, error) {
	ctx, cancel := s.exchangeContext(ctx)
	defer cancel()

	source := s.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: refresh exchange: %v", shared.ErrExternalService, err)
	}

	return grantFromToken(token), nil
}

func (s *SpotifyClient) exchangeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	return context.WithTimeout(ctx, requestTimeout)
}

func grantFromToken(token *oauth2.Token) *auth.Grant {
	grant := &auth.Grant{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		grant.ExpiresIn = int64(time.Until(token.Expiry) / time.Second)
	}
	return grant
}

// doRequest performs an authenticated GET against the Spotify API. The
// endpoint can be a path relative to the API base or an absolute
// pagination URL returned by a previous response.
func (s *SpotifyClient) doRequest(ctx context.Context, accessToken, endpoint string, result any) error {
	if accessToken == "" {
		return fmt.Errorf("%w: missing access token", shared.ErrAuthExpired)
	}

	apiURL := endpoint
	if len(endpoint) > 0 && endpoint[0] == '/' {
		apiURL = spotifyBaseURL + endpoint
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", shared.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: spotify rejected the token", shared.ErrAuthExpired)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify API error: status %d", shared.ErrExternalService, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// FetchUserIdentity retrieves the Spotify user id for the token's owner.
func (s *SpotifyClient) FetchUserIdentity(ctx context.Context, accessToken string) (string, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, accessToken, "/me", &user); err != nil {
		return "", err
	}
	if user.ID == "" {
		return "", fmt.Errorf("%w: profile response missing id", shared.ErrExternalService)
	}
	return user.ID, nil
}

// FetchOwnedPlaylists retrieves abbreviated previews of the playlists
// owned by the token's user, walking pagination and filtering out
// followed playlists owned by other accounts.
func (s *SpotifyClient) FetchOwnedPlaylists(ctx context.Context, accessToken string) ([]models.PlaylistPreview, error) {
	userID, err := s.FetchUserIdentity(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	var previews []models.PlaylistPreview
	next := "/me/playlists?limit=50"

	for next != "" {
		var page paginatedPlaylists
		if err := s.doRequest(ctx, accessToken, next, &page); err != nil {
			return nil, err
		}

		for _, pl := range page.Items {
			if pl.Owner.ID != userID {
				continue
			}

			preview := models.PlaylistPreview{
				ID:         pl.ID,
				Name:       pl.Name,
				TrackCount: pl.Tracks.Total,
				URL:        pl.ExternalURLs.Spotify,
			}
			if len(pl.Images) > 0 {
				preview.ThumbnailURL = pl.Images[0].URL
			}
			previews = append(previews, preview)
		}

		if page.Next == nil {
			break
		}
		next = *page.Next
	}

	return previews, nil
}

// FetchPlaylistTracks retrieves the track subdocuments of a playlist,
// walking pagination.
func (s *SpotifyClient) FetchPlaylistTracks(ctx context.Context, accessToken, playlistID string) ([]models.Song, error) {
	var songs []models.Song
	next := fmt.Sprintf("/playlists/%s/tracks?limit=50", url.PathEscape(playlistID))

	for next != "" {
		var page paginatedPlaylistTracks
		if err := s.doRequest(ctx, accessToken, next, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			songs = append(songs, songFromTrack(item.Track))
		}

		if page.Next == nil {
			break
		}
		next = *page.Next
	}

	return songs, nil
}

// FetchPlaylist retrieves a playlist with tracks as an embeddable music
// item. Ratings start empty; they accrue in the engagement store, not at
// fetch time.
func (s *SpotifyClient) FetchPlaylist(ctx context.Context, accessToken, playlistID string) (*models.MusicItem, error) {
	var playlist SpotifyPlaylist
	endpoint := fmt.Sprintf("/playlists/%s", url.PathEscape(playlistID))
	if err := s.doRequest(ctx, accessToken, endpoint, &playlist); err != nil {
		return nil, err
	}

	tracks, err := s.FetchPlaylistTracks(ctx, accessToken, playlistID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(models.PlaylistPayload{Tracks: tracks})
	if err != nil {
		return nil, fmt.Errorf("failed to encode playlist payload: %w", err)
	}

	return &models.MusicItem{
		Provider:    models.ProviderSpotify,
		ContentType: models.ContentPlaylist,
		ContentID:   playlist.ID,
		Name:        playlist.Name,
		URL:         playlist.ExternalURLs.Spotify,
		Payload:     payload,
	}, nil
}

// FetchTrack retrieves a single track as an embeddable music item.
func (s *SpotifyClient) FetchTrack(ctx context.Context, accessToken, trackID string) (*models.MusicItem, error) {
	var track SpotifyTrack
	endpoint := fmt.Sprintf("/tracks/%s", url.PathEscape(trackID))
	if err := s.doRequest(ctx, accessToken, endpoint, &track); err != nil {
		return nil, err
	}

	return musicItemFromTrack(track)
}

// FetchAlbum retrieves an album as an embeddable music item.
func (s *SpotifyClient) FetchAlbum(ctx context.Context, accessToken, albumID string) (*models.MusicItem, error) {
	var album SpotifyAlbum
	endpoint := fmt.Sprintf("/albums/%s", url.PathEscape(albumID))
	if err := s.doRequest(ctx, accessToken, endpoint, &album); err != nil {
		return nil, err
	}

	return &models.MusicItem{
		Provider:    models.ProviderSpotify,
		ContentType: models.ContentAlbum,
		ContentID:   album.ID,
		Name:        album.Name,
		URL:         album.ExternalURLs.Spotify,
	}, nil
}

// Search finds catalog tracks matching the query.
func (s *SpotifyClient) Search(ctx context.Context, accessToken, query string) ([]models.MusicItem, error) {
	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=20", url.QueryEscape(query))

	var response struct {
		Tracks struct {
			Items []SpotifyTrack `json:"items"`
		} `json:"tracks"`
	}

	if err := s.doRequest(ctx, accessToken, endpoint, &response); err != nil {
		return nil, err
	}

	items := make([]models.MusicItem, 0, len(response.Tracks.Items))
	for _, track := range response.Tracks.Items {
		item, err := musicItemFromTrack(track)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	return items, nil
}

func songFromTrack(track SpotifyTrack) models.Song {
	artists := make([]string, 0, len(track.Artists))
	for _, a := range track.Artists {
		artists = append(artists, a.Name)
	}

	return models.Song{
		ID:      track.ID,
		ISRC:    track.ExternalIDs.ISRC,
		Name:    track.Name,
		Artists: artists,
		URL:     track.ExternalURLs.Spotify,
		AlbumID: track.Album.ID,
	}
}

func musicItemFromTrack(track SpotifyTrack) (*models.MusicItem, error) {
	song := songFromTrack(track)

	payload, err := json.Marshal(song)
	if err != nil {
		return nil, fmt.Errorf("failed to encode track payload: %w", err)
	}

	return &models.MusicItem{
		Provider:    models.ProviderSpotify,
		ContentType: models.ContentSong,
		ContentID:   track.ID,
		Name:        track.Name,
		URL:         track.ExternalURLs.Spotify,
		Payload:     payload,
	}, nil
}
