package models

import "encoding/json"

// Provider identifies an external music catalog.
type Provider string

const (
	ProviderSpotify    Provider = "SP"
	ProviderAppleMusic Provider = "AM"
)

// ContentType tags the kind of music content embedded in a post.
type ContentType string

const (
	ContentSong     ContentType = "song"
	ContentAlbum    ContentType = "album"
	ContentPlaylist ContentType = "playlist"
)

// MusicItem is the music content embedded in a post: an opaque provider
// payload plus the fields the core depends on. Immutable after post
// creation except for snapshot refreshes, which replace the payload.
type MusicItem struct {
	Provider    Provider        `json:"provider"`
	ContentType ContentType     `json:"type"`
	ContentID   string          `json:"id"`
	Name        string          `json:"name"`
	URL         string          `json:"url,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// Validate checks the fields the engagement store relies on.
func (m MusicItem) Validate() error {
	params := struct {
		Provider    string `validate:"required,oneof=SP AM"`
		ContentType string `validate:"required,oneof=song album playlist"`
		ContentID   string `validate:"required"`
		Name        string `validate:"required"`
	}{
		Provider:    string(m.Provider),
		ContentType: string(m.ContentType),
		ContentID:   m.ContentID,
		Name:        m.Name,
	}

	return checkStruct(params)
}

// PlaylistPreview is abbreviated playlist data fetched for attaching to a
// profile or post; tracks are fetched separately once a playlist is chosen.
type PlaylistPreview struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	TrackCount   int    `json:"track_count"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Song is a track subdocument inside a playlist payload.
type Song struct {
	ID      string   `json:"id"`
	ISRC    string   `json:"isrc,omitempty"`
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
	URL     string   `json:"url,omitempty"`
	AlbumID string   `json:"album_id,omitempty"`
}

// PlaylistPayload is the provider payload stored for playlist posts.
type PlaylistPayload struct {
	Tracks []Song `json:"tracks"`
}
