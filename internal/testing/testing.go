// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/desertthunder/chorus/internal/auth"
	"github.com/desertthunder/chorus/internal/models"
)

// MockCatalog is a test double for [services.Catalog]. Function fields
// override individual operations; unset fields return zero values.
type MockCatalog struct {
	FetchPlaylistFunc func(ctx context.Context, accessToken, playlistID string) (*models.MusicItem, error)
	FetchTrackFunc    func(ctx context.Context, accessToken, trackID string) (*models.MusicItem, error)
	SearchFunc        func(ctx context.Context, accessToken, query string) ([]models.MusicItem, error)
}

func (m *MockCatalog) FetchUserIdentity(ctx context.Context, accessToken string) (string, error) {
	return "mock-user", nil
}

func (m *MockCatalog) FetchOwnedPlaylists(ctx context.Context, accessToken string) ([]models.PlaylistPreview, error) {
	return []models.PlaylistPreview{}, nil
}

func (m *MockCatalog) FetchPlaylist(ctx context.Context, accessToken, playlistID string) (*models.MusicItem, error) {
	if m.FetchPlaylistFunc != nil {
		return m.FetchPlaylistFunc(ctx, accessToken, playlistID)
	}
	return nil, nil
}

func (m *MockCatalog) FetchPlaylistTracks(ctx context.Context, accessToken, playlistID string) ([]models.Song, error) {
	return []models.Song{}, nil
}

func (m *MockCatalog) FetchTrack(ctx context.Context, accessToken, trackID string) (*models.MusicItem, error) {
	if m.FetchTrackFunc != nil {
		return m.FetchTrackFunc(ctx, accessToken, trackID)
	}
	return nil, nil
}

func (m *MockCatalog) FetchAlbum(ctx context.Context, accessToken, albumID string) (*models.MusicItem, error) {
	return nil, nil
}

func (m *MockCatalog) Search(ctx context.Context, accessToken, query string) ([]models.MusicItem, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, accessToken, query)
	}
	return []models.MusicItem{}, nil
}

func (m *MockCatalog) Name() string { return "mock" }

// MockExchanger is a test double for [auth.Exchanger] that counts
// exchange calls so tests can assert how often the network was hit.
type MockExchanger struct {
	ProviderID models.Provider
	CodeGrant  *auth.Grant
	CodeErr    error
	Refresh    *auth.Grant
	RefreshErr error

	CodeCalls    int
	RefreshCalls int
}

func (m *MockExchanger) Provider() models.Provider {
	if m.ProviderID == "" {
		return models.ProviderSpotify
	}
	return m.ProviderID
}

func (m *MockExchanger) AuthorizationURL(state, challenge string) string {
	return "https://accounts.example.com/authorize?state=" + state + "&code_challenge=" + challenge
}

func (m *MockExchanger) ExchangeCode(ctx context.Context, code, verifier string) (*auth.Grant, error) {
	m.CodeCalls++
	return m.CodeGrant, m.CodeErr
}

func (m *MockExchanger) ExchangeRefresh(ctx context.Context, refreshToken string) (*auth.Grant, error) {
	m.RefreshCalls++
	return m.Refresh, m.RefreshErr
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}
