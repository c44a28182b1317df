// package tasks implements background maintenance operations over stored
// posts, chiefly re-fetching embedded playlist snapshots from the music
// providers so shared playlists do not drift too far from their source.
//
// The core abstraction is SnapshotEngine, which walks playlist posts and
// refreshes their payloads through a worker pool. Operations emit progress
// updates via channels for non-blocking status reporting to the CLI layer.
package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chorus/internal/models"
	"github.com/desertthunder/chorus/internal/repositories"
	"github.com/desertthunder/chorus/internal/services"
	"github.com/desertthunder/chorus/internal/shared"
)

// CredentialSource yields usable provider credentials for a user,
// refreshing them first when they have expired. Satisfied by
// auth.TokenManager.
type CredentialSource interface {
	EnsureFresh(ctx context.Context, userID string) (*models.TokenRecord, error)
}

// SnapshotResult records the outcome of refreshing one post's playlist.
type SnapshotResult struct {
	PostID     string // Post whose music item was refreshed
	PlaylistID string // Provider-side playlist id
	Name       string // Playlist name at time of refresh
	Success    bool   // Whether the stored payload was replaced
	Skipped    bool   // Author had no usable provider connection
	Error      error  // Failure detail when Success is false
}

// RefreshResult aggregates a full refresh pass.
type RefreshResult struct {
	TotalPosts int              // Playlist posts considered
	Refreshed  int              // Snapshots replaced
	Skipped    int              // Posts skipped for missing credentials
	Failed     int              // Posts that errored
	Results    []SnapshotResult // Per-post outcomes
}

// SnapshotEngine refreshes stored playlist payloads for one provider.
type SnapshotEngine struct {
	posts   *repositories.PostRepository
	catalog services.Catalog
	creds   CredentialSource
	logger  *log.Logger
}

// NewSnapshotEngine creates a SnapshotEngine backed by the given post
// store, catalog client, and credential source.
func NewSnapshotEngine(posts *repositories.PostRepository, catalog services.Catalog, creds CredentialSource, logger *log.Logger) *SnapshotEngine {
	return &SnapshotEngine{
		posts:   posts,
		catalog: catalog,
		creds:   creds,
		logger:  logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default so progress reporting never stalls the refresh.
func (e *SnapshotEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// RefreshPost refreshes a single post's playlist snapshot immediately,
// bypassing the worker pool. Non-playlist posts are rejected.
func (e *SnapshotEngine) RefreshPost(ctx context.Context, postID string) (*SnapshotResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrExternalService)
	}

	post, err := e.posts.Get(postID)
	if err != nil {
		return nil, err
	}
	if post.Music().ContentType != models.ContentPlaylist {
		return nil, fmt.Errorf("%w: post %s does not embed a playlist", shared.ErrValidation, postID)
	}

	res := e.refreshOne(ctx, post)
	if res.Error != nil {
		return &res, res.Error
	}
	return &res, nil
}

// refreshOne fetches credentials for the post's author, pulls the current
// playlist from the catalog, and swaps the stored payload.
func (e *SnapshotEngine) refreshOne(ctx context.Context, post *models.Post) SnapshotResult {
	result := SnapshotResult{
		PostID:     post.ID(),
		PlaylistID: post.Music().ContentID,
		Name:       post.Music().Name,
	}

	record, err := e.creds.EnsureFresh(ctx, post.AuthorID())
	if err != nil {
		if errors.Is(err, shared.ErrNoConnection) || errors.Is(err, shared.ErrRefreshFailed) {
			result.Skipped = true
			return result
		}
		result.Error = fmt.Errorf("failed to obtain credentials: %w", err)
		return result
	}

	item, err := e.catalog.FetchPlaylist(ctx, record.AccessToken, result.PlaylistID)
	if err != nil {
		result.Error = fmt.Errorf("failed to fetch playlist: %w", err)
		return result
	}

	if err := e.posts.UpdateSnapshot(post.ID(), item); err != nil {
		result.Error = err
		return result
	}

	result.Name = item.Name
	result.Success = true
	return result
}
