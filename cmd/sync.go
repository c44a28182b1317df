package main

import (
	"context"

	"github.com/desertthunder/chorus/internal/models"
	"github.com/desertthunder/chorus/internal/repositories"
	"github.com/desertthunder/chorus/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Sync refreshes stored playlist snapshots from the provider. With
// --post it refreshes a single post; otherwise the full backlog.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	client, err := r.spotifyClient()
	if err != nil {
		return err
	}

	manager, err := r.tokenManager()
	if err != nil {
		return err
	}

	engine := tasks.NewSnapshotEngine(
		repositories.NewPostRepository(db), client, manager, r.logger)

	if postID := cmd.String("post"); postID != "" {
		result, err := engine.RefreshPost(ctx, postID)
		if err != nil {
			return err
		}
		if result.Skipped {
			r.writePlain("- Skipped %s: author has no connection\n", result.Name)
			return nil
		}
		r.writePlain("✓ Refreshed %s\n", result.Name)
		return nil
	}

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
		close(done)
	}()

	result, err := engine.RefreshAll(ctx, progress, tasks.RefreshOpts{
		Provider:   models.ProviderSpotify,
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	})
	close(progress)
	<-done

	if err != nil {
		return err
	}

	r.writePlainln("Refreshed %d of %d snapshots (%d skipped, %d failed)",
		result.Refreshed, result.TotalPosts, result.Skipped, result.Failed)
	return nil
}
