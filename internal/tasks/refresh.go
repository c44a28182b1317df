package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/chorus/internal/models"
	"github.com/desertthunder/chorus/internal/shared"
	"golang.org/x/time/rate"
)

// RefreshOpts contains configuration for bulk snapshot refreshes.
type RefreshOpts struct {
	Provider   models.Provider // Provider whose playlist posts to refresh
	NumWorkers int             // Concurrent workers (default: 5)
	RateLimit  float64         // Catalog requests per second (default: 5)
}

// RefreshAll refreshes every stored playlist snapshot for one provider
// concurrently with rate limiting and progress tracking.
//
// A worker pool pulls posts from a jobs channel; each worker waits on the
// shared limiter before touching the catalog, so the provider sees at most
// RateLimit requests per second regardless of worker count. Posts whose
// authors no longer have a usable connection are skipped, not failed.
func (e *SnapshotEngine) RefreshAll(ctx context.Context, prog chan<- ProgressUpdate, opts RefreshOpts) (*RefreshResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrExternalService)
	}

	if opts.Provider == "" {
		opts.Provider = models.ProviderSpotify
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	e.sendProgress(prog, scanningUpdate(opts.Provider))

	posts, err := e.posts.ListPlaylistPosts(opts.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlist posts: %w", err)
	}

	result := &RefreshResult{
		TotalPosts: len(posts),
		Results:    make([]SnapshotResult, 0, len(posts)),
	}
	if len(posts) == 0 {
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan *models.Post, len(posts))
	results := make(chan SnapshotResult, len(posts))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.refreshWorker(ctx, &wg, limiter, jobs, results)
	}

	go func() {
		for _, post := range posts {
			select {
			case <-ctx.Done():
				close(jobs)
				return
			case jobs <- post:
			}
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		switch {
		case res.Success:
			result.Refreshed++
			e.sendProgress(prog, refreshedUpdate(completed, len(posts), res.Name))
		case res.Skipped:
			result.Skipped++
			e.sendProgress(prog, refreshSkippedUpdate(completed, len(posts), res.Name))
		default:
			result.Failed++
			e.sendProgress(prog, refreshFailedUpdate(completed, len(posts), res.Name, res.Error))
		}
	}

	return result, nil
}

// refreshWorker is a worker goroutine that refreshes posts from the jobs channel.
func (e *SnapshotEngine) refreshWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan *models.Post,
	results chan<- SnapshotResult,
) {
	defer wg.Done()

	for post := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			results <- SnapshotResult{
				PostID:     post.ID(),
				PlaylistID: post.Music().ContentID,
				Name:       post.Music().Name,
				Error:      err,
			}
			continue
		}

		results <- e.refreshOne(ctx, post)
	}
}
