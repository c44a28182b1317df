package main

import (
	"context"

	"github.com/desertthunder/chorus/internal/feed"
	"github.com/desertthunder/chorus/internal/models"
	"github.com/desertthunder/chorus/internal/repositories"
	"github.com/urfave/cli/v3"
)

// Feed renders a user's feed, newest first.
func (r *Runner) Feed(ctx context.Context, cmd *cli.Command) error {
	viewer, err := r.userByName(cmd.StringArg("username"))
	if err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	generator := feed.NewGenerator(
		repositories.NewGraphRepository(db),
		repositories.NewPostRepository(db),
		r.logger)

	limit := cmd.Int("limit")
	all := cmd.Bool("all")

	var posts []*models.Post
	var cursor *repositories.PostCursor

	for {
		page, err := generator.Page(viewer.ID(), limit, cursor)
		if err != nil {
			return err
		}
		posts = append(posts, page...)

		if !all || limit <= 0 || len(page) < limit {
			break
		}
		cursor = feed.NextCursor(page)
	}

	if cmd.Bool("json") {
		views := make([]map[string]any, 0, len(posts))
		for _, post := range posts {
			views = append(views, postView(post))
		}
		return r.writeJSON(views, true)
	}

	r.writePlain("Feed for %s (%d posts):\n\n", viewer.Handle(), len(posts))
	for _, post := range posts {
		r.printPost(post)
	}
	return nil
}
