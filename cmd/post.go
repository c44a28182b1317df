package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/chorus/internal/models"
	"github.com/desertthunder/chorus/internal/repositories"
	"github.com/desertthunder/chorus/internal/shared"
	"github.com/urfave/cli/v3"
)

// PostCreate shares a music item. The content is fetched live from the
// author's connected provider so the stored snapshot starts out current.
func (r *Runner) PostCreate(ctx context.Context, cmd *cli.Command) error {
	author, err := r.userByName(cmd.String("author"))
	if err != nil {
		return err
	}

	manager, err := r.tokenManager()
	if err != nil {
		return err
	}

	record, err := manager.EnsureFresh(ctx, author.ID())
	if err != nil {
		return fmt.Errorf("author has no usable provider connection: %w", err)
	}

	client, err := r.spotifyClient()
	if err != nil {
		return err
	}

	contentID := cmd.String("id")
	var item *models.MusicItem

	switch models.ContentType(cmd.String("type")) {
	case models.ContentPlaylist:
		item, err = client.FetchPlaylist(ctx, record.AccessToken, contentID)
	case models.ContentSong:
		item, err = client.FetchTrack(ctx, record.AccessToken, contentID)
	case models.ContentAlbum:
		item, err = client.FetchAlbum(ctx, record.AccessToken, contentID)
	default:
		return fmt.Errorf("%w: type must be song, album, or playlist", shared.ErrValidation)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch content: %w", err)
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	post := models.NewPost(0, author.ID(), author.Handle(), cmd.String("body"), cmd.StringSlice("tag"), *item)
	if err := repositories.NewPostRepository(db).Create(post); err != nil {
		return err
	}

	r.logger.Info("post created", "id", post.ID(), "author", author.Username())
	r.writePlain("✓ Shared %s: %s\n", item.ContentType, item.Name)
	r.writePlain("Post ID: %s\n", post.ID())
	return nil
}

// PostShow prints a post with its engagement.
func (r *Runner) PostShow(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	post, err := repositories.NewPostRepository(db).Get(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(postView(post), true)
	}

	r.printPost(post)

	for _, c := range post.Comments() {
		r.writePlain("  💬 %s: %s (%d likes)\n", c.AuthorHandle, c.Body, len(c.Likes))
	}
	for _, rating := range post.Ratings() {
		r.writePlain("  ★ %d/5 by %s", rating.Stars, rating.AuthorHandle)
		if rating.Review != "" {
			r.writePlain(": %s", rating.Review)
		}
		r.writePlain("\n")
	}
	return nil
}

// PostEdit replaces a post's body. Only the author may edit.
func (r *Runner) PostEdit(ctx context.Context, cmd *cli.Command) error {
	post, actor, err := r.postWithActor(cmd)
	if err != nil {
		return err
	}
	if post.AuthorID() != actor.ID() {
		return fmt.Errorf("%w: only %s can edit this post", shared.ErrNotAuthor, post.AuthorHandle())
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	if err := repositories.NewPostRepository(db).EditBody(post.ID(), cmd.String("body")); err != nil {
		return err
	}

	r.writePlain("✓ Updated post %s\n", post.ID())
	return nil
}

// PostDelete removes a post. Only the author may delete.
func (r *Runner) PostDelete(ctx context.Context, cmd *cli.Command) error {
	post, actor, err := r.postWithActor(cmd)
	if err != nil {
		return err
	}
	if post.AuthorID() != actor.ID() {
		return fmt.Errorf("%w: only %s can delete this post", shared.ErrNotAuthor, post.AuthorHandle())
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	if err := repositories.NewPostRepository(db).Delete(post.ID()); err != nil {
		return err
	}

	r.writePlain("✓ Deleted post %s\n", post.ID())
	return nil
}

// PostSearch finds visible posts matching a term.
func (r *Runner) PostSearch(ctx context.Context, cmd *cli.Command) error {
	viewer, err := r.userByName(cmd.String("viewer"))
	if err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return err
	}
	posts := repositories.NewPostRepository(db)

	term := cmd.StringArg("term")
	var results []*models.Post
	if cmd.Bool("playlists") {
		results, err = posts.SearchPlaylists(viewer.ID(), term)
	} else {
		results, err = posts.Search(viewer.ID(), term)
	}
	if err != nil {
		return err
	}

	r.writePlain("Found %d posts:\n\n", len(results))
	for _, post := range results {
		r.printPost(post)
	}
	return nil
}

// PostLike toggles a like on a post, comment, or rating.
func (r *Runner) PostLike(ctx context.Context, cmd *cli.Command) error {
	actor, err := r.userByName(cmd.String("actor"))
	if err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return err
	}
	engagement := repositories.NewEngagementRepository(db)

	targetID := cmd.StringArg("id")
	var state models.LikeState

	switch cmd.String("kind") {
	case "post":
		state, err = engagement.TogglePostLike(targetID, actor.ID())
	case "comment":
		state, err = engagement.ToggleCommentLike(targetID, actor.ID())
	case "rating":
		state, err = engagement.ToggleRatingLike(targetID, actor.ID())
	default:
		return fmt.Errorf("%w: kind must be post, comment, or rating", shared.ErrValidation)
	}
	if err != nil {
		return err
	}

	if state == models.Liked {
		r.writePlain("✓ Liked\n")
	} else {
		r.writePlain("✓ Like removed\n")
	}
	return nil
}

// PostComment adds a comment.
func (r *Runner) PostComment(ctx context.Context, cmd *cli.Command) error {
	author, err := r.userByName(cmd.String("author"))
	if err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	comment, err := repositories.NewEngagementRepository(db).AddComment(
		cmd.StringArg("id"), author.ID(), author.Handle(), cmd.String("body"))
	if err != nil {
		return err
	}

	r.writePlain("✓ Comment added (%s)\n", comment.ID)
	return nil
}

// PostRate rates a shared playlist.
func (r *Runner) PostRate(ctx context.Context, cmd *cli.Command) error {
	rater, err := r.userByName(cmd.String("rater"))
	if err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	outcome, err := repositories.NewEngagementRepository(db).Rate(
		cmd.StringArg("id"), rater.ID(), rater.Handle(), cmd.Int("stars"), cmd.String("review"))
	if err != nil {
		return err
	}

	if !outcome.Accepted {
		r.writePlain("✗ Rating refused: %s\n", outcome.Reason)
		return nil
	}

	r.writePlain("✓ Rated %d/5\n", outcome.Rating.Stars)
	return nil
}

// postWithActor loads the post argument and the acting user flag together.
func (r *Runner) postWithActor(cmd *cli.Command) (*models.Post, *models.User, error) {
	actor, err := r.userByName(cmd.String("author"))
	if err != nil {
		return nil, nil, err
	}

	db, err := r.database()
	if err != nil {
		return nil, nil, err
	}

	post, err := repositories.NewPostRepository(db).Get(cmd.StringArg("id"))
	if err != nil {
		return nil, nil, err
	}

	return post, actor, nil
}

// printPost writes a one-post summary block.
func (r *Runner) printPost(post *models.Post) {
	music := post.Music()
	r.writePlain("%s  @%s\n", post.ID(), post.AuthorHandle())
	r.writePlain("  %s\n", post.Body())
	r.writePlain("  ♪ %s (%s, %s)\n", music.Name, music.ContentType, music.Provider)
	if len(post.Tags()) > 0 {
		r.writePlain("  Tags: %v\n", post.Tags())
	}
	r.writePlain("  Likes: %d  Comments: %d  Ratings: %d\n\n",
		len(post.Likes()), len(post.Comments()), len(post.Ratings()))
}

// postView flattens a post for JSON output; the entity's fields are
// unexported and do not marshal directly.
func postView(post *models.Post) map[string]any {
	music := post.Music()
	return map[string]any{
		"id":           post.ID(),
		"author":       post.AuthorHandle(),
		"body":         post.Body(),
		"tags":         post.Tags(),
		"content_type": music.ContentType,
		"content_id":   music.ContentID,
		"content_name": music.Name,
		"provider":     music.Provider,
		"likes":        len(post.Likes()),
		"comments":     len(post.Comments()),
		"ratings":      len(post.Ratings()),
		"created_at":   post.CreatedAt(),
		"updated_at":   post.UpdatedAt(),
	}
}
