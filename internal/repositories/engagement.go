package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/chorus/internal/models"
	"github.com/desertthunder/chorus/internal/shared"
)

// EngagementRepository implements the like, comment, and rating
// operations over posts. Every toggle runs as a delete-then-insert
// inside one transaction, so two concurrent toggles from the same actor
// serialize: the membership ends up present or absent, never duplicated.
type EngagementRepository struct {
	db *sql.DB
}

// NewEngagementRepository creates a new [EngagementRepository] with the given database connection
func NewEngagementRepository(db *sql.DB) *EngagementRepository {
	return &EngagementRepository{db: db}
}

// TogglePostLike flips the actor's membership in the post's like set.
func (r *EngagementRepository) TogglePostLike(postID, actorID string) (models.LikeState, error) {
	return r.toggle("post_likes", "post_id", "posts", postID, actorID)
}

// ToggleCommentLike flips the actor's membership in the comment's like set.
func (r *EngagementRepository) ToggleCommentLike(commentID, actorID string) (models.LikeState, error) {
	return r.toggle("comment_likes", "comment_id", "comments", commentID, actorID)
}

// ToggleRatingLike flips the actor's membership in the rating's like set.
func (r *EngagementRepository) ToggleRatingLike(ratingID, actorID string) (models.LikeState, error) {
	return r.toggle("rating_likes", "rating_id", "ratings", ratingID, actorID)
}

// toggle is the canonical toggle pattern shared by posts, comments, and
// ratings: remove the membership if present, insert it otherwise, all in
// one transaction keyed on (target, actor).
func (r *EngagementRepository) toggle(table, column, parentTable, targetID, actorID string) (models.LikeState, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRow(
		fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = ?)", parentTable),
		targetID).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("failed to check target: %w", err)
	}
	if !exists {
		return "", fmt.Errorf("%w: %s %s", shared.ErrNotFound, column, targetID)
	}

	result, err := tx.Exec(
		fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND user_id = ?", table, column),
		targetID, actorID)
	if err != nil {
		return "", fmt.Errorf("failed to remove like: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to get affected rows: %w", err)
	}

	state := models.Unliked
	if removed == 0 {
		_, err = tx.Exec(
			fmt.Sprintf("INSERT OR IGNORE INTO %s (%s, user_id, created_at) VALUES (?, ?, ?)", table, column),
			targetID, actorID, time.Now())
		if err != nil {
			return "", fmt.Errorf("failed to insert like: %w", err)
		}
		state = models.Liked
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit toggle: %w", err)
	}

	return state, nil
}

// AddComment creates a comment with a fresh identifier and appends it to
// the post's comment list. Append order is chronological; display order
// is the caller's choice.
func (r *EngagementRepository) AddComment(postID, authorID, authorHandle, body string) (*models.Comment, error) {
	if body == "" {
		return nil, fmt.Errorf("%w: comment body is empty", shared.ErrValidation)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRow("SELECT EXISTS(SELECT 1 FROM posts WHERE id = ?)", postID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check post: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: post %s", shared.ErrNotFound, postID)
	}

	comment := models.Comment{
		ID:           shared.GenerateID(),
		PostID:       postID,
		AuthorID:     authorID,
		AuthorHandle: authorHandle,
		Body:         body,
		CreatedAt:    time.Now(),
	}

	_, err = tx.Exec(`
		INSERT INTO comments (id, post_id, author_id, author_handle, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		comment.ID, comment.PostID, comment.AuthorID, comment.AuthorHandle,
		comment.Body, comment.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit comment: %w", err)
	}

	return &comment, nil
}

// GetComment retrieves a single comment by ID.
func (r *EngagementRepository) GetComment(id string) (*models.Comment, error) {
	var c models.Comment
	err := r.db.QueryRow(`
		SELECT id, post_id, author_id, author_handle, body, created_at
		FROM comments WHERE id = ?`, id,
	).Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorHandle, &c.Body, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: comment %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query comment: %w", err)
	}

	likes, err := likeSet(r.db, "SELECT user_id FROM comment_likes WHERE comment_id = ? ORDER BY created_at ASC", id)
	if err != nil {
		return nil, err
	}
	c.Likes = likes

	return &c, nil
}

// Rate records a star rating against the music item of a playlist post.
//
// Self-rating and duplicate ratings are expected user actions, so they
// come back as a refused [models.RatingOutcome] rather than an error.
// Malformed stars and missing posts are errors.
func (r *EngagementRepository) Rate(postID, raterID, raterHandle string, stars int, review string) (*models.RatingOutcome, error) {
	if stars < 1 || stars > 5 {
		return nil, fmt.Errorf("%w: stars must be in [1,5], got %d", shared.ErrValidation, stars)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		authorID    string
		contentType string
	)
	err = tx.QueryRow(`
		SELECT p.author_id, m.content_type
		FROM posts p JOIN music_items m ON m.post_id = p.id
		WHERE p.id = ?`, postID,
	).Scan(&authorID, &contentType)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: post %s", shared.ErrNotFound, postID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query post: %w", err)
	}

	if contentType != string(models.ContentPlaylist) {
		return nil, fmt.Errorf("%w: only playlist posts can be rated", shared.ErrValidation)
	}

	if authorID == raterID {
		return &models.RatingOutcome{Accepted: false, Reason: models.RatingRefusedSelf}, nil
	}

	var already bool
	err = tx.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM ratings WHERE post_id = ? AND author_id = ?)",
		postID, raterID).Scan(&already)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing rating: %w", err)
	}
	if already {
		return &models.RatingOutcome{Accepted: false, Reason: models.RatingRefusedDuplicate}, nil
	}

	rating := models.Rating{
		ID:           shared.GenerateID(),
		PostID:       postID,
		AuthorID:     raterID,
		AuthorHandle: raterHandle,
		Stars:        stars,
		Review:       review,
		CreatedAt:    time.Now(),
	}

	var reviewVal any = review
	if review == "" {
		reviewVal = nil
	}

	_, err = tx.Exec(`
		INSERT INTO ratings (id, post_id, author_id, author_handle, stars, review, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rating.ID, rating.PostID, rating.AuthorID, rating.AuthorHandle,
		rating.Stars, reviewVal, rating.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert rating: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit rating: %w", err)
	}

	return &models.RatingOutcome{Accepted: true, Rating: &rating}, nil
}
