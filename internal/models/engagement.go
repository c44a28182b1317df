package models

import "time"

// Comment is embedded in its parent post but independently addressable by
// ID so it can be liked. Author handle is a creation-time snapshot.
type Comment struct {
	ID           string    `json:"id"`
	PostID       string    `json:"post_id"`
	AuthorID     string    `json:"author_id"`
	AuthorHandle string    `json:"author_handle"`
	Body         string    `json:"body"`
	Likes        []string  `json:"likes"`
	CreatedAt    time.Time `json:"created_at"`
}

// Rating is a starred review attached to the music item of a playlist
// post. At most one rating per (author, post) pair; the post's author may
// never rate their own content.
type Rating struct {
	ID           string    `json:"id"`
	PostID       string    `json:"post_id"`
	AuthorID     string    `json:"author_id"`
	AuthorHandle string    `json:"author_handle"`
	Stars        int       `json:"stars"`
	Review       string    `json:"review,omitempty"`
	Likes        []string  `json:"likes"`
	CreatedAt    time.Time `json:"created_at"`
}

// LikeState reports the membership outcome of a toggle-like call.
type LikeState string

const (
	Liked   LikeState = "liked"
	Unliked LikeState = "unliked"
)

// RatingOutcome is the reported result of a rate call. Self-rating and
// duplicate ratings are common user actions, so they come back as a
// structured refusal instead of an error.
type RatingOutcome struct {
	Accepted bool    `json:"accepted"`
	Reason   string  `json:"reason,omitempty"`
	Rating   *Rating `json:"rating,omitempty"`
}

// Refusal reasons for RatingOutcome.
const (
	RatingRefusedSelf      = "authors cannot rate their own content"
	RatingRefusedDuplicate = "content already rated by this user"
)
