package models

import (
	"time"
)

// MaxPostTags bounds the number of genre tags on a post.
const MaxPostTags = 3

// Post is a published piece of music content with free-text body, genre
// tags, and embedded engagement (likes, comments, ratings). The author
// handle is a snapshot taken at creation and is not backfilled when the
// author later renames.
type Post struct {
	id           string
	sequence     int
	authorID     string
	authorHandle string
	body         string
	tags         []string
	music        MusicItem
	createdAt    time.Time
	updatedAt    time.Time

	likes    []string
	comments []Comment
	ratings  []Rating
}

// NewPost creates a post for the given author snapshot and music content.
func NewPost(sequence int, authorID, authorHandle, body string, tags []string, music MusicItem) *Post {
	now := time.Now()
	return &Post{
		sequence:     sequence,
		authorID:     authorID,
		authorHandle: authorHandle,
		body:         body,
		tags:         tags,
		music:        music,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (p *Post) ID() string           { return p.id }
func (p *Post) Sequence() int        { return p.sequence }
func (p *Post) AuthorID() string     { return p.authorID }
func (p *Post) AuthorHandle() string { return p.authorHandle }
func (p *Post) Body() string         { return p.body }
func (p *Post) Tags() []string       { return p.tags }
func (p *Post) Music() MusicItem     { return p.music }
func (p *Post) CreatedAt() time.Time { return p.createdAt }
func (p *Post) UpdatedAt() time.Time { return p.updatedAt }
func (p *Post) Likes() []string      { return p.likes }
func (p *Post) Comments() []Comment  { return p.comments }
func (p *Post) Ratings() []Rating    { return p.ratings }

func (p *Post) SetID(id string)          { p.id = id }
func (p *Post) SetBody(body string)      { p.body = body }
func (p *Post) SetCreatedAt(t time.Time) { p.createdAt = t }
func (p *Post) SetUpdatedAt(t time.Time) { p.updatedAt = t }
func (p *Post) SetLikes(likes []string)  { p.likes = likes }
func (p *Post) SetComments(cs []Comment) { p.comments = cs }
func (p *Post) SetRatings(rs []Rating)   { p.ratings = rs }
func (p *Post) SetMusic(music MusicItem) { p.music = music }

// Validate checks body presence, tag count, and the embedded music item.
func (p *Post) Validate() error {
	params := struct {
		AuthorID     string   `validate:"required"`
		AuthorHandle string   `validate:"required"`
		Body         string   `validate:"required"`
		Tags         []string `validate:"max=3,dive,required"`
	}{
		AuthorID:     p.authorID,
		AuthorHandle: p.authorHandle,
		Body:         p.body,
		Tags:         p.tags,
	}

	if err := checkStruct(params); err != nil {
		return err
	}

	return p.music.Validate()
}
