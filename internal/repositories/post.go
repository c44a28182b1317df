package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/chorus/internal/models"
	"github.com/desertthunder/chorus/internal/shared"
)

// PostRepository implements persistence for [models.Post] and its
// embedded music item. Engagement rows (likes, comments, ratings) are
// loaded alongside the post so callers get the full document.
type PostRepository struct {
	db *sql.DB
}

// NewPostRepository creates a new [PostRepository] with the given database connection
func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a new post and its music item in one transaction.
// The author handle is snapshotted on the post at this point and never
// backfilled on later renames.
func (r *PostRepository) Create(post *models.Post) error {
	if err := post.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "posts")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	post.SetID(id)

	tags, err := json.Marshal(post.Tags())
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO posts (id, sequence, author_id, author_handle, body, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, sequence, post.AuthorID(), post.AuthorHandle(), post.Body(), string(tags),
		post.CreatedAt(), post.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}

	music := post.Music()
	payload := music.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	_, err = tx.Exec(`
		INSERT INTO music_items (post_id, provider, content_type, content_id, name, url, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, string(music.Provider), string(music.ContentType), music.ContentID,
		music.Name, music.URL, string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert music item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit post creation: %w", err)
	}

	return nil
}

// Get retrieves a post by ID with its music item and engagement.
func (r *PostRepository) Get(id string) (*models.Post, error) {
	posts, err := r.queryPosts("WHERE p.id = ?", "", id)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("%w: post %s", shared.ErrNotFound, id)
	}
	return posts[0], nil
}

// EditBody updates the body and modified timestamp only. Author identity
// and music content are immutable after creation.
func (r *PostRepository) EditBody(postID, newBody string) error {
	if strings.TrimSpace(newBody) == "" {
		return fmt.Errorf("%w: post body is empty", shared.ErrValidation)
	}

	result, err := r.db.Exec(
		"UPDATE posts SET body = ?, updated_at = ? WHERE id = ?",
		newBody, time.Now(), postID)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: post %s", shared.ErrNotFound, postID)
	}

	return nil
}

// Delete removes a post. The music item, comments, ratings, and likes go
// with it via foreign key cascade, all inside the same statement's
// transaction, so the removal succeeds or fails as a unit.
func (r *PostRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: post %s", shared.ErrNotFound, id)
	}

	return nil
}

// ListByAuthors retrieves all posts whose author is in the given set,
// most recently modified first, ties broken by id descending so output
// stays deterministic. A limit of 0 means no limit. The cursor, when
// non-nil, is exclusive: only posts strictly older than (UpdatedAt, ID)
// are returned, which lets callers page without changing visibility.
func (r *PostRepository) ListByAuthors(authorIDs []string, limit int, cursor *PostCursor) ([]*models.Post, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?, ", len(authorIDs)-1) + "?"
	args := make([]any, 0, len(authorIDs)+4)
	for _, id := range authorIDs {
		args = append(args, id)
	}

	clause := fmt.Sprintf("WHERE p.author_id IN (%s)", placeholders)
	if cursor != nil {
		clause += " AND (p.updated_at < ? OR (p.updated_at = ? AND p.id < ?))"
		args = append(args, cursor.UpdatedAt, cursor.UpdatedAt, cursor.ID)
	}

	suffix := ""
	if limit > 0 {
		suffix = " LIMIT ?"
		args = append(args, limit)
	}

	return r.queryPosts(clause, "ORDER BY p.updated_at DESC, p.id DESC"+suffix, args...)
}

// PostCursor marks a position in the reverse-chronological post order.
type PostCursor struct {
	UpdatedAt time.Time
	ID        string
}

// ListByAuthor retrieves one author's posts, newest first.
func (r *PostRepository) ListByAuthor(authorID string) ([]*models.Post, error) {
	return r.queryPosts("WHERE p.author_id = ?", "ORDER BY p.updated_at DESC, p.id DESC", authorID)
}

// ListPlaylistPosts retrieves every post whose attached music item is a
// playlist from the given provider, oldest first so refresh passes work
// through the backlog in a stable order.
func (r *PostRepository) ListPlaylistPosts(provider models.Provider) ([]*models.Post, error) {
	return r.queryPosts(
		"WHERE m.content_type = ? AND m.provider = ?",
		"ORDER BY p.created_at ASC, p.id ASC",
		models.ContentPlaylist, provider)
}

// UpdateSnapshot replaces the stored playlist payload for a post's music
// item with a freshly fetched one. The post's updated_at is left alone so
// background refreshes do not reorder anyone's feed.
func (r *PostRepository) UpdateSnapshot(postID string, item *models.MusicItem) error {
	result, err := r.db.Exec(
		"UPDATE music_items SET name = ?, url = ?, payload = ? WHERE post_id = ?",
		item.Name, item.URL, string(item.Payload), postID)
	if err != nil {
		return fmt.Errorf("failed to update snapshot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: post %s", shared.ErrNotFound, postID)
	}

	return nil
}

// Search returns posts whose body contains the term (case-insensitive),
// restricted to authors visible to the viewer: public profiles, the
// viewer's followees, and the viewer.
func (r *PostRepository) Search(viewerID, term string) ([]*models.Post, error) {
	posts, err := r.visiblePosts(viewerID, "")
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(term)
	var matched []*models.Post
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Body()), needle) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// SearchPlaylists returns playlist posts matching the term against the
// playlist name, track names, or genre tags, with the same visibility
// rule as Search.
func (r *PostRepository) SearchPlaylists(viewerID, term string) ([]*models.Post, error) {
	posts, err := r.visiblePosts(viewerID, "AND m.content_type = 'playlist'")
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(term)
	var matched []*models.Post
	for _, p := range posts {
		if playlistMatches(p, needle) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func playlistMatches(p *models.Post, needle string) bool {
	if strings.Contains(strings.ToLower(p.Music().Name), needle) {
		return true
	}

	for _, tag := range p.Tags() {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}

	var payload models.PlaylistPayload
	if err := json.Unmarshal(p.Music().Payload, &payload); err != nil {
		return false
	}

	for _, track := range payload.Tracks {
		if strings.Contains(strings.ToLower(track.Name), needle) {
			return true
		}
	}

	return false
}

func (r *PostRepository) visiblePosts(viewerID, extra string) ([]*models.Post, error) {
	where := fmt.Sprintf(`
		JOIN users u ON u.id = p.author_id
		WHERE (u.public = 1
			OR p.author_id = ?
			OR p.author_id IN (SELECT target_id FROM follows WHERE user_id = ?))
		%s`, extra)

	return r.queryPosts(where, "ORDER BY p.updated_at DESC, p.id DESC", viewerID, viewerID)
}

// queryPosts runs the base post+music select with the given clause and
// assembles full documents, engagement included.
func (r *PostRepository) queryPosts(clause, order string, args ...any) ([]*models.Post, error) {
	query := fmt.Sprintf(`
		SELECT p.id, p.sequence, p.author_id, p.author_handle, p.body, p.tags,
		       p.created_at, p.updated_at,
		       m.provider, m.content_type, m.content_id, m.name, m.url, m.payload
		FROM posts p
		JOIN music_items m ON m.post_id = p.id
		%s %s`, clause, order)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, post := range posts {
		if err := r.loadEngagement(post); err != nil {
			return nil, err
		}
	}

	return posts, nil
}

func scanPost(rows *sql.Rows) (*models.Post, error) {
	var (
		id           string
		sequence     int
		authorID     string
		authorHandle string
		body         string
		tagsJSON     string
		createdAt    time.Time
		updatedAt    time.Time
		provider     string
		contentType  string
		contentID    string
		name         string
		url          sql.NullString
		payload      string
	)

	err := rows.Scan(&id, &sequence, &authorID, &authorHandle, &body, &tagsJSON,
		&createdAt, &updatedAt, &provider, &contentType, &contentID, &name, &url, &payload)
	if err != nil {
		return nil, fmt.Errorf("failed to scan post: %w", err)
	}

	var tags []string
	if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}

	music := models.MusicItem{
		Provider:    models.Provider(provider),
		ContentType: models.ContentType(contentType),
		ContentID:   contentID,
		Name:        name,
		URL:         url.String,
		Payload:     json.RawMessage(payload),
	}

	post := models.NewPost(sequence, authorID, authorHandle, body, tags, music)
	post.SetID(id)
	post.SetCreatedAt(createdAt)
	post.SetUpdatedAt(updatedAt)

	return post, nil
}

// loadEngagement attaches likes, comments (with their likes), and ratings
// (with their likes) to a post.
func (r *PostRepository) loadEngagement(post *models.Post) error {
	likes, err := likeSet(r.db, "SELECT user_id FROM post_likes WHERE post_id = ? ORDER BY created_at ASC", post.ID())
	if err != nil {
		return err
	}
	post.SetLikes(likes)

	comments, err := r.loadComments(post.ID())
	if err != nil {
		return err
	}
	post.SetComments(comments)

	ratings, err := r.loadRatings(post.ID())
	if err != nil {
		return err
	}
	post.SetRatings(ratings)

	return nil
}

func (r *PostRepository) loadComments(postID string) ([]models.Comment, error) {
	rows, err := r.db.Query(`
		SELECT id, post_id, author_id, author_handle, body, created_at
		FROM comments WHERE post_id = ?
		ORDER BY created_at ASC, id ASC`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorHandle, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for i := range comments {
		likes, err := likeSet(r.db, "SELECT user_id FROM comment_likes WHERE comment_id = ? ORDER BY created_at ASC", comments[i].ID)
		if err != nil {
			return nil, err
		}
		comments[i].Likes = likes
	}

	return comments, nil
}

func (r *PostRepository) loadRatings(postID string) ([]models.Rating, error) {
	rows, err := r.db.Query(`
		SELECT id, post_id, author_id, author_handle, stars, review, created_at
		FROM ratings WHERE post_id = ?
		ORDER BY created_at ASC, id ASC`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	var ratings []models.Rating
	for rows.Next() {
		var (
			rt     models.Rating
			review sql.NullString
		)
		if err := rows.Scan(&rt.ID, &rt.PostID, &rt.AuthorID, &rt.AuthorHandle, &rt.Stars, &review, &rt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		rt.Review = review.String
		ratings = append(ratings, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for i := range ratings {
		likes, err := likeSet(r.db, "SELECT user_id FROM rating_likes WHERE rating_id = ? ORDER BY created_at ASC", ratings[i].ID)
		if err != nil {
			return nil, err
		}
		ratings[i].Likes = likes
	}

	return ratings, nil
}

func likeSet(e execer, query string, arg any) ([]string, error) {
	rows, err := e.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query likes: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan like: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ids, nil
}
