package repositories

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/desertthunder/chorus/internal/models"
	"github.com/desertthunder/chorus/internal/shared"
)

func TestEngagementToggles(t *testing.T) {
	t.Run("PostLikeParity", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEngagementRepository(db)
		posts := NewPostRepository(db)
		ella := createUser(t, db, "ella")
		miles := createUser(t, db, "miles")
		post := createPlaylistPost(t, db, ella, "body")

		state, err := repo.TogglePostLike(post.ID(), miles.ID())
		if err != nil {
			t.Fatalf("failed to toggle like: %v", err)
		}
		if state != models.Liked {
			t.Errorf("expected liked, got %s", state)
		}

		state, err = repo.TogglePostLike(post.ID(), miles.ID())
		if err != nil {
			t.Fatalf("failed to toggle like: %v", err)
		}
		if state != models.Unliked {
			t.Errorf("expected unliked, got %s", state)
		}

		state, err = repo.TogglePostLike(post.ID(), miles.ID())
		if err != nil {
			t.Fatalf("failed to toggle like: %v", err)
		}
		if state != models.Liked {
			t.Errorf("expected liked after odd toggle count, got %s", state)
		}

		retrieved, err := posts.Get(post.ID())
		if err != nil {
			t.Fatalf("failed to get post: %v", err)
		}
		if len(retrieved.Likes()) != 1 {
			t.Errorf("expected exactly one like, got %d", len(retrieved.Likes()))
		}
	})

	t.Run("ConcurrentTogglesSerialize", func(t *testing.T) {
		// A file-backed database with a multi-connection pool lets the
		// togglers genuinely contend for the write lock.
		db, err := shared.NewDatabase(filepath.Join(t.TempDir(), "engagement.db"))
		if err != nil {
			t.Fatalf("failed to create test database: %v", err)
		}
		defer db.Close()
		shared.ConfigureDatabase(db, 4, 4)

		if err := shared.RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		repo := NewEngagementRepository(db)
		ella := createUser(t, db, "ella")
		miles := createUser(t, db, "miles")
		post := createPlaylistPost(t, db, ella, "body")

		const togglers = 8

		var (
			mu      sync.Mutex
			liked   int
			unliked int
		)

		var wg sync.WaitGroup
		for i := 0; i < togglers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				// A toggle that loses the lock rolls back without
				// applying; only committed toggles flip the state.
				state, err := repo.TogglePostLike(post.ID(), miles.ID())
				if err != nil {
					return
				}

				mu.Lock()
				if state == models.Liked {
					liked++
				} else {
					unliked++
				}
				mu.Unlock()
			}()
		}
		wg.Wait()

		var rows int
		err = db.QueryRow(
			"SELECT COUNT(*) FROM post_likes WHERE post_id = ? AND user_id = ?",
			post.ID(), miles.ID()).Scan(&rows)
		if err != nil {
			t.Fatalf("failed to count likes: %v", err)
		}

		if rows > 1 {
			t.Fatalf("duplicate like rows for one actor: %d", rows)
		}
		if rows != liked-unliked {
			t.Errorf("expected %d rows after %d likes and %d unlikes, got %d",
				liked-unliked, liked, unliked, rows)
		}
	})

	t.Run("LikeMissingTarget", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEngagementRepository(db)
		ella := createUser(t, db, "ella")

		if _, err := repo.TogglePostLike("no-such-post", ella.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("CommentAndCommentLike", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEngagementRepository(db)
		ella := createUser(t, db, "ella")
		miles := createUser(t, db, "miles")
		post := createPlaylistPost(t, db, ella, "body")

		comment, err := repo.AddComment(post.ID(), miles.ID(), "Miles", "great sequencing")
		if err != nil {
			t.Fatalf("failed to add comment: %v", err)
		}
		if comment.ID == "" {
			t.Error("comment ID should be set")
		}

		state, err := repo.ToggleCommentLike(comment.ID, ella.ID())
		if err != nil {
			t.Fatalf("failed to like comment: %v", err)
		}
		if state != models.Liked {
			t.Errorf("expected liked, got %s", state)
		}

		retrieved, err := repo.GetComment(comment.ID)
		if err != nil {
			t.Fatalf("failed to get comment: %v", err)
		}
		if len(retrieved.Likes) != 1 || retrieved.Likes[0] != ella.ID() {
			t.Errorf("expected like from ella, got %v", retrieved.Likes)
		}
	})

	t.Run("EmptyComment", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEngagementRepository(db)
		ella := createUser(t, db, "ella")
		post := createPlaylistPost(t, db, ella, "body")

		if _, err := repo.AddComment(post.ID(), ella.ID(), "Ella", ""); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestEngagementRatings(t *testing.T) {
	t.Run("Accepted", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEngagementRepository(db)
		ella := createUser(t, db, "ella")
		miles := createUser(t, db, "miles")
		post := createPlaylistPost(t, db, ella, "body")

		outcome, err := repo.Rate(post.ID(), miles.ID(), "Miles", 4, "solid picks")
		if err != nil {
			t.Fatalf("failed to rate: %v", err)
		}
		if !outcome.Accepted {
			t.Fatalf("expected accepted rating, got refusal %q", outcome.Reason)
		}
		if outcome.Rating.Stars != 4 {
			t.Errorf("expected 4 stars, got %d", outcome.Rating.Stars)
		}

		rated, err := NewPostRepository(db).Get(post.ID())
		if err != nil {
			t.Fatalf("failed to get post: %v", err)
		}
		if len(rated.Ratings()) != 1 {
			t.Errorf("expected 1 rating on post, got %d", len(rated.Ratings()))
		}
	})

	t.Run("SelfRatingRefused", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEngagementRepository(db)
		ella := createUser(t, db, "ella")
		post := createPlaylistPost(t, db, ella, "body")

		outcome, err := repo.Rate(post.ID(), ella.ID(), "Ella", 5, "")
		if err != nil {
			t.Fatalf("self rating should refuse, not error: %v", err)
		}
		if outcome.Accepted {
			t.Error("expected self rating to be refused")
		}
		if outcome.Reason != models.RatingRefusedSelf {
			t.Errorf("expected self refusal reason, got %q", outcome.Reason)
		}
	})

	t.Run("DuplicateRefused", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEngagementRepository(db)
		ella := createUser(t, db, "ella")
		miles := createUser(t, db, "miles")
		post := createPlaylistPost(t, db, ella, "body")

		if _, err := repo.Rate(post.ID(), miles.ID(), "Miles", 3, ""); err != nil {
			t.Fatalf("failed to rate: %v", err)
		}

		outcome, err := repo.Rate(post.ID(), miles.ID(), "Miles", 5, "changed my mind")
		if err != nil {
			t.Fatalf("duplicate rating should refuse, not error: %v", err)
		}
		if outcome.Accepted {
			t.Error("expected duplicate rating to be refused")
		}
		if outcome.Reason != models.RatingRefusedDuplicate {
			t.Errorf("expected duplicate refusal reason, got %q", outcome.Reason)
		}
	})

	t.Run("StarsOutOfRange", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEngagementRepository(db)
		ella := createUser(t, db, "ella")
		miles := createUser(t, db, "miles")
		post := createPlaylistPost(t, db, ella, "body")

		for _, stars := range []int{0, 6, -1} {
			if _, err := repo.Rate(post.ID(), miles.ID(), "Miles", stars, ""); !errors.Is(err, shared.ErrValidation) {
				t.Errorf("stars=%d: expected ErrValidation, got %v", stars, err)
			}
		}
	})

	t.Run("NonPlaylistRejected", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEngagementRepository(db)
		posts := NewPostRepository(db)
		ella := createUser(t, db, "ella")
		miles := createUser(t, db, "miles")

		song := models.NewPost(0, ella.ID(), ella.Handle(), "single", nil, models.MusicItem{
			Provider:    models.ProviderSpotify,
			ContentType: models.ContentSong,
			ContentID:   "track-1",
			Name:        "So What",
		})
		if err := posts.Create(song); err != nil {
			t.Fatalf("failed to create song post: %v", err)
		}

		if _, err := repo.Rate(song.ID(), miles.ID(), "Miles", 4, ""); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation for non-playlist, got %v", err)
		}
	})

	t.Run("MissingPost", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewEngagementRepository(db)
		miles := createUser(t, db, "miles")

		if _, err := repo.Rate("no-such-post", miles.ID(), "Miles", 4, ""); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
