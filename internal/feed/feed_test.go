package feed

import (
	"database/sql"
	"testing"

	"github.com/desertthunder/chorus/internal/models"
	"github.com/desertthunder/chorus/internal/repositories"
	"github.com/desertthunder/chorus/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// In-memory databases exist per connection; pin the pool to one.
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func createUser(t *testing.T, db *sql.DB, username string) *models.User {
	t.Helper()

	user := models.NewUser(0, username, "hash")
	if err := repositories.NewUserRepository(db).Create(user); err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func createPost(t *testing.T, db *sql.DB, author *models.User, body string) *models.Post {
	t.Helper()

	post := models.NewPost(0, author.ID(), author.Handle(), body,
		nil, models.MusicItem{
			Provider:    models.ProviderSpotify,
			ContentType: models.ContentSong,
			ContentID:   "track-" + author.Username(),
			Name:        "Giant Steps",
			URL:         "https://open.spotify.com/track/t",
		})

	if err := repositories.NewPostRepository(db).Create(post); err != nil {
		t.Fatalf("failed to create post: %v", err)
	}
	return post
}

func TestGeneratorVisibility(t *testing.T) {
	t.Run("FollowedAuthorsAndSelf", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		graph := repositories.NewGraphRepository(db)
		gen := NewGenerator(graph, repositories.NewPostRepository(db), nil)

		ella := createUser(t, db, "ella")
		miles := createUser(t, db, "miles")
		nina := createUser(t, db, "nina")

		createPost(t, db, ella, "from ella")
		createPost(t, db, miles, "from miles")
		createPost(t, db, nina, "from nina")

		if err := graph.Follow(ella.ID(), miles.ID()); err != nil {
			t.Fatalf("failed to follow: %v", err)
		}

		posts, err := gen.Generate(ella.ID())
		if err != nil {
			t.Fatalf("failed to generate feed: %v", err)
		}
		if len(posts) != 2 {
			t.Fatalf("expected 2 posts, got %d", len(posts))
		}
		for _, p := range posts {
			if p.AuthorID() == nina.ID() {
				t.Error("unfollowed author leaked into feed")
			}
		}
	})

	t.Run("FollowingIsOneDirectional", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		graph := repositories.NewGraphRepository(db)
		gen := NewGenerator(graph, repositories.NewPostRepository(db), nil)

		ella := createUser(t, db, "ella")
		miles := createUser(t, db, "miles")
		createPost(t, db, miles, "from miles")

		// miles follows ella, not the other way around.
		if err := graph.Follow(miles.ID(), ella.ID()); err != nil {
			t.Fatalf("failed to follow: %v", err)
		}

		posts, err := gen.Generate(ella.ID())
		if err != nil {
			t.Fatalf("failed to generate feed: %v", err)
		}
		if len(posts) != 0 {
			t.Errorf("follower's posts must not appear, got %d posts", len(posts))
		}
	})

	t.Run("NewestFirst", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		graph := repositories.NewGraphRepository(db)
		gen := NewGenerator(graph, repositories.NewPostRepository(db), nil)

		ella := createUser(t, db, "ella")
		old := createPost(t, db, ella, "older")
		recent := createPost(t, db, ella, "newer")

		posts, err := gen.Generate(ella.ID())
		if err != nil {
			t.Fatalf("failed to generate feed: %v", err)
		}
		if len(posts) != 2 {
			t.Fatalf("expected 2 posts, got %d", len(posts))
		}
		if posts[0].ID() != recent.ID() || posts[1].ID() != old.ID() {
			t.Error("posts are not in reverse chronological order")
		}
	})

	t.Run("BlockRemovesPosts", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		graph := repositories.NewGraphRepository(db)
		gen := NewGenerator(graph, repositories.NewPostRepository(db), nil)

		ella := createUser(t, db, "ella")
		miles := createUser(t, db, "miles")
		createPost(t, db, miles, "from miles")

		if err := graph.Follow(ella.ID(), miles.ID()); err != nil {
			t.Fatalf("failed to follow: %v", err)
		}
		if err := graph.Block(ella.ID(), miles.ID()); err != nil {
			t.Fatalf("failed to block: %v", err)
		}

		posts, err := gen.Generate(ella.ID())
		if err != nil {
			t.Fatalf("failed to generate feed: %v", err)
		}
		if len(posts) != 0 {
			t.Errorf("blocked author's posts must disappear, got %d posts", len(posts))
		}
	})
}

func TestGeneratorPaging(t *testing.T) {
	t.Run("PageAndCursor", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		graph := repositories.NewGraphRepository(db)
		gen := NewGenerator(graph, repositories.NewPostRepository(db), nil)

		ella := createUser(t, db, "ella")
		for i := 0; i < 5; i++ {
			createPost(t, db, ella, "post body")
		}

		seen := make(map[string]bool)
		var cursor *repositories.PostCursor
		pages := 0

		for {
			page, err := gen.Page(ella.ID(), 2, cursor)
			if err != nil {
				t.Fatalf("failed to page feed: %v", err)
			}
			if len(page) == 0 {
				break
			}
			for _, p := range page {
				if seen[p.ID()] {
					t.Fatalf("post %s returned twice", p.ID())
				}
				seen[p.ID()] = true
			}
			cursor = NextCursor(page)
			pages++
		}

		if len(seen) != 5 {
			t.Errorf("expected 5 posts across pages, got %d", len(seen))
		}
		if pages != 3 {
			t.Errorf("expected 3 pages of size 2, got %d", pages)
		}
	})

	t.Run("NextCursorEmptyPage", func(t *testing.T) {
		if NextCursor(nil) != nil {
			t.Error("empty page should yield a nil cursor")
		}
	})
}
