package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/chorus/internal/models"
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

// createUser inserts a profile for tests that need graph or post fixtures.
func createUser(t *testing.T, db *sql.DB, username string) *models.User {
	t.Helper()

	repo := NewUserRepository(db)
	user := models.NewUser(0, username, "bcrypt-hash-placeholder")

	if err := repo.Create(user); err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

// createPlaylistPost inserts a playlist post authored by the given user.
func createPlaylistPost(t *testing.T, db *sql.DB, author *models.User, body string) *models.Post {
	t.Helper()

	repo := NewPostRepository(db)
	post := models.NewPost(0, author.ID(), author.Handle(), body,
		[]string{"test"}, models.MusicItem{
			Provider:    models.ProviderSpotify,
			ContentType: models.ContentPlaylist,
			ContentID:   "pl-" + author.Username(),
			Name:        "Test Playlist",
			URL:         "https://open.spotify.com/playlist/pl",
			Payload:     []byte(`{"name":"Test Playlist","tracks":[{"name":"Blue in Green","artist":"Miles Davis"}]}`),
		})

	if err := repo.Create(post); err != nil {
		t.Fatalf("failed to create post: %v", err)
	}
	return post
}

func TestUserRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "ella", "hash")

		err := repo.Create(user)
		if err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if user.ID() == "" {
			t.Error("user ID should be set after creation")
		}
	})

	t.Run("CreateDuplicateUsername", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		if err := repo.Create(models.NewUser(0, "ella", "hash")); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		err := repo.Create(models.NewUser(0, "ELLA", "hash"))
		if !errors.Is(err, shared.ErrUsernameTaken) {
			t.Errorf("expected ErrUsernameTaken for case-insensitive collision, got %v", err)
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := createUser(t, db, "ella")

		retrieved, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		if retrieved.ID() != user.ID() {
			t.Errorf("expected ID %s, got %s", user.ID(), retrieved.ID())
		}
		if retrieved.Username() != "ella" {
			t.Errorf("expected username ella, got %s", retrieved.Username())
		}
	})

	t.Run("GetByUsernameCaseInsensitive", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := createUser(t, db, "ella")

		retrieved, err := repo.GetByUsername("Ella")
		if err != nil {
			t.Fatalf("failed to get user by username: %v", err)
		}
		if retrieved.ID() != user.ID() {
			t.Errorf("expected ID %s, got %s", user.ID(), retrieved.ID())
		}
	})

	t.Run("ApplyProfileUpdate", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := createUser(t, db, "ella")

		if err := repo.ApplyProfileUpdate(user.ID(), models.DisplayNameUpdate{DisplayName: "Ella F"}); err != nil {
			t.Fatalf("failed to update display name: %v", err)
		}
		if err := repo.ApplyProfileUpdate(user.ID(), models.VisibilityUpdate{Public: false}); err != nil {
			t.Fatalf("failed to update visibility: %v", err)
		}

		retrieved, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if retrieved.DisplayName() != "Ella F" {
			t.Errorf("expected display name Ella F, got %s", retrieved.DisplayName())
		}
		if retrieved.Public() {
			t.Error("expected profile to be private")
		}
	})

	t.Run("UsernameUpdateCollision", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := createUser(t, db, "ella")
		createUser(t, db, "miles")

		err := repo.ApplyProfileUpdate(user.ID(), models.UsernameUpdate{Username: "Miles"})
		if !errors.Is(err, shared.ErrUsernameTaken) {
			t.Errorf("expected ErrUsernameTaken, got %v", err)
		}

		// Renaming to your own name in a different case is allowed.
		if err := repo.ApplyProfileUpdate(user.ID(), models.UsernameUpdate{Username: "Ella"}); err != nil {
			t.Errorf("expected self-rename to succeed, got %v", err)
		}
	})

	t.Run("DeleteRemovesPosts", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := createUser(t, db, "ella")
		post := createPlaylistPost(t, db, user, "morning set")

		if err := repo.Delete(user.ID()); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		if _, err := repo.Get(user.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for deleted user, got %v", err)
		}
		if _, err := NewPostRepository(db).Get(post.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected posts to be removed with their author, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		createUser(t, db, "ella")
		createUser(t, db, "miles")
		nina := createUser(t, db, "nina")
		if err := repo.SetVisibility(nina.ID(), false); err != nil {
			t.Fatalf("failed to set visibility: %v", err)
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 users, got %d", len(all))
		}

		public, err := repo.List(map[string]any{"public": true})
		if err != nil {
			t.Fatalf("failed to list public users: %v", err)
		}
		if len(public) != 2 {
			t.Errorf("expected 2 public users, got %d", len(public))
		}
	})
}
