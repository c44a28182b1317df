package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/chorus/internal/auth"
	"github.com/desertthunder/chorus/internal/models"
	"github.com/desertthunder/chorus/internal/repositories"
	"github.com/desertthunder/chorus/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.config = config
	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := r.database()
	if err != nil {
		return err
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}

// SetupSeed populates the database with a small set of demo profiles and
// a shared playlist post so the other commands have something to act on.
func (r *Runner) SetupSeed(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	users := repositories.NewUserRepository(db)
	graph := repositories.NewGraphRepository(db)
	posts := repositories.NewPostRepository(db)

	seedUsers := []struct {
		username string
		display  string
		public   bool
	}{
		{"ella", "Ella", true},
		{"miles", "Miles", true},
		{"nina", "", false},
	}

	created := map[string]*models.User{}
	for _, s := range seedUsers {
		hash, err := auth.HashPassword("listen1ng")
		if err != nil {
			return err
		}

		user := models.NewUser(0, s.username, hash)
		user.SetDisplayName(s.display)
		user.SetPublic(s.public)

		if err := users.Create(user); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", s.username, err)
		}
		created[s.username] = user
		r.logger.Info("seeded user", "username", s.username)
	}

	if err := graph.Follow(created["ella"].ID(), created["miles"].ID()); err != nil {
		return err
	}
	if err := graph.Follow(created["miles"].ID(), created["ella"].ID()); err != nil {
		return err
	}

	author := created["miles"]
	post := models.NewPost(0, author.ID(), author.Handle(),
		"Late night horn lines, start to finish.",
		[]string{"jazz", "trumpet"},
		models.MusicItem{
			Provider:    models.ProviderSpotify,
			ContentType: models.ContentPlaylist,
			ContentID:   "37i9dQZF1DXbITWG1ZJKYt",
			Name:        "Jazz Classics",
			URL:         "https://open.spotify.com/playlist/37i9dQZF1DXbITWG1ZJKYt",
			Payload:     []byte(`{"id":"37i9dQZF1DXbITWG1ZJKYt","name":"Jazz Classics","tracks":[]}`),
		})

	if err := posts.Create(post); err != nil {
		return fmt.Errorf("failed to seed post: %w", err)
	}

	r.writePlain("✓ Seeded %d users and 1 post\n", len(seedUsers))
	r.writePlain("Try: chorus feed ella\n")
	return nil
}
