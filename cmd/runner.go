package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/chorus/internal/auth"
	"github.com/desertthunder/chorus/internal/models"
	"github.com/desertthunder/chorus/internal/repositories"
	"github.com/desertthunder/chorus/internal/services"
	"github.com/desertthunder/chorus/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	logger  *log.Logger
	output  io.Writer
	db      *sql.DB
	spotify *services.SpotifyClient
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Logger  *log.Logger
	Output  io.Writer
	DB      *sql.DB
	Spotify *services.SpotifyClient
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:  opts.Config,
		logger:  opts.Logger,
		output:  opts.Output,
		db:      opts.DB,
		spotify: opts.Spotify,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, userCommand, postCommand, feedCommand, messageCommand, connectCommand, syncCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// database lazily opens the database from config. The handle is cached
// on the runner so subcommands within one invocation share a pool.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.db = db
	return db, nil
}

// spotifyClient lazily builds the Spotify client from config.
func (r *Runner) spotifyClient() (*services.SpotifyClient, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}

	client, err := services.NewSpotifyClient(r.config.Credentials.Spotify)
	if err != nil {
		return nil, err
	}

	r.spotify = client
	return client, nil
}

// tokenManager builds the token lifecycle manager for the Spotify connection.
func (r *Runner) tokenManager() (*auth.TokenManager, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}

	client, err := r.spotifyClient()
	if err != nil {
		return nil, err
	}

	return auth.NewTokenManager(repositories.NewTokenRepository(db), client, r.logger), nil
}

// userByName resolves a username to its stored profile.
func (r *Runner) userByName(username string) (*models.User, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}

	return repositories.NewUserRepository(db).GetByUsername(username)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
