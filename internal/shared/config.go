package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// Environment variables (CHORUS_*) override file values so that secrets
// never have to live on disk.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains provider-specific credentials.
type CredentialsConfig struct {
	Spotify    SpotifyConfig    `toml:"spotify"`
	AppleMusic AppleMusicConfig `toml:"apple_music"`
}

// SpotifyConfig contains Spotify API credentials for the PKCE flow.
type SpotifyConfig struct {
	ClientID    string `toml:"client_id" env:"CHORUS_SPOTIFY_CLIENT_ID"`
	RedirectURI string `toml:"redirect_uri" env:"CHORUS_SPOTIFY_REDIRECT_URI"`
	Scopes      string `toml:"scopes" env:"CHORUS_SPOTIFY_SCOPES"`
}

// AppleMusicConfig contains the key material for minting developer tokens.
type AppleMusicConfig struct {
	TeamID     string `toml:"team_id" env:"CHORUS_APPLEMUSIC_TEAM_ID"`
	KeyID      string `toml:"key_id" env:"CHORUS_APPLEMUSIC_KEY_ID"`
	PrivateKey string `toml:"private_key" env:"CHORUS_APPLEMUSIC_PRIVATE_KEY"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"CHORUS_DATABASE_PATH"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the OAuth callback listener.
type ServerConfig struct {
	Host string `toml:"host" env:"CHORUS_SERVER_HOST"`
	Port int    `toml:"port" env:"CHORUS_SERVER_PORT"`
}

// LoadConfig reads and parses a TOML configuration file from the specified
// path, then applies environment variable overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := env.Parse(&config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with defaults loaded from the embedded
// example config, plus any environment overrides.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	if err := env.Parse(&config); err != nil {
		panic(fmt.Sprintf("failed to apply environment overrides: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
