package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// Fields tagged with env can be overridden from the process environment, which is
// where deployments are expected to supply secrets.
type Config struct {
	Discord    DiscordConfig    `toml:"discord"`
	Spotify    SpotifyConfig    `toml:"spotify"`
	Playlist   PlaylistConfig   `toml:"playlist"`
	Curation   CurationConfig   `toml:"curation"`
	Scrapers   ScraperConfig    `toml:"scrapers"`
	Database   DatabaseConfig   `toml:"database"`
	Server     ServerConfig     `toml:"server"`
	Monitoring MonitoringConfig `toml:"monitoring"`
	Schedule   ScheduleConfig   `toml:"schedule"`
	Log        LogConfig        `toml:"log"`
}

// DiscordConfig holds the bot token and the channels a run reads from and reports to.
type DiscordConfig struct {
	Token           string `toml:"token" env:"DISCORD_TOKEN"`
	GuildID         string `toml:"guild_id" env:"DISCORD_GUILD_ID"`
	SourceChannelID string `toml:"source_channel_id" env:"MUSIC_SOURCE_CHANNEL_ID"`
	ReportChannelID string `toml:"report_channel_id" env:"MUSIC_DESTINATION_CHANNEL_ID"`
	PageSize        int    `toml:"page_size" env:"MIXTAPE_DISCORD_PAGE_SIZE"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string    `toml:"client_id" env:"SPOTIFY_CLIENT_ID"`
	ClientSecret string    `toml:"client_secret" env:"SPOTIFY_CLIENT_SECRET"`
	RedirectURI  string    `toml:"redirect_uri" env:"SPOTIFY_REDIRECT_URI"`
	AccessToken  string    `toml:"access_token,omitempty"`
	RefreshToken string    `toml:"refresh_token" env:"SPOTIFY_REFRESH_TOKEN"`
	TokenExpiry  time.Time `toml:"token_expiry,omitempty"`
}

// PlaylistConfig identifies the target playlist and how it is renamed each week.
type PlaylistConfig struct {
	ID         string `toml:"id" env:"PLAYLIST_ID"`
	Name       string `toml:"name" env:"PLAYLIST_NAME"`
	DateFormat string `toml:"date_format"`
}

// CurationConfig carries the thresholds and batch sizes of the pipeline.
type CurationConfig struct {
	WeeksAgo          int           `toml:"weeks_ago" env:"MIXTAPE_WEEKS_AGO"`
	DislikeThreshold  int           `toml:"dislike_threshold" env:"MIXTAPE_DISLIKE_THRESHOLD"`
	LikeThreshold     int           `toml:"like_threshold" env:"MIXTAPE_LIKE_THRESHOLD"`
	ArtistThreshold   int           `toml:"artist_threshold" env:"MIXTAPE_ARTIST_THRESHOLD"`
	TopN              int           `toml:"top_n" env:"MIXTAPE_TOP_N"`
	MatchThreshold    float64       `toml:"match_threshold"`
	SearchLimit       int           `toml:"search_limit"`
	MinQueryLength    int           `toml:"min_query_length"`
	ArtistChunk       int           `toml:"artist_chunk"`
	RemoveBatch       int           `toml:"remove_batch"`
	AddBatch          int           `toml:"add_batch"`
	SortByPopularity  bool          `toml:"sort_by_popularity" env:"MIXTAPE_SORT_BY_POPULARITY"`
	DryRun            bool          `toml:"dry_run" env:"MIXTAPE_DRY_RUN"`
	Timeout           time.Duration `toml:"timeout" env:"MIXTAPE_TIMEOUT"`
	MinMutationBudget time.Duration `toml:"min_mutation_budget"`
}

// ScraperConfig tunes the page-title fetchers.
type ScraperConfig struct {
	RequestsPerSecond float64       `toml:"requests_per_second"`
	Timeout           time.Duration `toml:"timeout"`
	UserAgent         string        `toml:"user_agent"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"MIXTAPE_DATABASE_PATH"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// MonitoringConfig points at the optional error reporter and metrics gateway.
type MonitoringConfig struct {
	SentryDSN      string `toml:"sentry_dsn" env:"SENTRY_DSN"`
	Environment    string `toml:"environment" env:"MIXTAPE_ENVIRONMENT"`
	PushgatewayURL string `toml:"pushgateway_url" env:"MIXTAPE_PUSHGATEWAY_URL"`
	Job            string `toml:"job"`
}

// ScheduleConfig drives the serve command. Cron uses the standard five-field syntax.
type ScheduleConfig struct {
	Cron     string `toml:"cron" env:"MIXTAPE_SCHEDULE_CRON"`
	Timezone string `toml:"timezone" env:"MIXTAPE_TIMEZONE"`
}

type LogConfig struct {
	Level string `toml:"level" env:"MIXTAPE_LOG_LEVEL"`
}

// Token returns the stored credentials as an [oauth2.Token], or nil when nothing usable is configured.
func (s SpotifyConfig) Token() *oauth2.Token {
	if s.AccessToken == "" && s.RefreshToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       s.TokenExpiry,
	}
}

// Update copies a freshly issued token into the config.
//
// Spotify omits the refresh token on refresh responses, so an empty one keeps the previous value.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: nil token", ErrInvalidCredentials)
	}
	s.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	s.TokenExpiry = token.Expiry
	return nil
}

// Validate reports every missing value a curation run depends on.
func (c *Config) Validate() error {
	var errs []error
	require := func(value, name string) {
		if value == "" {
			errs = append(errs, fmt.Errorf("%w: %s is required", ErrInvalidConfig, name))
		}
	}

	require(c.Discord.Token, "discord.token")
	require(c.Discord.SourceChannelID, "discord.source_channel_id")
	require(c.Spotify.ClientID, "spotify.client_id")
	require(c.Spotify.ClientSecret, "spotify.client_secret")
	require(c.Playlist.ID, "playlist.id")

	if c.Curation.MatchThreshold <= 0 || c.Curation.MatchThreshold > 1 {
		errs = append(errs, fmt.Errorf("%w: curation.match_threshold must be in (0, 1]", ErrInvalidConfig))
	}
	if c.Curation.AddBatch > 100 || c.Curation.RemoveBatch > 100 {
		errs = append(errs, fmt.Errorf("%w: playlist batches are limited to 100 tracks", ErrInvalidConfig))
	}
	if c.Curation.ArtistChunk > 50 {
		errs = append(errs, fmt.Errorf("%w: curation.artist_chunk is limited to 50 ids", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values absent from the file fall back to the embedded defaults, and environment variables
// (including those in a local .env file) override both.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %w", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrInvalidConfig, err)
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overlays environment variables onto config.
func ApplyEnv(config *Config) error {
	_ = godotenv.Load()

	if err := env.Parse(config); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// SaveConfig writes config to path as TOML, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
