// Package config holds the bot configuration layered on top of the core
// settings shared by every bot.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/ayatbot/core/config"
	coredatabase "github.com/m3rciful/ayatbot/core/database"
	"github.com/m3rciful/ayatbot/internal/favorites"
)

const (
	// BackendFile keeps favorites in a single JSON document.
	BackendFile = "file"
	// BackendPostgres keeps favorites in the favorites table.
	BackendPostgres = "postgres"

	defaultFavoritesPath = "favorites.json"
	defaultBaseURL       = "https://api.quran.com/api/v4"
	defaultLanguage      = "ar"
	defaultSearchSize    = 5
	defaultTafsirID      = 16
	defaultTimeout       = 15 * time.Second
)

// ChannelConfig names the channel users must join before using the bot.
// A zero ID disables the subscription gate.
type ChannelConfig struct {
	ID       int64  `yaml:"id" envconfig:"CHANNEL_ID"`
	Username string `yaml:"username" envconfig:"CHANNEL_USERNAME"`
}

// DeveloperConfig feeds the contact button of the main menu.
type DeveloperConfig struct {
	Username string `yaml:"username" envconfig:"DEVELOPER_USERNAME"`
}

// ContentConfig points at the verse content API.
type ContentConfig struct {
	BaseURL    string        `yaml:"base_url" envconfig:"CONTENT_BASE_URL"`
	Language   string        `yaml:"language" envconfig:"CONTENT_LANGUAGE"`
	SearchSize int           `yaml:"search_size" envconfig:"CONTENT_SEARCH_SIZE"`
	TafsirID   int           `yaml:"tafsir_id" envconfig:"CONTENT_TAFSIR_ID"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"CONTENT_TIMEOUT"`
}

// FavoritesConfig selects the favorites backend.
type FavoritesConfig struct {
	Backend    string `yaml:"backend" envconfig:"FAVORITES_BACKEND"`
	Path       string `yaml:"path" envconfig:"FAVORITES_PATH"`
	Duplicates string `yaml:"duplicates" envconfig:"FAVORITES_DUPLICATES"`
}

// Policy returns the parsed duplicate policy. Normalize has already
// validated the value.
func (f FavoritesConfig) Policy() favorites.DuplicatePolicy {
	p, err := favorites.ParseDuplicatePolicy(f.Duplicates)
	if err != nil {
		return favorites.DuplicatesAllow
	}
	return p
}

// Config is the complete bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Channel   ChannelConfig       `yaml:"channel"`
	Developer DeveloperConfig     `yaml:"developer"`
	Content   ContentConfig       `yaml:"content"`
	Favorites FavoritesConfig     `yaml:"favorites"`
	Database  coredatabase.Config `yaml:"database"`
}

// CoreConfig exposes the embedded core section to the shared runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates bot sections and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	cfg.Channel.Username = strings.TrimPrefix(strings.TrimSpace(cfg.Channel.Username), "@")
	if cfg.Channel.ID != 0 && cfg.Channel.Username == "" {
		return fmt.Errorf("channel.username is required when channel.id is set")
	}
	cfg.Developer.Username = strings.TrimPrefix(strings.TrimSpace(cfg.Developer.Username), "@")

	c := &cfg.Content
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid content.base_url %q", c.BaseURL)
	}
	if strings.TrimSpace(c.Language) == "" {
		c.Language = defaultLanguage
	}
	if c.SearchSize <= 0 {
		c.SearchSize = defaultSearchSize
	}
	if c.TafsirID <= 0 {
		c.TafsirID = defaultTafsirID
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}

	f := &cfg.Favorites
	f.Backend = strings.ToLower(strings.TrimSpace(f.Backend))
	if f.Backend == "" {
		f.Backend = BackendFile
	}
	switch f.Backend {
	case BackendFile:
		if strings.TrimSpace(f.Path) == "" {
			f.Path = defaultFavoritesPath
		}
	case BackendPostgres:
		if cfg.Database.Host == "" || cfg.Database.Name == "" {
			return fmt.Errorf("database.host and database.name are required for the postgres backend")
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
	default:
		return fmt.Errorf("invalid favorites.backend %q; allowed: file, postgres", f.Backend)
	}
	policy, err := favorites.ParseDuplicatePolicy(f.Duplicates)
	if err != nil {
		return err
	}
	f.Duplicates = string(policy)
	return nil
}
