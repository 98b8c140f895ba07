package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/openmined/notionsync/internal/utils"
)

var (
	home, _            = os.UserHomeDir()
	DefaultDataDir     = filepath.Join(home, ".notionsync")
	DefaultConfigPath  = filepath.Join(DefaultDataDir, "config.json")
	DefaultBaseURL     = "https://api.notion.com"
	DefaultAddr        = "127.0.0.1:7939"
	DefaultLogLevel    = "info"
	settingsFileName   = "settings.json"
	journalFileName    = "journal.db"
	logFileName        = "notionsync.log"
	ErrNoVaultDir      = errors.New("vault dir is required")
	ErrInvalidBaseURL  = errors.New("invalid api base url")
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// Config is the process configuration, assembled from flags, environment and
// the optional config file. Persisted sync state lives in Settings.
type Config struct {
	Path         string `json:"-"`
	DataDir      string `json:"data_dir"`
	VaultDir     string `json:"vault_dir"`
	SettingsPath string `json:"settings_path,omitempty"`
	BaseURL      string `json:"base_url,omitempty"`
	APIKey       string `json:"api_key,omitempty"` // overrides the key in settings
	Addr         string `json:"addr,omitempty"`
	Token        string `json:"token,omitempty"`
	LogLevel     string `json:"log_level,omitempty"`
}

// Validate normalizes paths and fills defaults.
func (c *Config) Validate() error {
	var err error

	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.DataDir, err = utils.ResolvePath(c.DataDir); err != nil {
		return fmt.Errorf("data dir: %w", err)
	}

	if c.VaultDir == "" {
		return ErrNoVaultDir
	}
	if c.VaultDir, err = utils.ResolvePath(c.VaultDir); err != nil {
		return fmt.Errorf("vault dir: %w", err)
	}

	if c.SettingsPath == "" {
		c.SettingsPath = filepath.Join(c.DataDir, settingsFileName)
	}
	if c.SettingsPath, err = utils.ResolvePath(c.SettingsPath); err != nil {
		return fmt.Errorf("settings path: %w", err)
	}

	if c.Path != "" {
		if c.Path, err = utils.ResolvePath(c.Path); err != nil {
			return fmt.Errorf("config path: %w", err)
		}
	}

	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if c.Addr == "" {
		c.Addr = DefaultAddr
	}

	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}

func (c *Config) JournalPath() string {
	return filepath.Join(c.DataDir, journalFileName)
}

func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "logs", logFileName)
}
