// Package config handles the configuration directory, settings file and stored token.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gofrs/flock"
	"golang.org/x/oauth2"
)

const (
	// AppName is the application directory name.
	AppName = "aitask"

	// SettingsFile is the settings filename.
	SettingsFile = "config.toml"

	// TokenFile is the stored API token filename.
	TokenFile = "token.json"

	lockFile = ".lock"

	// DefaultBaseURL is the task manager web API used when nothing else is configured.
	DefaultBaseURL = "http://localhost:5000"

	// DefaultTimeout bounds a single API call. Creating a task waits on the
	// backend's AI classifier, so this is generous.
	DefaultTimeout = 30 * time.Second
)

// Environment variables that override the settings file.
const (
	EnvBaseURL = "AITASK_URL"
	EnvUser    = "AITASK_USER"
	EnvTimeout = "AITASK_TIMEOUT"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// BaseURL is the root of the task manager web API.
	BaseURL string

	// User is the default user ID for task commands.
	User string

	// Timeout bounds each API call.
	Timeout time.Duration
}

// Settings is the on-disk form of the settings file.
type Settings struct {
	BaseURL        string `toml:"base_url,omitempty"`
	User           string `toml:"user,omitempty"`
	TimeoutSeconds int    `toml:"timeout_seconds,omitempty"`
}

// New creates a Config for the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/aitask or $HOME/.config/aitask.
// Settings are applied in order: defaults, settings file, environment.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	cfg := &Config{
		Dir:     dir,
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}

	settings, err := cfg.LoadSettings()
	if err != nil {
		return nil, err
	}
	cfg.apply(settings)

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

func (c *Config) apply(s Settings) {
	if s.BaseURL != "" {
		c.BaseURL = s.BaseURL
	}
	if s.User != "" {
		c.User = s.User
	}
	if s.TimeoutSeconds > 0 {
		c.Timeout = time.Duration(s.TimeoutSeconds) * time.Second
	}
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		c.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvUser)); v != "" {
		c.User = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeout)); v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %s", EnvTimeout, v)
		}
		c.Timeout = d
	}
	return nil
}

// parseTimeout accepts a Go duration ("45s") or a number of seconds ("45").
func parseTimeout(v string) (time.Duration, error) {
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid timeout: %s", v)
	}
	return time.Duration(n) * time.Second, nil
}

// SettingsPath returns the path to the settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// TokenPath returns the path to the stored API token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// LoadSettings reads the settings file. A missing file yields zero Settings.
func (c *Config) LoadSettings() (Settings, error) {
	var s Settings
	if _, err := toml.DecodeFile(c.SettingsPath(), &s); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("invalid %s: %w", SettingsFile, err)
	}
	return s, nil
}

// SaveSettings writes the settings file with mode 0600.
func (c *Config) SaveSettings(s Settings) error {
	return c.withLock(func() error {
		return c.writeSettings(s)
	})
}

// UpdateSettings reads the settings file, applies fn and writes the result
// back, all under the config directory lock. Nothing is written if fn fails.
func (c *Config) UpdateSettings(fn func(*Settings) error) error {
	return c.withLock(func() error {
		s, err := c.LoadSettings()
		if err != nil {
			return err
		}
		if err := fn(&s); err != nil {
			return err
		}
		return c.writeSettings(s)
	})
}

func (c *Config) writeSettings(s Settings) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return os.WriteFile(c.SettingsPath(), buf.Bytes(), 0600)
}

// SettingKeys lists the keys accepted by Settings.Set.
var SettingKeys = []string{"url", "user", "timeout"}

// ErrUnknownSetting is returned by Settings.Set for a key not in SettingKeys.
var ErrUnknownSetting = errors.New("unknown setting")

// Set assigns one setting from its command-line form. An empty value clears
// the setting so the default applies again.
func (s *Settings) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch strings.ToLower(key) {
	case "url":
		if value != "" {
			u, err := url.Parse(value)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("invalid url: %s", value)
			}
		}
		s.BaseURL = value
	case "user":
		s.User = value
	case "timeout":
		if value == "" {
			s.TimeoutSeconds = 0
			return nil
		}
		d, err := parseTimeout(value)
		if err != nil {
			return err
		}
		s.TimeoutSeconds = int((d + time.Second - 1) / time.Second)
	default:
		return fmt.Errorf("%w: %s (want one of %s)", ErrUnknownSetting, key, strings.Join(SettingKeys, ", "))
	}
	return nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// LoadToken reads the stored API token. Returns nil without error when
// no token has been stored.
func (c *Config) LoadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.TokenPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", TokenFile, err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", TokenFile, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("invalid %s: empty access token", TokenFile)
	}
	return &token, nil
}

// SaveToken stores an API token with mode 0600.
func (c *Config) SaveToken(token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return c.withLock(func() error {
		return os.WriteFile(c.TokenPath(), data, 0600)
	})
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return c.withLock(func() error {
		return os.Remove(c.TokenPath())
	})
}

// withLock runs fn while holding the config directory's file lock, so two
// processes never interleave writes to the same file.
func (c *Config) withLock(fn func() error) error {
	if err := c.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	lock := flock.New(filepath.Join(c.Dir, lockFile))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock config directory: %w", err)
	}
	defer lock.Unlock()
	return fn()
}
