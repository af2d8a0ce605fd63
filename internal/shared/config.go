package shared

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gofrs/flock"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "config.json"

// DefaultStorefront is the storefront written to a freshly created config.
const DefaultStorefront = "no"

// Config is the flat settings object read from config.json (or a .toml file with the same keys).
type Config struct {
	// Music-User-Token cookie from music.apple.com
	AppleMusicUserToken string `json:"appleMusicUserToken" toml:"appleMusicUserToken"`
	// ISO 3166 alpha-2 storefront code used for catalog search and playlist URLs
	AppleMusicStorefront string `json:"appleMusicStorefront" toml:"appleMusicStorefront"`

	MaxRetries        int     `json:"maxRetries,omitempty" toml:"maxRetries,omitempty"`
	RetryIntervalMs   int     `json:"retryIntervalMs,omitempty" toml:"retryIntervalMs,omitempty"`
	RequestsPerSecond float64 `json:"requestsPerSecond,omitempty" toml:"requestsPerSecond,omitempty"`
	DatabasePath      string  `json:"databasePath,omitempty" toml:"databasePath,omitempty"`
}

// DefaultConfig returns the config written when none exists: an empty user token and the "no" storefront.
func DefaultConfig() *Config {
	return &Config{AppleMusicStorefront: DefaultStorefront}
}

// RetryInterval converts RetryIntervalMs, returning zero when unset.
func (c *Config) RetryInterval() time.Duration {
	return time.Duration(c.RetryIntervalMs) * time.Millisecond
}

// Validate checks the values that would otherwise fail later at request time.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AppleMusicStorefront) == "" {
		return fmt.Errorf("%w: appleMusicStorefront is empty", ErrInvalidConfig)
	}
	if c.MaxRetries < 0 || c.RetryIntervalMs < 0 || c.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: negative retry or rate settings", ErrInvalidConfig)
	}
	return nil
}

// RequireUserToken reports [ErrMissingCredentials] when no user token has been configured.
func (c *Config) RequireUserToken(path string) error {
	if strings.TrimSpace(c.AppleMusicUserToken) == "" {
		return fmt.Errorf("%w: set appleMusicUserToken in %s", ErrMissingCredentials, path)
	}
	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadConfig reads and parses the configuration file at path.
//
// Files ending in .toml are parsed as TOML; anything else as JSON.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if isTOML(path) {
		err = toml.Unmarshal(data, &config)
	} else {
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidConfig, path, err)
	}

	return &config, nil
}

// SaveConfig writes config to path while holding an advisory lock on path + ".lock".
func SaveConfig(path string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock config: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrConfigLocked, path)
	}
	defer lock.Unlock()

	return writeConfig(path, config)
}

func writeConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if isTOML(path) {
		if err := toml.NewEncoder(&buf).Encode(config); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
	} else {
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(config); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadOrInitConfig loads the config at path, creating it with [DefaultConfig] when the file does not exist.
//
// The second return value reports whether the file was created.
func LoadOrInitConfig(path string) (*Config, bool, error) {
	config, err := LoadConfig(path)
	if err == nil {
		return config, false, nil
	}
	if !errors.Is(err, ErrMissingConfig) {
		return nil, false, err
	}

	config = DefaultConfig()
	if err := SaveConfig(path, config); err != nil {
		return nil, false, err
	}
	return config, true, nil
}

// CreateConfigFile writes a default config at path, failing if one already exists.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	return SaveConfig(path, DefaultConfig())
}
