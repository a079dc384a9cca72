// Package config handles configuration for choicemate.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	apierrors "github.com/diogo/choicemate/internal/errors"
	"github.com/diogo/choicemate/internal/models"
)

// Environment overrides
const (
	EnvHome       = "CHOICEMATE_HOME"
	EnvAPIBaseURL = "CHOICEMATE_API_BASE_URL"
)

// Storage backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // "dark", "light", or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// StorageConfig selects where conversations are persisted
type StorageConfig struct {
	Backend string `json:"backend"`        // "file", "sqlite" or "bolt"
	Path    string `json:"path,omitempty"` // defaults to the config directory
}

// ExplainConfig is the style requested from the explanation endpoint
type ExplainConfig struct {
	Tone   string `json:"tone"`
	Length string `json:"length"`
}

// Config represents the user configuration
type Config struct {
	// APIBaseURL is the decision backend, e.g. http://127.0.0.1:8000.
	// CHOICEMATE_API_BASE_URL takes precedence when set.
	APIBaseURL string `json:"api_base_url"`
	// TimeoutSeconds bounds each backend request. There are no retries.
	TimeoutSeconds  int            `json:"timeout_seconds"`
	Verbose         bool           `json:"verbose"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	TUITheme        string         `json:"tui_theme,omitempty"`
	Storage         StorageConfig  `json:"storage"`
	Explain         ExplainConfig  `json:"explain"`
	Markdown        MarkdownConfig `json:"markdown,omitempty"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	style := models.DefaultExplainStyle()
	return Config{
		TimeoutSeconds:  60,
		Verbose:         false,
		CopyToClipboard: false,
		TUITheme:        "tokyonight",
		Storage:         StorageConfig{Backend: BackendFile},
		Explain:         ExplainConfig{Tone: style.Tone, Length: style.Length},
		Markdown:        DefaultMarkdownConfig(),
	}
}

// BaseURL returns the effective API base URL without a trailing slash
func (c Config) BaseURL() string {
	base := c.APIBaseURL
	if env := os.Getenv(EnvAPIBaseURL); env != "" {
		base = env
	}
	return strings.TrimRight(strings.TrimSpace(base), "/")
}

// Timeout returns the per-request timeout
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ExplainStyle returns the configured explanation style, defaulting empty fields
func (c Config) ExplainStyle() models.ExplainStyle {
	style := models.DefaultExplainStyle()
	if c.Explain.Tone != "" {
		style.Tone = c.Explain.Tone
	}
	if c.Explain.Length != "" {
		style.Length = c.Explain.Length
	}
	return style
}

// StoragePath returns the directory used by the storage backend
func (c Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	return GetConfigDir()
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".choicemate"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the log file used while the TUI owns the terminal
func GetLogPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "choicemate.log"), nil
}

// LoadConfig loads the configuration from disk
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if config doesn't exist
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setters maps dotted keys to their parsers
var setters = map[string]func(*Config, string) error{
	"api_base_url": func(c *Config, v string) error {
		c.APIBaseURL = strings.TrimRight(strings.TrimSpace(v), "/")
		return nil
	},
	"timeout_seconds": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return apierrors.NewConfigError("timeout_seconds", "must be a positive integer")
		}
		c.TimeoutSeconds = n
		return nil
	},
	"verbose":           boolSetter("verbose", func(c *Config, b bool) { c.Verbose = b }),
	"copy_to_clipboard": boolSetter("copy_to_clipboard", func(c *Config, b bool) { c.CopyToClipboard = b }),
	"tui_theme": func(c *Config, v string) error {
		c.TUITheme = v
		return nil
	},
	"storage.backend": func(c *Config, v string) error {
		switch v {
		case BackendFile, BackendSQLite, BackendBolt:
			c.Storage.Backend = v
			return nil
		}
		return apierrors.NewConfigError("storage.backend", fmt.Sprintf("unknown backend %q", v))
	},
	"storage.path": func(c *Config, v string) error {
		c.Storage.Path = v
		return nil
	},
	"explain.tone": func(c *Config, v string) error {
		c.Explain.Tone = v
		return nil
	},
	"explain.length": func(c *Config, v string) error {
		c.Explain.Length = v
		return nil
	},
	"markdown.style": func(c *Config, v string) error {
		c.Markdown.Style = v
		return nil
	},
}

func boolSetter(key string, apply func(*Config, bool)) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return apierrors.NewConfigError(key, "must be true or false")
		}
		apply(c, b)
		return nil
	}
}

// Set updates a single configuration value by its dotted key
func (c *Config) Set(key, value string) error {
	setter, ok := setters[key]
	if !ok {
		return apierrors.NewConfigError(key, "unknown key")
	}
	return setter(c, value)
}

// Keys returns the keys accepted by Set
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
