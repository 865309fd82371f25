package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"
)

const (
	DefaultEndpoint = "http://127.0.0.1:9700"
	DefaultPageSize = 20
)

// Config is ~/.cloudconsole/config.yaml.
type Config struct {
	// Endpoint is the control plane base URL.
	Endpoint string `yaml:"endpoint,omitempty"`

	// PollInterval overrides the 500ms list refresh period.
	PollInterval time.Duration `yaml:"pollInterval,omitempty"`
	// MessageTimeout overrides how long save confirmations stay visible.
	MessageTimeout time.Duration `yaml:"messageTimeout,omitempty"`

	// Format is the default CLI output format (json|edn|table).
	Format string `yaml:"format,omitempty"`

	LogFile  string `yaml:"logFile,omitempty"`
	LogLevel string `yaml:"logLevel,omitempty"`

	// Serve configures `cloudconsole serve`.
	Serve *ServeConfig `yaml:"serve,omitempty"`

	// TUI holds optional user preferences for the interactive console.
	TUI *TUIConfig `yaml:"tui,omitempty"`
}

type ServeConfig struct {
	Addr string `yaml:"addr,omitempty"`
	// Dir holds the control plane database (default: <config dir>/control).
	Dir string `yaml:"dir,omitempty"`
}

type TUIConfig struct {
	// Glyphs selects the glyph set ("unicode" or "ascii").
	Glyphs string `yaml:"glyphs,omitempty"`
	// PageSize is the number of rows per page in list views.
	PageSize int `yaml:"pageSize,omitempty"`
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.cloudconsole).
	if v := strings.TrimSpace(os.Getenv("CLOUDCONSOLE_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cloudconsole"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	// Unique temp name + rename so a CLI and a running TUI never see a torn file.
	return atomicWriteFile(dir, "config.yaml.*.tmp", path, b, 0o600)
}

// EffectiveEndpoint returns the configured endpoint or the default.
func (c *Config) EffectiveEndpoint() string {
	if c == nil || strings.TrimSpace(c.Endpoint) == "" {
		return DefaultEndpoint
	}
	return strings.TrimRight(strings.TrimSpace(c.Endpoint), "/")
}

func (c *Config) PageSize() int {
	if c == nil || c.TUI == nil || c.TUI.PageSize <= 0 {
		return DefaultPageSize
	}
	return c.TUI.PageSize
}

// ServeDir is where `cloudconsole serve` keeps its database.
func (c *Config) ServeDir() (string, error) {
	if c != nil && c.Serve != nil && strings.TrimSpace(c.Serve.Dir) != "" {
		return strings.TrimSpace(c.Serve.Dir), nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "control"), nil
}
