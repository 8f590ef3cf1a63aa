// Package config loads the client's YAML settings file and the server's
// viper-backed configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL  = "http://localhost:8000/api"
	DefaultTimeout  = 15 * time.Second
	DefaultRefresh  = "@every 5m"
	DefaultLogLevel = "info"
)

// Client is the CLI configuration persisted at ~/.config/eventhorizon/config.yaml.
type Client struct {
	// BaseURL is the root of the event API, including the /api prefix.
	BaseURL string `yaml:"base_url"`

	// SessionPath is the bbolt file holding the signed-in session.
	// Empty means "next to the config file".
	SessionPath string `yaml:"session_path"`

	// Timeout bounds every HTTP request.
	Timeout time.Duration `yaml:"timeout"`

	// Refresh is the cron schedule used by `events watch`.
	Refresh string `yaml:"refresh"`

	LogLevel string `yaml:"log_level"`
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config dir: %w", err)
	}
	return filepath.Join(dir, "eventhorizon", "config.yaml"), nil
}

// DefaultClient returns an in-memory default configuration.
func DefaultClient() *Client {
	return &Client{
		BaseURL:  DefaultBaseURL,
		Timeout:  DefaultTimeout,
		Refresh:  DefaultRefresh,
		LogLevel: DefaultLogLevel,
	}
}

// Normalize fills zero or invalid values with defaults.
func (c *Client) Normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Refresh == "" {
		c.Refresh = DefaultRefresh
	} else if _, err := cron.ParseStandard(c.Refresh); err != nil {
		log.WithError(err).WithField("refresh", c.Refresh).Warn("invalid refresh schedule, using default")
		c.Refresh = DefaultRefresh
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		c.LogLevel = DefaultLogLevel
	}
}

// ResolveSessionPath returns SessionPath, defaulting to session.db beside
// the config file at configPath.
func (c *Client) ResolveSessionPath(configPath string) string {
	if c.SessionPath != "" {
		return c.SessionPath
	}
	return filepath.Join(filepath.Dir(configPath), "session.db")
}

// LoadClient reads the YAML file at path. A missing file is created with
// defaults on first run.
func LoadClient(path string) (*Client, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultClient()
			if err := SaveClient(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Client
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// SaveClient writes cfg to path atomically with 0600 permissions.
func SaveClient(path string, cfg *Client) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".eventhorizon-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
