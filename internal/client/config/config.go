package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvAPIURL   = "LEAVECAL_API_URL"
	EnvTimezone = "LEAVECAL_TIMEZONE"

	defaultAPIURL         = "http://localhost:8080/api/v1"
	defaultRequestTimeout = 15 * time.Second
)

// Config is the leavecal client configuration file.
type Config struct {
	// APIURL is the base of the leave API, including the /api/v1 prefix.
	APIURL string `yaml:"api_url"`
	// Timezone is the IANA zone calendar days are computed in. Empty or
	// "Local" uses the machine zone.
	Timezone       string        `yaml:"timezone"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// DisallowPast rejects new leave starting before today.
	DisallowPast bool `yaml:"disallow_past"`
}

func Default() *Config {
	return &Config{
		APIURL:         defaultAPIURL,
		Timezone:       "Local",
		RequestTimeout: defaultRequestTimeout,
	}
}

// DefaultPath returns ~/.config/leavecal/config.yaml, honouring
// XDG_CONFIG_HOME.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("finding config directory: %w", err)
	}
	return filepath.Join(dir, "leavecal", "config.yaml"), nil
}

// Normalize fills zero values with defaults.
func (c *Config) Normalize() {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		c.APIURL = defaultAPIURL
	}
	if strings.TrimSpace(c.Timezone) == "" {
		c.Timezone = "Local"
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
}

// ApplyEnv lets LEAVECAL_API_URL and LEAVECAL_TIMEZONE override the file.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.APIURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimezone)); v != "" {
		c.Timezone = v
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// Load reads the YAML file at path. On first run the defaults are written
// to path and returned. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg := Default()
		if err := Save(path, cfg); err != nil {
			cfg.ApplyEnv()
			return cfg, err
		}
		cfg.ApplyEnv()
		return cfg, nil
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.Normalize()
	cfg.ApplyEnv()
	return cfg, nil
}

// Save writes cfg to path with 0600 permissions via a temp file and rename.
func Save(path string, cfg *Config) error {
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

	tmp, err := os.CreateTemp(dir, ".leavecal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
