package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	configFileName = "config.json"

	DefaultAPIURL  = "http://localhost:5000/api"
	DefaultWebURL  = "http://localhost:5173"
	DefaultTimeout = 20
)

// Config stores user-level client settings.
type Config struct {
	APIURL         string `json:"api_url"`
	MediaURL       string `json:"media_url,omitempty"`
	WebURL         string `json:"web_url,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
	Debug          bool   `json:"debug,omitempty"`
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() Config {
	return Config{
		APIURL:         DefaultAPIURL,
		WebURL:         DefaultWebURL,
		TimeoutSeconds: DefaultTimeout,
	}
}

// Timeout is the per-request transport timeout.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeout * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ConfigDir returns the gram config directory, honoring GRAM_CONFIG_DIR.
func ConfigDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("GRAM_CONFIG_DIR")); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "gram"), nil
}

func configPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// ReadConfigFile reads the config file over the defaults, without env overrides.
func ReadConfigFile() (Config, error) {
	cfg := DefaultConfig()
	path, err := configPath()
	if err != nil {
		return cfg, err
	}
	if _, err := readJSON(path, &cfg); err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadConfig reads the config file and applies GRAM_* environment overrides.
func LoadConfig() (Config, error) {
	cfg, err := ReadConfigFile()
	if err != nil {
		return cfg, err
	}
	if v := strings.TrimSpace(os.Getenv("GRAM_API_URL")); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv("GRAM_MEDIA_URL")); v != "" {
		cfg.MediaURL = v
	}
	if v := strings.TrimSpace(os.Getenv("GRAM_WEB_URL")); v != "" {
		cfg.WebURL = v
	}
	if v := strings.TrimSpace(os.Getenv("GRAM_DEBUG")); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = on
		}
	}
	return cfg, nil
}

// WriteConfig writes the config to disk.
func WriteConfig(cfg Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return writeJSONAtomic(path, cfg, 0o644)
}

// ConfigKeys lists the keys accepted by Get and Set.
func ConfigKeys() []string {
	keys := []string{"api_url", "media_url", "web_url", "timeout_seconds", "debug"}
	sort.Strings(keys)
	return keys
}

// Get returns the string form of a config key.
func (c Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "media_url":
		return c.MediaURL, nil
	case "web_url":
		return c.WebURL, nil
	case "timeout_seconds":
		return strconv.Itoa(c.TimeoutSeconds), nil
	case "debug":
		return strconv.FormatBool(c.Debug), nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

// Set parses and assigns a config key.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "api_url":
		if _, err := NormalizeBaseURL(value); err != nil {
			return err
		}
		c.APIURL = value
	case "media_url":
		c.MediaURL = value
	case "web_url":
		c.WebURL = value
	case "timeout_seconds":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("timeout_seconds must be a positive integer")
		}
		c.TimeoutSeconds = n
	case "debug":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("debug must be true or false")
		}
		c.Debug = on
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
