// Package config holds the client configuration: the YAML file that records the
// backend location and the session token for the CLI, the TOML file for the web
// shell, and environment overrides loaded from the process and a local .env.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default name of the config file
const DefaultConfigFile = "config.yaml"

// ConfigFormatVersion is the current version of the configuration file format
const ConfigFormatVersion = "0.1.0"

// Environment variables that override file values.
const (
	EnvAPIBaseURL    = "SMARTAPP_API_BASE_URL"
	EnvImageAPIURL   = "SMARTAPP_IMAGE_API_URL"
	EnvImageAPIToken = "SMARTAPP_IMAGE_API_TOKEN"
	EnvLogLevel      = "SMARTAPP_LOG_LEVEL"
)

// DefaultImageServiceURL is the background-image processing service.
const DefaultImageServiceURL = "https://api.apyhub.com"

// ImageServiceConfig locates the third-party background-image service.
// The token is only ever read from here or the environment.
type ImageServiceConfig struct {
	URL   string `yaml:"url,omitempty"`
	Token string `yaml:"token,omitempty"`
}

// Config is the persisted client configuration.
type Config struct {
	// Version of the configuration file format
	Version string `yaml:"version"`
	// ServerURL is the backend base URL
	ServerURL string `yaml:"server_url"`
	// CurrentToken is the session token obtained at login
	CurrentToken string `yaml:"current_token,omitempty"`
	// Email is the account the current token belongs to
	Email string `yaml:"email,omitempty"`
	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level,omitempty"`

	ImageService ImageServiceConfig `yaml:"image_service,omitempty"`
}

// GetDefaultConfigPath returns the default path for the config file
// (e.g. ~/.config/smartapp/config.yaml on Linux).
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "smartapp", DefaultConfigFile), nil
}

// LoadConfig reads the configuration from file. A missing file is reported
// with an error satisfying os.IsNotExist.
func LoadConfig(file string) (*Config, error) {
	if file == "" {
		var err error
		if file, err = GetDefaultConfigPath(); err != nil {
			return nil, err
		}
	}

	yamlStr, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(yamlStr, &c); err != nil {
		return nil, errors.Wrap(err, "unable to parse config file")
	}
	c.ServerURL = MorphServer(c.ServerURL)
	return &c, nil
}

// LoadOrDefault behaves like LoadConfig but returns an empty configuration
// when the file does not exist yet.
func LoadOrDefault(file string) (*Config, error) {
	c, err := LoadConfig(file)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Version: ConfigFormatVersion}, nil
		}
		return nil, err
	}
	return c, nil
}

// WriteConfig writes the configuration to file with owner-only permissions.
func (cfg *Config) WriteConfig(file string) error {
	if file == "" {
		return errors.New("file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
		return errors.Wrap(err, "unable to create config directory")
	}
	if cfg.Version == "" {
		cfg.Version = ConfigFormatVersion
	}
	yamlStr, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "unable to generate configuration")
	}
	if err := os.WriteFile(file, yamlStr, 0o600); err != nil {
		return errors.Wrap(err, "unable to write config file")
	}
	return nil
}

// ValidateConfig checks that the backend location is usable.
func (cfg *Config) ValidateConfig() error {
	if cfg.ServerURL == "" {
		return fmt.Errorf("server url is required; set it with \"smartapp config --server <url>\" or %s", EnvAPIBaseURL)
	}
	if !strings.HasPrefix(cfg.ServerURL, "http://") && !strings.HasPrefix(cfg.ServerURL, "https://") {
		return errors.New("server url must start with http:// or https://")
	}
	return nil
}

// ApplyEnv loads .env from dir (if present) and lets the environment
// override file values. The token is never taken from the environment.
func (cfg *Config) ApplyEnv(dir string) {
	_ = godotenv.Load(filepath.Join(dir, ".env")) // no error if .env doesn't exist

	if v := os.Getenv(EnvAPIBaseURL); v != "" {
		cfg.ServerURL = MorphServer(v)
	}
	if v := os.Getenv(EnvImageAPIURL); v != "" {
		cfg.ImageService.URL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv(EnvImageAPIToken); v != "" {
		cfg.ImageService.Token = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if cfg.ImageService.URL == "" {
		cfg.ImageService.URL = DefaultImageServiceURL
	}
}

// MorphServer normalizes a server URL: trailing slashes are removed and
// https:// is assumed when no scheme is given.
func MorphServer(server string) string {
	server = strings.TrimSpace(server)
	if server == "" {
		return server
	}
	server = strings.TrimRight(server, "/")
	if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
		server = "https://" + server
	}
	return server
}
