package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// ShellConfig configures the local web shell started by "smartapp serve".
type ShellConfig struct {
	Listen         string   `toml:"listen"`          // host:port to listen on
	HandleCORS     bool     `toml:"handle_cors"`     // whether to handle CORS
	AllowedOrigins []string `toml:"allowed_origins"` // CORS origins
	RedirectDelay  string   `toml:"redirect_delay"`  // delay before post-save redirects, e.g. "1500ms"
	RequestTimeout string   `toml:"request_timeout"` // bound on backend calls, empty means none
	UploadLimitMB  int64    `toml:"upload_limit_mb"` // max accepted upload size
}

// DefaultShellConfig returns the configuration used when no file is given.
func DefaultShellConfig() *ShellConfig {
	return &ShellConfig{
		Listen:        "127.0.0.1:5173",
		RedirectDelay: "1500ms",
		UploadLimitMB: 5,
	}
}

// LoadShellConfig reads a TOML shell configuration. Unset fields keep their
// defaults. An empty filename returns the defaults.
func LoadShellConfig(filename string) (*ShellConfig, error) {
	cfg := DefaultShellConfig()
	if filename == "" {
		return cfg, nil
	}
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "error reading shell config file")
	}
	if _, err := toml.Decode(string(content), cfg); err != nil {
		return nil, errors.Wrap(err, "error parsing shell config file")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid shell configuration")
	}
	return cfg, nil
}

// Validate checks durations and limits.
func (c *ShellConfig) Validate() error {
	if c.Listen == "" {
		return errors.New("listen is required")
	}
	if _, err := c.GetRedirectDelay(); err != nil {
		return err
	}
	if _, err := c.GetRequestTimeout(); err != nil {
		return err
	}
	if c.UploadLimitMB <= 0 {
		return errors.New("upload_limit_mb must be positive")
	}
	return nil
}

// GetRedirectDelay parses RedirectDelay.
func (c *ShellConfig) GetRedirectDelay() (time.Duration, error) {
	if c.RedirectDelay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.RedirectDelay)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid redirect_delay %q", c.RedirectDelay)
	}
	return d, nil
}

// GetRequestTimeout parses RequestTimeout. Zero means no timeout.
func (c *ShellConfig) GetRequestTimeout() (time.Duration, error) {
	if c.RequestTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid request_timeout %q", c.RequestTimeout)
	}
	return d, nil
}
