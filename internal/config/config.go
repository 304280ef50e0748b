// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/jdwb/yawp/internal/util"
)

// Config holds everything the server needs to run. Every field can be
// set through the environment; command-line flags override on top.
type Config struct {
	Port        int           `env:"YAWP_PORT" envDefault:"3000"`
	DataDir     string        `env:"YAWP_DATA_DIR" envDefault:"./data"`
	BaseURL     string        `env:"YAWP_BASE_URL" envDefault:"http://localhost:3000"`
	Title       string        `env:"YAWP_TITLE" envDefault:"yawp"`
	Author      string        `env:"YAWP_AUTHOR" envDefault:"Luther Blissett"`
	SessionKey  string        `env:"YAWP_SESSION_KEY"`
	CeremonyTTL time.Duration `env:"YAWP_CEREMONY_TTL" envDefault:"5m"`
	SessionTTL  time.Duration `env:"YAWP_SESSION_TTL" envDefault:"24h"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// Origin returns the exact origin clients will report, derived from the
// base URL (scheme://host[:port], no path).
func (c Config) Origin() (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base url %q must include a scheme and host", c.BaseURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// RPID returns the relying-party identifier, the bare hostname of the
// base URL.
func (c Config) RPID() (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base url: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("base url %q must include a host", c.BaseURL)
	}
	return u.Hostname(), nil
}

// SessionKeyBytes decodes the hex-encoded cookie master key.
func (c Config) SessionKeyBytes() ([]byte, error) {
	if c.SessionKey == "" {
		return nil, fmt.Errorf("YAWP_SESSION_KEY is not set; generate one with `yawp keygen`")
	}
	key, err := util.HexDecode(c.SessionKey)
	if err != nil {
		return nil, fmt.Errorf("decoding session key: %w", err)
	}
	if len(key) != util.AESKeySize {
		return nil, fmt.Errorf("session key must be %d bytes, got %d", util.AESKeySize, len(key))
	}
	return key, nil
}
