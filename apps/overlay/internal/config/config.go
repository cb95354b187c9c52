// Package config loads the overlay settings from .env, the environment and flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const DefaultPhotoURL = "https://placehold.jp/3d4070/ffffff/500x500.png?text={name}"

type Config struct {
	ServerURL    string        `env:"BROADCAST_SERVER_URL" envDefault:"ws://localhost:8080/ws"`
	ListenAddr   string        `env:"BROADCAST_LISTEN_ADDR" envDefault:":8090"`
	LeaveHold    time.Duration `env:"BROADCAST_LEAVE_HOLD" envDefault:"0s"`
	ReconnectMin time.Duration `env:"BROADCAST_RECONNECT_MIN" envDefault:"500ms"`
	ReconnectMax time.Duration `env:"BROADCAST_RECONNECT_MAX" envDefault:"10s"`
	// PhotoURL is a template; {name} is replaced by the escaped player name.
	// Empty means DefaultPhotoURL.
	PhotoURL string `env:"BROADCAST_PHOTO_URL"`
	Debug    bool   `env:"BROADCAST_DEBUG" envDefault:"false"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadDotEnv reads the given .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// ParseConfig builds the overlay configuration: .env, then the environment, then
// command-line flags.
func ParseConfig(fset *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := LoadDotEnv(); err != nil {
		return cfg, err
	}
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	if cfg.PhotoURL == "" {
		cfg.PhotoURL = DefaultPhotoURL
	}

	fset.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "game server websocket URL")
	fset.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "overlay HTTP listen address")
	fset.DurationVar(&cfg.LeaveHold, "leave-hold", cfg.LeaveHold, "keep departed players on screen as leaving for this long")
	fset.BoolVar(&cfg.Debug, "debug", cfg.Debug, "verbose logging")
	if err := fset.Parse(args); err != nil {
		return cfg, fmt.Errorf("parse flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	u, err := url.Parse(strings.TrimSpace(c.ServerURL))
	if err != nil {
		return fmt.Errorf("invalid server url %q: %w", c.ServerURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("server url %q must use ws or wss", c.ServerURL)
	}
	if u.Host == "" {
		return fmt.Errorf("server url %q has no host", c.ServerURL)
	}
	if c.LeaveHold < 0 {
		return fmt.Errorf("leave hold must be >= 0")
	}
	if c.ReconnectMin <= 0 || c.ReconnectMax < c.ReconnectMin {
		return fmt.Errorf("invalid reconnect backoff: min=%s max=%s", c.ReconnectMin, c.ReconnectMax)
	}
	return nil
}
