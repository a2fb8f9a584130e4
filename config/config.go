package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Client holds the student-side settings.
type Client struct {
	APIBaseURL  string        `env:"ATTEND_API_URL" envDefault:"http://localhost:5000/api"`
	StateDir    string        `env:"ATTEND_STATE_DIR" envDefault:"."`
	HTTPTimeout time.Duration `env:"ATTEND_HTTP_TIMEOUT" envDefault:"10s"`
}

// Authority holds the reference authority settings. Cooldown is the interval
// between granted tokens; FeedInterval is how often the QR feed rotates its
// payload.
type Authority struct {
	Addr          string        `env:"ATTEND_ADDR" envDefault:":5000"`
	JWTSecret     string        `env:"ATTEND_JWT_SECRET"`
	TokenTTL      time.Duration `env:"ATTEND_TOKEN_TTL" envDefault:"24h"`
	Cooldown      time.Duration `env:"ATTEND_COOLDOWN" envDefault:"1h"`
	FeedInterval  time.Duration `env:"ATTEND_FEED_INTERVAL" envDefault:"500ms"`
	MinExpiry     int           `env:"ATTEND_MIN_EXPIRY_MINUTES" envDefault:"2"`
	MaxExpiry     int           `env:"ATTEND_MAX_EXPIRY_MINUTES" envDefault:"60"`
	DefaultExpiry int           `env:"ATTEND_DEFAULT_EXPIRY_MINUTES" envDefault:"5"`
}

// LoadClient parses client configuration from the environment.
func LoadClient() (Client, error) {
	var cfg Client
	if err := env.Parse(&cfg); err != nil {
		return Client{}, fmt.Errorf("parse env: %w", err)
	}
	var invalid []string
	if cfg.APIBaseURL == "" {
		invalid = append(invalid, "ATTEND_API_URL")
	}
	if cfg.HTTPTimeout <= 0 {
		invalid = append(invalid, "ATTEND_HTTP_TIMEOUT")
	}
	if len(invalid) > 0 {
		return Client{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// LoadAuthority parses authority configuration from the environment.
// ATTEND_JWT_SECRET is required.
func LoadAuthority() (Authority, error) {
	var cfg Authority
	if err := env.Parse(&cfg); err != nil {
		return Authority{}, fmt.Errorf("parse env: %w", err)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return Authority{}, fmt.Errorf("missing required environment variable: ATTEND_JWT_SECRET")
	}
	var invalid []string
	if cfg.Cooldown <= 0 {
		invalid = append(invalid, "ATTEND_COOLDOWN")
	}
	if cfg.FeedInterval <= 0 {
		invalid = append(invalid, "ATTEND_FEED_INTERVAL")
	}
	if cfg.MinExpiry < 1 || cfg.MaxExpiry < cfg.MinExpiry {
		invalid = append(invalid, "ATTEND_MIN_EXPIRY_MINUTES", "ATTEND_MAX_EXPIRY_MINUTES")
	}
	if cfg.DefaultExpiry < cfg.MinExpiry || cfg.DefaultExpiry > cfg.MaxExpiry {
		invalid = append(invalid, "ATTEND_DEFAULT_EXPIRY_MINUTES")
	}
	if len(invalid) > 0 {
		return Authority{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}
