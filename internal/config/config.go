package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MinSecretLength is the shortest AUTH_SECRET accepted. Keys are derived
// from it, so anything shorter is rejected at startup.
const MinSecretLength = 32

type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"3000"`
	AuthURL string `env:"AUTH_URL" envDefault:"http://localhost:3000"`

	AuthSecret string `env:"AUTH_SECRET,required,notEmpty"`

	LineClientID     string `env:"AUTH_LINE_ID,required,notEmpty"`
	LineClientSecret string `env:"AUTH_LINE_SECRET,required,notEmpty"`
	LineIssuer       string `env:"AUTH_LINE_ISSUER" envDefault:"https://access.line.me"`

	SessionMaxAge    time.Duration `env:"AUTH_SESSION_MAX_AGE" envDefault:"720h"`
	SessionUpdateAge time.Duration `env:"AUTH_SESSION_UPDATE_AGE" envDefault:"24h"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	DatabaseDSN string `env:"DATABASE_DSN"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads .env (if present) and the process environment once.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the cross-field rules env tags cannot express.
func (c Config) Validate() error {
	if len(c.AuthSecret) < MinSecretLength {
		return fmt.Errorf("config: AUTH_SECRET must be at least %d characters", MinSecretLength)
	}

	u, err := url.Parse(c.AuthURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: AUTH_URL %q is not an absolute url", c.AuthURL)
	}

	if c.SessionMaxAge <= 0 {
		return errors.New("config: AUTH_SESSION_MAX_AGE must be positive")
	}
	if c.SessionUpdateAge < 0 || c.SessionUpdateAge > c.SessionMaxAge {
		return errors.New("config: AUTH_SESSION_UPDATE_AGE must be between 0 and AUTH_SESSION_MAX_AGE")
	}

	return nil
}

// CallbackURL is the redirect URI registered with the provider.
func (c Config) CallbackURL(provider string) string {
	return strings.TrimRight(c.AuthURL, "/") + "/auth/callback/" + provider
}

// SecureCookies reports whether cookies should carry the Secure flag.
func (c Config) SecureCookies() bool {
	return strings.HasPrefix(strings.ToLower(c.AuthURL), "https://")
}
