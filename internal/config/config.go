// Package config loads GitPeek settings.
//
// Precedence, highest first: bound command-line flags, environment variables,
// .env files, built-in defaults. Keys match their environment variable names
// in lower case, so PORT is "port" and API_BASE_URL is "api_base_url".
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	KeyPort            = "port"
	KeyAPIBaseURL      = "api_base_url"
	KeyPublicURL       = "public_url"
	KeyDBPath          = "db_path"
	KeyVisitorSecret   = "visitor_secret"
	KeyRequestTimeout  = "request_timeout"
	KeyCallbackDelay   = "callback_delay"
	KeyVisitorIdleTTL  = "visitor_idle_ttl"
	KeyLogLevel        = "log_level"
	KeyCLICallbackAddr = "cli_callback_addr"
)

// DefaultEnvFiles are read by Load when they exist. Earlier files win.
var DefaultEnvFiles = []string{".env.local", ".env"}

type Config struct {
	Port            int
	APIBaseURL      string
	PublicURL       string
	DBPath          string
	VisitorSecret   string
	RequestTimeout  time.Duration
	CallbackDelay   time.Duration
	VisitorIdleTTL  time.Duration
	LogLevel        slog.Level
	CLICallbackAddr string
}

// NewViper returns a viper instance with defaults and environment lookup set
// up. Commands bind their flags onto it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyPort, 8080)
	v.SetDefault(KeyAPIBaseURL, "http://localhost:8000")
	v.SetDefault(KeyPublicURL, "")
	v.SetDefault(KeyDBPath, "data/gitpeek.db")
	v.SetDefault(KeyVisitorSecret, "")
	v.SetDefault(KeyRequestTimeout, 15*time.Second)
	v.SetDefault(KeyCallbackDelay, 3*time.Second)
	v.SetDefault(KeyVisitorIdleTTL, 24*time.Hour)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyCLICallbackAddr, "127.0.0.1:8765")
	v.AutomaticEnv()
	return v
}

// LoadEnvFiles loads the given .env files into the process environment.
// Missing files are skipped; variables already set are never overridden.
func LoadEnvFiles(files ...string) error {
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("config: loading %s: %w", file, err)
		}
	}
	return nil
}

// Load reads DefaultEnvFiles and resolves v into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	if err := LoadEnvFiles(DefaultEnvFiles...); err != nil {
		return nil, err
	}
	return FromViper(v)
}

// FromViper resolves and validates a Config without touching .env files.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:            v.GetInt(KeyPort),
		APIBaseURL:      strings.TrimRight(v.GetString(KeyAPIBaseURL), "/"),
		PublicURL:       strings.TrimRight(v.GetString(KeyPublicURL), "/"),
		DBPath:          v.GetString(KeyDBPath),
		VisitorSecret:   v.GetString(KeyVisitorSecret),
		RequestTimeout:  v.GetDuration(KeyRequestTimeout),
		CallbackDelay:   v.GetDuration(KeyCallbackDelay),
		VisitorIdleTTL:  v.GetDuration(KeyVisitorIdleTTL),
		CLICallbackAddr: v.GetString(KeyCLICallbackAddr),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString(KeyLogLevel))); err != nil {
		return nil, fmt.Errorf("config: invalid %s %q", strings.ToUpper(KeyLogLevel), v.GetString(KeyLogLevel))
	}

	if cfg.PublicURL == "" {
		cfg.PublicURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if err := checkHTTPURL(c.APIBaseURL); err != nil {
		errs = append(errs, fmt.Errorf("API_BASE_URL: %w", err))
	}
	if err := checkHTTPURL(c.PublicURL); err != nil {
		errs = append(errs, fmt.Errorf("PUBLIC_URL: %w", err))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH must not be empty"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.CallbackDelay <= 0 {
		errs = append(errs, errors.New("CALLBACK_DELAY must be positive"))
	}
	if c.VisitorIdleTTL <= 0 {
		errs = append(errs, errors.New("VISITOR_IDLE_TTL must be positive"))
	}
	if c.VisitorSecret != "" && len(c.VisitorSecret) < 16 {
		errs = append(errs, errors.New("VISITOR_SECRET must be at least 16 characters"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func checkHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q is not an http(s) URL", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}

// CallbackURL is where GitHub sends the browser back to after authorizing.
func (c *Config) CallbackURL() string {
	return c.PublicURL + "/auth/callback"
}

// SecureCookies reports whether the front end is served over https.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.PublicURL, "https://")
}

// EnsureVisitorSecret fills in a random secret when none is configured.
// Visitor cookies signed with it stop validating when the process restarts,
// so every browser starts over with a fresh (logged-out) visitor.
func (c *Config) EnsureVisitorSecret(logger *slog.Logger) error {
	if c.VisitorSecret != "" {
		return nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("config: generating visitor secret: %w", err)
	}
	c.VisitorSecret = hex.EncodeToString(buf)
	logger.Warn("VISITOR_SECRET not set, using a random per-process secret; visitors will be logged out on restart")
	return nil
}
