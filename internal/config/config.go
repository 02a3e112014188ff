// Package config loads server configuration from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"studyguideai/internal/gemini"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all server configuration.
type Config struct {
	Port          string
	DatabaseURL   string
	SessionSecret string
	SecureCookies bool
	FrontendURL   string
	RedisURL      string

	Google GoogleConfig
	Gemini GeminiConfig
	R2     R2Config

	GenerationCooldown time.Duration
	GenerationTimeout  time.Duration
	SessionTTL         time.Duration
}

// GoogleConfig holds the OAuth client used for sign-in.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// GeminiConfig points the generator at the API.
type GeminiConfig struct {
	BaseURL      string
	DefaultModel string
}

// R2Config holds Cloudflare R2 credentials for guide snapshots.
type R2Config struct {
	AccountID       string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string
}

// ValidationError reports an unusable configuration value.
type ValidationError struct {
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Key, e.Reason)
}

// AuthEnabled reports whether sign-in and saved materials are available.
func (c *Config) AuthEnabled() bool {
	return c.DatabaseURL != "" && c.Google.ClientID != "" && c.Google.ClientSecret != "" && c.Google.RedirectURL != ""
}

// Configured reports whether every R2 setting is present.
func (r R2Config) Configured() bool {
	return r.AccountID != "" && r.Bucket != "" && r.AccessKeyID != "" && r.SecretAccessKey != "" && r.PublicURL != ""
}

// LoadDotEnv loads .env into the process environment. A missing file only
// logs a warning.
func LoadDotEnv() error {
	log.Println("Attempting to load .env file...")
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			log.Println("Warning: .env file not found. Relying on system environment variables.")
			return nil
		}
		return fmt.Errorf("error loading .env file: %w", err)
	}
	log.Println(".env file loaded successfully.")
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("frontend_url", "http://localhost:5173")
	v.SetDefault("secure_cookies", false)
	v.SetDefault("gemini_default_model", gemini.DefaultModel)
	v.SetDefault("generation_cooldown", "1s")
	v.SetDefault("generation_timeout", "5m")
	v.SetDefault("session_ttl", "2h")
	v.AutomaticEnv()
	return v
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	v := newViper()
	cfg := &Config{
		Port:          v.GetString("port"),
		DatabaseURL:   v.GetString("database_url"),
		SessionSecret: v.GetString("session_secret"),
		SecureCookies: v.GetBool("secure_cookies"),
		RedisURL:      v.GetString("redis_url"),
		Google: GoogleConfig{
			ClientID:     v.GetString("google_client_id"),
			ClientSecret: v.GetString("google_client_secret"),
			RedirectURL:  v.GetString("google_redirect_url"),
		},
		Gemini: GeminiConfig{
			BaseURL:      v.GetString("gemini_base_url"),
			DefaultModel: v.GetString("gemini_default_model"),
		},
		R2: R2Config{
			AccountID:       v.GetString("cloudflare_account_id"),
			Bucket:          v.GetString("r2_bucket_name"),
			AccessKeyID:     v.GetString("r2_access_key_id"),
			SecretAccessKey: v.GetString("r2_secret_access_key"),
			PublicURL:       v.GetString("r2_public_url"),
		},
		GenerationCooldown: v.GetDuration("generation_cooldown"),
		GenerationTimeout:  v.GetDuration("generation_timeout"),
		SessionTTL:         v.GetDuration("session_ttl"),
	}

	if cfg.SessionSecret == "" {
		return nil, &ValidationError{Key: "SESSION_SECRET", Reason: "must be set"}
	}
	frontend, err := NormalizeURL("FRONTEND_URL", v.GetString("frontend_url"))
	if err != nil {
		return nil, err
	}
	cfg.FrontendURL = frontend
	if cfg.Gemini.BaseURL != "" {
		if cfg.Gemini.BaseURL, err = NormalizeURL("GEMINI_BASE_URL", cfg.Gemini.BaseURL); err != nil {
			return nil, err
		}
	}
	if cfg.GenerationCooldown < 0 || cfg.GenerationTimeout <= 0 || cfg.SessionTTL <= 0 {
		return nil, &ValidationError{Key: "durations", Reason: "GENERATION_COOLDOWN must be >= 0, GENERATION_TIMEOUT and SESSION_TTL > 0"}
	}
	return cfg, nil
}

// NormalizeURL trims raw, prefixes https:// when no scheme is given, and
// requires a parseable absolute URL. A trailing slash is removed.
func NormalizeURL(key, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &ValidationError{Key: key, Reason: "must not be empty"}
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", &ValidationError{Key: key, Reason: fmt.Sprintf("%q is not a valid URL", raw)}
	}
	return strings.TrimSuffix(u.String(), "/"), nil
}

// DatabaseURL returns DATABASE_URL without validating the rest of the
// configuration.
func DatabaseURL() string {
	return newViper().GetString("database_url")
}
