// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// For Google sign-in, use ValidateOAuthReady.
package config

import (
	"fmt"
	"os"
	"time"
)

// Default labels and timings of the synthetic-message machinery. All of them
// can be overridden through environment variables but the defaults are part of
// the observable protocol, so changing them changes what clients see.
const (
	DefaultAutoReplySender = "Alice Freeman"
	DefaultAutoSendSender  = "System Bot"
	DefaultAutoSendPrefix  = "(Auto-send) "
	DefaultUserSender      = "User"
	DefaultAutoReplyDelay  = 3 * time.Second
	DefaultAutoSendEvery   = 15 * time.Second

	DefaultQuoteFallback = "I am currently busy. Please leave a message."
)

type Config struct {
	// HTTP
	HTTPAddr  string
	ClientURL string

	// Database
	DBDsn string

	// Quote provider
	QuoteAPIURL   string
	QuoteMaxLen   int
	QuoteTimeout  time.Duration
	QuoteFallback string

	// Auto-responder / scheduler
	AutoReplySender string
	AutoReplyDelay  time.Duration
	AutoSendSender  string
	AutoSendEvery   time.Duration
	UserSender      string

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
}

// Load reads environment variables and applies defaults. It doesn't fail if Google creds
// are missing; use ValidateOAuthReady() when you require the sign-in flow. Missing optional
// variables disable features rather than aborting startup.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	cfg.ClientURL = os.Getenv("CLIENT_URL")
	if cfg.ClientURL == "" {
		cfg.ClientURL = "http://localhost:3000"
	}

	cfg.DBDsn = os.Getenv("DB_DSN")

	cfg.QuoteAPIURL = os.Getenv("QUOTE_API_URL")
	if cfg.QuoteAPIURL == "" {
		cfg.QuoteAPIURL = "https://api.quotable.io"
	}
	cfg.QuoteMaxLen = 200
	if v := os.Getenv("QUOTE_MAX_LENGTH"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			cfg.QuoteMaxLen = n
		}
	}
	cfg.QuoteTimeout = 10 * time.Second
	if v := os.Getenv("QUOTE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.QuoteTimeout = d
		}
	}
	cfg.QuoteFallback = envOr("QUOTE_FALLBACK", DefaultQuoteFallback)

	cfg.AutoReplySender = envOr("AUTO_REPLY_SENDER", DefaultAutoReplySender)
	cfg.AutoSendSender = envOr("AUTO_SEND_SENDER", DefaultAutoSendSender)
	cfg.UserSender = envOr("USER_SENDER", DefaultUserSender)

	cfg.AutoReplyDelay = DefaultAutoReplyDelay
	if v := os.Getenv("AUTO_REPLY_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid AUTO_REPLY_DELAY: %q", v)
		}
		cfg.AutoReplyDelay = d
	}
	cfg.AutoSendEvery = DefaultAutoSendEvery
	if v := os.Getenv("AUTO_SEND_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid AUTO_SEND_INTERVAL: %q", v)
		}
		cfg.AutoSendEvery = d
	}

	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	cfg.GoogleRedirectURI = os.Getenv("GOOGLE_CALLBACK_URL")

	return cfg, nil
}

// ValidateOAuthReady returns an error listing what is missing for the Google sign-in flow.
func (c *Config) ValidateOAuthReady() error {
	missing := []string{}
	if c.GoogleClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if c.GoogleClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}
	if c.GoogleRedirectURI == "" {
		missing = append(missing, "GOOGLE_CALLBACK_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("google oauth not configured, missing: %v", missing)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
