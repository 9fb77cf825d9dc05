package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("QUOTE_API_URL", "")
	t.Setenv("AUTO_REPLY_DELAY", "")
	t.Setenv("AUTO_SEND_INTERVAL", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.QuoteAPIURL == "" {
		t.Errorf("expected default quote API URL, got empty")
	}
	if cfg.AutoReplyDelay != 3*time.Second {
		t.Errorf("AutoReplyDelay = %v, want 3s", cfg.AutoReplyDelay)
	}
	if cfg.AutoSendEvery != 15*time.Second {
		t.Errorf("AutoSendEvery = %v, want 15s", cfg.AutoSendEvery)
	}
	if cfg.AutoReplySender != DefaultAutoReplySender {
		t.Errorf("AutoReplySender = %q, want %q", cfg.AutoReplySender, DefaultAutoReplySender)
	}
	if cfg.AutoSendSender != DefaultAutoSendSender {
		t.Errorf("AutoSendSender = %q, want %q", cfg.AutoSendSender, DefaultAutoSendSender)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTO_REPLY_DELAY", "250ms")
	t.Setenv("AUTO_SEND_INTERVAL", "2s")
	t.Setenv("AUTO_REPLY_SENDER", "Bot")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.AutoReplyDelay != 250*time.Millisecond {
		t.Errorf("AutoReplyDelay = %v, want 250ms", cfg.AutoReplyDelay)
	}
	if cfg.AutoSendEvery != 2*time.Second {
		t.Errorf("AutoSendEvery = %v, want 2s", cfg.AutoSendEvery)
	}
	if cfg.AutoReplySender != "Bot" {
		t.Errorf("AutoReplySender = %q, want Bot", cfg.AutoReplySender)
	}
}

func TestLoadRejectsBadDurations(t *testing.T) {
	t.Setenv("AUTO_REPLY_DELAY", "soon")
	if _, err := Load(); err == nil {
		t.Errorf("expected error for invalid AUTO_REPLY_DELAY")
	}
	t.Setenv("AUTO_REPLY_DELAY", "")
	t.Setenv("AUTO_SEND_INTERVAL", "-5s")
	if _, err := Load(); err == nil {
		t.Errorf("expected error for negative AUTO_SEND_INTERVAL")
	}
}

func TestValidateOAuthReady(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
	t.Setenv("GOOGLE_CALLBACK_URL", "http://localhost:8080/auth/google/callback")
	cfg, _ := Load()
	if err := cfg.ValidateOAuthReady(); err != nil {
		t.Errorf("expected valid oauth config, got %v", err)
	}
	t.Setenv("GOOGLE_CLIENT_SECRET", "")
	cfg, _ = Load()
	if err := cfg.ValidateOAuthReady(); err == nil {
		t.Errorf("expected error when missing google envs")
	}
}
