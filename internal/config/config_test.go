package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"HTTP_ADDRESS", "PORT", "BODY_LIMIT", "CUSTOMERS_PATH", "STT_PROVIDER",
		"OPENROUTER_API_KEY", "CHAT_API_KEY", "SESSION_TTL", "TTS_PROVIDER",
		"DEEPGRAM_API_KEY", "ELEVENLABS_API_KEY", "NORMALIZE_SPEECH", "SUPABASE_CUSTOMERS_TABLE",
	} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.HTTPAddress != ":3001" {
		t.Fatalf("HTTPAddress = %q", cfg.HTTPAddress)
	}
	if cfg.BodyLimit != "50M" || cfg.CustomersPath != "data/customers.json" {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.STTProvider != "azure" || cfg.TTSProvider != "deepgram" {
		t.Fatalf("providers = %s/%s", cfg.STTProvider, cfg.TTSProvider)
	}
	if cfg.SessionTTL != time.Hour || !cfg.NormalizeSpeech {
		t.Fatalf("session ttl = %s normalize = %t", cfg.SessionTTL, cfg.NormalizeSpeech)
	}
	if cfg.SupabaseCustomersTable != "customers" {
		t.Fatalf("table = %q", cfg.SupabaseCustomersTable)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("HTTP_ADDRESS", "")
	t.Setenv("PORT", "8081")
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("CHAT_API_KEY", "sk-test-123456789")
	t.Setenv("CHAT_MAX_TOKENS", "not-a-number")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("TTS_PROVIDER", "")
	t.Setenv("DEEPGRAM_API_KEY", "")
	t.Setenv("ELEVENLABS_API_KEY", "el")
	t.Setenv("BASE_URL", "https://calls.example.com/")

	cfg := Load()
	if cfg.HTTPAddress != ":8081" {
		t.Fatalf("HTTPAddress = %q", cfg.HTTPAddress)
	}
	if cfg.ChatAPIKey != "sk-test-123456789" || cfg.ChatMaxTokens != 0 {
		t.Fatalf("chat = %q %d", cfg.ChatAPIKey, cfg.ChatMaxTokens)
	}
	if cfg.SessionTTL != 15*time.Minute {
		t.Fatalf("SessionTTL = %s", cfg.SessionTTL)
	}
	if cfg.TTSProvider != "elevenlabs" {
		t.Fatalf("TTSProvider = %q", cfg.TTSProvider)
	}
	if cfg.BaseURL != "https://calls.example.com" {
		t.Fatalf("BaseURL = %q", cfg.BaseURL)
	}
}

func TestPreview(t *testing.T) {
	if got := preview("abc"); got != "***" {
		t.Fatalf("preview short = %q", got)
	}
	if got := preview("sk-or-v1-abcdef"); got != "sk-or-v1..." {
		t.Fatalf("preview = %q", got)
	}
}
