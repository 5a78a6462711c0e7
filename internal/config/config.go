package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress   string
	BodyLimit     string
	BaseURL       string
	CustomersPath string

	STTProvider           string
	SpeechKey             string
	SpeechRegion          string
	SpeechLanguage        string
	GoogleCredentialsFile string
	AssemblyAIKey         string

	ChatAPIKey    string
	ChatBaseURL   string
	ChatModel     string
	ChatMaxTokens int

	SupabaseURL            string
	SupabaseServiceRoleKey string
	SupabaseCustomersTable string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	TwilioAccountSID string
	TwilioAuthToken  string

	TTSProvider       string
	DeepgramKey       string
	DeepgramModel     string
	ElevenLabsKey     string
	ElevenLabsVoiceID string
	NormalizeSpeech   bool
}

// Load reads environment variables (and .env when present) and returns
// Config with sane defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file loaded")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":3001"
		}
	}

	cfg := Config{
		HTTPAddress:   addr,
		BodyLimit:     getenv("BODY_LIMIT", "50M"),
		BaseURL:       strings.TrimRight(os.Getenv("BASE_URL"), "/"),
		CustomersPath: getenv("CUSTOMERS_PATH", "data/customers.json"),

		STTProvider:           getenv("STT_PROVIDER", "azure"),
		SpeechKey:             os.Getenv("SPEECH_KEY"),
		SpeechRegion:          os.Getenv("SPEECH_REGION"),
		SpeechLanguage:        getenv("SPEECH_LANGUAGE", "en-US"),
		GoogleCredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		AssemblyAIKey:         os.Getenv("ASSEMBLYAI_API_KEY"),

		ChatAPIKey:    firstEnv("OPENROUTER_API_KEY", "CHAT_API_KEY"),
		ChatBaseURL:   firstEnv("OPENROUTER_BASE_URL", "CHAT_BASE_URL"),
		ChatModel:     firstEnv("OPENROUTER_MODEL", "CHAT_MODEL"),
		ChatMaxTokens: getint("CHAT_MAX_TOKENS", 0),

		SupabaseURL:            os.Getenv("SUPABASE_URL"),
		SupabaseServiceRoleKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseCustomersTable: getenv("SUPABASE_CUSTOMERS_TABLE", "customers"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getint("REDIS_DB", 0),
		SessionTTL:    getduration("SESSION_TTL", time.Hour),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),

		TTSProvider:       strings.ToLower(os.Getenv("TTS_PROVIDER")),
		DeepgramKey:       os.Getenv("DEEPGRAM_API_KEY"),
		DeepgramModel:     os.Getenv("DEEPGRAM_MODEL"),
		ElevenLabsKey:     os.Getenv("ELEVENLABS_API_KEY"),
		ElevenLabsVoiceID: os.Getenv("ELEVENLABS_VOICE_ID"),
		NormalizeSpeech:   getbool("NORMALIZE_SPEECH", true),
	}
	if cfg.TTSProvider == "" {
		if cfg.DeepgramKey == "" && cfg.ElevenLabsKey != "" {
			cfg.TTSProvider = "elevenlabs"
		} else {
			cfg.TTSProvider = "deepgram"
		}
	}

	if cfg.STTProvider == "azure" && (cfg.SpeechKey == "" || cfg.SpeechRegion == "") {
		log.Println("Warning: SPEECH_KEY or SPEECH_REGION not set - transcription will not work")
	}
	if cfg.ChatAPIKey == "" {
		log.Println("Warning: OPENROUTER_API_KEY not set - AI replies will not work")
	}
	if cfg.TwilioAuthToken == "" {
		log.Println("Warning: TWILIO_AUTH_TOKEN not set - phone webhooks are not verified")
	}

	log.Printf("config: HTTP_ADDRESS=%s STT_PROVIDER=%s TTS_PROVIDER=%s", cfg.HTTPAddress, cfg.STTProvider, cfg.TTSProvider)
	if cfg.ChatAPIKey != "" {
		log.Printf("config: chat key %s", preview(cfg.ChatAPIKey))
	}
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func getbool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %t", key, v, def)
		return def
	}
	return b
}

func getduration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

// preview shows the first 8 characters of a secret.
func preview(secret string) string {
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:8] + "..."
}
