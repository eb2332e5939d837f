// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	StoreCSV    = "csv"
	StoreSQLite = "sqlite"
)

// Config holds all application configuration. It is built once at startup
// and shared read-only by every handler.
type Config struct {
	Port               string
	LogLevel           slog.Level
	CORSAllowOrigins   []string
	DataDir            string
	StoreBackend       string
	DBPath             string
	MedicalDataPath    string
	InviteBaseURL      string
	RateLimitPerMinute int
	Streaming          StreamingConfig
	OpenAI             OpenAIConfig
	SMS                SMSConfig
	Profiles           []ProfileConfig
}

// StreamingConfig controls the avatar-streaming provider and session defaults.
type StreamingConfig struct {
	APIKey                  string
	BaseURL                 string
	Language                string
	Quality                 string
	ActivityIdleTimeout     int
	VoiceChatTransport      string
	TokenTimeout            time.Duration
	DebugEffectiveKnowledge bool
}

// OpenAIConfig controls the transcription and LLM provider.
type OpenAIConfig struct {
	APIKey          string
	BaseURL         string
	SummaryModel    string
	CleanupModel    string
	TranscribeModel string
	Timeout         time.Duration
}

// SMSConfig controls the SMS gateway.
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	Timeout    time.Duration
}

// ProfileConfig is one entry of the doctor persona catalog.
type ProfileConfig struct {
	ID        string
	AgentName string
	AvatarID  string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	dataDir := getEnv("DATA_DIR", "./data")

	cfg := &Config{
		Port:               getEnv("PORT", "8000"),
		LogLevel:           getEnvLevel("LOG_LEVEL", slog.LevelInfo),
		CORSAllowOrigins:   splitList(getEnv("CORS_ALLOW_ORIGINS", "*")),
		DataDir:            dataDir,
		StoreBackend:       strings.ToLower(getEnv("STORE_BACKEND", StoreCSV)),
		DBPath:             getEnv("DB_PATH", filepath.Join(dataDir, "records.db")),
		MedicalDataPath:    getEnv("MEDICAL_DATA_PATH", filepath.Join(dataDir, "medical_data.txt")),
		InviteBaseURL:      strings.TrimRight(getEnv("INVITE_BASE_URL", "localhost:3000"), "/"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		Streaming: StreamingConfig{
			APIKey:                  os.Getenv("HEYGEN_API_KEY"),
			BaseURL:                 strings.TrimRight(getEnv("HEYGEN_API_BASE", "https://api.heygen.com/v1"), "/"),
			Language:                getEnv("HEYGEN_LANGUAGE", "en"),
			Quality:                 getEnv("HEYGEN_QUALITY", "low"),
			ActivityIdleTimeout:     getEnvInt("HEYGEN_ACTIVITY_IDLE_TIMEOUT", 180),
			VoiceChatTransport:      getEnv("HEYGEN_VOICE_CHAT_TRANSPORT", "WEBSOCKET"),
			TokenTimeout:            getEnvDuration("HEYGEN_TOKEN_TIMEOUT", 10*time.Second),
			DebugEffectiveKnowledge: getEnvBool("DEBUG_EFFECTIVE_KNOWLEDGE", false),
		},
		OpenAI: OpenAIConfig{
			APIKey:          os.Getenv("OPENAI_API_KEY"),
			BaseURL:         os.Getenv("OPENAI_BASE_URL"),
			SummaryModel:    getEnv("OPENAI_MODEL_SUMMARY", "gpt-4o-mini"),
			CleanupModel:    getEnv("OPENAI_MODEL_CLEANUP", "gpt-4o-mini"),
			TranscribeModel: getEnv("OPENAI_MODEL_TRANSCRIBE", "whisper-1"),
			Timeout:         getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		},
		SMS: SMSConfig{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			FromNumber: os.Getenv("TWILIO_PHONE_NUMBER"),
			Timeout:    getEnvDuration("SMS_TIMEOUT", 15*time.Second),
		},
		Profiles: []ProfileConfig{
			{
				ID:        "alpha",
				AgentName: getEnv("PROFILE_ALPHA_AGENT_NAME", "Dexter"),
				AvatarID:  getEnv("PROFILE_ALPHA_AVATAR_ID", "Dexter_Doctor_Sitting2_public"),
			},
			{
				ID:        "beta",
				AgentName: getEnv("PROFILE_BETA_AGENT_NAME", "Ann"),
				AvatarID:  getEnv("PROFILE_BETA_AVATAR_ID", "Ann_Doctor_Sitting_public"),
			},
			{
				ID:        "gamma",
				AgentName: getEnv("PROFILE_GAMMA_AGENT_NAME", "Judy"),
				AvatarID:  getEnv("PROFILE_GAMMA_AVATAR_ID", "Judy_Doctor_Sitting2_public"),
			},
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set. Provider
// credentials are optional here; their absence is reported per request.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR cannot be empty")
	}
	switch c.StoreBackend {
	case StoreCSV:
	case StoreSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty when STORE_BACKEND=sqlite")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreCSV, StoreSQLite, c.StoreBackend)
	}
	if c.Streaming.ActivityIdleTimeout <= 0 {
		return fmt.Errorf("HEYGEN_ACTIVITY_IDLE_TIMEOUT must be > 0")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be >= 0")
	}
	for _, p := range c.Profiles {
		if p.AgentName == "" || p.AvatarID == "" {
			return fmt.Errorf("profile %q needs both an agent name and an avatar id", p.ID)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getEnvLevel(key string, fallback slog.Level) slog.Level {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return fallback
	}
	return level
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
