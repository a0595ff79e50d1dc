package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Keys    APIKeys
	Ai      AIConfig
	Session SessionConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type APIKeys struct {
	Tavily        string
	Perplexity    string
	AlpacaKeyID   string
	AlpacaSecret  string
	Anthropic     string
	CRMWebhookURL string
}

type AIConfig struct {
	Model          string // e.g. "claude-sonnet-4-20250514"
	MaxTokens      int
	MaxToolSteps   int
	FanoutTimeout  time.Duration
	AnalysisModel  string // Perplexity model for deep analysis
	AnalysisTokens int
}

type SessionConfig struct {
	TTL         time.Duration // session record expiry
	UserLinkTTL time.Duration // user -> session index expiry
	MaxTurns    int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Keys: APIKeys{
			Tavily:        getEnv("TAVILY_API_KEY", ""),
			Perplexity:    getEnv("PERPLEXITY_API_KEY", ""),
			AlpacaKeyID:   getEnv("ALPACA_API_KEY", ""),
			AlpacaSecret:  getEnv("ALPACA_SECRET_KEY", ""),
			Anthropic:     getEnv("ANTHROPIC_API_KEY", ""),
			CRMWebhookURL: getEnv("CRM_WEBHOOK_URL", ""),
		},
		Ai: AIConfig{
			Model:          getEnv("LLM_MODEL", "claude-sonnet-4-20250514"),
			MaxTokens:      getEnvAsInt("LLM_MAX_TOKENS", 2048),
			MaxToolSteps:   getEnvAsInt("LLM_MAX_TOOL_STEPS", 5),
			FanoutTimeout:  time.Duration(getEnvAsInt("FANOUT_TIMEOUT_SECONDS", 5)) * time.Second,
			AnalysisModel:  getEnv("ANALYSIS_MODEL", "sonar"),
			AnalysisTokens: getEnvAsInt("ANALYSIS_MAX_TOKENS", 500),
		},
		Session: SessionConfig{
			TTL:         time.Duration(getEnvAsInt("SESSION_TTL_DAYS", 7)) * 24 * time.Hour,
			UserLinkTTL: time.Duration(getEnvAsInt("SESSION_USER_LINK_TTL_DAYS", 30)) * 24 * time.Hour,
			MaxTurns:    getEnvAsInt("SESSION_MAX_TURNS", 50),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
