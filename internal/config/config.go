package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	defaultPort              = 3000
	defaultOpenAIURL         = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel       = "gpt-3.5-turbo"
	defaultGeminiModel       = "gemini-1.5-flash"
	defaultCompletionTimeout = 60 * time.Second
	defaultUnsplashURL       = "https://api.unsplash.com"
)

// Config holds the configuration for the application.
type Config struct {
	Port int

	// Completion service
	CompletionProvider string
	OpenAIAPIKey       string
	OpenAIURL          string
	OpenAIModel        string
	GeminiAPIKey       string
	GeminiModel        string
	CompletionTimeout  time.Duration

	SegmentPolicy string

	LogLevel  string
	LogFormat string

	// Telegram Config (optional, enables day notifications)
	TelegramBotToken string
	TelegramChatID   int64

	// Unsplash Config (optional, enables food images)
	UnsplashAccessKey string
	UnsplashURL       string
}

// TelegramEnabled reports whether day notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

// ImagesEnabled reports whether food image lookup is configured.
func (c *Config) ImagesEnabled() bool {
	return c.UnsplashAccessKey != ""
}

// LoadDotEnv loads variables from the given .env files (default ".env") without
// overriding the ones already set. Missing files are ignored; a file that
// exists but cannot be read or parsed is an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	cfg := &Config{
		Port:               defaultPort,
		CompletionProvider: getEnv("COMPLETION_PROVIDER", ProviderOpenAI),
		OpenAIURL:          getEnv("OPENAI_API_URL", defaultOpenAIURL),
		OpenAIModel:        getEnv("OPENAI_MODEL", defaultOpenAIModel),
		GeminiModel:        getEnv("GEMINI_MODEL", defaultGeminiModel),
		CompletionTimeout:  defaultCompletionTimeout,
		SegmentPolicy:      getEnv("SEGMENT_POLICY", "corrected"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		UnsplashAccessKey:  os.Getenv("UNSPLASH_ACCESS_KEY"),
		UnsplashURL:        getEnv("UNSPLASH_API_URL", defaultUnsplashURL),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 {
			return nil, fmt.Errorf("invalid PORT %q", portStr)
		}
		cfg.Port = port
	}

	if timeoutStr := os.Getenv("COMPLETION_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil || timeout <= 0 {
			return nil, fmt.Errorf("invalid COMPLETION_TIMEOUT %q", timeoutStr)
		}
		cfg.CompletionTimeout = timeout
	}

	switch cfg.CompletionProvider {
	case ProviderOpenAI:
		cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.OpenAIAPIKey == "" {
			// Legacy name used by older deployments.
			cfg.OpenAIAPIKey = os.Getenv("APIkey")
		}
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case ProviderGemini:
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unknown COMPLETION_PROVIDER %q", cfg.CompletionProvider)
	}

	if chatIDStr := os.Getenv("TELEGRAM_CHAT_ID"); chatIDStr != "" {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q", chatIDStr)
		}
		cfg.TelegramChatID = chatID
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
