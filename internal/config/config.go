package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort string
	Log      LogConfig

	KnowledgeBaseURL        string
	KnowledgeBaseCollection string
	LedgerDatabaseURL       string
	LedgerBuffer            int

	GeminiAPIKey    string
	EmbeddingModel  string
	TokenCountModel string

	OpenAIAPIKey  string
	OpenAIBaseURL string

	ClassifierModel    string
	KnowledgeBaseModel string
	WebSearchModel     string
}

type LogConfig struct {
	Level  string
	Format string
}

// required lists the variables that must be present, in the order they are reported.
var required = []string{
	"KNOWLEDGE_BASE_URL",
	"KNOWLEDGE_BASE_COLLECTION",
	"GEMINI_API_KEY",
	"EMBEDDING_MODEL",
	"OPENAI_API_KEY",
}

// MissingEnvError reports every required variable that was unset or empty.
type MissingEnvError struct {
	Keys []string
}

func (e *MissingEnvError) Error() string {
	lines := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		lines[i] = "Missing required environment variable: " + k
	}
	return strings.Join(lines, "\n")
}

// Load reads .env files (if any) and the process environment, then validates the result.
// With no arguments it tries ./.env.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Debug().Err(err).Msg("no .env file found, relying on environment variables")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	var missing []string
	for _, key := range required {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingEnvError{Keys: missing}
	}

	cfg := &Config{
		HTTPPort: v.GetString("HTTP_PORT"),
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		KnowledgeBaseURL:        v.GetString("KNOWLEDGE_BASE_URL"),
		KnowledgeBaseCollection: v.GetString("KNOWLEDGE_BASE_COLLECTION"),
		LedgerDatabaseURL:       v.GetString("LEDGER_DATABASE_URL"),
		LedgerBuffer:            v.GetInt("LEDGER_BUFFER"),
		GeminiAPIKey:            v.GetString("GEMINI_API_KEY"),
		EmbeddingModel:          v.GetString("EMBEDDING_MODEL"),
		TokenCountModel:         v.GetString("TOKEN_COUNT_MODEL"),
		OpenAIAPIKey:            v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:           v.GetString("OPENAI_BASE_URL"),
		ClassifierModel:         v.GetString("CLASSIFIER_MODEL"),
		KnowledgeBaseModel:      v.GetString("KNOWLEDGE_BASE_MODEL"),
		WebSearchModel:          v.GetString("WEB_SEARCH_MODEL"),
	}
	if cfg.LedgerDatabaseURL == "" {
		cfg.LedgerDatabaseURL = cfg.KnowledgeBaseURL
	}
	if cfg.LedgerBuffer <= 0 {
		return nil, fmt.Errorf("LEDGER_BUFFER must be positive, got %d", cfg.LedgerBuffer)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LEDGER_BUFFER", 256)
	v.SetDefault("TOKEN_COUNT_MODEL", "gemini-1.5-flash")
	v.SetDefault("CLASSIFIER_MODEL", "gpt-4")
	v.SetDefault("KNOWLEDGE_BASE_MODEL", "gpt-4")
	v.SetDefault("WEB_SEARCH_MODEL", "gpt-4o-search-preview")
}
