package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("KNOWLEDGE_BASE_URL", "file:kb.db")
	t.Setenv("KNOWLEDGE_BASE_COLLECTION", "france_challenges")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("EMBEDDING_MODEL", "text-embedding-004")
	t.Setenv("OPENAI_API_KEY", "openai-key")
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadReportsEveryMissingVariable(t *testing.T) {
	for _, key := range required {
		t.Setenv(key, "")
	}
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	_, err := Load(noEnvFile(t))
	require.Error(t, err)

	var missing *MissingEnvError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{
		"KNOWLEDGE_BASE_URL",
		"KNOWLEDGE_BASE_COLLECTION",
		"EMBEDDING_MODEL",
		"OPENAI_API_KEY",
	}, missing.Keys)
	assert.Contains(t, err.Error(), "Missing required environment variable: OPENAI_API_KEY")
}

func TestLoadAppliesDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "gpt-4", cfg.ClassifierModel)
	assert.Equal(t, "gpt-4", cfg.KnowledgeBaseModel)
	assert.Equal(t, "gpt-4o-search-preview", cfg.WebSearchModel)
	assert.Equal(t, "file:kb.db", cfg.LedgerDatabaseURL)
	assert.Equal(t, 256, cfg.LedgerBuffer)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadHonoursOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("LEDGER_DATABASE_URL", "file:ledger.db")
	t.Setenv("WEB_SEARCH_MODEL", "gpt-4o-mini-search-preview")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "file:ledger.db", cfg.LedgerDatabaseURL)
	assert.Equal(t, "gpt-4o-mini-search-preview", cfg.WebSearchModel)
	assert.Equal(t, "9090", cfg.HTTPPort)
}
