package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/results_test")
	t.Setenv("GROQ_API_KEY", "gsk_test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLM.Model)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.LLM.BaseURL)
	assert.Equal(t, 1200, cfg.LLM.MaxTokens)
	assert.Equal(t, 0.6, cfg.LLM.Temperature)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, RetentionReplace, cfg.Results.Retention)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GROQ_API_KEY", "gsk_test")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadRejectsBadRetention(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/results_test")
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("RESULT_RETENTION", "forever")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RESULT_RETENTION")
}
