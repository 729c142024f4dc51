package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("GEMINI_MODEL", "")

	cfg, err := NewConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", cfg.Model)
}

func TestNewConfigFromEnv_MissingKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, err := NewConfigFromEnv()
	assert.Error(t, err)
}
