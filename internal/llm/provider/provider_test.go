package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"azure", "gemini", "ollama", "openai"}, Names())
}

func TestFromEnv_Unknown(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic-via-fax")
	_, _, err := FromEnv(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supported: azure, gemini, ollama, openai")
}

func TestFromEnv_Ollama(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "Ollama")
	t.Setenv("OLLAMA_HOST", "http://127.0.0.1:11434")
	t.Setenv("OLLAMA_MODEL", "qwen2.5")

	gen, name, err := FromEnv(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, gen)
	assert.Equal(t, "ollama (qwen2.5)", name)
}

func TestFromEnv_OpenAIPromptMode(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_API_KEY", "k")
	t.Setenv("LLM_MODEL", "gpt-4o-mini")
	t.Setenv("LLM_STRUCTURED_MODE", "prompt")

	gen, name, err := FromEnv(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, gen)
	assert.Equal(t, "openai-compatible (gpt-4o-mini)", name)
}
