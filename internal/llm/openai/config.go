package openai

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Structured output modes.
const (
	StructuredNative = "native" // response_format json_schema
	StructuredPrompt = "prompt" // schema in the prompt, fenced YAML reply
)

// Config holds OpenAI-compatible LLM configuration.
type Config struct {
	APIKey         string   // API key for authentication
	BaseURL        string   // Base URL (default: https://api.openai.com/v1)
	Model          string   // Model or Azure deployment name (default: gpt-4o)
	Azure          bool     // Use Azure OpenAI authentication and URL layout
	APIVersion     string   // Azure api-version
	Temperature    *float32 // Response creativity 0.0-2.0 (nil = API default)
	MaxTokens      int      // Max tokens in response, 0 = no limit
	StructuredMode string   // "native" or "prompt" (default: "native")
}

// NewConfigFromEnv creates Config from environment variables.
// Expected env vars: LLM_PROVIDER, LLM_API_KEY, LLM_BASE_URL, LLM_MODEL,
// LLM_API_VERSION, LLM_TEMPERATURE, LLM_MAX_TOKENS, LLM_STRUCTURED_MODE.
//
// OPENAI_API_KEY is accepted when LLM_API_KEY is unset.
func NewConfigFromEnv() (*Config, error) {
	config := &Config{
		APIKey:         getEnvOrDefault("LLM_API_KEY", os.Getenv("OPENAI_API_KEY")),
		BaseURL:        getEnvOrDefault("LLM_BASE_URL", "https://api.openai.com/v1"),
		Model:          getEnvOrDefault("LLM_MODEL", ""),
		Azure:          strings.EqualFold(os.Getenv("LLM_PROVIDER"), "azure"),
		APIVersion:     getEnvOrDefault("LLM_API_VERSION", ""),
		Temperature:    getEnvFloat32Ptr("LLM_TEMPERATURE"),
		MaxTokens:      getEnvIntOrDefault("LLM_MAX_TOKENS", 0),
		StructuredMode: getEnvOrDefault("LLM_STRUCTURED_MODE", StructuredNative),
	}
	if config.Azure {
		config.applyAzureURL()
	}
	if config.Model == "" {
		config.Model = "gpt-4o"
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyAzureURL accepts a full Azure chat-completions URL such as
//
//	https://res.openai.azure.com/openai/deployments/gpt-4o/chat/completions?api-version=2024-08-01-preview
//
// and splits it into resource endpoint, deployment and api-version. Fields
// set explicitly through the environment take precedence.
func (c *Config) applyAzureURL() {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" {
		return
	}
	if v := u.Query().Get("api-version"); v != "" && c.APIVersion == "" {
		c.APIVersion = v
	}
	if rest, ok := strings.CutPrefix(u.Path, "/openai/deployments/"); ok {
		if deployment, _, _ := strings.Cut(rest, "/"); deployment != "" && c.Model == "" {
			c.Model = deployment
		}
	}
	c.BaseURL = u.Scheme + "://" + u.Host
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required. Set it in .env or environment")
	}
	if c.Model == "" {
		return fmt.Errorf("LLM_MODEL cannot be empty")
	}
	if c.Azure && c.BaseURL == "" {
		return fmt.Errorf("LLM_BASE_URL is required for azure")
	}
	if c.Temperature != nil && (*c.Temperature < 0.0 || *c.Temperature > 2.0) {
		return fmt.Errorf("LLM_TEMPERATURE must be between 0.0 and 2.0, got %f", *c.Temperature)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("LLM_MAX_TOKENS cannot be negative, got %d", c.MaxTokens)
	}
	if c.StructuredMode != StructuredNative && c.StructuredMode != StructuredPrompt {
		return fmt.Errorf("LLM_STRUCTURED_MODE must be 'native' or 'prompt', got %q", c.StructuredMode)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvFloat32Ptr(key string) *float32 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			f := float32(parsed)
			return &f
		}
	}
	return nil
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}
