// Package gemini implements llm.Generator on top of the Google GenAI SDK.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"google.golang.org/genai"

	"github.com/pocketomega/pocket-agent/internal/llm"
)

// Config holds Gemini configuration.
type Config struct {
	APIKey string // GEMINI_API_KEY
	Model  string // GEMINI_MODEL (default: gemini-2.5-flash)
}

// NewConfigFromEnv reads GEMINI_API_KEY and GEMINI_MODEL.
func NewConfigFromEnv() (*Config, error) {
	cfg := &Config{
		APIKey: os.Getenv("GEMINI_API_KEY"),
		Model:  os.Getenv("GEMINI_MODEL"),
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required. Set it in .env or environment")
	}
	if c.Model == "" {
		return fmt.Errorf("GEMINI_MODEL cannot be empty")
	}
	return nil
}

// Client implements llm.Generator for the Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini client.
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{client: client, model: cfg.Model}, nil
}

// GetName returns the provider name.
func (c *Client) GetName() string {
	return fmt.Sprintf("gemini (%s)", c.model)
}

// Generate implements llm.Generator. Shaped requests use a JSON response
// MIME type with the shape's schema.
func (c *Client) Generate(ctx context.Context, req llm.Request) (llm.Result, error) {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.Shape != nil {
		var schema any
		if err := json.Unmarshal(req.Shape.Schema, &schema); err != nil {
			return llm.Result{}, fmt.Errorf("gemini: decode schema %s: %w", req.Shape.Name, err)
		}
		config.ResponseMIMEType = "application/json"
		config.ResponseJsonSchema = schema
	}

	contents := []*genai.Content{{
		Role:  string(genai.RoleUser),
		Parts: []*genai.Part{{Text: req.User}},
	}}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return llm.Result{}, fmt.Errorf("gemini call failed: %w", err)
	}
	text := resp.Text()
	if resp.UsageMetadata != nil {
		log.Printf("[Gemini] %s: %d prompt / %d candidate tokens", c.model,
			resp.UsageMetadata.PromptTokenCount, resp.UsageMetadata.CandidatesTokenCount)
	}

	res := llm.Result{Content: text}
	if req.Shape != nil {
		if text == "" {
			return llm.Result{}, fmt.Errorf("gemini: empty response for %s", req.Shape.Name)
		}
		res.Structured = json.RawMessage(text)
	}
	return res, nil
}
