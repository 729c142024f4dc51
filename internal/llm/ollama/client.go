// Package ollama implements llm.Generator against a local Ollama server.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/pocketomega/pocket-agent/internal/llm"
)

// Config holds Ollama configuration.
type Config struct {
	Host  string // OLLAMA_HOST (default: http://127.0.0.1:11434)
	Model string // OLLAMA_MODEL (default: llama3.1)
}

// NewConfigFromEnv reads OLLAMA_HOST and OLLAMA_MODEL.
func NewConfigFromEnv() (*Config, error) {
	cfg := &Config{
		Host:  os.Getenv("OLLAMA_HOST"),
		Model: os.Getenv("OLLAMA_MODEL"),
	}
	if cfg.Host == "" {
		cfg.Host = "http://127.0.0.1:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.1"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Host)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("OLLAMA_HOST must be an absolute URL, got %q", c.Host)
	}
	if c.Model == "" {
		return fmt.Errorf("OLLAMA_MODEL cannot be empty")
	}
	return nil
}

// Client implements llm.Generator for Ollama's chat endpoint.
type Client struct {
	client *api.Client
	model  string
}

// NewClient creates an Ollama client. httpClient may be nil.
func NewClient(cfg *Config, httpClient *http.Client) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	u, _ := url.Parse(cfg.Host)
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{client: api.NewClient(u, httpClient), model: cfg.Model}, nil
}

// GetName returns the provider name.
func (c *Client) GetName() string {
	return fmt.Sprintf("ollama (%s)", c.model)
}

// Generate implements llm.Generator. Shaped requests pass the schema as the
// chat request's format so the model is constrained to it.
func (c *Client) Generate(ctx context.Context, req llm.Request) (llm.Result, error) {
	msgs := req.Messages()
	apiMsgs := make([]api.Message, len(msgs))
	for i, m := range msgs {
		apiMsgs[i] = api.Message{Role: m.Role, Content: m.Content}
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    c.model,
		Messages: apiMsgs,
		Stream:   &stream,
	}
	if req.Shape != nil {
		chatReq.Format = json.RawMessage(req.Shape.Schema)
	}

	var sb strings.Builder
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		if resp.Done {
			log.Printf("[Ollama] %s: %d prompt / %d eval tokens", c.model, resp.PromptEvalCount, resp.EvalCount)
		}
		return nil
	})
	if err != nil {
		return llm.Result{}, fmt.Errorf("ollama call failed: %w", err)
	}

	res := llm.Result{Content: sb.String()}
	if req.Shape != nil {
		res.Structured = json.RawMessage(strings.TrimSpace(res.Content))
	}
	return res, nil
}
