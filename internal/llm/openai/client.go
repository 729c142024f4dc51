package openai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/pocketomega/pocket-agent/internal/llm"
	openailib "github.com/sashabaranov/go-openai"
)

// Client implements llm.Generator using the OpenAI-compatible protocol.
// Works with any endpoint that supports the OpenAI chat completions API,
// and with Azure OpenAI deployments when Config.Azure is set.
type Client struct {
	client *openailib.Client
	config *Config
}

// GetConfig returns the client's configuration.
func (c *Client) GetConfig() *Config {
	return c.config
}

// NewClient creates a new OpenAI-compatible client.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var clientConfig openailib.ClientConfig
	if config.Azure {
		clientConfig = openailib.DefaultAzureConfig(config.APIKey, config.BaseURL)
		if config.APIVersion != "" {
			clientConfig.APIVersion = config.APIVersion
		}
		// Deployment names are used verbatim.
		clientConfig.AzureModelMapperFunc = func(model string) string { return model }
	} else {
		clientConfig = openailib.DefaultConfig(config.APIKey)
		if config.BaseURL != "" {
			clientConfig.BaseURL = config.BaseURL
		}
	}

	return &Client{
		client: openailib.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// NewClientFromEnv creates a client using environment variables.
func NewClientFromEnv() (*Client, error) {
	config, err := NewConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	return NewClient(config)
}

// NewGeneratorFromEnv returns the env-configured client, wrapped with
// llm.Prompted when LLM_STRUCTURED_MODE=prompt.
func NewGeneratorFromEnv() (llm.Generator, string, error) {
	c, err := NewClientFromEnv()
	if err != nil {
		return nil, "", err
	}
	if c.config.StructuredMode == StructuredPrompt {
		return llm.Prompted(c), c.GetName(), nil
	}
	return c, c.GetName(), nil
}

// Generate implements llm.Generator.
// A shaped request is sent with a json_schema response_format and the
// message content is returned as Result.Structured.
func (c *Client) Generate(ctx context.Context, req llm.Request) (llm.Result, error) {
	if strings.TrimSpace(req.User) == "" {
		return llm.Result{}, fmt.Errorf("no user prompt to send")
	}

	msgs := req.Messages()
	openaiMsgs := make([]openailib.ChatCompletionMessage, len(msgs))
	for i, msg := range msgs {
		openaiMsgs[i] = openailib.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	chatReq := openailib.ChatCompletionRequest{
		Model:    c.config.Model,
		Messages: openaiMsgs,
	}
	if c.config.Temperature != nil {
		chatReq.Temperature = *c.config.Temperature
	}
	if c.config.MaxTokens > 0 {
		chatReq.MaxTokens = c.config.MaxTokens
	}
	if req.Shape != nil {
		chatReq.ResponseFormat = &openailib.ChatCompletionResponseFormat{
			Type: openailib.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openailib.ChatCompletionResponseFormatJSONSchema{
				Name:   req.Shape.Name,
				Schema: req.Shape.Schema,
				Strict: true,
			},
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return llm.Result{}, fmt.Errorf("LLM call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return llm.Result{}, fmt.Errorf("no choices returned from LLM")
	}

	choice := resp.Choices[0].Message
	if choice.Refusal != "" {
		return llm.Result{}, fmt.Errorf("LLM refused: %s", choice.Refusal)
	}
	log.Printf("[LLM] %s: %d prompt / %d completion tokens", c.config.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	res := llm.Result{Content: choice.Content}
	if req.Shape != nil {
		res.Structured = []byte(choice.Content)
	}
	return res, nil
}

// GetName returns the provider name.
func (c *Client) GetName() string {
	if c.config.Azure {
		return fmt.Sprintf("azure-openai (%s)", c.config.Model)
	}
	return fmt.Sprintf("openai-compatible (%s)", c.config.Model)
}
