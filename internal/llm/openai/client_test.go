package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketomega/pocket-agent/internal/llm"
)

type capturedRequest struct {
	Path  string
	Query string
	Body  map[string]any
}

func newTestServer(t *testing.T, content string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Path = r.URL.Path
		captured.Query = r.URL.RawQuery
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured.Body))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerate_Text(t *testing.T) {
	var got capturedRequest
	srv := newTestServer(t, "What is the main issue?", &got)

	c, err := NewClient(&Config{APIKey: "k", BaseURL: srv.URL + "/v1", Model: "gpt-4o", StructuredMode: StructuredNative})
	require.NoError(t, err)

	res, err := c.Generate(context.Background(), llm.Request{User: "ask", System: "coach"})
	require.NoError(t, err)
	assert.Equal(t, "What is the main issue?", res.Content)
	assert.Nil(t, res.Structured)

	assert.Equal(t, "/v1/chat/completions", got.Path)
	msgs := got.Body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "ask", msgs[1].(map[string]any)["content"])
	assert.NotContains(t, got.Body, "response_format")
}

func TestGenerate_Shaped(t *testing.T) {
	var got capturedRequest
	srv := newTestServer(t, `{"type":"open"}`, &got)

	c, err := NewClient(&Config{APIKey: "k", BaseURL: srv.URL + "/v1", Model: "gpt-4o", StructuredMode: StructuredNative})
	require.NoError(t, err)

	shape := &llm.Shape{Name: "type_of_questioning", Schema: json.RawMessage(`{"type":"object"}`)}
	res, err := c.Generate(context.Background(), llm.Request{User: "decide", Shape: shape})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"open"}`, string(res.Structured))

	format := got.Body["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	schema := format["json_schema"].(map[string]any)
	assert.Equal(t, "type_of_questioning", schema["name"])
	assert.Equal(t, true, schema["strict"], "enums are only enforced in strict mode")
}

func TestGenerate_Azure(t *testing.T) {
	var got capturedRequest
	srv := newTestServer(t, "ok", &got)

	t.Setenv("LLM_PROVIDER", "azure")
	t.Setenv("LLM_API_KEY", "k")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("LLM_API_VERSION", "")
	t.Setenv("LLM_BASE_URL", srv.URL+"/openai/deployments/gpt-4o-testing/chat/completions?api-version=2024-08-01-preview")

	c, err := NewClientFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-testing", c.GetConfig().Model)
	assert.Equal(t, "2024-08-01-preview", c.GetConfig().APIVersion)

	_, err = c.Generate(context.Background(), llm.Request{User: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "/openai/deployments/gpt-4o-testing/chat/completions", got.Path)
	assert.Contains(t, got.Query, "api-version=2024-08-01-preview")
}

func TestGenerate_EmptyPrompt(t *testing.T) {
	c, err := NewClient(&Config{APIKey: "k", Model: "gpt-4o", StructuredMode: StructuredNative})
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), llm.Request{User: "  "})
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	hot := float32(3)
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{APIKey: "k", Model: "m", StructuredMode: StructuredNative}, false},
		{"missing key", Config{Model: "m", StructuredMode: StructuredNative}, true},
		{"missing model", Config{APIKey: "k", StructuredMode: StructuredNative}, true},
		{"bad temperature", Config{APIKey: "k", Model: "m", Temperature: &hot, StructuredMode: StructuredNative}, true},
		{"bad mode", Config{APIKey: "k", Model: "m", StructuredMode: "xml"}, true},
		{"azure without url", Config{APIKey: "k", Model: "m", Azure: true, StructuredMode: StructuredPrompt}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "fallback")
	t.Setenv("LLM_BASE_URL", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("LLM_STRUCTURED_MODE", "")

	cfg, err := NewConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "fallback", cfg.APIKey)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.BaseURL)
	assert.Equal(t, StructuredNative, cfg.StructuredMode)
	assert.False(t, cfg.Azure)
}
