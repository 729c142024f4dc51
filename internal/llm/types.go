package llm

import (
	"context"
	"encoding/json"
)

// Message represents a chat message for LLM communication.
type Message struct {
	Role    string `json:"role"`    // "user", "assistant", "system"
	Content string `json:"content"` // The message text
}

// Role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Shape describes the structure a response must follow.
// Schema is a JSON Schema document for a single object.
type Shape struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
}

// Request is a single generation call.
type Request struct {
	User   string // required
	System string // optional system prompt
	Shape  *Shape // optional; nil requests free text
}

// Result carries the model output. Content is always the raw text the model
// returned; Structured is set when the request carried a Shape.
type Result struct {
	Content    string
	Structured json.RawMessage
}

// Generator produces responses for prompts. Implementations exist for
// OpenAI-compatible endpoints (including Azure), Gemini and Ollama.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (Result, error)

// Generate calls f(ctx, req).
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}

// Messages converts a Request into the system/user message list every
// chat-style provider expects. The system message is omitted when empty.
func (r Request) Messages() []Message {
	msgs := make([]Message, 0, 2)
	if r.System != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: r.System})
	}
	return append(msgs, Message{Role: RoleUser, Content: r.User})
}
