package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// ErrNoStructured is returned when a shaped request produced no structured output.
var ErrNoStructured = errors.New("llm: response carried no structured output")

// ShapeOf derives a Shape from the JSON tags of T.
// Field descriptions come from `description:"..."` tags and enums from
// `enum:"a,b"` tags, following go-openai's jsonschema conventions.
func ShapeOf[T any]() (*Shape, error) {
	var zero T
	def, err := jsonschema.GenerateSchemaForType(zero)
	if err != nil {
		return nil, fmt.Errorf("llm: generate schema: %w", err)
	}
	raw, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("llm: marshal schema: %w", err)
	}
	return &Shape{Name: shapeName(reflect.TypeOf(zero)), Schema: raw}, nil
}

// shapeName converts a Go type name into the snake_case schema name that
// OpenAI accepts (letters, digits, underscores and dashes only).
func shapeName(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "response"
	}
	var sb strings.Builder
	for i, r := range t.Name() {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				sb.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// GenerateInto sends a shaped request built from T and decodes the
// structured result into out.
func GenerateInto[T any](ctx context.Context, g Generator, user, system string, out *T) error {
	shape, err := ShapeOf[T]()
	if err != nil {
		return err
	}
	res, err := g.Generate(ctx, Request{User: user, System: system, Shape: shape})
	if err != nil {
		return err
	}
	if len(res.Structured) == 0 {
		return fmt.Errorf("%w (shape %s)", ErrNoStructured, shape.Name)
	}
	if err := json.Unmarshal(res.Structured, out); err != nil {
		return fmt.Errorf("llm: decode %s: %w", shape.Name, err)
	}
	return nil
}

// GenerateText sends an unshaped request and returns the text content.
func GenerateText(ctx context.Context, g Generator, user, system string) (string, error) {
	res, err := g.Generate(ctx, Request{User: user, System: system})
	if err != nil {
		return "", err
	}
	return res.Content, nil
}
