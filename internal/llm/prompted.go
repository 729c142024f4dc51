package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"gopkg.in/yaml.v3"
)

// Prompted wraps a Generator so that shaped requests are answered through
// prompt instructions instead of a native structured-output API. The schema is
// embedded in the user prompt, the model replies with a fenced YAML block, and
// the block is converted to JSON for Result.Structured.
//
// Useful for OpenAI-compatible gateways that reject response_format.
func Prompted(inner Generator) Generator {
	return GeneratorFunc(func(ctx context.Context, req Request) (Result, error) {
		if req.Shape == nil {
			return inner.Generate(ctx, req)
		}
		shape := req.Shape
		req.Shape = nil
		req.User = req.User + "\n\n" + shapeInstructions(shape)

		res, err := inner.Generate(ctx, req)
		if err != nil {
			return Result{}, err
		}
		structured, err := decodeBlock(res.Content)
		if err != nil {
			return Result{}, fmt.Errorf("llm: parse %s: %w", shape.Name, err)
		}
		res.Structured = structured
		return res, nil
	})
}

func shapeInstructions(shape *Shape) string {
	var sb strings.Builder
	sb.WriteString("Respond only with a ```yaml code block containing a single object that matches this JSON schema")
	if shape.Name != "" {
		sb.WriteString(" (" + shape.Name + ")")
	}
	sb.WriteString(":\n")
	sb.Write(shape.Schema)
	sb.WriteString("\nUse null for values that are unknown.")
	return sb.String()
}

// decodeBlock parses the first fenced block (or the whole content) as YAML.
// JSON is valid YAML, so models that answer in JSON are accepted as well.
func decodeBlock(content string) (json.RawMessage, error) {
	body, err := extractBlock(content)
	if err != nil {
		log.Printf("[LLM] %v; parsing whole response", err)
		body = strings.TrimSpace(content)
	}

	var v map[string]any
	if err := yaml.Unmarshal([]byte(body), &v); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}
	if v == nil {
		return nil, fmt.Errorf("empty structured response")
	}
	return json.Marshal(v)
}

// extractBlock returns the content of a ```yaml, ```json or bare ``` block.
// Returns an error only when an opening fence has no closing fence.
func extractBlock(content string) (string, error) {
	for _, fence := range []string{"```yaml", "```json", "```"} {
		idx := strings.Index(content, fence)
		if idx < 0 {
			continue
		}
		rest := content[idx+len(fence):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end]), nil
		}
		return "", fmt.Errorf("unclosed %s code block", fence)
	}
	return strings.TrimSpace(content), nil
}
