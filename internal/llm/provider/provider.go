// Package provider selects the llm.Generator backend from LLM_PROVIDER.
package provider

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pocketomega/pocket-agent/internal/llm"
	"github.com/pocketomega/pocket-agent/internal/llm/gemini"
	"github.com/pocketomega/pocket-agent/internal/llm/ollama"
	"github.com/pocketomega/pocket-agent/internal/llm/openai"
)

// Factory builds a generator from the environment and returns its display name.
type Factory func(ctx context.Context) (llm.Generator, string, error)

var factories = map[string]Factory{
	"openai": openaiFactory,
	"azure":  openaiFactory,
	"gemini": func(ctx context.Context) (llm.Generator, string, error) {
		cfg, err := gemini.NewConfigFromEnv()
		if err != nil {
			return nil, "", err
		}
		c, err := gemini.NewClient(ctx, cfg)
		if err != nil {
			return nil, "", err
		}
		return c, c.GetName(), nil
	},
	"ollama": func(context.Context) (llm.Generator, string, error) {
		cfg, err := ollama.NewConfigFromEnv()
		if err != nil {
			return nil, "", err
		}
		c, err := ollama.NewClient(cfg, nil)
		if err != nil {
			return nil, "", err
		}
		return c, c.GetName(), nil
	},
}

func openaiFactory(context.Context) (llm.Generator, string, error) {
	return openai.NewGeneratorFromEnv()
}

// Names lists the supported LLM_PROVIDER values.
func Names() []string {
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FromEnv builds the generator named by LLM_PROVIDER (default "openai").
func FromEnv(ctx context.Context) (llm.Generator, string, error) {
	name := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER")))
	if name == "" {
		name = "openai"
	}
	f, ok := factories[name]
	if !ok {
		return nil, "", fmt.Errorf("unknown LLM_PROVIDER %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return f(ctx)
}
