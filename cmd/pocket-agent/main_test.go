package main

import (
	"bytes"
	"context"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketomega/pocket-agent/internal/console"
	"github.com/pocketomega/pocket-agent/internal/core"
)

func TestRunMenu_InvalidChoice(t *testing.T) {
	for _, input := range []string{"4\n", "planner\n", ""} {
		var out bytes.Buffer
		err := runMenu(context.Background(), console.New(strings.NewReader(input), &out))
		require.NoError(t, err)
		assert.Contains(t, out.String(), "1. A Function Planner Agent\n")
		assert.Contains(t, out.String(), "3. Ask a Question about a Book (Alice in Wonderland)\n")
		assert.Contains(t, out.String(), "Invalid choice. Please enter 1, 2, or 3.")
	}
}

func TestDemoByChoice(t *testing.T) {
	d, ok := demoByChoice("2")
	require.True(t, ok)
	assert.Equal(t, "questioning", d.Name)
	_, ok = demoByChoice("0")
	assert.False(t, ok)
}

func TestPrintGraph(t *testing.T) {
	t.Setenv("WEATHER_MCP_CONFIG", "")
	tests := []struct {
		demo  string
		wants []string
	}{
		{"planner", []string{"* start", "choose_next_step", "get_weather", "send_invitations"}},
		{"questioning", []string{"ask_deflective_question", "decide_next_action", "end_conversation"}},
		{"book", []string{"fabricate_excerpts", "search_text", "answer_question"}},
	}
	for _, tt := range tests {
		t.Run(tt.demo, func(t *testing.T) {
			d, ok := demoNamed(tt.demo)
			require.True(t, ok)
			var out bytes.Buffer
			require.NoError(t, printGraph(context.Background(), &out, d))
			assert.Contains(t, out.String(), tt.demo+" (start=start, end=end)")
			for _, w := range tt.wants {
				assert.Contains(t, out.String(), w)
			}
		})
	}
}

func TestGraphCmd_UnknownDemo(t *testing.T) {
	err := graphCmd.RunE(graphCmd, []string{"chess"})
	assert.ErrorContains(t, err, "unknown demo")
}

func TestTraceHooks(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	a := core.New(core.WithHooks(traceHooks("demo")))
	a.RegisterFunc("start", func(context.Context, core.State, any) (core.Identifier, any, error) {
		return "end", nil, nil
	})
	_, err := a.Run(context.Background(), "seed")
	require.NoError(t, err)

	got := logs.String()
	assert.Contains(t, got, "[Agent] demo run ")
	assert.Contains(t, got, "→ start payload=seed")
	assert.Contains(t, got, "halted: end at \"end\" after 1 steps")
}

func TestTraceHooks_HaltWithoutDispatch(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	a := core.New(core.WithHooks(traceHooks("demo")))
	res, err := a.Execute(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, core.OutcomeUnknownTransition, res.Outcome)

	got := logs.String()
	assert.NotContains(t, got, "demo/ halted")
	assert.Regexp(t, `demo/[0-9a-f]{8} halted: `, got)
}
