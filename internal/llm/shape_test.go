package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketomega/pocket-agent/internal/llm"
	"github.com/pocketomega/pocket-agent/internal/llm/llmtest"
)

type nextAction struct {
	NextAction string `json:"next_action" enum:"ask_question,move_on,end_conversation"`
}

type venueDecision struct {
	Venues             []string `json:"venues"`
	MissingInformation string   `json:"missing_information" description:"empty when nothing is missing"`
}

func TestShapeOf(t *testing.T) {
	shape, err := llm.ShapeOf[nextAction]()
	require.NoError(t, err)
	assert.Equal(t, "next_action", shape.Name)

	var schema struct {
		Type       string `json:"type"`
		Properties map[string]struct {
			Type string   `json:"type"`
			Enum []string `json:"enum"`
		} `json:"properties"`
		Required []string `json:"required"`
	}
	require.NoError(t, json.Unmarshal(shape.Schema, &schema))
	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"ask_question", "move_on", "end_conversation"}, schema.Properties["next_action"].Enum)
	assert.Contains(t, schema.Required, "next_action")
}

func TestShapeOf_ArrayField(t *testing.T) {
	shape, err := llm.ShapeOf[venueDecision]()
	require.NoError(t, err)
	assert.Equal(t, "venue_decision", shape.Name)
	assert.Contains(t, string(shape.Schema), `"venues"`)
	assert.Contains(t, string(shape.Schema), `"array"`)
}

func TestGenerateInto(t *testing.T) {
	gen := llmtest.New(llmtest.Value(map[string]any{"next_action": "move_on"}))

	var out nextAction
	err := llm.GenerateInto(context.Background(), gen, "decide", "sys", &out)
	require.NoError(t, err)
	assert.Equal(t, "move_on", out.NextAction)

	require.Len(t, gen.Requests, 1)
	req := gen.Requests[0]
	assert.Equal(t, "decide", req.User)
	assert.Equal(t, "sys", req.System)
	require.NotNil(t, req.Shape)
	assert.Equal(t, "next_action", req.Shape.Name)
}

func TestGenerateInto_NoStructured(t *testing.T) {
	gen := llmtest.New(llmtest.Text("plain words"))

	var out nextAction
	err := llm.GenerateInto(context.Background(), gen, "decide", "", &out)
	assert.True(t, errors.Is(err, llm.ErrNoStructured), "err = %v", err)
}

func TestGenerateText_PropagatesError(t *testing.T) {
	boom := errors.New("network down")
	gen := llmtest.New(llmtest.Reply{Err: boom})

	_, err := llm.GenerateText(context.Background(), gen, "hi", "")
	assert.ErrorIs(t, err, boom)
}

func TestRequestMessages(t *testing.T) {
	msgs := llm.Request{User: "u"}.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, llm.RoleUser, msgs[0].Role)

	msgs = llm.Request{User: "u", System: "s"}.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, llm.Message{Role: llm.RoleSystem, Content: "s"}, msgs[0])
}
