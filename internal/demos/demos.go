// Package demos holds what the demo graphs share: their collaborators and
// payload narrowing.
package demos

import (
	"errors"
	"fmt"

	"github.com/pocketomega/pocket-agent/internal/console"
	"github.com/pocketomega/pocket-agent/internal/llm"
	"github.com/pocketomega/pocket-agent/internal/prompt"
)

// ErrPayload is returned when an action receives a payload of the wrong type.
var ErrPayload = errors.New("unexpected payload type")

// Deps are the collaborators every demo graph needs.
type Deps struct {
	LLM     llm.Generator
	IO      console.IO
	Prompts *prompt.Loader
}

// Validate reports a missing collaborator.
func (d Deps) Validate() error {
	switch {
	case d.LLM == nil:
		return errors.New("demos: LLM generator is required")
	case d.IO == nil:
		return errors.New("demos: console IO is required")
	case d.Prompts == nil:
		return errors.New("demos: prompt loader is required")
	}
	return nil
}

// Payload narrows an inter-action payload to T.
func Payload[T any](payload any) (T, error) {
	v, ok := payload.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: got %T, want %T", ErrPayload, payload, zero)
	}
	return v, nil
}
