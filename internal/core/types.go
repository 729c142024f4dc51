package core

import (
	"errors"
	"fmt"
	"strings"
)

// Identifier names an action in the graph. Identifiers are compared after
// lowercasing, so "Decide_Venue" and "decide_venue" resolve to the same handler.
type Identifier string

// Default start and end identifiers.
const (
	DefaultStart Identifier = "start"
	DefaultEnd   Identifier = "end"
)

// Normalize returns the lowercase form used as the handler mapping key.
func (id Identifier) Normalize() Identifier {
	return Identifier(strings.ToLower(string(id)))
}

func (id Identifier) String() string { return string(id) }

// State is the mutable record shared by every action of a single run.
// A fresh State is created by each Run; it is never shared across runs.
type State map[string]any

// Errors returned by the typed State accessors.
var (
	ErrMissingKey = errors.New("state key missing")
	ErrKeyType    = errors.New("state key has unexpected type")
)

// Lookup returns the value stored under key as a T.
// ok is false when the key is absent, nil, or holds another type.
func Lookup[T any](s State, key string) (T, bool) {
	v, ok := s[key].(T)
	return v, ok
}

// Require is like Lookup but reports why the value could not be read.
func Require[T any](s State, key string) (T, error) {
	var zero T
	raw, present := s[key]
	if !present {
		return zero, fmt.Errorf("%w: %q", ErrMissingKey, key)
	}
	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %T, want %T", ErrKeyType, key, raw, zero)
	}
	return v, nil
}

// Outcome reports why a run stopped.
type Outcome string

const (
	// OutcomeEnd means the end identifier was reached.
	OutcomeEnd Outcome = "end"
	// OutcomeUnknownTransition means an action returned an identifier with no
	// registered handler. Run treats this exactly like OutcomeEnd.
	OutcomeUnknownTransition Outcome = "unknown_transition"
)

// Result is the detailed return value of Agent.Execute.
type Result struct {
	State   State
	Outcome Outcome
	Last    Identifier // identifier that stopped the run
	Steps   int        // number of handler invocations
}
