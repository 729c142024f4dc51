package core

import (
	"context"
	"fmt"
	"sort"
)

// Agent runs a graph of actions whose edges are chosen at runtime by the
// actions themselves. Register every action before calling Run; after that the
// handler mapping is read-only and one Agent may serve concurrent runs.
type Agent struct {
	start   Identifier
	end     Identifier
	actions map[Identifier]Handler
	hooks   Hooks
}

// Option configures an Agent.
type Option func(*Agent)

// WithStart sets the identifier the run begins at (default "start").
func WithStart(id Identifier) Option {
	return func(a *Agent) { a.start = id }
}

// WithEnd sets the identifier that stops the run (default "end").
func WithEnd(id Identifier) Option {
	return func(a *Agent) { a.end = id }
}

// WithHooks installs run observers.
func WithHooks(h Hooks) Option {
	return func(a *Agent) { a.hooks = h }
}

// New creates an Agent with an empty action mapping.
func New(opts ...Option) *Agent {
	a := &Agent{
		start:   DefaultStart,
		end:     DefaultEnd,
		actions: make(map[Identifier]Handler),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.start = a.start.Normalize()
	a.end = a.end.Normalize()
	return a
}

// Register associates id with h, replacing any earlier handler for the same
// normalized id, and returns h unchanged.
func (a *Agent) Register(id Identifier, h Handler) Handler {
	a.actions[id.Normalize()] = h
	return h
}

// RegisterFunc is Register for plain functions.
func (a *Agent) RegisterFunc(id Identifier, fn func(ctx context.Context, state State, payload any) (Identifier, any, error)) HandlerFunc {
	h := HandlerFunc(fn)
	a.Register(id, h)
	return h
}

// Handler returns the handler registered for id.
func (a *Agent) Handler(id Identifier) (Handler, bool) {
	h, ok := a.actions[id.Normalize()]
	return h, ok
}

// Actions returns the registered identifiers in sorted order.
func (a *Agent) Actions() []Identifier {
	ids := make([]Identifier, 0, len(a.actions))
	for id := range a.actions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Start returns the normalized start identifier.
func (a *Agent) Start() Identifier { return a.start }

// End returns the normalized end identifier.
func (a *Agent) End() Identifier { return a.end }

// Run executes the graph from the start identifier and returns the final
// state. Reaching the end identifier and reaching an unregistered identifier
// both end the run normally. A handler error aborts the run and no state is
// returned.
func (a *Agent) Run(ctx context.Context, payload any) (State, error) {
	res, err := a.Execute(ctx, payload)
	if err != nil {
		return nil, err
	}
	return res.State, nil
}

// Execute is Run with the reason for stopping reported in the Result.
func (a *Agent) Execute(ctx context.Context, payload any) (Result, error) {
	state := State{}
	current := a.start
	steps := 0

	for current != a.end {
		h, ok := a.actions[current]
		if !ok {
			a.halt(ctx, OutcomeUnknownTransition, current, steps)
			return Result{State: state, Outcome: OutcomeUnknownTransition, Last: current, Steps: steps}, nil
		}

		if a.hooks.OnDispatch != nil {
			a.hooks.OnDispatch(ctx, current, payload)
		}
		next, nextPayload, err := h.Handle(ctx, state, payload)
		steps++
		if a.hooks.OnReturn != nil {
			a.hooks.OnReturn(ctx, current, next.Normalize(), err)
		}
		if err != nil {
			return Result{}, fmt.Errorf("action %q: %w", current, err)
		}

		current, payload = next.Normalize(), nextPayload
	}

	a.halt(ctx, OutcomeEnd, current, steps)
	return Result{State: state, Outcome: OutcomeEnd, Last: current, Steps: steps}, nil
}

func (a *Agent) halt(ctx context.Context, outcome Outcome, last Identifier, steps int) {
	if a.hooks.OnHalt != nil {
		a.hooks.OnHalt(ctx, outcome, last, steps)
	}
}

// ChainHooks combines several Hooks; each event is delivered in order.
func ChainHooks(hooks ...Hooks) Hooks {
	return Hooks{
		OnDispatch: func(ctx context.Context, id Identifier, payload any) {
			for _, h := range hooks {
				if h.OnDispatch != nil {
					h.OnDispatch(ctx, id, payload)
				}
			}
		},
		OnReturn: func(ctx context.Context, id, next Identifier, err error) {
			for _, h := range hooks {
				if h.OnReturn != nil {
					h.OnReturn(ctx, id, next, err)
				}
			}
		},
		OnHalt: func(ctx context.Context, outcome Outcome, last Identifier, steps int) {
			for _, h := range hooks {
				if h.OnHalt != nil {
					h.OnHalt(ctx, outcome, last, steps)
				}
			}
		},
	}
}
