package core

import "context"

// Handler is a single action of the graph.
//
// Handle receives the run's shared state and the payload produced by the
// previous action, and returns the identifier of the next action together
// with the payload for it. A non-nil error aborts the run.
type Handler interface {
	Handle(ctx context.Context, state State, payload any) (Identifier, any, error)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, state State, payload any) (Identifier, any, error)

// Handle calls f(ctx, state, payload).
func (f HandlerFunc) Handle(ctx context.Context, state State, payload any) (Identifier, any, error) {
	return f(ctx, state, payload)
}

// Hooks observe a run without influencing it. Nil fields are skipped.
type Hooks struct {
	// OnDispatch fires before a handler is invoked.
	OnDispatch func(ctx context.Context, id Identifier, payload any)
	// OnReturn fires after a handler returns, with its error if any.
	OnReturn func(ctx context.Context, id Identifier, next Identifier, err error)
	// OnHalt fires once when the loop stops without a handler error.
	OnHalt func(ctx context.Context, outcome Outcome, last Identifier, steps int)
}
