package core_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/pocketomega/pocket-agent/internal/core"
)

// ── helpers ──

type recorder struct {
	calls []core.Identifier
}

func (r *recorder) handler(id, next core.Identifier) core.HandlerFunc {
	return func(_ context.Context, _ core.State, payload any) (core.Identifier, any, error) {
		r.calls = append(r.calls, id)
		return next, payload, nil
	}
}

// ── Register / dispatch ──

func TestRegister_DispatchInvokesRegisteredHandler(t *testing.T) {
	rec := &recorder{}
	a := core.New()
	a.Register("start", rec.handler("start", "x"))
	a.Register("x", rec.handler("x", "end"))

	if _, err := a.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []core.Identifier{"start", "x"}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("calls = %v, want %v", rec.calls, want)
	}
}

func TestRegister_ReturnsHandlerUnchanged(t *testing.T) {
	a := core.New()
	count := 0
	var h core.HandlerFunc = func(context.Context, core.State, any) (core.Identifier, any, error) {
		count++
		return "end", nil, nil
	}

	got := a.Register("start", h)
	if _, _, err := got.Handle(context.Background(), core.State{}, nil); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if count != 1 {
		t.Errorf("returned handler is not the registered one (count=%d)", count)
	}
}

func TestRegister_LastWriteWins(t *testing.T) {
	rec := &recorder{}
	a := core.New()
	a.Register("start", rec.handler("first", "end"))
	a.Register("START", rec.handler("second", "end"))

	if _, err := a.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rec.calls) != 1 || rec.calls[0] != "second" {
		t.Errorf("calls = %v, want [second]", rec.calls)
	}
	if n := len(a.Actions()); n != 1 {
		t.Errorf("expected 1 registered action, got %d", n)
	}
}

func TestDispatch_CaseInsensitive(t *testing.T) {
	rec := &recorder{}
	a := core.New()
	a.Register("start", rec.handler("start", "foo"))
	a.Register("Foo", rec.handler("Foo", "END"))

	res, err := a.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(rec.calls) != 2 {
		t.Errorf("expected Foo to be reached, calls = %v", rec.calls)
	}
	if res.Outcome != core.OutcomeEnd {
		t.Errorf("outcome = %q, want %q", res.Outcome, core.OutcomeEnd)
	}
}

// ── Run termination ──

func TestRun_UnregisteredStartReturnsEmptyState(t *testing.T) {
	rec := &recorder{}
	a := core.New()
	a.Register("other", rec.handler("other", "end"))

	state, err := a.Run(context.Background(), "ignored")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(state) != 0 {
		t.Errorf("state = %v, want empty", state)
	}
	if len(rec.calls) != 0 {
		t.Errorf("no handler should run, got %v", rec.calls)
	}
}

func TestRun_ImmediateEnd(t *testing.T) {
	a := core.New()
	a.RegisterFunc("start", func(context.Context, core.State, any) (core.Identifier, any, error) {
		return "end", nil, nil
	})

	state, err := a.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state == nil || len(state) != 0 {
		t.Errorf("state = %#v, want empty non-nil map", state)
	}
}

func TestRun_SingleActionMutationVisible(t *testing.T) {
	calls := 0
	a := core.New()
	a.RegisterFunc("start", func(_ context.Context, s core.State, p any) (core.Identifier, any, error) {
		return "a", p, nil
	})
	a.RegisterFunc("a", func(_ context.Context, s core.State, p any) (core.Identifier, any, error) {
		calls++
		s["seen"] = p
		return "end", p, nil
	})

	state, err := a.Run(context.Background(), 42)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 1 {
		t.Errorf("a invoked %d times, want 1", calls)
	}
	if state["seen"] != 42 {
		t.Errorf("state[seen] = %v, want 42", state["seen"])
	}
}

func TestRun_StartEqualsEndRunsNothing(t *testing.T) {
	rec := &recorder{}
	a := core.New(core.WithStart("Begin"), core.WithEnd("begin"))
	a.Register("begin", rec.handler("begin", "end"))

	res, err := a.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Steps != 0 || len(rec.calls) != 0 {
		t.Errorf("expected no invocations, got steps=%d calls=%v", res.Steps, rec.calls)
	}
}

func TestRun_LogScenario(t *testing.T) {
	a := core.New()
	a.RegisterFunc("start", func(_ context.Context, _ core.State, p any) (core.Identifier, any, error) {
		return "step", p, nil
	})
	a.RegisterFunc("step", func(_ context.Context, s core.State, p any) (core.Identifier, any, error) {
		s["log"] = []any{}
		s["log"] = append(s["log"].([]any), p)
		return "end", nil, nil
	})

	state, err := a.Run(context.Background(), "x")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := core.State{"log": []any{"x"}}
	if !reflect.DeepEqual(state, want) {
		t.Errorf("state = %#v, want %#v", state, want)
	}
}

func TestRun_UnknownSuccessorStopsSilently(t *testing.T) {
	rec := &recorder{}
	a := core.New()
	a.RegisterFunc("start", func(_ context.Context, s core.State, _ any) (core.Identifier, any, error) {
		s["before"] = true
		return "bogus", "lost", nil
	})
	a.Register("end", rec.handler("end", "end"))

	state, err := a.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run returned error for unknown successor: %v", err)
	}
	if state["before"] != true {
		t.Errorf("mutation before unknown successor missing: %v", state)
	}

	res, err := a.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Outcome != core.OutcomeUnknownTransition {
		t.Errorf("outcome = %q, want %q", res.Outcome, core.OutcomeUnknownTransition)
	}
	if res.Last != "bogus" || res.Steps != 1 {
		t.Errorf("last=%q steps=%d, want bogus/1", res.Last, res.Steps)
	}
}

func TestRun_CustomEndIdentifier(t *testing.T) {
	rec := &recorder{}
	a := core.New(core.WithStart("Init"), core.WithEnd("Done"))
	a.Register("init", rec.handler("init", "DONE"))
	a.Register("done", rec.handler("done", "init"))

	res, err := a.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Outcome != core.OutcomeEnd || len(rec.calls) != 1 {
		t.Errorf("outcome=%q calls=%v; the end handler must never run", res.Outcome, rec.calls)
	}
}

func TestRun_PayloadThreading(t *testing.T) {
	var seen []any
	a := core.New()
	a.RegisterFunc("start", func(_ context.Context, _ core.State, p any) (core.Identifier, any, error) {
		seen = append(seen, p)
		return "second", 2, nil
	})
	a.RegisterFunc("second", func(_ context.Context, _ core.State, p any) (core.Identifier, any, error) {
		seen = append(seen, p)
		return "end", nil, nil
	})

	if _, err := a.Run(context.Background(), 1); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(seen, []any{1, 2}) {
		t.Errorf("payloads = %v, want [1 2]", seen)
	}
}

// ── errors ──

func TestRun_HandlerErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	a := core.New()
	a.RegisterFunc("start", func(_ context.Context, s core.State, _ any) (core.Identifier, any, error) {
		s["partial"] = true
		return "", nil, boom
	})

	state, err := a.Run(context.Background(), nil)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
	if state != nil {
		t.Errorf("state should be nil on error, got %v", state)
	}
}

func TestRun_FreshStatePerRun(t *testing.T) {
	a := core.New()
	a.RegisterFunc("start", func(_ context.Context, s core.State, _ any) (core.Identifier, any, error) {
		n, _ := core.Lookup[int](s, "n")
		s["n"] = n + 1
		return "end", nil, nil
	})

	for i := 0; i < 3; i++ {
		state, err := a.Run(context.Background(), nil)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if state["n"] != 1 {
			t.Fatalf("run %d: n = %v, want 1", i, state["n"])
		}
	}
}

// ── hooks ──

func TestHooks_ObserveRun(t *testing.T) {
	var dispatched []core.Identifier
	var halted core.Outcome
	var haltSteps int

	rec := &recorder{}
	a := core.New(core.WithHooks(core.ChainHooks(
		core.Hooks{
			OnDispatch: func(_ context.Context, id core.Identifier, _ any) {
				dispatched = append(dispatched, id)
			},
		},
		core.Hooks{
			OnHalt: func(_ context.Context, o core.Outcome, _ core.Identifier, steps int) {
				halted, haltSteps = o, steps
			},
		},
	)))
	a.Register("start", rec.handler("start", "next"))
	a.Register("next", rec.handler("next", "nowhere"))

	if _, err := a.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(dispatched, []core.Identifier{"start", "next"}) {
		t.Errorf("dispatched = %v", dispatched)
	}
	if halted != core.OutcomeUnknownTransition || haltSteps != 2 {
		t.Errorf("halt = %q/%d, want unknown_transition/2", halted, haltSteps)
	}
}

func TestActions_Sorted(t *testing.T) {
	a := core.New()
	noop := core.HandlerFunc(func(context.Context, core.State, any) (core.Identifier, any, error) {
		return "end", nil, nil
	})
	a.Register("beta", noop)
	a.Register("Alpha", noop)

	got := a.Actions()
	want := []core.Identifier{"alpha", "beta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Actions() = %v, want %v", got, want)
	}
	if _, ok := a.Handler("ALPHA"); !ok {
		t.Error("Handler lookup should be case-insensitive")
	}
}
