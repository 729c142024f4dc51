package main

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/pocketomega/pocket-agent/internal/core"
	"github.com/pocketomega/pocket-agent/internal/util"
)

// traceHooks log one line per dispatch and return. Each run gets a fresh id
// on its first dispatch so interleaved logs stay readable.
func traceHooks(graph string) core.Hooks {
	var runID string
	return core.Hooks{
		OnDispatch: func(_ context.Context, id core.Identifier, payload any) {
			if runID == "" {
				runID = uuid.NewString()[:8]
				log.Printf("[Agent] %s run %s started", graph, runID)
			}
			if payload != nil {
				log.Printf("[Agent] %s/%s → %s payload=%s", graph, runID, id, util.Preview(payload, 80))
			} else {
				log.Printf("[Agent] %s/%s → %s", graph, runID, id)
			}
		},
		OnReturn: func(_ context.Context, id, next core.Identifier, err error) {
			if err != nil {
				log.Printf("[Agent] %s/%s ✗ %s failed: %v", graph, runID, id, err)
				runID = ""
				return
			}
			log.Printf("[Agent] %s/%s ← %s next=%s", graph, runID, id, next)
		},
		OnHalt: func(_ context.Context, outcome core.Outcome, last core.Identifier, steps int) {
			if runID == "" {
				// Nothing was dispatched, e.g. the start action is not registered.
				runID = uuid.NewString()[:8]
			}
			log.Printf("[Agent] %s/%s halted: %s at %q after %d steps", graph, runID, outcome, last, steps)
			runID = ""
		},
	}
}
