// Package llmtest provides a scripted llm.Generator for tests.
package llmtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pocketomega/pocket-agent/internal/llm"
)

// Reply is one scripted response. Exactly one of Text, Value or Err is used:
// Err wins, then Value (marshalled into Result.Structured), otherwise Text.
type Reply struct {
	Text  string
	Value any
	Err   error
}

// Scripted replays queued replies in order and records every request.
type Scripted struct {
	mu       sync.Mutex
	replies  []Reply
	Requests []llm.Request
}

// New returns a Scripted generator with the given replies queued.
func New(replies ...Reply) *Scripted {
	return &Scripted{replies: replies}
}

// Text is shorthand for a free-text reply.
func Text(s string) Reply { return Reply{Text: s} }

// Value is shorthand for a structured reply.
func Value(v any) Reply { return Reply{Value: v} }

// Push queues more replies.
func (s *Scripted) Push(replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, replies...)
}

// Remaining reports how many replies have not been consumed.
func (s *Scripted) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.replies)
}

// Generate implements llm.Generator.
func (s *Scripted) Generate(_ context.Context, req llm.Request) (llm.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Requests = append(s.Requests, req)
	if len(s.replies) == 0 {
		return llm.Result{}, fmt.Errorf("llmtest: no scripted reply for request %d", len(s.Requests))
	}
	r := s.replies[0]
	s.replies = s.replies[1:]

	if r.Err != nil {
		return llm.Result{}, r.Err
	}
	if r.Value != nil {
		raw, err := json.Marshal(r.Value)
		if err != nil {
			return llm.Result{}, fmt.Errorf("llmtest: marshal reply: %w", err)
		}
		return llm.Result{Content: string(raw), Structured: raw}, nil
	}
	return llm.Result{Content: r.Text}, nil
}
