package questioning

import "github.com/pocketomega/pocket-agent/internal/core"

// State keys.
const (
	keyHistory = "history" // []QA
	keySummary = "summary" // []string, one entry per phase
	keyPhase   = "phase"   // int, 0 before the first answer
)

// QA is one question asked and the operator's answer.
type QA struct {
	Question string
	Answer   string
}

// session is a typed view over the run state.
type session struct {
	History []QA
	Summary []string
	Phase   int
}

func loadSession(s core.State) (session, error) {
	history, err := core.Require[[]QA](s, keyHistory)
	if err != nil {
		return session{}, err
	}
	summary, err := core.Require[[]string](s, keySummary)
	if err != nil {
		return session{}, err
	}
	phase, err := core.Require[int](s, keyPhase)
	if err != nil {
		return session{}, err
	}
	return session{History: history, Summary: summary, Phase: phase}, nil
}

func (ss session) store(s core.State) {
	s[keyHistory] = ss.History
	s[keySummary] = ss.Summary
	s[keyPhase] = ss.Phase
}
