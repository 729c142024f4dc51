// Package questioning is the effective-questioning coach: a dialogue that
// helps the operator think through a problem in four phases of questions.
package questioning

import (
	"context"
	"strings"

	"github.com/pocketomega/pocket-agent/internal/core"
	"github.com/pocketomega/pocket-agent/internal/demos"
	"github.com/pocketomega/pocket-agent/internal/llm"
	"github.com/pocketomega/pocket-agent/internal/prompt"
)

// Action identifiers.
const (
	ActionDecideQuestioning      core.Identifier = "decide_questioning"
	ActionReceiveAnswer          core.Identifier = "receive_answer"
	ActionConsolidateInformation core.Identifier = "consolidate_information"
	ActionDecideNextAction       core.Identifier = "decide_next_action"
	ActionEndConversation        core.Identifier = "end_conversation"
)

// TypeOfQuestioning is the structured reply of decide_questioning.
type TypeOfQuestioning struct {
	Type string `json:"type" enum:"open,probing,hypothetical,reflective,leading,closing,deflective"`
}

// NextAction is the structured reply of decide_next_action.
type NextAction struct {
	NextAction string `json:"next_action" enum:"ask_question,move_on,end_conversation"`
}

// askAction returns the identifier of the ask action for a questioning type.
func askAction(questionType string) core.Identifier {
	return core.Identifier("ask_" + questionType + "_question")
}

type graph struct {
	demos.Deps
}

// New builds the questioning graph.
func New(deps demos.Deps, opts ...core.Option) (*core.Agent, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	g := &graph{Deps: deps}

	a := core.New(opts...)
	a.RegisterFunc(core.DefaultStart, g.start)
	a.RegisterFunc(ActionDecideQuestioning, g.decideQuestioning)
	for _, k := range kinds {
		a.RegisterFunc(askAction(k.Type), g.ask(k))
	}
	a.RegisterFunc(ActionReceiveAnswer, g.receiveAnswer)
	a.RegisterFunc(ActionConsolidateInformation, g.consolidateInformation)
	a.RegisterFunc(ActionDecideNextAction, g.decideNextAction)
	a.RegisterFunc(ActionEndConversation, g.endConversation)
	return a, nil
}

func (g *graph) system() string { return g.Prompts.Load(prompt.QuestioningSystem) }

func (g *graph) start(_ context.Context, state core.State, _ any) (core.Identifier, any, error) {
	g.IO.Thought("Let's start")
	session{History: []QA{}, Summary: []string{}, Phase: 0}.store(state)
	return ActionDecideQuestioning, nil, nil
}

func (g *graph) decideQuestioning(ctx context.Context, state core.State, _ any) (core.Identifier, any, error) {
	g.IO.Thought("Deciding on the type of questioning to use")
	ss, err := loadSession(state)
	if err != nil {
		return "", nil, err
	}

	var reply TypeOfQuestioning
	if err := llm.GenerateInto(ctx, g.LLM, decideQuestioningPrompt(ss), g.system(), &reply); err != nil {
		return "", nil, err
	}
	return askAction(reply.Type), nil, nil
}

func (g *graph) ask(k questionKind) core.HandlerFunc {
	article := "a"
	if strings.ContainsAny(k.Type[:1], "aeiou") {
		article = "an"
	}
	return func(ctx context.Context, state core.State, _ any) (core.Identifier, any, error) {
		g.IO.Thought("Asking %s %s question", article, k.Type)
		ss, err := loadSession(state)
		if err != nil {
			return "", nil, err
		}

		text, err := llm.GenerateText(ctx, g.LLM, askPrompt(k, ss), g.system())
		if err != nil {
			return "", nil, err
		}
		return ActionReceiveAnswer, strings.TrimSpace(text), nil
	}
}

func (g *graph) receiveAnswer(_ context.Context, _ core.State, payload any) (core.Identifier, any, error) {
	g.IO.Thought("Receive input from the user")
	question, err := demos.Payload[string](payload)
	if err != nil {
		return "", nil, err
	}

	g.IO.Println()
	g.IO.Println(question)
	answer, err := g.IO.PromptLine("> ")
	if err != nil {
		return "", nil, err
	}
	g.IO.Println()

	return ActionConsolidateInformation, QA{Question: question, Answer: answer}, nil
}

func (g *graph) consolidateInformation(ctx context.Context, state core.State, payload any) (core.Identifier, any, error) {
	qa, err := demos.Payload[QA](payload)
	if err != nil {
		return "", nil, err
	}
	ss, err := loadSession(state)
	if err != nil {
		return "", nil, err
	}
	g.IO.Thought("Consolidating the information gathered (phase %d)", ss.Phase)

	if ss.Phase == 0 {
		ss.Phase = 1
	}
	ss.History = append(ss.History, qa)
	ss.store(state)

	text, err := llm.GenerateText(ctx, g.LLM, consolidatePrompt(ss), g.Prompts.Load(prompt.QuestioningConsolidate))
	if err != nil {
		return "", nil, err
	}
	summary := strings.TrimSpace(removeTags(text))

	g.IO.Thought("Summary for phase %d:", ss.Phase)
	g.IO.Println(summary)
	g.IO.Println()

	if len(ss.Summary) < ss.Phase {
		ss.Summary = append(ss.Summary, summary)
	} else {
		ss.Summary[ss.Phase-1] = summary
	}
	ss.store(state)

	return ActionDecideNextAction, nil, nil
}

func (g *graph) decideNextAction(ctx context.Context, state core.State, _ any) (core.Identifier, any, error) {
	g.IO.Thought("Deciding on the next action")
	ss, err := loadSession(state)
	if err != nil {
		return "", nil, err
	}

	var reply NextAction
	if err := llm.GenerateInto(ctx, g.LLM, decideNextActionPrompt(ss), g.system(), &reply); err != nil {
		return "", nil, err
	}

	switch reply.NextAction {
	case "ask_question":
		return ActionDecideQuestioning, nil, nil
	case "move_on":
		ss.Phase++
		ss.store(state)
		return ActionDecideQuestioning, nil, nil
	case "end_conversation":
		return ActionEndConversation, nil, nil
	}
	// Anything else has no handler and stops the run.
	return core.Identifier(reply.NextAction), nil, nil
}

func (g *graph) endConversation(_ context.Context, state core.State, _ any) (core.Identifier, any, error) {
	g.IO.Thought("Ending the conversation")
	ss, err := loadSession(state)
	if err != nil {
		return "", nil, err
	}

	g.IO.Println()
	g.IO.Println("The conversation has ended.")
	g.IO.Println("The following is a summary of the conversation:")
	g.IO.Println()
	g.IO.Println(stateSummary(ss))
	g.IO.Println()

	return core.DefaultEnd, nil, nil
}
