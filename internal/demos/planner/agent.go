// Package planner is the function planner: it gathers event details from the
// operator, checks the weather and proposes a venue and a menu before
// writing the invitation.
package planner

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pocketomega/pocket-agent/internal/core"
	"github.com/pocketomega/pocket-agent/internal/demos"
	"github.com/pocketomega/pocket-agent/internal/llm"
	"github.com/pocketomega/pocket-agent/internal/prompt"
	"github.com/pocketomega/pocket-agent/internal/weather"
)

// Action identifiers.
const (
	ActionGatherInformation      core.Identifier = "gather_information"
	ActionAskQuestions           core.Identifier = "ask_questions"
	ActionConsolidateInformation core.Identifier = "consolidate_information"
	ActionChooseNextStep         core.Identifier = "choose_next_step"
	ActionGetWeather             core.Identifier = "get_weather"
	ActionDecideVenue            core.Identifier = "decide_venue"
	ActionDecideMenu             core.Identifier = "decide_menu"
	ActionSendInvitations        core.Identifier = "send_invitations"
)

type graph struct {
	demos.Deps
	forecaster weather.Forecaster
}

// New builds the planner graph.
func New(deps demos.Deps, forecaster weather.Forecaster, opts ...core.Option) (*core.Agent, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	if forecaster == nil {
		return nil, fmt.Errorf("planner: forecaster is required")
	}
	g := &graph{Deps: deps, forecaster: forecaster}

	a := core.New(opts...)
	a.RegisterFunc(core.DefaultStart, g.start)
	a.RegisterFunc(ActionGatherInformation, g.gatherInformation)
	a.RegisterFunc(ActionAskQuestions, g.askQuestions)
	a.RegisterFunc(ActionConsolidateInformation, g.consolidateInformation)
	a.RegisterFunc(ActionChooseNextStep, g.chooseNextStep)
	a.RegisterFunc(ActionGetWeather, g.getWeather)
	a.RegisterFunc(ActionDecideVenue, g.decideVenue)
	a.RegisterFunc(ActionDecideMenu, g.decideMenu)
	a.RegisterFunc(ActionSendInvitations, g.sendInvitations)
	return a, nil
}

func (g *graph) system() string { return g.Prompts.Load(prompt.PlannerSystem) }

func detailsSection(state core.State) string {
	return "\n\nEvent details:\n" + eventDetails(state) + "\n"
}

func (g *graph) start(_ context.Context, state core.State, _ any) (core.Identifier, any, error) {
	g.IO.Thought("Starting the function planning agent")
	for _, key := range requiredInformation {
		if _, ok := state[key]; !ok {
			state[key] = nil
		}
	}
	state[keyInformationGathered] = []map[string]string{}
	return ActionGatherInformation, nil, nil
}

// gatherInformation accepts an optional string payload naming what to ask
// about specifically.
func (g *graph) gatherInformation(ctx context.Context, state core.State, payload any) (core.Identifier, any, error) {
	g.IO.Thought("Gathering information for the function")

	var sb strings.Builder
	sb.WriteString("Gather some information from the user to plan the event by asking a few brief questions, e.g. type of function.")
	sb.WriteString("\nDo not ask very specific questions about the exact venue or exact menu items, as these will be decided later.")
	sb.WriteString("\nThe weather forecast will be checked automatically later in the planning process.")
	if focus, ok := payload.(string); ok && focus != "" {
		fmt.Fprintf(&sb, "\n\nSpecifically ask about: %s", focus)
	}
	sb.WriteString(detailsSection(state))

	var reply Questions
	if err := llm.GenerateInto(ctx, g.LLM, sb.String(), g.system(), &reply); err != nil {
		return "", nil, err
	}
	return ActionAskQuestions, reply.Questions, nil
}

func (g *graph) askQuestions(_ context.Context, state core.State, payload any) (core.Identifier, any, error) {
	questions, err := demos.Payload[[]string](payload)
	if err != nil {
		return "", nil, err
	}
	gathered, err := core.Require[[]map[string]string](state, keyInformationGathered)
	if err != nil {
		return "", nil, err
	}
	g.IO.Thought("Asking the user some questions.\n")

	for _, q := range questions {
		answer, err := g.IO.PromptLine(q + " > ")
		if err != nil {
			return "", nil, err
		}
		gathered = append(gathered, map[string]string{q: answer})
	}
	state[keyInformationGathered] = gathered
	return ActionConsolidateInformation, nil, nil
}

func (g *graph) consolidateInformation(ctx context.Context, state core.State, _ any) (core.Identifier, any, error) {
	g.IO.Thought("Consolidating the information gathered")

	user := "Consolidate the information gathered from the user.\n" +
		detailsSection(state) +
		"Review the information gathered and identify any missing details that need to be filled or corrected.\n"

	var reply ConsolidatedInformation
	if err := llm.GenerateInto(ctx, g.LLM, user, g.system(), &reply); err != nil {
		return "", nil, err
	}
	fields, err := mergeInto(state, reply)
	if err != nil {
		return "", nil, err
	}
	g.IO.Thought("Consolidated Information %v\n", fields)
	return ActionChooseNextStep, nil, nil
}

func (g *graph) chooseNextStep(ctx context.Context, state core.State, payload any) (core.Identifier, any, error) {
	g.IO.Thought("Choosing the next planning step")
	if payload != nil {
		g.IO.Println("   Specific input data:", payload)
	}
	g.IO.Println()

	var sb strings.Builder
	sb.WriteString("Given the requirements for the function, choose one of the following actions to perform next:\n")
	sb.WriteString("1. Gather more information (gather_information)\n")
	sb.WriteString("2. Find out the weather forecast (get_weather), requires the date and city of the function.\n")
	sb.WriteString("3. Decide on the venue (decide_venue), requires the date and weather\n")
	sb.WriteString("4. Decide on the menu (decide_menu), requires the date and venue\n")
	sb.WriteString("5. Send invitations (send_invitations)\n")
	sb.WriteString(detailsSection(state))
	sb.WriteString("Use the 'next_action' key to specify one of: 'gather_information', 'get_weather', 'decide_venue', 'decide_menu', 'send_invitations'.\n")

	var reply NextAction
	if err := llm.GenerateInto(ctx, g.LLM, sb.String(), g.system(), &reply); err != nil {
		return "", nil, err
	}
	g.IO.Thought("Next Action %s\n", reply.NextAction)
	// The model's choice is dispatched verbatim; an unknown one stops the run.
	return core.Identifier(reply.NextAction), nil, nil
}

func (g *graph) getWeather(ctx context.Context, state core.State, _ any) (core.Identifier, any, error) {
	g.IO.Thought("Getting the weather forecast")

	date, city := text(state, keyDate), text(state, keyCity)
	if date == "" || city == "" {
		g.IO.Thought("Missing information to get the weather forecast")
		return ActionGatherInformation, "date, city", nil
	}

	forecast, err := g.forecaster.Forecast(ctx, date, city)
	if err != nil {
		return "", nil, err
	}
	state[keyWeather] = forecast
	g.IO.Thought("Weather Forecast is %s\n", forecast)
	return ActionChooseNextStep, nil, nil
}

// choose reads a 1-based option number. ok is false for "None of the above"
// and for anything that is not one of the listed numbers.
func (g *graph) choose(label string, n int) (int, bool, error) {
	line, err := g.IO.PromptLine("Choose a " + label + " (number)> ")
	if err != nil {
		return 0, false, err
	}
	choice, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || choice < 1 || choice > n {
		return 0, false, nil
	}
	return choice - 1, true, nil
}

func (g *graph) decideVenue(ctx context.Context, state core.State, _ any) (core.Identifier, any, error) {
	g.IO.Thought("Deciding on the venue for the function")

	user := "Give a list of recommended venues (restaurants, event venues, bbq areas, other locations) for the function, for the user to choose from." +
		detailsSection(state) +
		"Respond with empty venues if there is not enough information to decide on the venue.\n" +
		"Describe the missing information in 'missing_information'\n" +
		"If there is enough information to decide on the venue, 'missing_information' should be empty.\n"

	var reply VenueDecision
	if err := llm.GenerateInto(ctx, g.LLM, user, g.system(), &reply); err != nil {
		return "", nil, err
	}
	if reply.MissingInformation != "" {
		g.IO.Thought("Missing information to decide the venue %s\n", reply.MissingInformation)
		return ActionGatherInformation, reply.MissingInformation, nil
	}

	g.IO.Thought("Listing Recommended Venues")
	g.IO.Println()
	for i, venue := range reply.Venues {
		g.IO.Printf("%d. %s\n", i+1, venue)
	}
	g.IO.Printf("%d. None of the above\n", len(reply.Venues)+1)

	i, ok, err := g.choose("venue", len(reply.Venues))
	if err != nil {
		return "", nil, err
	}
	if !ok {
		state[keyVenue] = nil
		return ActionGatherInformation, "how to choose a venue", nil
	}
	state[keyVenue] = reply.Venues[i]
	return ActionChooseNextStep, nil, nil
}

func (g *graph) decideMenu(ctx context.Context, state core.State, _ any) (core.Identifier, any, error) {
	g.IO.Thought("Deciding on the menu for the function")

	user := "Give a list of recommended menus for the event. " +
		"Each menu should have a couple of different options for appetizers, mains, and desserts. " +
		"What type of food should be served at the function? Ensure to consider the preferences and dietary requirements of the guests." +
		detailsSection(state) +
		"Respond with empty menus if there is not enough information to decide on a menu.\n" +
		"Describe the missing information in 'missing_information'\n" +
		"If there is enough information to decide on a menu, 'missing_information' should be empty.\n"

	var reply MenuDecision
	if err := llm.GenerateInto(ctx, g.LLM, user, g.system(), &reply); err != nil {
		return "", nil, err
	}
	if reply.MissingInformation != "" {
		g.IO.Thought("Missing information to decide the menu %s\n", reply.MissingInformation)
		return ActionGatherInformation, reply.MissingInformation, nil
	}

	g.IO.Thought("Listing Menu Options\n")
	for i, menu := range reply.Menus {
		g.IO.Printf("%d.\n%s\n\n\n", i+1, menu)
	}
	g.IO.Printf("%d. None of the above\n", len(reply.Menus)+1)

	i, ok, err := g.choose("menu", len(reply.Menus))
	if err != nil {
		return "", nil, err
	}
	if !ok {
		state[keyMenu] = nil
		return ActionGatherInformation, "how to choose a menu", nil
	}
	state[keyMenu] = reply.Menus[i]
	return ActionChooseNextStep, nil, nil
}

func (g *graph) sendInvitations(ctx context.Context, state core.State, _ any) (core.Identifier, any, error) {
	g.IO.Thought("Sending invitations to the guests\n\n")

	user := "Write an invitation message to send to the guests for the function. Include the date, time, venue, and any other relevant details." +
		detailsSection(state)

	invitation, err := llm.GenerateText(ctx, g.LLM, user, g.system())
	if err != nil {
		return "", nil, err
	}
	g.IO.Markdown(invitation)
	return core.DefaultEnd, nil, nil
}
