package planner

import (
	"fmt"
	"reflect"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"

	"github.com/pocketomega/pocket-agent/internal/core"
)

// State keys. The first six are the event details the planner works towards.
const (
	keyDate                = "date"
	keyGuests              = "guests"
	keyCity                = "city"
	keyVenue               = "venue"
	keyWeather             = "weather"
	keyMenu                = "menu"
	keyInformationGathered = "information_gathered" // []map[string]string
)

var requiredInformation = []string{keyDate, keyGuests, keyCity, keyVenue, keyWeather, keyMenu}

// Questions is the structured reply of gather_information.
type Questions struct {
	Questions []string `json:"questions" description:"Brief questions to ask the user"`
}

// ConsolidatedInformation is the structured reply of consolidate_information.
// Empty values mean the detail is still unknown.
type ConsolidatedInformation struct {
	Date   string `json:"date" description:"Date of the function, empty if unknown"`
	Guests int    `json:"guests" description:"Number of guests, 0 if unknown"`
	City   string `json:"city" description:"City of the function, empty if unknown"`
}

// NextAction is the structured reply of choose_next_step.
type NextAction struct {
	NextAction string `json:"next_action" enum:"gather_information,get_weather,decide_venue,decide_menu,send_invitations"`
}

// VenueDecision is the structured reply of decide_venue.
type VenueDecision struct {
	Venues             []string `json:"venues" description:"Recommended venues, empty if there is not enough information"`
	MissingInformation string   `json:"missing_information" description:"What is missing to decide on the venue, empty if nothing"`
}

// Menu is one menu option with a few dishes per course.
type Menu struct {
	Appetizer  []string `json:"appetizer"`
	MainCourse []string `json:"main_course"`
	Dessert    []string `json:"dessert"`
}

// String lists the non-empty courses, one line each.
func (m Menu) String() string {
	var sb strings.Builder
	for _, course := range []struct {
		label  string
		dishes []string
	}{
		{"Appetizer", m.Appetizer},
		{"Main Course", m.MainCourse},
		{"Dessert", m.Dessert},
	} {
		if len(course.dishes) > 0 {
			fmt.Fprintf(&sb, "%s: %s\n", course.label, strings.Join(course.dishes, ", "))
		}
	}
	return sb.String()
}

// MenuDecision is the structured reply of decide_menu.
type MenuDecision struct {
	Menus              []Menu `json:"menus" description:"Recommended menus, empty if there is not enough information"`
	MissingInformation string `json:"missing_information" description:"What is missing to decide on a menu, empty if nothing"`
}

// mergeInto copies every non-zero field of v into state under its json name.
func mergeInto(state core.State, v any) (map[string]any, error) {
	fields := map[string]any{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: &fields})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("planner: merge %T: %w", v, err)
	}
	for key, value := range fields {
		if value == nil || reflect.ValueOf(value).IsZero() {
			continue
		}
		state[key] = value
	}
	return fields, nil
}

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// eventDetails renders the state as indented JSON for prompts.
func eventDetails(state core.State) string {
	b, err := jsonAPI.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(state))
	}
	return string(b)
}

// text returns the string stored under key, "" when unset.
func text(state core.State, key string) string {
	s, _ := core.Lookup[string](state, key)
	return s
}
