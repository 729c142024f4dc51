package questioning

import (
	"fmt"
	"regexp"
	"strings"
)

var tagRE = regexp.MustCompile(`<.*?>`)

func removeTags(raw string) string {
	return tagRE.ReplaceAllString(raw, "")
}

// stateSummary lists the summary of every phase so far, or "" before the
// first phase starts.
func stateSummary(ss session) string {
	if ss.Phase <= 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("A summary of each phase of the conversation so far:\n\n")
	for i, summary := range ss.Summary {
		fmt.Fprintf(&sb, "<phase number=\"%d\">\n%s\n</phase>\n", i+1, summary)
	}
	return sb.String()
}

func phaseDescription(phase int) string {
	tense := func(limit int, future, past string) string {
		if phase < limit {
			return future
		}
		return past
	}

	var sb strings.Builder
	sb.WriteString("The conversation is divided into several phases. Each phase has a specific goal and type of questioning to use.\n")
	fmt.Fprintf(&sb, "In the first phase, you %s open questions and probing questions to gather information about the user's problem.\n",
		tense(1, "will use", "have used"))
	fmt.Fprintf(&sb, "In the second phase, you %s hypothetical questions and reflective questions to encourage the user to think about their problem from different perspectives.\n",
		tense(2, "will mostly use", "have mostly used"))
	fmt.Fprintf(&sb, "In the third phase, you %s leading questions to guide the user towards a solution.\n",
		tense(3, "will mostly use", "have mostly used"))
	fmt.Fprintf(&sb, "In the fourth phase, you %s closing questions to bring agreement, commitment, and decide on actions.\n",
		tense(4, "will mostly use", "have mostly used"))
	sb.WriteString("Each phase should include no more than 8 questions.\n")
	return sb.String()
}

// questionKind describes one type of questioning.
type questionKind struct {
	Type    string
	Label   string // shown in the decide prompt
	Purpose string // shown in the decide prompt
	Ask     string // instruction for the ask action
	Example string
}

var kinds = []questionKind{
	{
		Type: "open", Label: "Open questions",
		Purpose: "Gather information and encourage the user to talk about their problem.",
		Ask:     "Ask an open question to gather information and encourage the user to talk about their problem.",
		Example: "For example, ask 'What is the main issue you are facing?', 'Can you describe the problem you are experiencing?' or 'What are the concerns that you have?'",
	},
	{
		Type: "probing", Label: "Probing questions",
		Purpose: "Clarify and explore the user's problem, gaining more detail.",
		Ask:     "Ask a probing question to clarify and explore the user's problem, gaining more detail.",
		Example: "For example, ask 'Can you provide more information about that?', 'What happened next?', 'Why does that exactly matter?' or 'Can you explain that in more detail?'",
	},
	{
		Type: "hypothetical", Label: "Hypothetical questions",
		Purpose: "Encourage the user to think about alternative scenarios.",
		Ask:     "Ask a hypothetical question to encourage the user to think about alternative scenarios.",
		Example: "For example, ask 'What would happen if...?', 'How would you handle...?', 'If there was a way to do that, what impact would it have?' or 'What could be the outcome if...?'",
	},
	{
		Type: "reflective", Label: "Reflective questions",
		Purpose: "Encourage the user to think about their problem from a different perspective.",
		Ask:     "Ask a reflective question to encourage the user to think about their problem from a different perspective, or to challenge their current thinking.",
		Example: "For example, ask 'How do you feel/think about that?', 'What is the priority of...?', 'What would someone else say about that?' or 'What could be the reasons behind...?'",
	},
	{
		Type: "leading", Label: "Leading questions",
		Purpose: "Guide the user towards a particular solution.",
		Ask:     "Ask a leading question to guide the user towards a particular solution.",
		Example: "For example, ask 'Have you considered...?', 'What do you think about...?', 'Would you agree that...?' or 'Could you imagine...?'",
	},
	{
		Type: "closing", Label: "Closing questions",
		Purpose: "Bring agreement, commitment, and decide on actions.",
		Ask:     "Ask a closing question to bring agreement, commitment, and decide on actions.",
		Example: "For example, ask 'What do you think we should do next?', 'How do you feel about the solution?', 'Can we agree on...?' or 'What are the next steps?'",
	},
	{
		Type: "deflective", Label: "Deflective questions",
		Purpose: "Improve the mood of the conversation and alleviate dissatisfaction by keeping conversation on track.",
		Ask:     "Ask a deflective question to improve the mood of the conversation and alleviate dissatisfaction by keeping the conversation on track.",
		Example: "For example, ask 'How can we make this conversation more helpful?', 'What would you like to focus on?', 'What do you think we should do next?' or 'What are your thoughts on...?'",
	},
}

func kindByType(t string) questionKind {
	for _, k := range kinds {
		if k.Type == t {
			return k
		}
	}
	return questionKind{}
}

// offeredTypes returns the questioning types available in a phase.
// Deflective questions are always offered.
func offeredTypes(phase int) []string {
	var types []string
	switch {
	case phase <= 1:
		types = []string{"open", "probing"}
	case phase == 2:
		types = []string{"hypothetical", "reflective"}
	case phase == 3:
		types = []string{"reflective", "leading"}
	case phase == 4:
		types = []string{"leading", "closing"}
	}
	return append(types, "deflective")
}

func decideQuestioningPrompt(ss session) string {
	var sb strings.Builder
	sb.WriteString("Based on the information collected about the user's problem, decide on the type of questioning to use.\n")
	sb.WriteString(phaseDescription(ss.Phase))
	sb.WriteString("If the user is dissatisfied, you will use deflective questions to improve the mood of the conversation and keep the conversation on track.\n")
	sb.WriteString("\n")

	sb.WriteString("As it is")
	if ss.Phase == 0 {
		sb.WriteString(" the beginning of the conversation, ")
	} else {
		fmt.Fprintf(&sb, " phase %d, ", ss.Phase)
	}
	sb.WriteString("use one the following types of questioning:\n")
	for _, t := range offeredTypes(ss.Phase) {
		k := kindByType(t)
		fmt.Fprintf(&sb, "- (%s) %s: %s\n", k.Type, k.Label, k.Purpose)
	}

	sb.WriteString("\n" + stateSummary(ss))
	return sb.String()
}

func askPrompt(k questionKind, ss session) string {
	return k.Ask + "\n" + k.Example + "\n" +
		"Respond only with the question you would like to ask.\n" +
		"\n" + stateSummary(ss)
}

func consolidatePrompt(ss session) string {
	var sb strings.Builder
	sb.WriteString("Consolidate the information gathered from the user's response.\n")
	sb.WriteString("Consider the following conversation history:\n")
	sb.WriteString("<history>\n")
	for i, qa := range ss.History {
		sb.WriteString("<question>\n")
		fmt.Fprintf(&sb, "Question %d:\n%s\nAnswer:\n%s\n", i+1, qa.Question, qa.Answer)
		sb.WriteString("</question>\n")
	}
	sb.WriteString("</history>\n")

	sb.WriteString(phaseDescription(ss.Phase))
	fmt.Fprintf(&sb, "\nIt is currently phase %d of the conversation.\n", ss.Phase)
	sb.WriteString(stateSummary(ss))
	sb.WriteString("This summary does not include the latest question and answer.\n")

	fmt.Fprintf(&sb, "\nYou are to update the summary for phase %d.\n", ss.Phase)
	sb.WriteString("Ensure the summary captures the key points of the conversation so far.\n")
	return sb.String()
}

func decideNextActionPrompt(ss session) string {
	var sb strings.Builder
	sb.WriteString("Based on the information collected and the type of questioning used, decide on the next action to take.\n")
	sb.WriteString(phaseDescription(ss.Phase))
	fmt.Fprintf(&sb, "\nIt is currently phase %d.\n", ss.Phase)
	sb.WriteString(stateSummary(ss))
	fmt.Fprintf(&sb, "%d total questions have been asked in the conversation so far.\n", len(ss.History))

	sb.WriteString("\n")
	sb.WriteString("Actions you can take:\n")
	sb.WriteString("- (ask_question) Ask another question to gather more information.\n")
	sb.WriteString("- (move_on) Move to the next phase of questioning.\n")
	sb.WriteString("- (end_conversation) End the conversation.\n")
	return sb.String()
}
