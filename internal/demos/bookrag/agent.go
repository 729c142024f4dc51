// Package bookrag answers questions about a book: it imagines excerpts that
// could answer the question, finds the real paragraphs closest to them with
// BM25, and answers from those paragraphs with Markdown references.
package bookrag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pocketomega/pocket-agent/internal/config"
	"github.com/pocketomega/pocket-agent/internal/core"
	"github.com/pocketomega/pocket-agent/internal/demos"
	"github.com/pocketomega/pocket-agent/internal/llm"
	"github.com/pocketomega/pocket-agent/internal/prompt"
	"github.com/pocketomega/pocket-agent/internal/retrieval"
)

// Action identifiers.
const (
	ActionAskQuestion       core.Identifier = "ask_question"
	ActionFabricateExcerpts core.Identifier = "fabricate_excerpts"
	ActionSearchText        core.Identifier = "search_text"
	ActionAnswerQuestion    core.Identifier = "answer_question"
)

// State keys.
const (
	keyBook  = "book"  // *Book
	keyIndex = "index" // *retrieval.Index over Book.Corpus
)

const rule = "--------------------------------------------------"

var referenceRE = regexp.MustCompile(`\(#([\w-]+)\)`)

// Options select the book and the search parameters.
type Options struct {
	Path     string
	Title    string
	TopN     int
	MinScore float64
}

// OptionsFromEnv reads BOOK_PATH, BOOK_TITLE, BOOK_TOP_N and BOOK_MIN_SCORE.
func OptionsFromEnv() Options {
	return Options{
		Path:     config.String("BOOK_PATH", "alice_in_wonderland.txt"),
		Title:    config.String("BOOK_TITLE", "Alice in Wonderland"),
		TopN:     config.Int("BOOK_TOP_N", 5),
		MinScore: config.Float("BOOK_MIN_SCORE", 0.75),
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if strings.TrimSpace(o.Path) == "" {
		return errors.New("bookrag: book path is required (BOOK_PATH or --book)")
	}
	if o.TopN <= 0 {
		return fmt.Errorf("bookrag: BOOK_TOP_N must be positive, got %d", o.TopN)
	}
	return nil
}

// Excerpts is the structured reply of fabricate_excerpts.
type Excerpts struct {
	Excerpts []string `json:"excerpts" description:"Passages that may exist in the book"`
}

// SearchQuery is the payload of search_text.
type SearchQuery struct {
	Query    string
	Question string
}

// Excerpt is a retrieved paragraph.
type Excerpt struct {
	ID   string
	Text string
}

// Evidence is the payload of answer_question.
type Evidence struct {
	Question string
	Excerpts []Excerpt
}

type graph struct {
	demos.Deps
	opts Options
}

// New builds the book question-answering graph. The book is read when the
// run starts.
func New(deps demos.Deps, opts Options, agentOpts ...core.Option) (*core.Agent, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Title == "" {
		opts.Title = "Alice in Wonderland"
	}
	deps.Prompts.PatchFile(prompt.BookSystem, "{{BOOK_TITLE}}", opts.Title)
	g := &graph{Deps: deps, opts: opts}

	a := core.New(agentOpts...)
	a.RegisterFunc(core.DefaultStart, g.start)
	a.RegisterFunc(ActionAskQuestion, g.askQuestion)
	a.RegisterFunc(ActionFabricateExcerpts, g.fabricateExcerpts)
	a.RegisterFunc(ActionSearchText, g.searchText)
	a.RegisterFunc(ActionAnswerQuestion, g.answerQuestion)
	return a, nil
}

func (g *graph) system() string { return g.Prompts.Load(prompt.BookSystem) }

func (g *graph) start(ctx context.Context, state core.State, _ any) (core.Identifier, any, error) {
	g.IO.Thought("Ingesting %s", g.opts.Title)

	book, err := Digest(g.opts.Path)
	if err != nil {
		return "", nil, err
	}
	idx, err := retrieval.Build(ctx, book.Corpus)
	if err != nil {
		return "", nil, fmt.Errorf("bookrag: index book: %w", err)
	}
	state[keyBook] = book
	state[keyIndex] = idx
	return ActionAskQuestion, nil, nil
}

// askQuestion ends the run on an empty question, "exit", "quit" or closed
// input.
func (g *graph) askQuestion(_ context.Context, _ core.State, _ any) (core.Identifier, any, error) {
	// Edits under PROMPTS_DIR apply from the next question; the title patch is replayed.
	g.Prompts.Reload()
	g.IO.Thought("The user needs to ask a question")
	g.IO.Printf("Ask a question about %s:\n\n", g.opts.Title)
	g.IO.Println("e.g. - ask for quotes, summaries, or questions about characters")

	question, err := g.IO.PromptLine("Your question: ")
	if errors.Is(err, io.EOF) {
		return core.DefaultEnd, nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	question = strings.TrimSpace(question)
	switch strings.ToLower(question) {
	case "", "exit", "quit":
		return core.DefaultEnd, nil, nil
	}
	return ActionFabricateExcerpts, question, nil
}

func (g *graph) fabricateExcerpts(ctx context.Context, _ core.State, payload any) (core.Identifier, any, error) {
	question, err := demos.Payload[string](payload)
	if err != nil {
		return "", nil, err
	}
	g.IO.Thought("The user asked a question, I'm going to imagine what some relevant excerpts might look like")

	user := fmt.Sprintf("Consider the following question about the book %s.\n", g.opts.Title) +
		"Question:\n" + question + "\n\n" +
		"Come up with all excerpts that may exist in the text that could be relevant to this question. If you're not sure, just make something up.\n"

	var reply Excerpts
	if err := llm.GenerateInto(ctx, g.LLM, user, g.system(), &reply); err != nil {
		return "", nil, err
	}
	query := strings.Join(reply.Excerpts, "\n")

	g.IO.Thought("Generated excerpts:")
	g.IO.Println(query)
	g.IO.Println()

	return ActionSearchText, SearchQuery{Query: query, Question: question}, nil
}

func (g *graph) searchText(_ context.Context, state core.State, payload any) (core.Identifier, any, error) {
	q, err := demos.Payload[SearchQuery](payload)
	if err != nil {
		return "", nil, err
	}
	book, err := core.Require[*Book](state, keyBook)
	if err != nil {
		return "", nil, err
	}
	idx, err := core.Require[*retrieval.Index](state, keyIndex)
	if err != nil {
		return "", nil, err
	}
	g.IO.Thought("Searching for relevant information in the text")

	matches := idx.Query(q.Query, g.opts.TopN, g.opts.MinScore)

	g.IO.Thought("Found relevant information in the text")
	evidence := Evidence{Question: q.Question}
	for _, m := range matches {
		loc := book.Mapping[m.ID]
		g.IO.Printf("                - Chapter %d, Paragraph %d: %.2f\n", loc.Chapter+1, loc.Paragraph+1, m.Score)
		evidence.Excerpts = append(evidence.Excerpts, Excerpt{ID: loc.ID(), Text: book.Paragraph(loc)})
	}

	return ActionAnswerQuestion, evidence, nil
}

func answerPrompt(title string, ev Evidence) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Answer the following question about the book %s based on the context provided.\n", title)
	sb.WriteString("Your answer should include references to, or quotations from the given excerpts where relevant. ")
	sb.WriteString("You must reference excerpts in your answer by linking to the location of the excerpt using Markdown links using the format: [Text](#chapter-1-p-2)\n")
	sb.WriteString("Note: #chapter-1-p-2 is an example, referring to the location attribute of the respective excerpt.\n")
	sb.WriteString("\nQuestion:\n" + ev.Question)
	sb.WriteString("\n\nContext:\n")
	for _, e := range ev.Excerpts {
		fmt.Fprintf(&sb, "<excerpt location=\"#%s\">\n%s\n</excerpt>\n\n", e.ID, e.Text)
	}
	return sb.String()
}

func (g *graph) answerQuestion(ctx context.Context, _ core.State, payload any) (core.Identifier, any, error) {
	ev, err := demos.Payload[Evidence](payload)
	if err != nil {
		return "", nil, err
	}
	g.IO.Thought("Generating an answer to the user's question")

	answer, err := llm.GenerateText(ctx, g.LLM, answerPrompt(g.opts.Title, ev), g.system())
	if err != nil {
		return "", nil, err
	}

	g.IO.Println()
	g.IO.Println(rule)
	g.IO.Markdown(answer)
	g.IO.Println(rule)
	g.IO.Println("Excerpts:")

	byID := make(map[string]string, len(ev.Excerpts))
	for _, e := range ev.Excerpts {
		byID[e.ID] = e.Text
	}
	for _, ref := range referencedIDs(answer) {
		text, ok := byID[ref]
		if !ok {
			continue
		}
		g.IO.Println(rule)
		g.IO.Printf("%s:\n\n%s\n\n", ref, text)
		g.IO.Println(rule)
		g.IO.Println()
	}
	g.IO.Println()

	return ActionAskQuestion, nil, nil
}

// referencedIDs returns the excerpt anchors linked from answer, in order.
func referencedIDs(answer string) []string {
	var ids []string
	for _, m := range referenceRE.FindAllStringSubmatch(answer, -1) {
		ids = append(ids, m[1])
	}
	return ids
}
