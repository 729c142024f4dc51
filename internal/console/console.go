// Package console is the operator-facing I/O used by demo actions: reading a
// line of input, printing plain text, the agent's "thoughts", and Markdown.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IO is what demo actions use to talk to the operator.
type IO interface {
	// PromptLine writes prompt and blocks until a line is read.
	// The trailing newline is removed. io.EOF is returned once input ends.
	PromptLine(prompt string) (string, error)
	Println(a ...any)
	Printf(format string, a ...any)
	// Thought prints an "Agent Thoughts: ..." line.
	Thought(format string, a ...any)
	// Markdown prints md, rendered when the output is a terminal.
	Markdown(md string)
}

// ThoughtPrefix starts every Thought line.
const ThoughtPrefix = "Agent Thoughts: "

// Console implements IO over a reader and writer.
type Console struct {
	in     *bufio.Reader
	out    io.Writer
	styled *termenv.Output
	render func(string) (string, error)
}

// New returns a plain Console: no colors, Markdown printed verbatim.
func New(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:     bufio.NewReader(in),
		out:    out,
		styled: termenv.NewOutput(out, termenv.WithProfile(termenv.Ascii)),
	}
}

// NewTerminal wires stdin/stdout. Colors and Markdown rendering are enabled
// only when stdout is a terminal.
func NewTerminal() *Console {
	c := New(os.Stdin, os.Stdout)
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return c
	}
	c.styled = termenv.NewOutput(os.Stdout)
	if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100)); err == nil {
		c.render = r.Render
	}
	return c
}

// PromptLine implements IO.
func (c *Console) PromptLine(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Println implements IO.
func (c *Console) Println(a ...any) { fmt.Fprintln(c.out, a...) }

// Printf implements IO.
func (c *Console) Printf(format string, a ...any) { fmt.Fprintf(c.out, format, a...) }

// Thought implements IO.
func (c *Console) Thought(format string, a ...any) {
	msg := ThoughtPrefix + fmt.Sprintf(format, a...)
	fmt.Fprintln(c.out, c.styled.String(msg).Foreground(c.styled.Color("#a78bfa")).Italic())
}

// Markdown implements IO.
func (c *Console) Markdown(md string) {
	if c.render != nil {
		if out, err := c.render(md); err == nil {
			fmt.Fprint(c.out, out)
			return
		}
	}
	fmt.Fprintln(c.out, md)
}
