package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/pocketomega/pocket-agent/internal/console"
	"github.com/pocketomega/pocket-agent/internal/core"
	"github.com/pocketomega/pocket-agent/internal/demos"
	"github.com/pocketomega/pocket-agent/internal/demos/bookrag"
	"github.com/pocketomega/pocket-agent/internal/demos/planner"
	"github.com/pocketomega/pocket-agent/internal/demos/questioning"
	"github.com/pocketomega/pocket-agent/internal/weather"
)

// demo is one runnable graph. Build returns a Closer for resources the graph
// holds, such as an MCP connection.
type demo struct {
	Name  string
	Title string
	Short string
	Build func(ctx context.Context, deps demos.Deps, opts ...core.Option) (*core.Agent, io.Closer, error)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// bookPath overrides BOOK_PATH when set with --book.
var bookPath string

// demoList is in menu order.
var demoList = []demo{
	{
		Name:  "planner",
		Title: "A Function Planner Agent",
		Short: "Plan a function: gather details, check the weather, pick a venue and a menu",
		Build: func(ctx context.Context, deps demos.Deps, opts ...core.Option) (*core.Agent, io.Closer, error) {
			forecaster, closer, err := weather.FromEnv(ctx)
			if err != nil {
				return nil, nil, err
			}
			a, err := planner.New(deps, forecaster, opts...)
			if err != nil {
				closer.Close()
				return nil, nil, err
			}
			return a, closer, nil
		},
	},
	{
		Name:  "questioning",
		Title: "Help me think about a problem (Effective Questioning)",
		Short: "Think through a problem with a coach asking phased questions",
		Build: func(_ context.Context, deps demos.Deps, opts ...core.Option) (*core.Agent, io.Closer, error) {
			a, err := questioning.New(deps, opts...)
			return a, nopCloser{}, err
		},
	},
	{
		Name:  "book",
		Title: "Ask a Question about a Book (Alice in Wonderland)",
		Short: "Ask questions about a book, answered from retrieved paragraphs",
		Build: func(_ context.Context, deps demos.Deps, opts ...core.Option) (*core.Agent, io.Closer, error) {
			bo := bookrag.OptionsFromEnv()
			if bookPath != "" {
				bo.Path = bookPath
			}
			a, err := bookrag.New(deps, bo, opts...)
			return a, nopCloser{}, err
		},
	},
}

func demoNamed(name string) (demo, bool) {
	for _, d := range demoList {
		if d.Name == name {
			return d, true
		}
	}
	return demo{}, false
}

func demoCommand(d demo) *cobra.Command {
	cmd := &cobra.Command{
		Use:   d.Name,
		Short: d.Short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd.Context(), d, console.NewTerminal())
		},
	}
	if d.Name == "book" {
		cmd.Flags().StringVar(&bookPath, "book", "", "Path to the book, .txt or .html (default BOOK_PATH)")
	}
	return cmd
}
