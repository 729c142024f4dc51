package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pocketomega/pocket-agent/internal/console"
	"github.com/pocketomega/pocket-agent/internal/demos"
	"github.com/pocketomega/pocket-agent/internal/llm"
	"github.com/pocketomega/pocket-agent/internal/prompt"
)

var errListOnly = errors.New("graph listing does not call the model")

var graphCmd = &cobra.Command{
	Use:       "graph <demo>",
	Short:     "List the actions registered in a demo graph",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"planner", "questioning", "book"},
	RunE: func(cmd *cobra.Command, args []string) error {
		d, ok := demoNamed(args[0])
		if !ok {
			names := make([]string, len(demoList))
			for i, d := range demoList {
				names[i] = d.Name
			}
			return fmt.Errorf("unknown demo %q (choose one of %s)", args[0], strings.Join(names, ", "))
		}
		return printGraph(cmd.Context(), cmd.OutOrStdout(), d)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

// printGraph builds d without a model and lists its actions.
func printGraph(ctx context.Context, w io.Writer, d demo) error {
	deps := demos.Deps{
		LLM: llm.GeneratorFunc(func(context.Context, llm.Request) (llm.Result, error) {
			return llm.Result{}, errListOnly
		}),
		IO:      console.New(strings.NewReader(""), w),
		Prompts: prompt.NewLoader(""),
	}
	agent, closer, err := d.Build(ctx, deps)
	if err != nil {
		return err
	}
	defer closer.Close()

	fmt.Fprintf(w, "%s (start=%s, end=%s)\n", d.Name, agent.Start(), agent.End())
	for _, id := range agent.Actions() {
		marker := " "
		if id == agent.Start() {
			marker = "*"
		}
		fmt.Fprintf(w, "  %s %s\n", marker, id)
	}
	return nil
}
