package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/pocketomega/pocket-agent/internal/config"
	"github.com/pocketomega/pocket-agent/internal/console"
	"github.com/pocketomega/pocket-agent/internal/core"
	"github.com/pocketomega/pocket-agent/internal/demos"
	"github.com/pocketomega/pocket-agent/internal/llm/provider"
	"github.com/pocketomega/pocket-agent/internal/metrics"
	"github.com/pocketomega/pocket-agent/internal/prompt"
)

var (
	envFile     string
	trace       bool
	metricsAddr string
)

var rootCmd = &cobra.Command{
	Use:   "pocket-agent",
	Short: "Run the pocket-agent demo graphs",
	Long: `pocket-agent drives small agents built as action graphs: each action
decides, usually with a language model, which action runs next.

Without a subcommand an interactive menu picks the demo.`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMenu(cmd.Context(), console.NewTerminal())
	},
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "Path to a .env file (default: search next to the binary, then the working directory)")
	rootCmd.PersistentFlags().BoolVar(&trace, "trace", false, "Log every action dispatch (also AGENT_TRACE=true)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :2112 (also METRICS_ADDR)")

	cobra.OnInitialize(func() {
		if envFile != "" {
			config.LoadEnv(envFile)
		} else if p := config.LoadEnv(); p != "" {
			log.Printf("[Config] Loaded %s", p)
		}
	})

	for _, d := range demoList {
		rootCmd.AddCommand(demoCommand(d))
	}
}

// runMenu asks which demo to run and runs it.
func runMenu(ctx context.Context, ui console.IO) error {
	ui.Println("Choose a demo to run:")
	for i, d := range demoList {
		ui.Printf("%d. %s\n", i+1, d.Title)
	}

	choice, err := ui.PromptLine("Enter the number of the demo you would like to run: ")
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	d, ok := demoByChoice(strings.TrimSpace(choice))
	if !ok {
		ui.Println("Invalid choice. Please enter 1, 2, or 3.")
		return nil
	}
	return runDemo(ctx, d, ui)
}

func demoByChoice(choice string) (demo, bool) {
	for i, d := range demoList {
		if choice == fmt.Sprint(i+1) {
			return d, true
		}
	}
	return demo{}, false
}

// runDemo wires the collaborators, builds the demo graph and runs it once.
func runDemo(ctx context.Context, d demo, ui console.IO) error {
	gen, name, err := provider.FromEnv(ctx)
	if err != nil {
		return fmt.Errorf("initialize LLM client: %w", err)
	}
	log.Printf("[LLM] Using %s", name)

	hooks, err := runHooks(ctx, d.Name)
	if err != nil {
		return err
	}

	deps := demos.Deps{
		LLM:     gen,
		IO:      ui,
		Prompts: prompt.NewLoader(config.String("PROMPTS_DIR", "")),
	}
	agent, closer, err := d.Build(ctx, deps, core.WithHooks(hooks))
	if err != nil {
		return err
	}
	defer closer.Close()

	res, err := agent.Execute(ctx, nil)
	if err != nil {
		return err
	}
	if res.Outcome == core.OutcomeUnknownTransition {
		log.Printf("[Agent] %s stopped at unregistered action %q after %d steps", d.Name, res.Last, res.Steps)
	}
	return nil
}

// runHooks combines the trace and metrics hooks selected by flags and env.
func runHooks(ctx context.Context, graph string) (core.Hooks, error) {
	var hooks []core.Hooks
	if trace || config.Bool("AGENT_TRACE", false) {
		hooks = append(hooks, traceHooks(graph))
	}

	addr := metricsAddr
	if addr == "" {
		addr = config.String("METRICS_ADDR", "")
	}
	if addr != "" {
		reg := prometheus.NewRegistry()
		rec, err := metrics.New(reg)
		if err != nil {
			return core.Hooks{}, fmt.Errorf("register metrics: %w", err)
		}
		hooks = append(hooks, rec.Hooks(graph))
		go func() {
			if err := metrics.Serve(ctx, addr, reg); err != nil {
				log.Printf("[Metrics] Server stopped: %v", err)
			}
		}()
	}
	return core.ChainHooks(hooks...), nil
}
