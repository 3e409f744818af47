package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/nathoo/goapcore/cli"
	"github.com/nathoo/goapcore/config"
	"github.com/nathoo/goapcore/engine"
	"github.com/nathoo/goapcore/engine/planner"
	"github.com/nathoo/goapcore/loader"
	"github.com/nathoo/goapcore/tui"
	"github.com/nathoo/goapcore/types"
)

// flags shared by every subcommand.
type flags struct {
	configPath  string
	seed        int64
	failureRate float64
	kind        string
	maxDepth    int
	heuristic   string
	saveDir     string
}

func (f *flags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "goapcore.yaml", "configuration file (optional)")
	pf.Int64Var(&f.seed, "seed", 0, "random seed for simulated action failures")
	pf.Float64Var(&f.failureRate, "failure-rate", 0, "probability in [0,1] that an action fails")
	pf.StringVar(&f.kind, "planner", "", "planner kind: regressive or forward")
	pf.IntVar(&f.maxDepth, "max-depth", 0, "maximum plan length")
	pf.StringVar(&f.heuristic, "heuristic", "", "search heuristic: unsatisfied or zero")
	pf.StringVar(&f.saveDir, "save-dir", "", "directory for /save and /load")
}

// setup loads the configuration with command-line overrides applied.
func (f *flags) setup(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, err
	}
	changed := cmd.Flags().Changed
	if changed("seed") {
		cfg.Sim.Seed = f.seed
	}
	if changed("failure-rate") {
		cfg.Sim.FailureRate = f.failureRate
	}
	if changed("save-dir") {
		cfg.SaveDir = f.saveDir
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	slog.SetDefault(cfg.Log.NewLogger())
	return cfg, nil
}

// newEngine loads the domain at path and builds an engine for it.
func (f *flags) newEngine(cfg config.Config, path string) (*engine.Engine, error) {
	defs, err := loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading domain: %w", err)
	}
	return engine.New(defs, engine.Options{
		Seed:            cfg.Sim.Seed,
		FailureRate:     cfg.Sim.FailureRate,
		Planner:         cfg.PlannerSettings(),
		PlannerOverride: planner.Config{Kind: f.kind, MaxDepth: f.maxDepth, Heuristic: f.heuristic},
		Logger:          slog.Default(),
	})
}

func newRootCmd() *cobra.Command {
	var (
		f          flags
		plain      bool
		trace      bool
		autoRun    bool
		scriptFile string
	)

	root := &cobra.Command{
		Use:           "goapcore [flags] <domain>",
		Short:         "Run a goal-oriented action planning simulation",
		Long:          "goapcore loads a Lua planning domain (a .lua file or a directory of them)\nand lets you step its agents from a console or a terminal UI.",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.setup(cmd)
			if err != nil {
				return err
			}
			eng, err := f.newEngine(cfg, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			// Script mode: read commands from a file, force plain, echo commands.
			if scriptFile != "" {
				file, err := os.Open(scriptFile)
				if err != nil {
					return fmt.Errorf("opening script: %w", err)
				}
				defer file.Close()
				c := newCLI(eng, cfg, out)
				c.In = file
				c.EchoInput = true
				c.Trace = trace
				c.Run()
				return nil
			}

			// Use the plain CLI if asked to or stdout is not a terminal.
			if plain || !isTerminal() {
				c := newCLI(eng, cfg, out)
				c.In = cmd.InOrStdin()
				c.Trace = trace
				c.Run()
				return nil
			}

			return tui.Run(eng, tui.Options{
				SaveDir:      cfg.SaveDir,
				TickInterval: cfg.Sim.TickInterval,
				AutoRun:      autoRun,
			})
		},
	}
	f.register(root)
	root.Flags().BoolVar(&plain, "plain", false, "use the line-based console instead of the TUI")
	root.Flags().BoolVar(&trace, "trace", false, "print events and effects after each command")
	root.Flags().BoolVar(&autoRun, "run", false, "start the TUI with the simulation running")
	root.Flags().StringVar(&scriptFile, "script", "", "run console commands from a file")

	root.AddCommand(newPlanCmd(&f), newRunCmd(&f))
	return root
}

func newCLI(eng *engine.Engine, cfg config.Config, out io.Writer) *cli.CLI {
	d := eng.Defs.Domain
	header := d.Title
	if d.Version != "" {
		header += " v" + d.Version
	}
	if d.Author != "" {
		header += " by " + d.Author
	}
	fmt.Fprintf(out, "%s\n\n", header)

	c := cli.New(eng, cfg.SaveDir)
	c.Out = out
	return c
}

func newPlanCmd(f *flags) *cobra.Command {
	var agentName string
	cmd := &cobra.Command{
		Use:   "plan <domain> <goal>",
		Short: "Formulate a plan from the domain's initial state and print it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.setup(cmd)
			if err != nil {
				return err
			}
			eng, err := f.newEngine(cfg, args[0])
			if err != nil {
				return err
			}
			input := "plan " + args[1]
			if agentName != "" {
				input += " for " + agentName
			}
			for _, line := range eng.Step(input).Output {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&agentName, "agent", "", "plan with this agent's actions")
	return cmd
}

func newRunCmd(f *flags) *cobra.Command {
	var (
		ticks    int
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "run <domain>",
		Short: "Tick the simulation headlessly and print agent events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.setup(cmd)
			if err != nil {
				return err
			}
			eng, err := f.newEngine(cfg, args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("interval") {
				interval = cfg.Sim.TickInterval
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			out := cmd.OutOrStdout()
			err = eng.Run(ctx, ticks, interval, func(res types.Result) {
				if len(res.Output) > 0 {
					fmt.Fprintln(out, strings.Join(res.Output, "\n"))
				}
			})
			if err != nil {
				return err
			}
			for _, line := range eng.Step("state").Output {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 20, "number of ticks to run (0 runs until interrupted)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "wall-clock time between ticks")
	return cmd
}

// isTerminal reports whether stdout is an interactive terminal.
func isTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
