// Package engine wires agents, executors, goal selectors and event
// handlers around one shared world and advances them a tick at a time.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	bt "github.com/joeycumines/go-behaviortree"

	"github.com/nathoo/goapcore/engine/agent"
	"github.com/nathoo/goapcore/engine/events"
	"github.com/nathoo/goapcore/engine/metrics"
	"github.com/nathoo/goapcore/engine/planner"
	"github.com/nathoo/goapcore/engine/sim"
	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

// DefaultAgent names the implicit agent of a domain that declares none.
const DefaultAgent = "agent"

// IdleGoal is the fallback goal used when a domain names no default goal.
// It has no preconditions, so it is always satisfied by an empty plan.
var IdleGoal = types.Goal{Name: "Idle"}

// Options configures an Engine.
type Options struct {
	Seed        int64
	FailureRate float64
	// Planner is the base planner configuration. The domain's Planner{}
	// table overrides it and PlannerOverride overrides both.
	Planner         planner.Config
	PlannerOverride planner.Config
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
}

// runtime is one agent with its own executor, selector and library.
type runtime struct {
	name     string
	agent    *agent.Agent
	executor *sim.Executor
	selector *sim.Selector
	actions  []types.Action
	def      types.Goal
}

// goals returns every goal the agent may pursue, the default last.
func (rt *runtime) goals() []types.Goal {
	out := append([]types.Goal(nil), rt.selector.Goals()...)
	for _, g := range out {
		if g.Name == rt.def.Name {
			return out
		}
	}
	return append(out, rt.def)
}

// Engine holds the domain definitions and the running simulation.
// Its methods are safe for concurrent use.
type Engine struct {
	Defs    *state.Defs
	World   *sim.World
	Planner planner.Planner
	Metrics *metrics.Metrics

	mu         sync.Mutex
	rng        *sim.RNG
	opts       Options
	agents     []*runtime
	tick       int
	commandLog []string
	pending    []types.Event
	logger     *slog.Logger
}

// New creates an engine from definitions.
func New(defs *state.Defs, opts Options) (*Engine, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.FailureRate < 0 || opts.FailureRate > 1 {
		return nil, fmt.Errorf("failure rate must be within [0, 1], got %g", opts.FailureRate)
	}

	cfg := PlannerConfig(opts.Planner, defs.Planner, opts.PlannerOverride)
	p, err := planner.New(cfg, planner.WithLogger(opts.Logger), planner.WithMetrics(opts.Metrics))
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}

	e := &Engine{
		Defs:    defs,
		World:   sim.NewWorld(defs.Initial),
		Planner: p,
		Metrics: opts.Metrics,
		rng:     sim.NewRNG(opts.Seed),
		opts:    opts,
		logger:  opts.Logger,
	}
	if err := e.buildAgents(); err != nil {
		return nil, err
	}
	return e, nil
}

// PlannerConfig overlays the domain's planner settings on base, then the
// set fields of override on the result.
func PlannerConfig(base planner.Config, domain types.PlannerDef, override planner.Config) planner.Config {
	cfg := base
	for _, over := range []planner.Config{
		{Kind: domain.Kind, MaxDepth: domain.MaxDepth, Heuristic: domain.Heuristic},
		override,
	} {
		if over.Kind != "" {
			cfg.Kind = over.Kind
		}
		if over.MaxDepth != 0 {
			cfg.MaxDepth = over.MaxDepth
		}
		if over.Heuristic != "" {
			cfg.Heuristic = over.Heuristic
		}
	}
	return cfg
}

// agentDefs returns the declared agents, or the implicit single agent
// that owns every action and goal.
func (e *Engine) agentDefs() []types.AgentDef {
	if len(e.Defs.Agents) > 0 {
		return e.Defs.Agents
	}
	return []types.AgentDef{{Name: DefaultAgent}}
}

// buildAgents creates a fresh runtime per agent against the current world
// and RNG.
func (e *Engine) buildAgents() error {
	var runtimes []*runtime
	for _, ad := range e.agentDefs() {
		rt, err := e.newRuntime(ad)
		if err != nil {
			return fmt.Errorf("agent %s: %w", ad.Name, err)
		}
		runtimes = append(runtimes, rt)
	}
	e.agents = runtimes
	return nil
}

func (e *Engine) newRuntime(ad types.AgentDef) (*runtime, error) {
	actions := e.Defs.Actions
	if len(ad.Actions) > 0 {
		actions = make([]types.Action, 0, len(ad.Actions))
		for _, name := range ad.Actions {
			a, ok := e.Defs.Action(name)
			if !ok {
				return nil, fmt.Errorf("unknown action %q", name)
			}
			actions = append(actions, a)
		}
	}

	goals := e.Defs.Goals
	if len(ad.Goals) > 0 {
		goals = make([]types.Goal, 0, len(ad.Goals))
		for _, name := range ad.Goals {
			g, ok := e.Defs.Goal(name)
			if !ok {
				return nil, fmt.Errorf("unknown goal %q", name)
			}
			goals = append(goals, g)
		}
	}

	def := IdleGoal
	defName := ad.DefaultGoal
	if defName == "" {
		defName = e.Defs.DefaultGoal
	}
	if defName != "" {
		g, ok := e.Defs.Goal(defName)
		if !ok {
			return nil, fmt.Errorf("unknown default goal %q", defName)
		}
		def = g
	}

	sel, err := sim.NewSelector(e.World, goals, def, e.logger)
	if err != nil {
		return nil, err
	}
	x := sim.NewExecutor(ad.Name, e.World,
		sim.WithFailureRate(e.opts.FailureRate, e.rng),
		sim.WithExecutorLogger(e.logger),
		sim.WithExecutorMetrics(e.Metrics),
		sim.WithExecutorEvents(e.collect),
	)
	a := agent.New(ad.Name, agent.Environment{
		Planner:   e.Planner,
		Executor:  x,
		Goals:     sel,
		Knowledge: e.World,
		Actions:   actions,
	},
		agent.WithLogger(e.logger),
		agent.WithMetrics(e.Metrics),
		agent.WithEventSink(e.collect),
	)
	return &runtime{name: ad.Name, agent: a, executor: x, selector: sel, actions: actions, def: def}, nil
}

// collect queues an event for the current step. Called with e.mu held.
func (e *Engine) collect(ev types.Event) {
	e.pending = append(e.pending, ev)
}

// Tick advances every agent by one tick.
func (e *Engine) Tick() types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	var result types.Result
	e.tickLocked(&result)
	return result
}

func (e *Engine) tickLocked(result *types.Result) {
	e.tick++
	e.Metrics.Tick()
	for _, rt := range e.agents {
		if err := rt.agent.Update(); err != nil {
			e.logger.Warn("engine: agent stalled", "agent", rt.name, "tick", e.tick, "error", err)
			e.Metrics.Stalled(rt.name)
			e.collect(types.Event{Type: "agent_stalled", Agent: rt.name, Data: map[string]any{"reason": err.Error()}})
		}
	}
	e.flush(result)
}

// flush describes the queued events, then dispatches them to the domain's
// handlers once. Handler effects do not trigger further handlers.
func (e *Engine) flush(result *types.Result) {
	evts := e.pending
	e.pending = nil
	if len(evts) == 0 {
		return
	}
	result.Events = append(result.Events, evts...)
	for _, ev := range evts {
		if line := describeEvent(ev); line != "" {
			result.Output = append(result.Output, line)
		}
	}

	effs, say := events.Dispatch(evts, e.World.WorldState(), e.Defs.Handlers)
	if len(effs) > 0 {
		e.World.Apply(effs)
		result.Effects = append(result.Effects, effs...)
	}
	result.Output = append(result.Output, say...)
}

func describeEvent(ev types.Event) string {
	prefix := "[" + ev.Agent + "] "
	switch ev.Type {
	case "goal_selected":
		return prefix + fmt.Sprintf("goal: %v", ev.Data["goal"])
	case "plan_submitted":
		steps, _ := ev.Data["steps"].([]string)
		return prefix + fmt.Sprintf("plan: %s (cost %v)", strings.Join(steps, " -> "), ev.Data["cost"])
	case "action_completed":
		return prefix + fmt.Sprintf("did %v", ev.Data["action"])
	case "action_failed":
		return prefix + fmt.Sprintf("%v failed: %v", ev.Data["action"], ev.Data["reason"])
	case "plan_completed":
		if n, _ := ev.Data["steps"].(int); n == 0 {
			return ""
		}
		return prefix + fmt.Sprintf("achieved %v", ev.Data["goal"])
	case "plan_failed":
		return prefix + fmt.Sprintf("plan for %v failed (%v)", ev.Data["goal"], ev.Data["reason"])
	case "plan_interrupted":
		return prefix + fmt.Sprintf("interrupted %v", ev.Data["goal"])
	case "agent_stalled":
		return prefix + fmt.Sprintf("stalled: %v", ev.Data["reason"])
	}
	return ""
}

var errRunDone = errors.New("engine: run complete")

// Run ticks the engine every interval until n ticks have run (n <= 0 means
// no limit) or ctx is done. fn, if non-nil, receives each tick's result.
// Cancellation is a normal stop and returns nil.
func (e *Engine) Run(ctx context.Context, n int, interval time.Duration, fn func(types.Result)) error {
	if interval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", interval)
	}
	count := 0
	node := bt.New(func([]bt.Node) (bt.Status, error) {
		res := e.Tick()
		if fn != nil {
			fn(res)
		}
		count++
		if n > 0 && count >= n {
			return bt.Success, errRunDone
		}
		return bt.Running, nil
	})

	ticker := bt.NewTicker(ctx, interval, node)
	<-ticker.Done()
	err := ticker.Err()
	if errors.Is(err, errRunDone) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// AgentStatus is a snapshot of one agent for display.
type AgentStatus struct {
	Name    string
	Goal    string
	Status  types.ExecutionStatus
	Plan    []string
	Done    int
	Current string
}

// Agents returns a snapshot of every agent in declaration order.
func (e *Engine) Agents() []AgentStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]AgentStatus, len(e.agents))
	for i, rt := range e.agents {
		out[i] = rt.status()
	}
	return out
}

func (rt *runtime) status() AgentStatus {
	s := AgentStatus{Name: rt.name, Status: rt.executor.Status(), Done: rt.executor.Progress()}
	if g, ok := rt.agent.CurrentGoal(); ok {
		s.Goal = g.Name
	}
	if p := rt.executor.Plan(); p != nil {
		s.Plan = p.ActionNames()
	}
	if a, ok := rt.executor.CurrentAction(); ok {
		s.Current = a.Name
	}
	return s
}

// WorldState returns the current world snapshot.
func (e *Engine) WorldState() state.WorldState {
	return e.World.WorldState()
}

// Ticks returns the number of ticks run so far.
func (e *Engine) Ticks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// CommandLog returns a copy of every command passed to Step.
func (e *Engine) CommandLog() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.commandLog...)
}
