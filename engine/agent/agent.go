// Package agent keeps an agent pursuing an achievable goal: it selects
// goals, submits plans for them and replans when execution fails.
package agent

import (
	"fmt"
	"log/slog"

	"github.com/nathoo/goapcore/engine/metrics"
	"github.com/nathoo/goapcore/engine/planner"
	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

// Executor steps a submitted plan over time.
type Executor interface {
	// SubmitForExecution replaces any in-flight plan.
	SubmitForExecution(p *planner.Plan)
	// Update advances execution by one tick.
	Update()
	Status() types.ExecutionStatus
	InterruptExecution()
}

// GoalSelector ranks the goals an agent may pursue.
type GoalSelector interface {
	// DefaultGoal is the always-available fallback.
	DefaultGoal() types.Goal
	// RelevantGoals returns the applicable goals, most preferred first.
	RelevantGoals() []types.Goal
	// ForceReevaluation invalidates any cached relevance.
	ForceReevaluation()
}

// KnowledgeProvider supplies the agent's current view of the world.
type KnowledgeProvider interface {
	WorldState() state.WorldState
}

// Planner formulates plans; planner.Regressive and planner.Forward satisfy it.
type Planner interface {
	FormulatePlan(ws state.WorldState, actions []types.Action, goal types.Goal) (*planner.Plan, error)
}

// Environment bundles an agent's collaborators and action library.
type Environment struct {
	Planner   Planner
	Executor  Executor
	Goals     GoalSelector
	Knowledge KnowledgeProvider
	Actions   []types.Action
}

type options struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	emit    func(types.Event)
}

// Option configures an Agent.
type Option func(*options)

// WithLogger sets the agent's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records goal selections and replans in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithEventSink receives goal_selected and plan_submitted events.
func WithEventSink(fn func(types.Event)) Option {
	return func(o *options) { o.emit = fn }
}

// Agent is the control loop. It holds no execution state of its own; it
// reacts to the executor's reported status on every Update.
type Agent struct {
	name    string
	env     Environment
	current *types.Goal
	options
}

// New creates an agent. Every collaborator in env must be non-nil.
func New(name string, env Environment, opts ...Option) *Agent {
	switch {
	case env.Planner == nil:
		panic("agent: nil planner")
	case env.Executor == nil:
		panic("agent: nil executor")
	case env.Goals == nil:
		panic("agent: nil goal selector")
	case env.Knowledge == nil:
		panic("agent: nil knowledge provider")
	}
	o := options{logger: slog.Default(), emit: func(types.Event) {}}
	for _, fn := range opts {
		fn(&o)
	}
	o.logger = o.logger.With("agent", name)
	return &Agent{name: name, env: env, options: o}
}

// Name returns the agent's name.
func (a *Agent) Name() string {
	return a.name
}

// CurrentGoal returns the goal the agent is pursuing, if any.
func (a *Agent) CurrentGoal() (types.Goal, bool) {
	if a.current == nil {
		return types.Goal{}, false
	}
	return *a.current, true
}

// Actions returns the agent's action library.
func (a *Agent) Actions() []types.Action {
	return a.env.Actions
}

// Resume sets the current goal without planning, as when a saved plan is
// handed straight back to the executor.
func (a *Agent) Resume(g types.Goal) {
	goal := g
	a.current = &goal
}

// Interrupt asks the executor to abandon its plan. The next Update forces
// goal reevaluation.
func (a *Agent) Interrupt() {
	a.env.Executor.InterruptExecution()
}

// Update runs one tick of the control loop. The executor is advanced once
// on every call. The returned error wraps planner.ErrNoPlan when not even
// the default goal could be planned; the agent retries on the next tick.
func (a *Agent) Update() error {
	var err error
	switch status := a.env.Executor.Status(); status {
	case types.StatusNone, types.StatusComplete:
		err = a.selectGoal(false)
	case types.StatusInterrupted:
		err = a.selectGoal(true)
	case types.StatusFailed:
		err = a.replan()
	case types.StatusInProgress:
		// Sensor-driven interruption would hook in here.
	default:
		err = fmt.Errorf("agent %s: unknown execution status %q", a.name, status)
	}
	a.env.Executor.Update()
	return err
}

// selectGoal submits a plan for the first relevant goal that has one and
// falls back to the default goal only when none does.
func (a *Agent) selectGoal(force bool) error {
	if force {
		a.env.Goals.ForceReevaluation()
	}
	for _, g := range a.env.Goals.RelevantGoals() {
		err := a.submit(g)
		if err == nil {
			return nil
		}
		a.logger.Debug("agent: relevant goal has no plan", "goal", g.Name, "error", err)
	}

	def := a.env.Goals.DefaultGoal()
	if err := a.submit(def); err != nil {
		a.logger.Warn("agent: default goal has no plan", "goal", def.Name, "error", err)
		return fmt.Errorf("agent %s: default goal %q: %w", a.name, def.Name, err)
	}
	return nil
}

// replan retries the current goal after a failed execution, then falls
// back to full reselection.
func (a *Agent) replan() error {
	a.metrics.Replanned(a.name)
	if a.current != nil {
		err := a.submit(*a.current)
		if err == nil {
			return nil
		}
		a.logger.Warn("agent: replanning failed", "goal", a.current.Name, "error", err)
	}
	return a.selectGoal(false)
}

func (a *Agent) submit(g types.Goal) error {
	plan, err := a.env.Planner.FormulatePlan(a.env.Knowledge.WorldState(), a.env.Actions, g)
	if err != nil {
		return err
	}
	a.env.Executor.SubmitForExecution(plan)

	if a.current == nil || a.current.Name != g.Name {
		a.logger.Info("agent: goal selected", "goal", g.Name)
		a.metrics.GoalSelected(a.name, g.Name)
		a.emit(types.Event{Type: "goal_selected", Agent: a.name, Data: map[string]any{"goal": g.Name}})
	}
	goal := g
	a.current = &goal

	if plan.Len() > 0 {
		a.emit(types.Event{Type: "plan_submitted", Agent: a.name, Data: map[string]any{
			"goal":  g.Name,
			"steps": plan.ActionNames(),
			"cost":  plan.Cost,
		}})
	}
	return nil
}
