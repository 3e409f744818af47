package sim

import (
	"log/slog"

	"github.com/google/uuid"
	bt "github.com/joeycumines/go-behaviortree"

	"github.com/nathoo/goapcore/engine/metrics"
	"github.com/nathoo/goapcore/engine/planner"
	"github.com/nathoo/goapcore/engine/rules"
	"github.com/nathoo/goapcore/types"
)

// Executor steps a submitted plan against a World. The plan runs as a
// memorized behavior-tree sequence with one leaf per action, so each tick
// resumes at the action that was running.
//
// An action starts on the tick it is reached, rechecks its preconditions,
// runs for its duration in ticks and then applies its effects. At most one
// action does work per tick. Executor is not safe for concurrent use.
type Executor struct {
	agent       string
	world       *World
	rng         *RNG
	failureRate float64
	logger      *slog.Logger
	metrics     *metrics.Metrics
	emit        func(types.Event)

	plan   *planner.Plan
	execID string
	tree   bt.Node
	status types.ExecutionStatus
	step   int
	spent  bool
	failed string
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithFailureRate makes each action fumble with probability p when it
// starts, drawing from rng.
func WithFailureRate(p float64, rng *RNG) ExecutorOption {
	return func(x *Executor) {
		x.failureRate = p
		x.rng = rng
	}
}

// WithExecutorLogger sets the executor's logger.
func WithExecutorLogger(l *slog.Logger) ExecutorOption {
	return func(x *Executor) { x.logger = l }
}

// WithExecutorMetrics records action outcomes in m.
func WithExecutorMetrics(m *metrics.Metrics) ExecutorOption {
	return func(x *Executor) { x.metrics = m }
}

// WithExecutorEvents receives action and plan lifecycle events.
func WithExecutorEvents(fn func(types.Event)) ExecutorOption {
	return func(x *Executor) { x.emit = fn }
}

// NewExecutor creates an idle executor for the named agent.
func NewExecutor(agent string, world *World, opts ...ExecutorOption) *Executor {
	x := &Executor{
		agent:  agent,
		world:  world,
		logger: slog.Default(),
		emit:   func(types.Event) {},
		status: types.StatusNone,
	}
	for _, o := range opts {
		o(x)
	}
	x.logger = x.logger.With("agent", agent)
	return x
}

// SubmitForExecution replaces any in-flight plan.
func (x *Executor) SubmitForExecution(p *planner.Plan) {
	x.plan = p
	x.execID = uuid.NewString()
	x.step = 0
	x.failed = ""

	leaves := make([]bt.Node, len(p.Steps))
	for i, a := range p.Steps {
		leaves[i] = x.leaf(i, a)
	}
	x.tree = bt.New(bt.Memorize(bt.Sequence), leaves...)
	x.status = types.StatusInProgress
	x.logger.Debug("executor: plan submitted", "goal", p.Goal, "execution", x.execID, "steps", p.Len())
}

// Update advances the plan by one tick.
func (x *Executor) Update() {
	if x.status != types.StatusInProgress {
		return
	}
	x.spent = false
	st, err := x.tree.Tick()
	switch {
	case err != nil:
		x.logger.Error("executor: tick error", "error", err)
		x.finish(types.StatusFailed, "plan_failed", err.Error())
	case st == bt.Success:
		x.finish(types.StatusComplete, "plan_completed", "")
	case st == bt.Failure:
		x.finish(types.StatusFailed, "plan_failed", x.failed)
	}
}

// Status returns the execution status.
func (x *Executor) Status() types.ExecutionStatus {
	return x.status
}

// InterruptExecution abandons the in-flight plan.
func (x *Executor) InterruptExecution() {
	if x.status != types.StatusInProgress {
		return
	}
	x.finish(types.StatusInterrupted, "plan_interrupted", "")
}

// Plan returns the current or most recent plan, or nil.
func (x *Executor) Plan() *planner.Plan {
	return x.plan
}

// ExecutionID identifies the current submission.
func (x *Executor) ExecutionID() string {
	return x.execID
}

// CurrentAction returns the action being executed, if any.
func (x *Executor) CurrentAction() (*types.Action, bool) {
	if x.status != types.StatusInProgress || x.step >= x.plan.Len() {
		return nil, false
	}
	return x.plan.Steps[x.step], true
}

// Restore resumes a saved plan, skipping the steps already done.
func (x *Executor) Restore(p *planner.Plan, done int) {
	rest := &planner.Plan{Goal: p.Goal, Cost: p.Cost}
	if done < p.Len() {
		rest.Steps = p.Steps[done:]
	}
	x.SubmitForExecution(rest)
}

// Progress returns how many steps of the current plan have completed.
func (x *Executor) Progress() int {
	return x.step
}

func (x *Executor) finish(status types.ExecutionStatus, event, reason string) {
	x.status = status
	x.tree = nil
	data := map[string]any{"goal": x.plan.Goal, "execution": x.execID, "steps": x.plan.Len()}
	if reason != "" {
		data["reason"] = reason
	}
	x.emit(types.Event{Type: event, Agent: x.agent, Data: data})
	x.logger.Debug("executor: "+event, "goal", x.plan.Goal, "execution", x.execID)
}

func (x *Executor) leaf(i int, a *types.Action) bt.Node {
	remaining := -1
	return bt.New(func([]bt.Node) (bt.Status, error) {
		if x.spent {
			return bt.Running, nil
		}
		x.spent = true

		if remaining < 0 {
			x.step = i
			if !rules.EvalAll(a.Preconditions, x.world.WorldState()) {
				x.actionFailed(a, "preconditions not met")
				return bt.Failure, nil
			}
			if x.rng != nil && x.failureRate > 0 && x.rng.Chance(x.failureRate) {
				x.actionFailed(a, "fumbled")
				return bt.Failure, nil
			}
			remaining = max(a.Duration, 1)
			x.emit(types.Event{Type: "action_started", Agent: x.agent, Data: map[string]any{"action": a.Name}})
		}

		remaining--
		if remaining > 0 {
			return bt.Running, nil
		}

		x.world.Apply(a.Effects)
		x.step = i + 1
		x.metrics.ActionCompleted(x.agent, a.Name)
		x.emit(types.Event{Type: "action_completed", Agent: x.agent, Data: map[string]any{"action": a.Name}})
		return bt.Success, nil
	})
}

func (x *Executor) actionFailed(a *types.Action, reason string) {
	x.failed = a.Name + ": " + reason
	x.metrics.ActionFailed(x.agent, a.Name)
	x.logger.Info("executor: action failed", "action", a.Name, "reason", reason)
	x.emit(types.Event{Type: "action_failed", Agent: x.agent, Data: map[string]any{
		"action": a.Name,
		"reason": reason,
	}})
}
