package planner

import (
	"slices"

	"github.com/nathoo/goapcore/engine/regress"
	"github.com/nathoo/goapcore/engine/search"
	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

// Regressive plans by searching backward from the goal's constraints toward
// the current world state.
type Regressive struct {
	maxDepth int
	options
}

// NewRegressive creates a regressive planner whose plans hold at most
// maxDepth actions. A non-positive depth means DefaultMaxDepth.
func NewRegressive(maxDepth int, opts ...Option) *Regressive {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Regressive{maxDepth: maxDepth, options: buildOptions(opts)}
}

// MaxDepth returns the plan length bound.
func (p *Regressive) MaxDepth() int {
	return p.maxDepth
}

// FormulatePlan returns a minimum-cost plan that takes ws to a state
// satisfying goal, or a *NoPlanError. Neither ws, actions nor goal is
// modified.
func (p *Regressive) FormulatePlan(ws state.WorldState, actions []types.Action, goal types.Goal) (*Plan, error) {
	root, ok := regress.FromPreconditions(goal.Preconditions)
	if !ok {
		return nil, p.fail(goal, ReasonUnsatisfiable, 0)
	}

	space := regress.NewSpace(actions)
	start := space.AddRegular(root)
	target := space.AddTarget(ws)

	pf := search.New[regress.NodeID, *types.Action](
		regressiveHeuristic(p.heuristic, space, actions),
		search.WithMaxDepth(p.maxDepth),
		search.WithLogger(p.logger),
	)
	path, stats, err := pf.Search(space, start, target, space.Satisfies, space)
	if err != nil {
		reason := ReasonNoPath
		if stats.Pruned > 0 {
			reason = ReasonDepth
		}
		return nil, p.fail(goal, reason, stats.Expanded)
	}

	// Regression walks from the goal back to the current state, so the
	// first edge is the last action to run.
	steps := path.Labels()
	slices.Reverse(steps)
	plan := &Plan{Goal: goal.Name, Steps: steps, Cost: path.Cost}

	p.metrics.ObservePlan(KindRegressive, stats.Expanded, plan.Cost, plan.Len())
	p.logger.Debug("planner: plan found",
		"planner", KindRegressive, "goal", goal.Name,
		"cost", plan.Cost, "steps", plan.ActionNames(),
		"expanded", stats.Expanded, "nodes", space.Len())
	return plan, nil
}

func (p *Regressive) fail(goal types.Goal, reason Reason, expanded int) error {
	p.metrics.ObserveFailure(KindRegressive, string(reason), expanded)
	p.logger.Debug("planner: no plan",
		"planner", KindRegressive, "goal", goal.Name,
		"reason", reason, "expanded", expanded, "max_depth", p.maxDepth)
	return &NoPlanError{Goal: goal.Name, Reason: reason, Expanded: expanded}
}
