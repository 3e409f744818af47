package planner

import (
	"github.com/nathoo/goapcore/engine/effects"
	"github.com/nathoo/goapcore/engine/regress"
	"github.com/nathoo/goapcore/engine/rules"
	"github.com/nathoo/goapcore/engine/search"
	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

type forwardEdge = search.Edge[state.WorldState, *types.Action]

// forwardSpace expands concrete world states by every applicable action.
type forwardSpace struct {
	actions []types.Action
}

func (f forwardSpace) OutgoingEdges(ws state.WorldState) []forwardEdge {
	var edges []forwardEdge
	for i := range f.actions {
		a := &f.actions[i]
		if !rules.EvalAll(a.Preconditions, ws) {
			continue
		}
		edges = append(edges, forwardEdge{
			Source: ws,
			Target: effects.ApplyAction(ws, a),
			Cost:   a.Cost,
			Label:  a,
		})
	}
	return edges
}

type worldComparer struct{}

func (worldComparer) Hash(ws state.WorldState) uint64  { return ws.Hash() }
func (worldComparer) Equal(a, b state.WorldState) bool { return a.Equal(b) }

// Forward plans by searching from the current world state over concrete
// successor states until one satisfies the goal.
type Forward struct {
	maxDepth int
	options
}

// NewForward creates a forward planner whose plans hold at most maxDepth
// actions. A non-positive depth means DefaultMaxDepth.
func NewForward(maxDepth int, opts ...Option) *Forward {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Forward{maxDepth: maxDepth, options: buildOptions(opts)}
}

// MaxDepth returns the plan length bound.
func (p *Forward) MaxDepth() int {
	return p.maxDepth
}

// FormulatePlan has the same contract as Regressive.FormulatePlan.
func (p *Forward) FormulatePlan(ws state.WorldState, actions []types.Action, goal types.Goal) (*Plan, error) {
	required, ok := regress.FromPreconditions(goal.Preconditions)
	if !ok {
		return nil, p.fail(goal, ReasonUnsatisfiable, 0)
	}

	reached := func(n, _ state.WorldState) bool { return required.Satisfies(n) }
	pf := search.New[state.WorldState, *types.Action](
		forwardHeuristic(p.heuristic, required, actions),
		search.WithMaxDepth(p.maxDepth),
		search.WithLogger(p.logger),
	)
	path, stats, err := pf.Search(forwardSpace{actions: actions}, ws, state.WorldState{}, reached, worldComparer{})
	if err != nil {
		reason := ReasonNoPath
		if stats.Pruned > 0 {
			reason = ReasonDepth
		}
		return nil, p.fail(goal, reason, stats.Expanded)
	}

	plan := &Plan{Goal: goal.Name, Steps: path.Labels(), Cost: path.Cost}
	p.metrics.ObservePlan(KindForward, stats.Expanded, plan.Cost, plan.Len())
	p.logger.Debug("planner: plan found",
		"planner", KindForward, "goal", goal.Name,
		"cost", plan.Cost, "steps", plan.ActionNames(), "expanded", stats.Expanded)
	return plan, nil
}

func (p *Forward) fail(goal types.Goal, reason Reason, expanded int) error {
	p.metrics.ObserveFailure(KindForward, string(reason), expanded)
	p.logger.Debug("planner: no plan",
		"planner", KindForward, "goal", goal.Name,
		"reason", reason, "expanded", expanded, "max_depth", p.maxDepth)
	return &NoPlanError{Goal: goal.Name, Reason: reason, Expanded: expanded}
}
