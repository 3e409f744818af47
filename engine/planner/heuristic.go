package planner

import (
	"math"

	"github.com/nathoo/goapcore/engine/regress"
	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

// actionBounds returns the most effects any single action has and the
// cheapest action cost. Together they bound how fast a plan can repair
// unmet constraints.
func actionBounds(actions []types.Action) (maxEffects int, minCost float64) {
	if len(actions) == 0 {
		return 0, 0
	}
	minCost = math.Inf(1)
	for i := range actions {
		maxEffects = max(maxEffects, len(actions[i].Effects))
		minCost = min(minCost, actions[i].Cost)
	}
	return maxEffects, minCost
}

// unsatisfiedEstimate converts a count of unmet symbols into a cost bound.
// One action changes at most maxEffects symbols and costs at least minCost,
// so the estimate never exceeds the true remaining cost, and it drops by at
// most minCost across any single edge.
func unsatisfiedEstimate(unmet, maxEffects int, minCost float64) float64 {
	if unmet == 0 || maxEffects == 0 || minCost <= 0 {
		return 0
	}
	steps := (unmet + maxEffects - 1) / maxEffects
	return float64(steps) * minCost
}

func regressiveHeuristic(name string, space *regress.Space, actions []types.Action) func(n, target regress.NodeID) float64 {
	if name == HeuristicZero {
		return nil
	}
	k, c := actionBounds(actions)
	return func(n, target regress.NodeID) float64 {
		unmet := len(space.Constraints(n).Unmet(space.World(target)))
		return unsatisfiedEstimate(unmet, k, c)
	}
}

func forwardHeuristic(name string, goal regress.Constraints, actions []types.Action) func(n, _ state.WorldState) float64 {
	if name == HeuristicZero {
		return nil
	}
	k, c := actionBounds(actions)
	return func(n, _ state.WorldState) float64 {
		return unsatisfiedEstimate(len(goal.Unmet(n)), k, c)
	}
}
