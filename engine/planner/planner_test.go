package planner

import (
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/goapcore/engine/effects"
	"github.com/nathoo/goapcore/engine/metrics"
	"github.com/nathoo/goapcore/engine/rules"
	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

func pre(kind string, sym types.SymbolID, v int) types.Precondition {
	return types.Precondition{Kind: kind, Symbol: sym, Value: v}
}

func eff(kind string, sym types.SymbolID, v int) types.Effect {
	return types.Effect{Kind: kind, Symbol: sym, Value: v}
}

func houseWorld() state.WorldState {
	return state.NewBuilder().
		Set("Wood", 10).
		Set("Stone", 8).
		Set("Iron", 0).
		Set("HouseBuilt", 0).
		Set("WoodInStorage", 15).
		Set("StoneInStorage", 0).
		Set("IronInStorage", 0).
		Set("HasAxe", 0).
		Set("AxesAvailable", 1).
		Build()
}

func houseActions() []types.Action {
	return []types.Action{
		{
			Name:          "BuildHouse",
			Preconditions: []types.Precondition{pre(types.PreNotSmaller, "Wood", 20), pre(types.PreNotSmaller, "Stone", 5)},
			Effects: []types.Effect{
				eff(types.EffSetTrue, "HouseBuilt", 0),
				eff(types.EffSubtract, "Wood", 20),
				eff(types.EffSubtract, "Stone", 5),
			},
			Cost: 30,
		},
		{
			Name:          "GetWoodFromStorage",
			Preconditions: []types.Precondition{pre(types.PreNotSmaller, "WoodInStorage", 1)},
			Effects:       []types.Effect{eff(types.EffAdd, "Wood", 1), eff(types.EffSubtract, "WoodInStorage", 1)},
			Cost:          2,
		},
		{
			Name:          "GetStoneFromStorage",
			Preconditions: []types.Precondition{pre(types.PreNotSmaller, "StoneInStorage", 1)},
			Effects:       []types.Effect{eff(types.EffAdd, "Stone", 1), eff(types.EffSubtract, "StoneInStorage", 1)},
			Cost:          3,
		},
		{
			Name:          "GetIronFromStorage",
			Preconditions: []types.Precondition{pre(types.PreNotSmaller, "IronInStorage", 1)},
			Effects:       []types.Effect{eff(types.EffAdd, "Iron", 1), eff(types.EffSubtract, "IronInStorage", 1)},
			Cost:          2,
		},
		{
			Name:          "CutTrees",
			Preconditions: []types.Precondition{pre(types.PreIsTrue, "HasAxe", 0)},
			Effects:       []types.Effect{eff(types.EffAdd, "Wood", 8)},
			Cost:          5,
		},
		{
			Name:          "TakeAxe",
			Preconditions: []types.Precondition{pre(types.PreIsFalse, "HasAxe", 0), pre(types.PreNotSmaller, "AxesAvailable", 1)},
			Effects:       []types.Effect{eff(types.EffSetTrue, "HasAxe", 0), eff(types.EffSubtract, "AxesAvailable", 1)},
			Cost:          1,
		},
		{
			Name: "MakeAxe",
			Preconditions: []types.Precondition{
				pre(types.PreIsFalse, "HasAxe", 0),
				pre(types.PreNotSmaller, "Wood", 2),
				pre(types.PreNotSmaller, "Iron", 3),
			},
			Effects: []types.Effect{
				eff(types.EffSetTrue, "HasAxe", 0),
				eff(types.EffSubtract, "Wood", 2),
				eff(types.EffSubtract, "Iron", 3),
			},
			Cost: 15,
		},
	}
}

func houseGoal() types.Goal {
	return types.Goal{Name: "BuildHouse", Preconditions: []types.Precondition{pre(types.PreIsTrue, "HouseBuilt", 0)}}
}

// cheapestByEnumeration tries every applicable action sequence up to depth
// and returns the lowest cost that reaches the goal.
func cheapestByEnumeration(ws state.WorldState, actions []types.Action, goal types.Goal, depth int) float64 {
	best := math.Inf(1)
	var walk func(ws state.WorldState, cost float64, left int)
	walk = func(ws state.WorldState, cost float64, left int) {
		if cost >= best {
			return
		}
		if rules.EvalAll(goal.Preconditions, ws) {
			best = cost
			return
		}
		if left == 0 {
			return
		}
		for i := range actions {
			if rules.EvalAll(actions[i].Preconditions, ws) {
				walk(effects.ApplyAction(ws, &actions[i]), cost+actions[i].Cost, left-1)
			}
		}
	}
	walk(ws, 0, depth)
	return best
}

// replay executes a plan forward, checking each step's preconditions.
func replay(t *testing.T, ws state.WorldState, plan *Plan) (state.WorldState, float64) {
	t.Helper()
	var cost float64
	for _, a := range plan.Steps {
		require.True(t, rules.EvalAll(a.Preconditions, ws), "step %s not applicable in %s", a.Name, ws)
		ws = effects.ApplyAction(ws, a)
		cost += a.Cost
	}
	return ws, cost
}

func TestRegressive_HouseScenario(t *testing.T) {
	ws := houseWorld()
	actions := houseActions()
	goal := houseGoal()

	plan, err := NewRegressive(8).FormulatePlan(ws, actions, goal)
	require.NoError(t, err)

	final, cost := replay(t, ws, plan)
	assert.True(t, rules.EvalAll(goal.Preconditions, final))
	assert.Equal(t, cost, plan.Cost)
	assert.Equal(t, cheapestByEnumeration(ws, actions, goal, 8), plan.Cost)
	assert.Equal(t, 40.0, plan.Cost)
	assert.Equal(t, "BuildHouse", plan.ActionNames()[plan.Len()-1])
	assert.ElementsMatch(t,
		[]string{"TakeAxe", "CutTrees", "GetWoodFromStorage", "GetWoodFromStorage", "BuildHouse"},
		plan.ActionNames())
}

func TestRegressive_StepsPointIntoLibrary(t *testing.T) {
	actions := houseActions()
	plan, err := NewRegressive(8).FormulatePlan(houseWorld(), actions, houseGoal())
	require.NoError(t, err)
	last := plan.Steps[plan.Len()-1]
	assert.Same(t, &actions[0], last)
}

func TestRegressive_DoesNotModifyInputs(t *testing.T) {
	ws := houseWorld()
	actions := houseActions()
	goal := houseGoal()
	_, err := NewRegressive(8).FormulatePlan(ws, actions, goal)
	require.NoError(t, err)

	assert.True(t, ws.Equal(houseWorld()))
	assert.Equal(t, houseActions(), actions)
	assert.Equal(t, houseGoal(), goal)
}

func TestRegressive_ZeroHeuristicSameCost(t *testing.T) {
	plan, err := NewRegressive(8, WithHeuristic(HeuristicZero)).FormulatePlan(houseWorld(), houseActions(), houseGoal())
	require.NoError(t, err)
	assert.Equal(t, 40.0, plan.Cost)
}

func TestForward_MatchesRegressive(t *testing.T) {
	for _, h := range []string{HeuristicUnsatisfied, HeuristicZero} {
		t.Run(h, func(t *testing.T) {
			plan, err := NewForward(8, WithHeuristic(h)).FormulatePlan(houseWorld(), houseActions(), houseGoal())
			require.NoError(t, err)
			final, cost := replay(t, houseWorld(), plan)
			assert.Equal(t, 1, final.Value("HouseBuilt"))
			assert.Equal(t, cost, plan.Cost)
			assert.Equal(t, 40.0, plan.Cost)
		})
	}
}

func TestRegressive_AlreadySatisfied(t *testing.T) {
	ws := houseWorld().Builder().Set("HouseBuilt", 1).Build()
	plan, err := NewRegressive(8).FormulatePlan(ws, houseActions(), houseGoal())
	require.NoError(t, err)
	assert.Equal(t, 0, plan.Len())
	assert.Zero(t, plan.Cost)
	assert.Equal(t, "BuildHouse: (already satisfied)", plan.String())
}

func TestRegressive_GoalOnUnknownSymbol(t *testing.T) {
	goal := types.Goal{Name: "Wealthy", Preconditions: []types.Precondition{
		pre(types.PreNotSmaller, "Gold", 1),
		pre(types.PreNotSmaller, "Wood", 5),
	}}
	for _, p := range []Planner{NewRegressive(8), NewForward(8)} {
		plan, err := p.FormulatePlan(houseWorld(), houseActions(), goal)
		require.NoError(t, err)
		assert.Equal(t, 0, plan.Len(), "a symbol the world lacks is unconstrained")
	}
}

func TestRegressive_UnsatisfiableGoal(t *testing.T) {
	goal := types.Goal{Name: "Paradox", Preconditions: []types.Precondition{
		pre(types.PreIsTrue, "HouseBuilt", 0),
		pre(types.PreIsFalse, "HouseBuilt", 0),
	}}
	for _, p := range []Planner{NewRegressive(8), NewForward(8)} {
		_, err := p.FormulatePlan(houseWorld(), houseActions(), goal)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNoPlan))
		var npe *NoPlanError
		require.ErrorAs(t, err, &npe)
		assert.Equal(t, ReasonUnsatisfiable, npe.Reason)
		assert.Equal(t, "Paradox", npe.Goal)
	}
}

func TestRegressive_NoPath(t *testing.T) {
	goal := types.Goal{Name: "Forge", Preconditions: []types.Precondition{pre(types.PreNotSmaller, "Iron", 3)}}
	_, err := NewRegressive(8).FormulatePlan(houseWorld(), houseActions(), goal)
	require.ErrorIs(t, err, ErrNoPlan)
}

func TestRegressive_DepthBound(t *testing.T) {
	// Mining never becomes possible, but each backward step yields a new,
	// tighter constraint set, so the chain is unbounded without a depth.
	actions := []types.Action{{
		Name:          "Mine",
		Preconditions: []types.Precondition{pre(types.PreIsTrue, "HasPick", 0)},
		Effects:       []types.Effect{eff(types.EffAdd, "Gold", 1)},
		Cost:          1,
	}}
	ws := state.NewBuilder().Set("Gold", 0).Set("HasPick", 0).Build()
	goal := types.Goal{Name: "Rich", Preconditions: []types.Precondition{pre(types.PreNotSmaller, "Gold", 100)}}

	_, err := NewRegressive(5).FormulatePlan(ws, actions, goal)
	var npe *NoPlanError
	require.ErrorAs(t, err, &npe)
	assert.Equal(t, ReasonDepth, npe.Reason)
	assert.LessOrEqual(t, npe.Expanded, 5)
}

func TestRegressive_DepthLimitsPlanLength(t *testing.T) {
	actions := []types.Action{{
		Name:    "Mine",
		Effects: []types.Effect{eff(types.EffAdd, "Gold", 1)},
		Cost:    1,
	}}
	ws := state.NewBuilder().Set("Gold", 0).Build()
	goal := types.Goal{Name: "Some", Preconditions: []types.Precondition{pre(types.PreNotSmaller, "Gold", 3)}}

	_, err := NewRegressive(2).FormulatePlan(ws, actions, goal)
	require.ErrorIs(t, err, ErrNoPlan)

	plan, err := NewRegressive(3).FormulatePlan(ws, actions, goal)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mine", "Mine", "Mine"}, plan.ActionNames())
}

func TestRegressive_CyclicActions(t *testing.T) {
	// Fetch and Return undo each other; the goal needs a third resource.
	actions := []types.Action{
		{Name: "Fetch", Effects: []types.Effect{eff(types.EffSetTrue, "Holding", 0)}, Cost: 1},
		{Name: "Return", Effects: []types.Effect{eff(types.EffSetFalse, "Holding", 0)}, Cost: 1},
		{
			Name:          "Craft",
			Preconditions: []types.Precondition{pre(types.PreIsTrue, "Holding", 0), pre(types.PreIsTrue, "Workbench", 0)},
			Effects:       []types.Effect{eff(types.EffSetTrue, "Crafted", 0)},
			Cost:          3,
		},
	}
	ws := state.NewBuilder().Set("Holding", 0).Set("Workbench", 0).Set("Crafted", 0).Build()
	goal := types.Goal{Name: "Craft", Preconditions: []types.Precondition{pre(types.PreIsTrue, "Crafted", 0)}}

	_, err := NewRegressive(6).FormulatePlan(ws, actions, goal)
	assert.ErrorIs(t, err, ErrNoPlan)

	ws = ws.Builder().Set("Workbench", 1).Build()
	plan, err := NewRegressive(6).FormulatePlan(ws, actions, goal)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fetch", "Craft"}, plan.ActionNames())
	assert.Equal(t, 4.0, plan.Cost)
}

func TestPlanner_Metrics(t *testing.T) {
	m := metrics.New()
	p := NewRegressive(8, WithMetrics(m))
	_, err := p.FormulatePlan(houseWorld(), houseActions(), houseGoal())
	require.NoError(t, err)
	_, err = p.FormulatePlan(houseWorld(), houseActions(), types.Goal{Name: "Forge",
		Preconditions: []types.Precondition{pre(types.PreNotSmaller, "Iron", 3)}})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlansFound.WithLabelValues(KindRegressive)))
	var npe *NoPlanError
	require.ErrorAs(t, err, &npe)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlansFailed.WithLabelValues(KindRegressive, string(npe.Reason))))
}

func TestNew(t *testing.T) {
	p, err := New(Config{})
	require.NoError(t, err)
	r, ok := p.(*Regressive)
	require.True(t, ok)
	assert.Equal(t, DefaultMaxDepth, r.MaxDepth())

	p, err = New(Config{Kind: KindForward, MaxDepth: 4, Heuristic: HeuristicZero})
	require.NoError(t, err)
	f, ok := p.(*Forward)
	require.True(t, ok)
	assert.Equal(t, 4, f.MaxDepth())
	assert.Equal(t, HeuristicZero, f.heuristic)

	_, err = New(Config{Kind: "sideways"})
	assert.Error(t, err)
	_, err = New(Config{Heuristic: "magic"})
	assert.Error(t, err)
	_, err = New(Config{MaxDepth: -1})
	assert.Error(t, err)
}

func TestUnsatisfiedEstimate(t *testing.T) {
	assert.Zero(t, unsatisfiedEstimate(0, 3, 1))
	assert.Equal(t, 1.0, unsatisfiedEstimate(3, 3, 1))
	assert.Equal(t, 4.0, unsatisfiedEstimate(4, 3, 2))
	assert.Zero(t, unsatisfiedEstimate(4, 0, 2))
}

func TestPlan_String(t *testing.T) {
	actions := houseActions()
	p := &Plan{Goal: "BuildHouse", Steps: []*types.Action{&actions[5], &actions[0]}, Cost: 31}
	assert.Equal(t, "BuildHouse: TakeAxe -> BuildHouse (cost 31)", p.String())
}
