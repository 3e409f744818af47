package regress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/goapcore/engine/ranges"
	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

func houseActions() []types.Action {
	return []types.Action{
		{
			Name: "BuildHouse",
			Preconditions: []types.Precondition{
				{Kind: types.PreNotSmaller, Symbol: "Wood", Value: 20},
				{Kind: types.PreNotSmaller, Symbol: "Stone", Value: 5},
			},
			Effects: []types.Effect{
				{Kind: types.EffSetTrue, Symbol: "HouseBuilt"},
				{Kind: types.EffSubtract, Symbol: "Wood", Value: 20},
				{Kind: types.EffSubtract, Symbol: "Stone", Value: 5},
			},
			Cost: 30,
		},
		{
			Name:          "GetWoodFromStorage",
			Preconditions: []types.Precondition{{Kind: types.PreNotSmaller, Symbol: "WoodInStorage", Value: 1}},
			Effects: []types.Effect{
				{Kind: types.EffAdd, Symbol: "Wood", Value: 1},
				{Kind: types.EffSubtract, Symbol: "WoodInStorage", Value: 1},
			},
			Cost: 2,
		},
		{
			Name:          "CutTrees",
			Preconditions: []types.Precondition{{Kind: types.PreIsTrue, Symbol: "HasAxe"}},
			Effects:       []types.Effect{{Kind: types.EffAdd, Symbol: "Wood", Value: 8}},
			Cost:          5,
		},
		{
			Name: "TakeAxe",
			Preconditions: []types.Precondition{
				{Kind: types.PreIsFalse, Symbol: "HasAxe"},
				{Kind: types.PreNotSmaller, Symbol: "AxesAvailable", Value: 1},
			},
			Effects: []types.Effect{
				{Kind: types.EffSetTrue, Symbol: "HasAxe"},
				{Kind: types.EffSubtract, Symbol: "AxesAvailable", Value: 1},
			},
			Cost: 1,
		},
	}
}

func TestConstraints_OrderIndependentEquality(t *testing.T) {
	a := NewConstraintsBuilder().
		Set("Wood", ranges.AtLeast(20)).
		Set("Stone", ranges.AtLeast(5)).
		Build()
	b := NewConstraintsBuilder().
		Intersect("Stone", ranges.AtLeast(5)).
		Set("HasAxe", ranges.Exactly(1)).
		Intersect("Wood", ranges.AtLeast(20)).
		Unset("HasAxe").
		Build()

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, "{Stone>=5, Wood>=20}", a.String())
}

func TestConstraints_AnyIsNotStored(t *testing.T) {
	c := NewConstraintsBuilder().
		Set("Wood", ranges.AtLeast(3)).
		Set("Wood", ranges.Any()).
		Build()
	assert.Equal(t, 0, c.Len())
	assert.False(t, c.Has("Wood"))
	assert.True(t, c.Get("Wood").IsAny())
	assert.True(t, c.Equal(Constraints{}))
}

func TestConstraints_BuilderDoesNotLeak(t *testing.T) {
	b := NewConstraintsBuilder().Set("Wood", ranges.AtLeast(3))
	c := b.Build()
	b.Set("Wood", ranges.AtLeast(10)).Set("Stone", ranges.Exactly(1))
	assert.Equal(t, ranges.AtLeast(3), c.Get("Wood"))
	assert.Equal(t, 1, c.Len())

	derived := c.Builder().Clear().Build()
	assert.Equal(t, 0, derived.Len())
	assert.Equal(t, 1, c.Len())
}

func TestConstraintsBuilder_Unsatisfiable(t *testing.T) {
	b := NewConstraintsBuilder().
		Intersect("HasAxe", ranges.Exactly(1)).
		Intersect("HasAxe", ranges.Exactly(0))
	assert.True(t, b.Unsatisfiable())
	b.Unset("HasAxe")
	assert.False(t, b.Unsatisfiable())
}

func TestConstraints_Satisfies(t *testing.T) {
	ws := state.NewBuilder().Set("Wood", 10).Set("HasAxe", 0).Build()
	assert.True(t, Constraints{}.Satisfies(ws))
	assert.True(t, NewConstraintsBuilder().Set("Wood", ranges.AtLeast(10)).Build().Satisfies(ws))
	assert.False(t, NewConstraintsBuilder().Set("Wood", ranges.AtLeast(11)).Build().Satisfies(ws))
	assert.True(t, NewConstraintsBuilder().Set("Stone", ranges.AtLeast(1)).Build().Satisfies(ws),
		"symbols the state does not know are not checked")

	c := NewConstraintsBuilder().
		Set("Wood", ranges.AtLeast(20)).
		Set("HasAxe", ranges.Exactly(0)).
		Set("Stone", ranges.AtLeast(3)).
		Build()
	assert.Equal(t, []types.SymbolID{"Wood"}, c.Unmet(ws))
}

func TestFromPreconditions(t *testing.T) {
	c, ok := FromPreconditions([]types.Precondition{
		{Kind: types.PreNotSmaller, Symbol: "Wood", Value: 5},
		{Kind: types.PreNotGreater, Symbol: "Wood", Value: 8},
	})
	require.True(t, ok)
	assert.Equal(t, ranges.Between(5, 8), c.Get("Wood"))

	_, ok = FromPreconditions([]types.Precondition{
		{Kind: types.PreIsTrue, Symbol: "HouseBuilt"},
		{Kind: types.PreIsFalse, Symbol: "HouseBuilt"},
	})
	assert.False(t, ok)
}

func TestRegress_BuildHouse(t *testing.T) {
	actions := houseActions()
	goal := NewConstraintsBuilder().Set("HouseBuilt", ranges.Exactly(1)).Build()

	got, ok := Regress(goal, &actions[0])
	require.True(t, ok)
	want := NewConstraintsBuilder().
		Set("Wood", ranges.AtLeast(20)).
		Set("Stone", ranges.AtLeast(5)).
		Build()
	assert.True(t, want.Equal(got), "got %s", got)
}

func TestRegress_AccumulatesCounts(t *testing.T) {
	actions := houseActions()
	c := NewConstraintsBuilder().
		Set("Wood", ranges.AtLeast(19)).
		Set("WoodInStorage", ranges.AtLeast(1)).
		Build()

	got, ok := Regress(c, &actions[1])
	require.True(t, ok)
	assert.Equal(t, ranges.AtLeast(18), got.Get("Wood"))
	assert.Equal(t, ranges.AtLeast(2), got.Get("WoodInStorage"))
}

func TestRegress_TakeAxeReplacesRequirement(t *testing.T) {
	actions := houseActions()
	c := NewConstraintsBuilder().Set("HasAxe", ranges.Exactly(1)).Build()

	got, ok := Regress(c, &actions[3])
	require.True(t, ok)
	assert.Equal(t, ranges.Exactly(0), got.Get("HasAxe"))
	assert.Equal(t, ranges.AtLeast(1), got.Get("AxesAvailable"))
}

func TestRegress_SkipsIrrelevantAndConflicting(t *testing.T) {
	actions := houseActions()
	c := NewConstraintsBuilder().Set("Stone", ranges.AtLeast(5)).Build()
	_, ok := Regress(c, &actions[2])
	assert.False(t, ok, "CutTrees does not touch Stone")

	// HouseBuilt must stay false, but BuildHouse sets it.
	c = NewConstraintsBuilder().Set("HouseBuilt", ranges.Exactly(0)).Build()
	_, ok = Regress(c, &actions[0])
	assert.False(t, ok)

	c = NewConstraintsBuilder().
		Set("AxesAvailable", ranges.AtLeast(0)).
		Set("HasAxe", ranges.Exactly(1)).
		Build()
	got, ok := Regress(c, &actions[3])
	require.True(t, ok, "HasAxe=1 is produced by TakeAxe itself")
	assert.Equal(t, ranges.Exactly(0), got.Get("HasAxe"))

	c = NewConstraintsBuilder().
		Set("AxesAvailable", ranges.AtLeast(0)).
		Set("HasAxe", ranges.Exactly(0)).
		Build()
	_, ok = Regress(c, &actions[3])
	assert.False(t, ok, "TakeAxe cannot leave HasAxe false")
}

func TestSpace_EdgesAreCached(t *testing.T) {
	actions := houseActions()
	s := NewSpace(actions)
	root := s.AddRegular(NewConstraintsBuilder().Set("Wood", ranges.AtLeast(20)).Build())

	first := s.OutgoingEdges(root)
	n := s.Len()
	second := s.OutgoingEdges(root)

	// BuildHouse consumes wood, so it is relevant too.
	require.Len(t, first, 3)
	assert.Equal(t, first, second)
	assert.Equal(t, n, s.Len(), "second query must not create nodes")
	assert.Equal(t, 1, s.Expansions())
	assert.Same(t, &actions[0], first[0].Label)
	assert.Same(t, &actions[1], first[1].Label)
	assert.Same(t, &actions[2], first[2].Label)
	assert.Equal(t, 2.0, first[1].Cost)
	assert.Equal(t, ranges.AtLeast(40), s.Constraints(first[0].Target).Get("Wood"))
}

func TestSpace_TargetNode(t *testing.T) {
	s := NewSpace(houseActions())
	ws := state.NewBuilder().Set("Wood", 25).Build()
	target := s.AddTarget(ws)
	other := s.AddTarget(ws)
	reg := s.AddRegular(NewConstraintsBuilder().Set("Wood", ranges.AtLeast(20)).Build())

	assert.True(t, s.IsTarget(target))
	assert.Nil(t, s.OutgoingEdges(target))
	assert.True(t, s.Satisfies(reg, target))
	assert.False(t, s.Equal(reg, target))
	assert.Panics(t, func() { s.Constraints(target) })
	assert.Panics(t, func() { s.Equal(target, other) })
	assert.Panics(t, func() { s.Satisfies(target, other) })
	assert.Panics(t, func() { s.World(reg) })
}

func TestSpace_SatisfiesIgnoresUnknownSymbols(t *testing.T) {
	s := NewSpace(nil)
	target := s.AddTarget(state.NewBuilder().Set("Wood", 10).Build())
	met := s.AddRegular(NewConstraintsBuilder().
		Set("Gold", ranges.AtLeast(1)).
		Set("Wood", ranges.AtLeast(5)).
		Build())
	unmet := s.AddRegular(NewConstraintsBuilder().
		Set("Gold", ranges.AtLeast(1)).
		Set("Wood", ranges.AtLeast(11)).
		Build())

	assert.True(t, s.Satisfies(met, target))
	assert.Empty(t, s.Constraints(met).Unmet(s.World(target)))
	assert.False(t, s.Satisfies(unmet, target))
	assert.Equal(t, []types.SymbolID{"Wood"}, s.Constraints(unmet).Unmet(s.World(target)))
}

func TestSpace_StructuralDedup(t *testing.T) {
	s := NewSpace(nil)
	a := s.AddRegular(NewConstraintsBuilder().Set("A", ranges.Exactly(1)).Set("B", ranges.AtLeast(2)).Build())
	b := s.AddRegular(NewConstraintsBuilder().Set("B", ranges.AtLeast(2)).Set("A", ranges.Exactly(1)).Build())
	c := s.AddRegular(NewConstraintsBuilder().Set("A", ranges.Exactly(1)).Build())

	assert.NotEqual(t, a, b)
	assert.True(t, s.Equal(a, b))
	assert.Equal(t, s.Hash(a), s.Hash(b))
	assert.False(t, s.Equal(a, c))
}
