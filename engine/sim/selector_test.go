package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

func goalNames(goals []types.Goal) []string {
	var out []string
	for _, g := range goals {
		out = append(out, g.Name)
	}
	return out
}

func villageGoals() []types.Goal {
	return []types.Goal{
		{
			Name:          "Stockpile",
			Preconditions: []types.Precondition{{Kind: types.PreNotSmaller, Symbol: "Wood", Value: 20}},
			Priority:      1,
			SourceOrder:   0,
		},
		{
			Name:          "BuildHouse",
			Preconditions: []types.Precondition{{Kind: types.PreIsTrue, Symbol: "HouseBuilt"}},
			Priority:      5,
			SourceOrder:   1,
		},
		{
			Name:          "Warm",
			Preconditions: []types.Precondition{{Kind: types.PreIsTrue, Symbol: "FireLit"}},
			Priority:      1,
			RelevantWhen:  "Cold == 1 && Wood > 0",
			SourceOrder:   2,
		},
	}
}

func TestSelector_PriorityThenDeclarationOrder(t *testing.T) {
	w := NewWorld(state.NewBuilder().Set("Wood", 5).Set("HouseBuilt", 0).Set("FireLit", 0).Set("Cold", 1).Build())
	s, err := NewSelector(w, villageGoals(), types.Goal{Name: "Idle"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"BuildHouse", "Stockpile", "Warm"}, goalNames(s.RelevantGoals()))
	assert.Equal(t, "Idle", s.DefaultGoal().Name)
	assert.Equal(t, []string{"BuildHouse", "Stockpile", "Warm"}, goalNames(s.Goals()))
}

func TestSelector_SatisfiedGoalsAreNotRelevant(t *testing.T) {
	w := NewWorld(state.NewBuilder().Set("Wood", 25).Set("HouseBuilt", 1).Set("FireLit", 0).Set("Cold", 1).Build())
	s, err := NewSelector(w, villageGoals(), types.Goal{Name: "Idle"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Warm"}, goalNames(s.RelevantGoals()))
}

func TestSelector_RelevantWhen(t *testing.T) {
	w := NewWorld(state.NewBuilder().Set("Wood", 5).Set("HouseBuilt", 1).Set("FireLit", 0).Set("Cold", 0).Build())
	s, err := NewSelector(w, villageGoals(), types.Goal{Name: "Idle"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Stockpile"}, goalNames(s.RelevantGoals()))

	w.Set("Cold", 1)
	assert.Equal(t, []string{"Stockpile", "Warm"}, goalNames(s.RelevantGoals()), "world change invalidates cache")
}

func TestSelector_UndefinedSymbolIsNotRelevant(t *testing.T) {
	w := NewWorld(state.NewBuilder().Set("Wood", 5).Set("HouseBuilt", 1).Set("FireLit", 0).Build())
	s, err := NewSelector(w, villageGoals(), types.Goal{Name: "Idle"}, nil)
	require.NoError(t, err)
	assert.NotContains(t, goalNames(s.RelevantGoals()), "Warm")
}

func TestSelector_CachesUntilForced(t *testing.T) {
	w := NewWorld(state.NewBuilder().Set("Wood", 5).Set("HouseBuilt", 0).Build())
	goals := villageGoals()[:2]
	s, err := NewSelector(w, goals, types.Goal{Name: "Idle"}, nil)
	require.NoError(t, err)

	first := s.RelevantGoals()
	// Tamper with the sorted goal list behind the cache's back.
	s.goals = s.goals[:1]
	assert.Equal(t, first, s.RelevantGoals(), "cached while the world is unchanged")

	s.ForceReevaluation()
	assert.Equal(t, []string{"BuildHouse"}, goalNames(s.RelevantGoals()))
}

func TestSelector_BadExpression(t *testing.T) {
	w := NewWorld(state.WorldState{})
	_, err := NewSelector(w, []types.Goal{{Name: "Broken", RelevantWhen: "Wood <"}}, types.Goal{Name: "Idle"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `goal "Broken"`)
}

func TestCompileRelevance_RequiresBool(t *testing.T) {
	_, err := CompileRelevance("1 + 2")
	assert.Error(t, err)
	_, err = CompileRelevance("Wood >= 3 || HasAxe == 1")
	assert.NoError(t, err)
}
