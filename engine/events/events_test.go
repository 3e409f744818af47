package events

import (
	"testing"

	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

func testHandlers() []types.EventHandler {
	return []types.EventHandler{
		{
			EventType: "action_completed",
			Match:     map[string]string{"action": "BuildHouse"},
			Effects:   []types.Effect{{Kind: types.EffAdd, Symbol: "Houses", Value: 1}},
			Say:       "A new house stands in the village.",
		},
		{
			EventType:  "plan_failed",
			Conditions: []types.Precondition{{Kind: types.PreIsTrue, Symbol: "Storm"}},
			Effects:    []types.Effect{{Kind: types.EffSetFalse, Symbol: "Storm"}},
		},
		{
			EventType: "action_completed",
			Match:     map[string]string{"agent": "miner"},
			Effects:   []types.Effect{{Kind: types.EffAdd, Symbol: "MinerShifts", Value: 1}},
		},
	}
}

func testWorld() state.WorldState {
	return state.NewBuilder().Set("Storm", 0).Set("Houses", 0).Build()
}

func TestDispatch_MatchingEvent(t *testing.T) {
	evts := []types.Event{{Type: "action_completed", Agent: "builder", Data: map[string]any{"action": "BuildHouse"}}}
	effs, out := Dispatch(evts, testWorld(), testHandlers())
	if len(effs) != 1 || effs[0].Symbol != "Houses" {
		t.Fatalf("expected one Houses effect, got %v", effs)
	}
	if len(out) != 1 || out[0] != "A new house stands in the village." {
		t.Errorf("expected handler text, got %v", out)
	}
}

func TestDispatch_FieldMismatch(t *testing.T) {
	evts := []types.Event{{Type: "action_completed", Agent: "builder", Data: map[string]any{"action": "CutTrees"}}}
	effs, out := Dispatch(evts, testWorld(), testHandlers())
	if len(effs) != 0 || len(out) != 0 {
		t.Errorf("expected nothing, got %v %v", effs, out)
	}
}

func TestDispatch_AgentFilter(t *testing.T) {
	evts := []types.Event{{Type: "action_completed", Agent: "miner", Data: map[string]any{"action": "Mine"}}}
	effs, _ := Dispatch(evts, testWorld(), testHandlers())
	if len(effs) != 1 || effs[0].Symbol != "MinerShifts" {
		t.Errorf("expected MinerShifts effect, got %v", effs)
	}
}

func TestDispatch_ConditionsNotMet(t *testing.T) {
	evts := []types.Event{{Type: "plan_failed", Agent: "builder"}}
	effs, _ := Dispatch(evts, testWorld(), testHandlers())
	if len(effs) != 0 {
		t.Errorf("expected no effects while Storm is false, got %v", effs)
	}
}

func TestDispatch_ConditionsMet(t *testing.T) {
	ws := testWorld().Builder().Set("Storm", 1).Build()
	evts := []types.Event{{Type: "plan_failed", Agent: "builder"}}
	effs, _ := Dispatch(evts, ws, testHandlers())
	if len(effs) != 1 || effs[0].Kind != types.EffSetFalse {
		t.Errorf("expected Storm to be cleared, got %v", effs)
	}
}

func TestDispatch_MultipleEvents(t *testing.T) {
	evts := []types.Event{
		{Type: "action_completed", Agent: "miner", Data: map[string]any{"action": "BuildHouse"}},
		{Type: "goal_selected", Agent: "miner"},
	}
	effs, _ := Dispatch(evts, testWorld(), testHandlers())
	if len(effs) != 2 {
		t.Errorf("expected 2 effects (both action_completed handlers), got %d", len(effs))
	}
}

func TestDispatch_NoHandlers(t *testing.T) {
	effs, out := Dispatch([]types.Event{{Type: "goal_selected"}}, testWorld(), nil)
	if effs != nil || out != nil {
		t.Errorf("expected nil results, got %v %v", effs, out)
	}
}

func TestMatches_NonStringData(t *testing.T) {
	h := types.EventHandler{Match: map[string]string{"cost": "40"}}
	if !Matches(h, types.Event{Data: map[string]any{"cost": 40.0}}) {
		t.Error("expected numeric data to match its printed form")
	}
}
