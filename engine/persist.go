package engine

import (
	"fmt"
	"os"

	"github.com/nathoo/goapcore/engine/planner"
	"github.com/nathoo/goapcore/engine/save"
	"github.com/nathoo/goapcore/engine/sim"
	"github.com/nathoo/goapcore/types"
)

// Snapshot captures the running simulation.
func (e *Engine) Snapshot() *save.SaveData {
	e.mu.Lock()
	defer e.mu.Unlock()

	sd := &save.SaveData{
		Version:     e.Defs.Domain.Version,
		Domain:      e.Defs.Domain.Title,
		Tick:        e.tick,
		World:       e.World.WorldState().Map(),
		Agents:      make([]save.AgentData, 0, len(e.agents)),
		RNGSeed:     e.rng.Seed(),
		RNGPosition: e.rng.Position(),
		CommandLog:  append([]string{}, e.commandLog...),
	}
	for _, rt := range e.agents {
		ad := save.AgentData{Name: rt.name, Status: rt.executor.Status()}
		if g, ok := rt.agent.CurrentGoal(); ok {
			ad.Goal = g.Name
		}
		if p := rt.executor.Plan(); p != nil && ad.Status == types.StatusInProgress {
			ad.Plan = p.ActionNames()
			ad.Done = rt.executor.Progress()
			ad.Cost = p.Cost
		}
		sd.Agents = append(sd.Agents, ad)
	}
	return sd
}

// Restore replaces the running simulation with a snapshot. Agents resume
// their saved goals; an in-progress plan continues from its first
// unfinished action.
func (e *Engine) Restore(sd *save.SaveData) error {
	if err := save.Check(sd, e.Defs); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.World.Replace(sd.WorldState())
	e.rng = sim.RestoreRNG(sd.RNGSeed, sd.RNGPosition)
	e.pending = nil
	if err := e.buildAgents(); err != nil {
		return err
	}
	for _, ad := range sd.Agents {
		if err := e.resumeAgent(ad); err != nil {
			return err
		}
	}
	e.tick = sd.Tick
	e.commandLog = append([]string{}, sd.CommandLog...)
	e.logger.Info("engine: restored", "tick", e.tick, "agents", len(sd.Agents))
	return nil
}

func (e *Engine) resumeAgent(ad save.AgentData) error {
	var rt *runtime
	for _, r := range e.agents {
		if r.name == ad.Name {
			rt = r
		}
	}
	if rt == nil {
		return fmt.Errorf("save has unknown agent %q", ad.Name)
	}
	if ad.Goal == "" {
		return nil
	}

	var goal *types.Goal
	for _, g := range rt.goals() {
		if g.Name == ad.Goal {
			goal = &g
			break
		}
	}
	if goal == nil {
		return fmt.Errorf("agent %s: goal %q is not one of its goals", ad.Name, ad.Goal)
	}
	rt.agent.Resume(*goal)

	if ad.Status != types.StatusInProgress || len(ad.Plan) == 0 {
		return nil
	}
	p := &planner.Plan{Goal: ad.Goal, Cost: ad.Cost}
	for _, name := range ad.Plan {
		a := findAction(rt.actions, name)
		if a == nil {
			return fmt.Errorf("agent %s: action %q is not in its library", ad.Name, name)
		}
		p.Steps = append(p.Steps, a)
	}
	rt.executor.Restore(p, ad.Done)
	return nil
}

func findAction(actions []types.Action, name string) *types.Action {
	for i := range actions {
		if actions[i].Name == name {
			return &actions[i]
		}
	}
	return nil
}

// SaveFile writes a snapshot to path.
func (e *Engine) SaveFile(path string) error {
	data, err := save.Save(e.Snapshot())
	if err != nil {
		return fmt.Errorf("encoding save: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing save: %w", err)
	}
	return nil
}

// LoadFile restores a snapshot from path.
func (e *Engine) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading save: %w", err)
	}
	sd, err := save.Load(data)
	if err != nil {
		return fmt.Errorf("decoding save: %w", err)
	}
	return e.Restore(sd)
}
