package loader

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nathoo/goapcore/engine/effects"
	"github.com/nathoo/goapcore/engine/planner"
	"github.com/nathoo/goapcore/engine/rules"
	"github.com/nathoo/goapcore/engine/sim"
	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

func (e *ValidationError) errorf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

func (e *ValidationError) warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// Events the engine emits; handlers for anything else never fire.
var knownEvents = map[string]bool{
	"goal_selected":    true,
	"plan_submitted":   true,
	"action_started":   true,
	"action_completed": true,
	"action_failed":    true,
	"plan_completed":   true,
	"plan_failed":      true,
	"plan_interrupted": true,
	"agent_stalled":    true,
}

// validate checks the compiled defs for referential integrity and consistency.
func validate(defs *state.Defs) error {
	ve := check(defs)

	for _, w := range ve.Warnings {
		slog.Warn("loader: " + w)
	}
	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func check(defs *state.Defs) *ValidationError {
	ve := &ValidationError{}

	if defs.Domain.Title == "" {
		ve.errorf("Domain.title is required")
	}

	cfg := planner.Config{Kind: defs.Planner.Kind, MaxDepth: defs.Planner.MaxDepth, Heuristic: defs.Planner.Heuristic}
	if err := cfg.Validate(); err != nil {
		ve.errorf("Planner: %v", err)
	}

	actionNames := map[string]bool{}
	for _, a := range defs.Actions {
		if actionNames[a.Name] {
			ve.errorf("duplicate action %q", a.Name)
		}
		actionNames[a.Name] = true

		where := fmt.Sprintf("action %q", a.Name)
		if a.Cost < 0 {
			ve.errorf("%s: cost must not be negative, got %g", where, a.Cost)
		}
		if a.Duration < 0 {
			ve.errorf("%s: duration must not be negative, got %d", where, a.Duration)
		}
		if len(a.Effects) == 0 {
			ve.warnf("%s has no effects", where)
		}
		validatePreconditions(where, a.Preconditions, defs, ve)
		validateEffects(where, a.Effects, defs, ve)
	}

	goalNames := map[string]bool{}
	for _, g := range defs.Goals {
		if goalNames[g.Name] {
			ve.errorf("duplicate goal %q", g.Name)
		}
		goalNames[g.Name] = true

		where := fmt.Sprintf("goal %q", g.Name)
		if g.RelevantWhen != "" {
			if _, err := sim.CompileRelevance(g.RelevantWhen); err != nil {
				ve.errorf("%s: relevant_when: %v", where, err)
			}
		}
		validatePreconditions(where, g.Preconditions, defs, ve)
	}

	if defs.DefaultGoal != "" && !goalNames[defs.DefaultGoal] {
		ve.errorf("default goal %q is not defined", defs.DefaultGoal)
	}

	agentNames := map[string]bool{}
	for _, ag := range defs.Agents {
		if agentNames[ag.Name] {
			ve.errorf("duplicate agent %q", ag.Name)
		}
		agentNames[ag.Name] = true
		for _, name := range ag.Actions {
			if !actionNames[name] {
				ve.errorf("agent %q references undefined action %q", ag.Name, name)
			}
		}
		for _, name := range ag.Goals {
			if !goalNames[name] {
				ve.errorf("agent %q references undefined goal %q", ag.Name, name)
			}
		}
		if ag.DefaultGoal != "" && !goalNames[ag.DefaultGoal] {
			ve.errorf("agent %q default goal %q is not defined", ag.Name, ag.DefaultGoal)
		}
	}

	for _, h := range defs.Handlers {
		where := fmt.Sprintf("handler On(%q)", h.EventType)
		if !knownEvents[h.EventType] {
			ve.warnf("%s: event is never emitted", where)
		}
		validatePreconditions(where, h.Conditions, defs, ve)
		validateEffects(where, h.Effects, defs, ve)
	}

	return ve
}

func validatePreconditions(where string, pres []types.Precondition, defs *state.Defs, ve *ValidationError) {
	for _, p := range pres {
		if !rules.KnownKinds[p.Kind] {
			ve.errorf("%s: unknown precondition kind %q", where, p.Kind)
			continue
		}
		if p.Symbol == "" {
			ve.errorf("%s: %s precondition has no symbol", where, p.Kind)
			continue
		}
		if p.Kind == types.PreInRange && p.Value > p.Max {
			ve.errorf("%s: %s range [%d,%d] is empty", where, p.Symbol, p.Value, p.Max)
		}
		if _, ok := defs.Initial.Get(p.Symbol); !ok {
			ve.warnf("%s: symbol %q has no initial value", where, p.Symbol)
		}
	}
}

func validateEffects(where string, effs []types.Effect, defs *state.Defs, ve *ValidationError) {
	for _, e := range effs {
		if !effects.KnownKinds[e.Kind] {
			ve.errorf("%s: unknown effect kind %q", where, e.Kind)
			continue
		}
		if e.Symbol == "" {
			ve.errorf("%s: %s effect has no symbol", where, e.Kind)
		}
	}
}
