package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nathoo/goapcore/engine/effects"
	"github.com/nathoo/goapcore/engine/parser"
	"github.com/nathoo/goapcore/engine/resolve"
	"github.com/nathoo/goapcore/engine/rules"
	"github.com/nathoo/goapcore/types"
)

// maxTicksPerCommand bounds "tick n".
const maxTicksPerCommand = 1000

const helpLine = "Commands: tick [n], plan <goal> [for <agent>], set <symbol> <value>, state, goals, actions, agents, interrupt [agent], stats."

// Step processes one console command and returns the result.
func (e *Engine) Step(input string) types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	var result types.Result
	intent := parser.Parse(input)
	e.commandLog = append(e.commandLog, input)

	switch intent.Verb {
	case "":
		result.Output = append(result.Output, "What do you want to do? "+helpLine)
	case "tick":
		e.cmdTick(intent, &result)
	case "plan":
		e.cmdPlan(intent, &result)
	case "set":
		e.cmdSet(intent, &result)
	case "state":
		e.cmdState(&result)
	case "goals":
		e.cmdGoals(&result)
	case "actions":
		e.cmdActions(&result)
	case "agents":
		e.cmdAgents(&result)
	case "interrupt":
		e.cmdInterrupt(intent, &result)
	case "stats":
		e.cmdStats(&result)
	case "help":
		result.Output = append(result.Output, helpLine)
	default:
		result.Output = append(result.Output, fmt.Sprintf("I don't know how to %q. %s", intent.Verb, helpLine))
	}
	return result
}

func (e *Engine) cmdTick(intent types.Intent, result *types.Result) {
	n := 1
	if intent.Object != "" {
		v, err := strconv.Atoi(strings.TrimSuffix(intent.Object, " ticks"))
		if err != nil || v < 1 || v > maxTicksPerCommand {
			result.Output = append(result.Output, fmt.Sprintf("Tick how many times? (1-%d)", maxTicksPerCommand))
			return
		}
		n = v
	}
	for range n {
		e.tickLocked(result)
	}
	if len(result.Output) == 0 {
		result.Output = append(result.Output, fmt.Sprintf("Time passes (tick %d).", e.tick))
	}
}

// cmdPlan formulates a plan without submitting it.
func (e *Engine) cmdPlan(intent types.Intent, result *types.Result) {
	if intent.Object == "" {
		result.Output = append(result.Output, "Plan for which goal?")
		return
	}
	rt, err := e.findAgent(intent.Target)
	if err != nil {
		result.Output = append(result.Output, err.Error())
		return
	}
	g, err := resolve.Goal(rt.goals(), intent.Object)
	if err != nil {
		result.Output = append(result.Output, err.Error())
		return
	}
	p, err := e.Planner.FormulatePlan(e.World.WorldState(), rt.actions, g)
	if err != nil {
		result.Output = append(result.Output, err.Error())
		return
	}
	result.Output = append(result.Output, p.String())
}

func (e *Engine) cmdSet(intent types.Intent, result *types.Result) {
	if intent.Object == "" || intent.Target == "" {
		result.Output = append(result.Output, "Set what to what? (set <symbol> <value>)")
		return
	}
	sym, err := resolve.Symbol(e.World.WorldState(), intent.Object)
	if err != nil {
		result.Output = append(result.Output, err.Error())
		return
	}
	v, err := parseValue(intent.Target)
	if err != nil {
		result.Output = append(result.Output, err.Error())
		return
	}
	eff := types.Effect{Kind: types.EffSet, Symbol: sym, Value: v}
	e.World.Apply([]types.Effect{eff})
	result.Effects = append(result.Effects, eff)
	result.Output = append(result.Output, fmt.Sprintf("%s = %d.", sym, v))
}

func parseValue(s string) (int, error) {
	switch s {
	case "true", "yes", "on":
		return 1, nil
	case "false", "no", "off":
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}

func (e *Engine) cmdState(result *types.Result) {
	ws := e.World.WorldState()
	result.Output = append(result.Output, fmt.Sprintf("Tick %d:", e.tick))
	if ws.Len() == 0 {
		result.Output = append(result.Output, "  (empty)")
		return
	}
	for _, sym := range ws.Symbols() {
		result.Output = append(result.Output, fmt.Sprintf("  %s = %d", sym, ws.Value(sym)))
	}
}

func (e *Engine) cmdGoals(result *types.Result) {
	ws := e.World.WorldState()
	for _, rt := range e.agents {
		current := ""
		if g, ok := rt.agent.CurrentGoal(); ok {
			current = g.Name
		}
		result.Output = append(result.Output, fmt.Sprintf("[%s]", rt.name))
		for _, g := range rt.goals() {
			var flags []string
			if rules.EvalAll(g.Preconditions, ws) {
				flags = append(flags, "satisfied")
			}
			if g.Name == rt.def.Name {
				flags = append(flags, "default")
			}
			if g.Name == current {
				flags = append(flags, "current")
			}
			line := fmt.Sprintf("  %s (priority %d)", g.Name, g.Priority)
			if len(flags) > 0 {
				line += " [" + strings.Join(flags, ", ") + "]"
			}
			result.Output = append(result.Output, line)
		}
	}
}

func (e *Engine) cmdActions(result *types.Result) {
	for _, a := range e.Defs.Actions {
		pres := make([]string, len(a.Preconditions))
		for i, p := range a.Preconditions {
			pres[i] = rules.Describe(p)
		}
		effs := make([]string, len(a.Effects))
		for i, f := range a.Effects {
			effs[i] = effects.Describe(f)
		}
		result.Output = append(result.Output, fmt.Sprintf("  %s (cost %g): %s => %s",
			a.Name, a.Cost, orNone(pres), orNone(effs)))
	}
	if len(result.Output) == 0 {
		result.Output = append(result.Output, "No actions defined.")
	}
}

func orNone(parts []string) string {
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func (e *Engine) cmdAgents(result *types.Result) {
	for _, rt := range e.agents {
		s := rt.status()
		line := fmt.Sprintf("%s: %s", s.Name, s.Status)
		if s.Goal != "" {
			line += ", goal " + s.Goal
		}
		if len(s.Plan) > 0 {
			line += fmt.Sprintf(", step %d/%d", s.Done, len(s.Plan))
		}
		if s.Current != "" {
			line += ", doing " + s.Current
		}
		result.Output = append(result.Output, line)
	}
}

func (e *Engine) cmdInterrupt(intent types.Intent, result *types.Result) {
	targets := e.agents
	if intent.Object != "" {
		rt, err := e.findAgent(intent.Object)
		if err != nil {
			result.Output = append(result.Output, err.Error())
			return
		}
		targets = []*runtime{rt}
	}
	for _, rt := range targets {
		rt.agent.Interrupt()
	}
	e.flush(result)
	if len(result.Output) == 0 {
		result.Output = append(result.Output, "Nothing to interrupt.")
	}
}

func (e *Engine) cmdStats(result *types.Result) {
	lines, err := e.Metrics.Lines()
	if err != nil {
		result.Output = append(result.Output, "stats: "+err.Error())
		return
	}
	if len(lines) == 0 {
		result.Output = append(result.Output, "No stats yet.")
		return
	}
	result.Output = append(result.Output, lines...)
}

// findAgent resolves an agent name. An empty name selects the first agent.
func (e *Engine) findAgent(name string) (*runtime, error) {
	if name == "" {
		return e.agents[0], nil
	}
	names := make([]string, len(e.agents))
	for i, rt := range e.agents {
		names[i] = rt.name
	}
	id, err := resolve.Name("agent", name, names)
	if err != nil {
		return nil, err
	}
	for _, rt := range e.agents {
		if rt.name == id {
			return rt, nil
		}
	}
	return nil, &resolve.NotFoundError{Kind: "agent", Name: name}
}
