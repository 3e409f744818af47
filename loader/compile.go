// Package loader loads Lua planning domains into Go structs at load time.
// The Lua VM is discarded after loading; nothing runs Lua during planning.
package loader

import (
	"fmt"
	"math"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

// rawNamed holds a named Action, Goal or Agent table before compilation.
type rawNamed struct {
	name  string
	table *lua.LTable
	order int
}

// rawHandler holds an event handler before compilation.
type rawHandler struct {
	eventType string
	table     *lua.LTable
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	v := tbl.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getNumber returns a numeric field from a Lua table, or def if missing.
func getNumber(tbl *lua.LTable, key string, def float64) float64 {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return def
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	return int(getNumber(tbl, key, 0))
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// tableToStrings converts a Lua array of strings.
func tableToStrings(tbl *lua.LTable) []string {
	if tbl == nil {
		return nil
	}
	var out []string
	for i := 1; i <= tbl.MaxN(); i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// tableToStringMap converts a Lua table to a map[string]string. Non-string
// values are rendered with Lua's tostring rules.
func tableToStringMap(tbl *lua.LTable) map[string]string {
	if tbl == nil {
		return nil
	}
	m := map[string]string{}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			m[string(ks)] = v.String()
		}
	})
	return m
}

// compile converts all collected Lua data into a Defs struct.
func compile(coll *collector) (*state.Defs, error) {
	defs := &state.Defs{}

	if coll.domain == nil {
		return nil, fmt.Errorf("no Domain{} definition found")
	}
	defs.Domain = compileDomain(coll.domain)
	if coll.planner != nil {
		defs.Planner = compilePlanner(coll.planner)
	}

	ws, err := compileState(coll.states)
	if err != nil {
		return nil, err
	}
	defs.Initial = ws

	for _, raw := range coll.actions {
		a, err := compileAction(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling action %s: %w", raw.name, err)
		}
		defs.Actions = append(defs.Actions, a)
	}

	defs.DefaultGoal = coll.defaultGoal
	for _, raw := range coll.goals {
		g := compileGoal(raw)
		if getBool(raw.table, "default", false) {
			if defs.DefaultGoal != "" && defs.DefaultGoal != g.Name {
				return nil, fmt.Errorf("goal %s: default goal already set to %s", g.Name, defs.DefaultGoal)
			}
			defs.DefaultGoal = g.Name
		}
		defs.Goals = append(defs.Goals, g)
	}

	for _, raw := range coll.agents {
		defs.Agents = append(defs.Agents, types.AgentDef{
			Name:        raw.name,
			Actions:     tableToStrings(getTable(raw.table, "actions")),
			Goals:       tableToStrings(getTable(raw.table, "goals")),
			DefaultGoal: getString(raw.table, "default_goal"),
		})
	}

	for _, raw := range coll.handlers {
		defs.Handlers = append(defs.Handlers, compileHandler(raw))
	}

	return defs, nil
}

func compileDomain(tbl *lua.LTable) types.DomainDef {
	return types.DomainDef{
		Title:   getString(tbl, "title"),
		Author:  getString(tbl, "author"),
		Version: getString(tbl, "version"),
		Intro:   getString(tbl, "intro"),
	}
}

func compilePlanner(tbl *lua.LTable) types.PlannerDef {
	return types.PlannerDef{
		Kind:      getString(tbl, "kind"),
		MaxDepth:  getInt(tbl, "max_depth"),
		Heuristic: getString(tbl, "heuristic"),
	}
}

// compileState merges State{} tables in call order. Booleans become 0/1.
func compileState(tables []*lua.LTable) (state.WorldState, error) {
	b := state.NewBuilder()
	var err error
	for _, tbl := range tables {
		tbl.ForEach(func(k, v lua.LValue) {
			if err != nil {
				return
			}
			name, ok := k.(lua.LString)
			if !ok {
				err = fmt.Errorf("state key %s is not a symbol name", k)
				return
			}
			switch val := v.(type) {
			case lua.LBool:
				if val {
					b.Set(types.SymbolID(name), 1)
				} else {
					b.Set(types.SymbolID(name), 0)
				}
			case lua.LNumber:
				f := float64(val)
				if f != math.Trunc(f) {
					err = fmt.Errorf("state %s = %v is not an integer", name, f)
					return
				}
				b.Set(types.SymbolID(name), int(f))
			default:
				err = fmt.Errorf("state %s has unsupported value type %s", name, v.Type())
			}
		})
		if err != nil {
			return state.WorldState{}, err
		}
	}
	return b.Build(), nil
}

func compileAction(raw rawNamed) (types.Action, error) {
	a := types.Action{
		Name:     raw.name,
		Cost:     getNumber(raw.table, "cost", 1),
		Duration: getInt(raw.table, "duration"),
	}
	if v := raw.table.RawGetString("cost"); v != lua.LNil {
		if _, ok := v.(lua.LNumber); !ok {
			return types.Action{}, fmt.Errorf("cost must be a number, got %s", v.Type())
		}
	}
	if tbl := getTable(raw.table, "pre"); tbl != nil {
		a.Preconditions = compilePreconditions(tbl)
	}
	if tbl := getTable(raw.table, "eff"); tbl != nil {
		a.Effects = compileEffects(tbl)
	}
	return a, nil
}

func compileGoal(raw rawNamed) types.Goal {
	g := types.Goal{
		Name:         raw.name,
		Priority:     getInt(raw.table, "priority"),
		RelevantWhen: getString(raw.table, "relevant_when"),
		SourceOrder:  raw.order,
	}
	if tbl := getTable(raw.table, "pre"); tbl != nil {
		g.Preconditions = compilePreconditions(tbl)
	}
	return g
}

func compilePreconditions(tbl *lua.LTable) []types.Precondition {
	var out []types.Precondition
	for i := 1; i <= tbl.MaxN(); i++ {
		if t, ok := tbl.RawGetInt(i).(*lua.LTable); ok {
			out = append(out, types.Precondition{
				Kind:   getString(t, "kind"),
				Symbol: types.SymbolID(getString(t, "symbol")),
				Value:  getInt(t, "value"),
				Max:    getInt(t, "max"),
			})
		}
	}
	return out
}

func compileEffects(tbl *lua.LTable) []types.Effect {
	var out []types.Effect
	for i := 1; i <= tbl.MaxN(); i++ {
		if t, ok := tbl.RawGetInt(i).(*lua.LTable); ok {
			out = append(out, types.Effect{
				Kind:   getString(t, "kind"),
				Symbol: types.SymbolID(getString(t, "symbol")),
				Value:  getInt(t, "value"),
			})
		}
	}
	return out
}

func compileHandler(raw rawHandler) types.EventHandler {
	h := types.EventHandler{
		EventType: raw.eventType,
		Match:     tableToStringMap(getTable(raw.table, "match")),
		Say:       getString(raw.table, "say"),
	}
	if tbl := getTable(raw.table, "conditions"); tbl != nil {
		h.Conditions = compilePreconditions(tbl)
	}
	if tbl := getTable(raw.table, "effects"); tbl != nil {
		h.Effects = compileEffects(tbl)
	}
	return h
}

// sortedLuaFiles returns .lua files with domain.lua first and the rest
// sorted alphabetically.
func sortedLuaFiles(files []string) []string {
	var domainFile string
	var others []string
	for _, f := range files {
		if f == "domain.lua" {
			domainFile = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if domainFile != "" {
		return append([]string{domainFile}, others...)
	}
	return others
}
