package loader

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/goapcore/types"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerPreconditionHelpers(L)
	registerEffectHelpers(L)
}

// named registers a curried constructor: Name "id" { ... }.
func named(L *lua.LState, global string, add func(rawNamed)) {
	L.SetGlobal(global, L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			add(rawNamed{name: name, table: tbl})
			return 0
		}))
		return 1
	}))
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Domain { title = "...", ... }
	L.SetGlobal("Domain", L.NewFunction(func(L *lua.LState) int {
		coll.domain = L.CheckTable(1)
		return 0
	}))

	// Planner { kind = "regressive", max_depth = 8, heuristic = "unsatisfied" }
	L.SetGlobal("Planner", L.NewFunction(func(L *lua.LState) int {
		coll.planner = L.CheckTable(1)
		return 0
	}))

	// State { Wood = 10, HasAxe = false } may be called more than once;
	// later tables override earlier ones.
	L.SetGlobal("State", L.NewFunction(func(L *lua.LState) int {
		coll.states = append(coll.states, L.CheckTable(1))
		return 0
	}))

	named(L, "Action", func(r rawNamed) {
		r.order = coll.nextSourceOrder()
		coll.actions = append(coll.actions, r)
	})
	named(L, "Goal", func(r rawNamed) {
		r.order = coll.nextSourceOrder()
		coll.goals = append(coll.goals, r)
	})
	named(L, "Agent", func(r rawNamed) {
		r.order = coll.nextSourceOrder()
		coll.agents = append(coll.agents, r)
	})

	// DefaultGoal "Rest"
	L.SetGlobal("DefaultGoal", L.NewFunction(func(L *lua.LState) int {
		coll.defaultGoal = L.CheckString(1)
		return 0
	}))

	// On("event_type", { match = {...}, conditions = {...}, effects = {...}, say = "..." })
	L.SetGlobal("On", L.NewFunction(func(L *lua.LState) int {
		eventType := L.CheckString(1)
		tbl := L.CheckTable(2)
		coll.handlers = append(coll.handlers, rawHandler{eventType: eventType, table: tbl})
		return 0
	}))
}

// term builds a { kind, symbol, value } table.
func term(L *lua.LState, kind string, symbol string, value lua.LNumber) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("kind", lua.LString(kind))
	tbl.RawSetString("symbol", lua.LString(symbol))
	tbl.RawSetString("value", value)
	return tbl
}

func registerPreconditionHelpers(L *lua.LState) {
	// IsTrue("HasAxe")
	L.SetGlobal("IsTrue", L.NewFunction(func(L *lua.LState) int {
		L.Push(term(L, types.PreIsTrue, L.CheckString(1), 0))
		return 1
	}))

	// IsFalse("HasAxe")
	L.SetGlobal("IsFalse", L.NewFunction(func(L *lua.LState) int {
		L.Push(term(L, types.PreIsFalse, L.CheckString(1), 0))
		return 1
	}))

	// Equals("Stage", 2)
	L.SetGlobal("Equals", L.NewFunction(func(L *lua.LState) int {
		L.Push(term(L, types.PreEquals, L.CheckString(1), L.CheckNumber(2)))
		return 1
	}))

	// AtLeast("Wood", 20)
	L.SetGlobal("AtLeast", L.NewFunction(func(L *lua.LState) int {
		L.Push(term(L, types.PreNotSmaller, L.CheckString(1), L.CheckNumber(2)))
		return 1
	}))

	// AtMost("Hunger", 3)
	L.SetGlobal("AtMost", L.NewFunction(func(L *lua.LState) int {
		L.Push(term(L, types.PreNotGreater, L.CheckString(1), L.CheckNumber(2)))
		return 1
	}))

	// Between("Temperature", 18, 24)
	L.SetGlobal("Between", L.NewFunction(func(L *lua.LState) int {
		tbl := term(L, types.PreInRange, L.CheckString(1), L.CheckNumber(2))
		tbl.RawSetString("max", L.CheckNumber(3))
		L.Push(tbl)
		return 1
	}))
}

func registerEffectHelpers(L *lua.LState) {
	// SetTrue("HouseBuilt")
	L.SetGlobal("SetTrue", L.NewFunction(func(L *lua.LState) int {
		L.Push(term(L, types.EffSetTrue, L.CheckString(1), 0))
		return 1
	}))

	// SetFalse("HasAxe")
	L.SetGlobal("SetFalse", L.NewFunction(func(L *lua.LState) int {
		L.Push(term(L, types.EffSetFalse, L.CheckString(1), 0))
		return 1
	}))

	// Set("Stage", 3)
	L.SetGlobal("Set", L.NewFunction(func(L *lua.LState) int {
		L.Push(term(L, types.EffSet, L.CheckString(1), L.CheckNumber(2)))
		return 1
	}))

	// Add("Wood", 8)
	L.SetGlobal("Add", L.NewFunction(func(L *lua.LState) int {
		L.Push(term(L, types.EffAdd, L.CheckString(1), L.CheckNumber(2)))
		return 1
	}))

	// Subtract("Wood", 20)
	L.SetGlobal("Subtract", L.NewFunction(func(L *lua.LState) int {
		L.Push(term(L, types.EffSubtract, L.CheckString(1), L.CheckNumber(2)))
		return 1
	}))
}
