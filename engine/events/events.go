// Package events implements single-pass event handler dispatch.
// Event handlers produce additional effects but do not recurse.
package events

import (
	"fmt"

	"github.com/nathoo/goapcore/engine/rules"
	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

// Dispatch runs event handlers against the emitted events. Single pass,
// no recursion: conditions are checked against ws as it was before any
// handler effect applies. Returns additional effects and output text
// produced by matching handlers.
func Dispatch(evts []types.Event, ws state.WorldState, handlers []types.EventHandler) ([]types.Effect, []string) {
	var effs []types.Effect
	var output []string

	for _, event := range evts {
		for _, handler := range handlers {
			if handler.EventType != event.Type {
				continue
			}
			if !Matches(handler, event) {
				continue
			}
			if !rules.EvalAll(handler.Conditions, ws) {
				continue
			}
			effs = append(effs, handler.Effects...)
			if handler.Say != "" {
				output = append(output, handler.Say)
			}
		}
	}

	return effs, output
}

// Matches reports whether every field filter of the handler equals the
// corresponding event field. The "agent" key matches the emitting agent.
func Matches(h types.EventHandler, e types.Event) bool {
	for k, want := range h.Match {
		var got string
		if k == "agent" {
			got = e.Agent
		} else if v, ok := e.Data[k]; ok {
			got = fmt.Sprint(v)
		}
		if got != want {
			return false
		}
	}
	return true
}
