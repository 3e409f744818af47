// Package save implements JSON serialization and deserialization of a
// running simulation: world values, agent progress and the RNG position.
package save

import (
	"encoding/json"
	"fmt"

	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

// AgentData is the saved progress of one agent.
type AgentData struct {
	Name   string                `json:"name"`
	Goal   string                `json:"goal,omitempty"`
	Status types.ExecutionStatus `json:"status"`
	Plan   []string              `json:"plan,omitempty"`
	Done   int                   `json:"done,omitempty"`
	Cost   float64               `json:"cost,omitempty"`
}

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Version     string                 `json:"version"`
	Domain      string                 `json:"domain"`
	Tick        int                    `json:"tick"`
	World       map[types.SymbolID]int `json:"world"`
	Agents      []AgentData            `json:"agents"`
	RNGSeed     int64                  `json:"rng_seed"`
	RNGPosition int64                  `json:"rng_position"`
	CommandLog  []string               `json:"command_log"`
}

// Save serializes save data to indented JSON bytes.
func Save(sd *SaveData) ([]byte, error) {
	return json.MarshalIndent(sd, "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	// Ensure collections are never nil after load.
	if sd.World == nil {
		sd.World = map[types.SymbolID]int{}
	}
	if sd.Agents == nil {
		sd.Agents = []AgentData{}
	}
	if sd.CommandLog == nil {
		sd.CommandLog = []string{}
	}
	return &sd, nil
}

// WorldState rebuilds the saved world state.
func (sd *SaveData) WorldState() state.WorldState {
	b := state.NewBuilder()
	for id, v := range sd.World {
		b.Set(id, v)
	}
	return b.Build()
}

// Check verifies that a save belongs to the loaded domain: same title and
// every saved plan step still defined. Goals are checked by the engine,
// which also knows the implicit fallback goal.
func Check(sd *SaveData, defs *state.Defs) error {
	if sd.Domain != defs.Domain.Title {
		return fmt.Errorf("save is for domain %q, not %q", sd.Domain, defs.Domain.Title)
	}
	for _, a := range sd.Agents {
		for _, step := range a.Plan {
			if _, ok := defs.Action(step); !ok {
				return fmt.Errorf("agent %s: unknown action %q", a.Name, step)
			}
		}
	}
	return nil
}
