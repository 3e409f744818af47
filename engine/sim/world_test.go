package sim

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

func TestWorld_ApplyBumpsVersion(t *testing.T) {
	w := NewWorld(state.NewBuilder().Set("Wood", 1).Build())
	assert.Equal(t, uint64(0), w.Version())

	snap := w.WorldState()
	w.Apply([]types.Effect{{Kind: types.EffAdd, Symbol: "Wood", Value: 2}})
	assert.Equal(t, 3, w.WorldState().Value("Wood"))
	assert.Equal(t, 1, snap.Value("Wood"), "earlier snapshots are unaffected")
	assert.Equal(t, uint64(1), w.Version())

	w.Apply(nil)
	assert.Equal(t, uint64(1), w.Version(), "no effects, no change")
}

func TestWorld_SetAndReplace(t *testing.T) {
	w := NewWorld(state.WorldState{})
	w.Set("Stone", 4)
	assert.Equal(t, 4, w.WorldState().Value("Stone"))

	w.Replace(state.NewBuilder().Set("Iron", 2).Build())
	_, known := w.WorldState().Get("Stone")
	assert.False(t, known)
	assert.Equal(t, uint64(2), w.Version())
}

func TestWorld_ConcurrentAccess(t *testing.T) {
	w := NewWorld(state.NewBuilder().Set("N", 0).Build())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				w.Apply([]types.Effect{{Kind: types.EffAdd, Symbol: "N", Value: 1}})
				_ = w.WorldState().Value("N")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, w.WorldState().Value("N"))
	assert.Equal(t, uint64(800), w.Version())
}
