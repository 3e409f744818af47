package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservePlan(t *testing.T) {
	m := New()
	m.ObservePlan("regressive", 12, 40, 5)
	m.ObservePlan("regressive", 3, 10, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PlansFound.WithLabelValues("regressive")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.PlanCost))
}

func TestObserveFailure(t *testing.T) {
	m := New()
	m.ObserveFailure("forward", "depth bound reached", 7)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlansFailed.WithLabelValues("forward", "depth bound reached")))
}

func TestAgentAndExecutorCounters(t *testing.T) {
	m := New()
	m.GoalSelected("builder", "BuildHouse")
	m.Replanned("builder")
	m.Stalled("builder")
	m.ActionCompleted("builder", "TakeAxe")
	m.ActionFailed("builder", "CutTrees")
	m.Tick()
	m.Tick()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GoalSelections.WithLabelValues("builder", "BuildHouse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Replans.WithLabelValues("builder")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Stalls.WithLabelValues("builder")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActionsDone.WithLabelValues("builder", "TakeAxe")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActionsFailed.WithLabelValues("builder", "CutTrees")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Ticks))
}

func TestLines(t *testing.T) {
	m := New()
	m.Tick()
	m.ObservePlan("regressive", 4, 40, 5)

	lines, err := m.Lines()
	require.NoError(t, err)
	assert.Contains(t, lines, "goap_engine_ticks_total 1")
	assert.Contains(t, lines, `goap_planner_plans_found_total{planner="regressive"} 1`)
	assert.Contains(t, lines, "goap_planner_plan_cost_count 1")
	assert.Contains(t, lines, "goap_planner_plan_cost_sum 40")
	assert.IsIncreasing(t, lines)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObservePlan("regressive", 1, 1, 1)
		m.ObserveFailure("regressive", "no path", 1)
		m.GoalSelected("a", "g")
		m.Tick()
	})
	lines, err := m.Lines()
	assert.NoError(t, err)
	assert.Nil(t, lines)
	assert.Nil(t, m.Registry())
}
