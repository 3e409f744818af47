// Package metrics records planner, agent and executor activity in a
// private Prometheus registry and renders it for the console.
package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "goap"

// Metrics holds every collector. All methods are safe on a nil receiver so
// that components can run without instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	PlansFound     *prometheus.CounterVec
	PlansFailed    *prometheus.CounterVec
	Expansions     *prometheus.HistogramVec
	PlanCost       prometheus.Histogram
	PlanLength     prometheus.Histogram
	GoalSelections *prometheus.CounterVec
	Replans        *prometheus.CounterVec
	Stalls         *prometheus.CounterVec
	ActionsDone    *prometheus.CounterVec
	ActionsFailed  *prometheus.CounterVec
	Ticks          prometheus.Counter
}

// New creates a Metrics instance backed by a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		PlansFound: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "plans_found_total",
			Help:      "Plans found by planner kind",
		}, []string{"planner"}),
		PlansFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "plans_failed_total",
			Help:      "Planning failures by planner kind and reason",
		}, []string{"planner", "reason"}),
		Expansions: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "search_expansions",
			Help:      "Nodes expanded per search",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"planner"}),
		PlanCost: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "plan_cost",
			Help:      "Total cost of found plans",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250},
		}),
		PlanLength: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "plan_length",
			Help:      "Number of actions in found plans",
			Buckets:   []float64{0, 1, 2, 4, 8, 16},
		}),
		GoalSelections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "goal_selections_total",
			Help:      "Goals adopted by agent and goal",
		}, []string{"agent", "goal"}),
		Replans: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "replans_total",
			Help:      "Replanning attempts after execution failure",
		}, []string{"agent"}),
		Stalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "stalls_total",
			Help:      "Ticks on which not even the default goal could be planned",
		}, []string{"agent"}),
		ActionsDone: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "actions_completed_total",
			Help:      "Actions completed by agent and action",
		}, []string{"agent", "action"}),
		ActionsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "actions_failed_total",
			Help:      "Actions failed by agent and action",
		}, []string{"agent", "action"}),
		Ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "ticks_total",
			Help:      "Simulation ticks processed",
		}),
	}
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObservePlan records a successful search.
func (m *Metrics) ObservePlan(planner string, expanded int, cost float64, length int) {
	if m == nil {
		return
	}
	m.PlansFound.WithLabelValues(planner).Inc()
	m.Expansions.WithLabelValues(planner).Observe(float64(expanded))
	m.PlanCost.Observe(cost)
	m.PlanLength.Observe(float64(length))
}

// ObserveFailure records a failed search.
func (m *Metrics) ObserveFailure(planner, reason string, expanded int) {
	if m == nil {
		return
	}
	m.PlansFailed.WithLabelValues(planner, reason).Inc()
	m.Expansions.WithLabelValues(planner).Observe(float64(expanded))
}

// GoalSelected records that an agent adopted a goal.
func (m *Metrics) GoalSelected(agent, goal string) {
	if m == nil {
		return
	}
	m.GoalSelections.WithLabelValues(agent, goal).Inc()
}

// Replanned records a same-goal replanning attempt.
func (m *Metrics) Replanned(agent string) {
	if m == nil {
		return
	}
	m.Replans.WithLabelValues(agent).Inc()
}

// Stalled records a tick on which the agent could not plan at all.
func (m *Metrics) Stalled(agent string) {
	if m == nil {
		return
	}
	m.Stalls.WithLabelValues(agent).Inc()
}

// ActionCompleted records a finished action.
func (m *Metrics) ActionCompleted(agent, action string) {
	if m == nil {
		return
	}
	m.ActionsDone.WithLabelValues(agent, action).Inc()
}

// ActionFailed records a failed action.
func (m *Metrics) ActionFailed(agent, action string) {
	if m == nil {
		return
	}
	m.ActionsFailed.WithLabelValues(agent, action).Inc()
}

// Tick records one engine tick.
func (m *Metrics) Tick() {
	if m == nil {
		return
	}
	m.Ticks.Inc()
}

// Lines renders every non-empty sample as "name{labels} value", sorted.
// Histograms render as their _count and _sum series.
func (m *Metrics) Lines() ([]string, error) {
	if m == nil {
		return nil, nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gathering metrics: %w", err)
	}

	var lines []string
	for _, mf := range families {
		name := mf.GetName()
		for _, metric := range mf.GetMetric() {
			labels := formatLabels(metric.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				lines = append(lines, fmt.Sprintf("%s%s %g", name, labels, metric.GetCounter().GetValue()))
			case dto.MetricType_GAUGE:
				lines = append(lines, fmt.Sprintf("%s%s %g", name, labels, metric.GetGauge().GetValue()))
			case dto.MetricType_HISTOGRAM:
				h := metric.GetHistogram()
				if h.GetSampleCount() == 0 {
					continue
				}
				lines = append(lines,
					fmt.Sprintf("%s_count%s %d", name, labels, h.GetSampleCount()),
					fmt.Sprintf("%s_sum%s %g", name, labels, h.GetSampleSum()))
			}
		}
	}
	sort.Strings(lines)
	return lines, nil
}

func formatLabels(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("%s=%q", p.GetName(), p.GetValue())
	}
	return "{" + strings.Join(parts, ",") + "}"
}
