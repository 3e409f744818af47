// Package planner turns a world state, an action library and a goal into a
// minimum-cost plan by running A* over a planning search space.
package planner

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nathoo/goapcore/engine/metrics"
	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

// Planner kinds.
const (
	KindRegressive = "regressive"
	KindForward    = "forward"
)

// Heuristic names.
const (
	HeuristicUnsatisfied = "unsatisfied"
	HeuristicZero        = "zero"
)

// DefaultMaxDepth bounds plan length when no depth is configured.
const DefaultMaxDepth = 8

// ErrNoPlan is the sentinel behind every planning failure.
var ErrNoPlan = errors.New("no plan found")

// Reason explains why no plan was found.
type Reason string

// Failure reasons.
const (
	ReasonUnsatisfiable Reason = "unsatisfiable goal"
	ReasonNoPath        Reason = "no path"
	ReasonDepth         Reason = "depth bound reached"
)

// NoPlanError reports that no plan satisfies a goal from a state within the
// action library and depth bound.
type NoPlanError struct {
	Goal     string
	Reason   Reason
	Expanded int
}

func (e *NoPlanError) Error() string {
	return fmt.Sprintf("no plan found for goal %q: %s (%d nodes expanded)", e.Goal, e.Reason, e.Expanded)
}

// Unwrap lets callers match with errors.Is(err, ErrNoPlan).
func (e *NoPlanError) Unwrap() error {
	return ErrNoPlan
}

// Plan is an ordered sequence of actions with its total cost. Steps point
// into the action library the plan was formulated from.
type Plan struct {
	Goal  string
	Steps []*types.Action
	Cost  float64
}

// ActionNames returns the step names in execution order.
func (p *Plan) ActionNames() []string {
	names := make([]string, len(p.Steps))
	for i, a := range p.Steps {
		names[i] = a.Name
	}
	return names
}

// Len returns the number of steps.
func (p *Plan) Len() int {
	return len(p.Steps)
}

func (p *Plan) String() string {
	if len(p.Steps) == 0 {
		return fmt.Sprintf("%s: (already satisfied)", p.Goal)
	}
	return fmt.Sprintf("%s: %s (cost %g)", p.Goal, strings.Join(p.ActionNames(), " -> "), p.Cost)
}

// Planner formulates plans. Implementations keep no per-call state and are
// safe for concurrent use.
type Planner interface {
	FormulatePlan(ws state.WorldState, actions []types.Action, goal types.Goal) (*Plan, error)
}

// Config selects and tunes a planner.
type Config struct {
	Kind      string
	MaxDepth  int
	Heuristic string
}

// Validate checks that the configuration names a known planner and
// heuristic.
func (c Config) Validate() error {
	switch c.Kind {
	case "", KindRegressive, KindForward:
	default:
		return fmt.Errorf("unknown planner kind %q", c.Kind)
	}
	switch c.Heuristic {
	case "", HeuristicUnsatisfied, HeuristicZero:
	default:
		return fmt.Errorf("unknown heuristic %q", c.Heuristic)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative, got %d", c.MaxDepth)
	}
	return nil
}

type options struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	heuristic string
}

// Option configures a planner.
type Option func(*options)

// WithLogger sets the planner's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records search outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithHeuristic selects the search heuristic by name.
func WithHeuristic(name string) Option {
	return func(o *options) { o.heuristic = name }
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default(), heuristic: HeuristicUnsatisfied}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// New builds the planner described by cfg.
func New(cfg Config, opts ...Option) (Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	depth := cfg.MaxDepth
	if depth == 0 {
		depth = DefaultMaxDepth
	}
	if cfg.Heuristic != "" {
		opts = append(opts, WithHeuristic(cfg.Heuristic))
	}
	if cfg.Kind == KindForward {
		return NewForward(depth, opts...), nil
	}
	return NewRegressive(depth, opts...), nil
}
