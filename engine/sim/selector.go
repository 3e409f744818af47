package sim

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/nathoo/goapcore/engine/rules"
	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

// CompileRelevance compiles a goal's relevant_when expression. Symbols are
// referenced by name and evaluate to their integer values.
func CompileRelevance(src string) (*vm.Program, error) {
	program, err := expr.Compile(src, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compiling %q: %w", src, err)
	}
	return program, nil
}

// exprEnv exposes symbol values to relevance expressions.
func exprEnv(ws state.WorldState) map[string]any {
	env := make(map[string]any, ws.Len())
	for _, id := range ws.Symbols() {
		env[string(id)] = ws.Value(id)
	}
	return env
}

// Selector is the goal-selection policy. A goal is relevant when it is not
// yet satisfied and its relevant_when expression, if any, holds. Relevant
// goals are ordered by priority, highest first, then by declaration order.
// The result is cached until the world changes or ForceReevaluation.
type Selector struct {
	mu       sync.Mutex
	world    *World
	goals    []types.Goal
	def      types.Goal
	programs map[string]*vm.Program
	logger   *slog.Logger

	cached  []types.Goal
	version uint64
	valid   bool
}

// NewSelector creates a selector over goals with def as the fallback.
// Every relevant_when expression must compile.
func NewSelector(world *World, goals []types.Goal, def types.Goal, logger *slog.Logger) (*Selector, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Selector{
		world:    world,
		goals:    append([]types.Goal(nil), goals...),
		def:      def,
		programs: map[string]*vm.Program{},
		logger:   logger,
	}
	for _, g := range goals {
		if g.RelevantWhen == "" {
			continue
		}
		p, err := CompileRelevance(g.RelevantWhen)
		if err != nil {
			return nil, fmt.Errorf("goal %q: %w", g.Name, err)
		}
		s.programs[g.Name] = p
	}
	sort.SliceStable(s.goals, func(i, j int) bool {
		if s.goals[i].Priority != s.goals[j].Priority {
			return s.goals[i].Priority > s.goals[j].Priority
		}
		return s.goals[i].SourceOrder < s.goals[j].SourceOrder
	})
	return s, nil
}

// DefaultGoal returns the fallback goal.
func (s *Selector) DefaultGoal() types.Goal {
	return s.def
}

// RelevantGoals returns the relevant goals, most preferred first.
func (s *Selector) RelevantGoals() []types.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()

	version := s.world.Version()
	if s.valid && s.version == version {
		return s.cached
	}

	ws := s.world.WorldState()
	env := exprEnv(ws)
	var out []types.Goal
	for _, g := range s.goals {
		if rules.EvalAll(g.Preconditions, ws) {
			continue
		}
		if p, ok := s.programs[g.Name]; ok && !s.holds(g, p, env) {
			continue
		}
		out = append(out, g)
	}

	s.cached, s.version, s.valid = out, version, true
	return out
}

// ForceReevaluation invalidates the cached relevant goals.
func (s *Selector) ForceReevaluation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.valid = false
}

// Goals returns every goal in preference order.
func (s *Selector) Goals() []types.Goal {
	return s.goals
}

func (s *Selector) holds(g types.Goal, p *vm.Program, env map[string]any) bool {
	out, err := expr.Run(p, env)
	if err != nil {
		s.logger.Debug("selector: relevance check failed", "goal", g.Name, "expr", g.RelevantWhen, "error", err)
		return false
	}
	b, ok := out.(bool)
	return ok && b
}
