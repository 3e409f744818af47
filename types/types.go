// Package types defines the shared data structures for the goapcore planner.
// This package contains only type definitions, with no logic and no methods.
package types

// SymbolID names one scalar fact about the world (a resource count, or a
// boolean flag encoded as 0/1).
type SymbolID string

// Precondition kinds.
const (
	PreIsTrue     = "is_true"
	PreIsFalse    = "is_false"
	PreEquals     = "equals"
	PreNotSmaller = "not_smaller"
	PreNotGreater = "not_greater"
	PreInRange    = "in_range"
)

// Effect kinds.
const (
	EffSetTrue  = "set_true"
	EffSetFalse = "set_false"
	EffSet      = "set"
	EffAdd      = "add"
	EffSubtract = "subtract"
)

// Precondition is a predicate over one symbol's current value.
type Precondition struct {
	Kind   string
	Symbol SymbolID
	Value  int // threshold, expected value, or lower bound for in_range
	Max    int // upper bound for in_range only
}

// Effect is a transformation of one symbol's value.
type Effect struct {
	Kind   string
	Symbol SymbolID
	Value  int // value for set, delta for add/subtract
}

// Action is a parameterless planning action. Actions are owned by the
// caller's action library; plans and search nodes only hold pointers to them.
type Action struct {
	Name          string
	Preconditions []Precondition
	Effects       []Effect
	Cost          float64
	Duration      int // execution ticks; 0 means 1
}

// Goal is a named target condition set.
type Goal struct {
	Name          string
	Preconditions []Precondition
	Priority      int
	RelevantWhen  string // optional expression over symbol values
	SourceOrder   int
}

// ExecutionStatus is the execution collaborator's reported status.
type ExecutionStatus string

// Execution statuses.
const (
	StatusNone        ExecutionStatus = "none"
	StatusInProgress  ExecutionStatus = "in_progress"
	StatusComplete    ExecutionStatus = "complete"
	StatusInterrupted ExecutionStatus = "interrupted"
	StatusFailed      ExecutionStatus = "failed"
)

// Event is emitted by agents and executors during a tick.
type Event struct {
	Type  string
	Agent string
	Data  map[string]any
}

// Result is the output of a single engine step.
type Result struct {
	Effects []Effect
	Events  []Event
	Output  []string
}

// Intent is the parsed representation of a console command.
type Intent struct {
	Verb   string
	Object string // optional
	Target string // optional
}

// DomainDef holds domain metadata from Lua.
type DomainDef struct {
	Title   string
	Author  string
	Version string
	Intro   string
}

// PlannerDef holds planner settings declared by a domain.
type PlannerDef struct {
	Kind      string // "regressive" or "forward"; empty means unset
	MaxDepth  int    // 0 means unset
	Heuristic string // empty means unset
}

// AgentDef declares one agent and its own action library and goals.
type AgentDef struct {
	Name        string
	Actions     []string
	Goals       []string
	DefaultGoal string
}

// EventHandler reacts to an emitted event with world effects.
type EventHandler struct {
	EventType  string
	Match      map[string]string // event fields ("agent", "goal", "action") that must match
	Conditions []Precondition
	Effects    []Effect
	Say        string
}
