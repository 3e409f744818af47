// Package resolve maps user-typed names to goal, action, symbol and agent
// identifiers.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/goapcore/engine/state"
	"github.com/nathoo/goapcore/types"
)

// AmbiguityError indicates multiple candidates matched a name.
type AmbiguityError struct {
	Kind       string
	Name       string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	names := strings.Join(e.Candidates, ", ")
	return fmt.Sprintf("which %s %q? (%s)", e.Kind, e.Name, names)
}

// NotFoundError indicates no candidate matched a name.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s named %q", e.Kind, e.Name)
}

// Name resolves a user-typed name against candidates of one kind
// ("goal", "action", "symbol", "agent"). Matching is tried in order:
// exact, case-insensitive, spaces read as underscores or removed, then
// unique prefix. The first step with exactly one match wins.
func Name(kind, name string, candidates []string) (string, error) {
	if name == "" {
		return "", &NotFoundError{Kind: kind, Name: name}
	}

	for _, c := range candidates {
		if c == name {
			return c, nil
		}
	}

	nameLower := strings.ToLower(name)
	variants := []string{
		nameLower,
		strings.ReplaceAll(nameLower, " ", "_"),
		strings.ReplaceAll(nameLower, " ", ""),
	}

	for _, match := range []func(c string) bool{
		func(c string) bool { return containsStr(variants, strings.ToLower(c)) },
		func(c string) bool {
			cl := strings.ToLower(c)
			for _, v := range variants {
				if strings.HasPrefix(cl, v) {
					return true
				}
			}
			return false
		},
	} {
		var matches []string
		for _, c := range candidates {
			if match(c) && !containsStr(matches, c) {
				matches = append(matches, c)
			}
		}
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			sort.Strings(matches)
			return "", &AmbiguityError{Kind: kind, Name: name, Candidates: matches}
		}
	}

	return "", &NotFoundError{Kind: kind, Name: name}
}

func containsStr(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

// Goal resolves a goal name among goals.
func Goal(goals []types.Goal, name string) (types.Goal, error) {
	names := make([]string, len(goals))
	for i, g := range goals {
		names[i] = g.Name
	}
	id, err := Name("goal", name, names)
	if err != nil {
		return types.Goal{}, err
	}
	for _, g := range goals {
		if g.Name == id {
			return g, nil
		}
	}
	return types.Goal{}, &NotFoundError{Kind: "goal", Name: name}
}

// Symbol resolves a symbol name among the symbols ws knows.
func Symbol(ws state.WorldState, name string) (types.SymbolID, error) {
	syms := ws.Symbols()
	names := make([]string, len(syms))
	for i, s := range syms {
		names[i] = string(s)
	}
	id, err := Name("symbol", name, names)
	return types.SymbolID(id), err
}
