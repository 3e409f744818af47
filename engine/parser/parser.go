// Package parser converts console command strings into Intent structs.
// Intentionally dumb: no NLP, just pattern matching.
package parser

import (
	"strings"

	"github.com/nathoo/goapcore/types"
)

var verbAliases = map[string]string{
	// Tick
	"t":       "tick",
	"step":    "tick",
	"advance": "tick",
	"next":    "tick",
	"run":     "tick",
	"wait":    "tick",
	"z":       "tick",

	// Plan
	"p":      "plan",
	"pursue": "plan",
	"solve":  "plan",

	// Set
	"assign": "set",
	"put":    "set",

	// Inspection
	"world":   "state",
	"ws":      "state",
	"show":    "state",
	"s":       "state",
	"goal":    "goals",
	"action":  "actions",
	"agent":   "agents",
	"who":     "agents",
	"status":  "agents",
	"metrics": "stats",

	// Interrupt
	"stop":   "interrupt",
	"halt":   "interrupt",
	"cancel": "interrupt",
	"abort":  "interrupt",
}

var prepositions = map[string]bool{
	"to": true, "for": true, "by": true, "with": true, "=": true,
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true,
}

// Parse converts a raw command string into an Intent.
func Parse(input string) types.Intent {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Intent{}
	}

	words := strings.Fields(strings.ToLower(strings.ReplaceAll(input, "=", " = ")))

	// Handle multi-word verb phrases before general parsing.
	words = expandMultiWordVerbs(words)
	if len(words) == 0 {
		return types.Intent{}
	}

	// Apply verb aliases.
	if alias, ok := verbAliases[words[0]]; ok {
		words[0] = alias
	}

	verb := words[0]
	rest := stripArticles(words[1:])

	// Use the first preposition as a delimiter between object and target.
	object, target := splitOnPreposition(rest)

	// "set wood 5" has no preposition: the trailing word is the value.
	if verb == "set" && target == "" {
		if f := strings.Fields(object); len(f) >= 2 {
			object = strings.Join(f[:len(f)-1], " ")
			target = f[len(f)-1]
		}
	}

	return types.Intent{
		Verb:   verb,
		Object: object,
		Target: target,
	}
}

// expandMultiWordVerbs handles "list goals", "show state", "plan for" etc.
func expandMultiWordVerbs(words []string) []string {
	if len(words) < 2 {
		return words
	}

	switch words[0] {
	case "list", "show":
		switch words[1] {
		case "goals", "actions", "agents", "state", "stats":
			return append([]string{words[1]}, words[2:]...)
		}
	case "plan":
		if words[1] == "for" {
			return append([]string{"plan"}, words[2:]...)
		}
	case "wait":
		if words[1] == "for" {
			return append([]string{"tick"}, words[2:]...)
		}
	}

	return words
}

// stripArticles removes articles ("the", "a", "an") from the word list.
func stripArticles(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if !articles[w] {
			result = append(result, w)
		}
	}
	return result
}

// splitOnPreposition splits words on the first preposition.
// Words before the preposition become the object, words after become the target.
// If no preposition is found, all words become the object.
func splitOnPreposition(words []string) (object, target string) {
	for i, w := range words {
		if prepositions[w] {
			object = strings.Join(words[:i], " ")
			target = strings.Join(words[i+1:], " ")
			return object, target
		}
	}
	return strings.Join(words, " "), ""
}
