// Package parser turns a command line into an Intent: a canonical verb and
// its arguments. No NLP, just alias tables and a few fixed phrases.
package parser

import "strings"

// Intent is a parsed command. Verb is lower-case and canonical; Args keep
// the case the player typed.
type Intent struct {
	Verb string
	Args []string
}

var verbAliases = map[string]string{
	// Quests
	"new":      "add",
	"create":   "add",
	"a":        "add",
	"complete": "done",
	"finish":   "done",
	"do":       "done",
	"d":        "done",
	"abandon":  "fail",
	"forfeit":  "fail",
	"rm":       "delete",
	"del":      "delete",
	"remove":   "delete",
	"restore":  "undo",
	"ls":       "quests",
	"list":     "quests",
	"q":        "quests",

	// Research
	"study":    "research",
	"count":    "words",
	"finalize": "submit",
	"discard":  "drop",

	// Progress
	"st":      "status",
	"stats":   "status",
	"sk":      "skills",
	"zen":     "meditate",
	"breathe": "meditate",
	"med":     "meditate",
	"m":       "missions",

	// Economy
	"purchase": "buy",
	"store":    "shop",
	"roll":     "reroll",

	// Bosses
	"slay":  "boss",
	"fight": "boss",

	// Misc
	"due":     "deadlines",
	"wait":    "tick",
	"z":       "tick",
	"f":       "filter",
	"suicide": "die",
}

// noiseWords are dropped directly after verbs that take a reference, so
// "done the quest write-report" reads as "done write-report".
var noiseWords = map[string]bool{
	"the": true, "a": true, "an": true, "quest": true, "my": true,
}

// refVerbs take a quest reference or id rather than a free-text name.
var refVerbs = map[string]bool{
	"done": true, "fail": true, "delete": true,
	"words": true, "submit": true, "drop": true,
	"boss": true, "buy": true,
}

// Parse converts a raw command line into an Intent.
func Parse(input string) Intent {
	words := strings.Fields(strings.TrimSpace(input))
	if len(words) == 0 {
		return Intent{}
	}

	words = expandMultiWordVerbs(words)
	verb := strings.ToLower(words[0])
	if alias, ok := verbAliases[verb]; ok {
		verb = alias
	}
	args := words[1:]
	if refVerbs[verb] {
		args = stripNoise(args)
	}
	if len(args) == 0 {
		args = nil
	}
	return Intent{Verb: verb, Args: args}
}

// expandMultiWordVerbs handles "give up", "break chain", "check inbox" and
// similar two-word phrases.
func expandMultiWordVerbs(words []string) []string {
	if len(words) < 2 {
		return words
	}
	first, second := strings.ToLower(words[0]), strings.ToLower(words[1])
	replace := func(verb string) []string {
		return append([]string{verb}, words[2:]...)
	}

	switch first {
	case "give":
		if second == "up" {
			return replace("fail")
		}
	case "break", "abandon":
		if second == "chain" {
			return replace("breakchain")
		}
	case "check":
		switch second {
		case "inbox":
			return replace("inbox")
		case "deadlines":
			return replace("deadlines")
		}
	case "new", "start", "create":
		switch second {
		case "chain":
			return replace("chain")
		case "skill":
			return replace("skill")
		case "research":
			return replace("research")
		case "quest":
			return replace("add")
		}
	case "clear":
		if second == "filters" || second == "filter" {
			return []string{"filter", "clear"}
		}
	case "defeat":
		if second == "boss" {
			return replace("boss")
		}
	}
	return words
}

// stripNoise drops leading noise words, never the last word.
func stripNoise(words []string) []string {
	for len(words) > 1 && noiseWords[strings.ToLower(words[0])] {
		words = words[1:]
	}
	return words
}
