package parser

import (
	"slices"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		verb  string
		args  []string
	}{
		{"empty string", "", "", nil},
		{"whitespace only", "   ", "", nil},

		// Canonical verbs
		{"status", "status", "status", nil},
		{"verb is lower-cased", "STATUS", "status", nil},
		{"args keep case", "add Call Mom d=1", "add", []string{"Call", "Mom", "d=1"}},

		// Aliases
		{"finish -> done", "finish write-report", "done", []string{"write-report"}},
		{"rm -> delete", "rm old-task", "delete", []string{"old-task"}},
		{"ls -> quests", "ls", "quests", nil},
		{"zen -> meditate", "zen", "meditate", nil},
		{"purchase -> buy", "purchase shield", "buy", []string{"shield"}},
		{"z -> tick", "z", "tick", nil},

		// Multi-word verbs
		{"give up", "give up write-report", "fail", []string{"write-report"}},
		{"break chain", "break chain", "breakchain", nil},
		{"check inbox", "Check Inbox", "inbox", nil},
		{"check deadlines", "check deadlines", "deadlines", nil},
		{"new quest", "new quest Read SICP", "add", []string{"Read", "SICP"}},
		{"start chain", "start chain Launch a b", "chain", []string{"Launch", "a", "b"}},
		{"new skill", "new skill Go", "skill", []string{"Go"}},
		{"clear filters", "clear filters", "filter", []string{"clear"}},
		{"defeat boss", "defeat boss 10", "boss", []string{"10"}},

		// Noise words after reference verbs
		{"done the quest", "done the quest write-report", "done", []string{"write-report"}},
		{"buy a shield", "buy a shield", "buy", []string{"shield"}},
		{"noise kept as last word", "done quest", "done", []string{"quest"}},
		{"names keep articles", "add The Hobbit", "add", []string{"The", "Hobbit"}},

		// Unknown verbs pass through
		{"unknown", "dance wildly", "dance", []string{"wildly"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if got.Verb != tt.verb || !slices.Equal(got.Args, tt.args) {
				t.Errorf("Parse(%q) = %+v, want verb %q args %v", tt.input, got, tt.verb, tt.args)
			}
		})
	}
}

func TestExpandMultiWordVerbs_SingleWord(t *testing.T) {
	got := expandMultiWordVerbs([]string{"give"})
	if !slices.Equal(got, []string{"give"}) {
		t.Errorf("got %v", got)
	}
}

func TestStripNoise(t *testing.T) {
	tests := []struct {
		in, want []string
	}{
		{[]string{"the", "quest", "x"}, []string{"x"}},
		{[]string{"The", "x"}, []string{"x"}},
		{[]string{"x", "the"}, []string{"x", "the"}},
		{[]string{"the"}, []string{"the"}},
		{nil, nil},
	}
	for _, tt := range tests {
		if got := stripNoise(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("stripNoise(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
