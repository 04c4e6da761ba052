// Package resolve maps what the player typed to a quest ref.
package resolve

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nathoo/questrun/types"
)

// AmbiguityError indicates several active quests matched a query.
type AmbiguityError struct {
	Query      string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("which %q? (%s)", e.Query, strings.Join(e.Candidates, ", "))
}

// Quest resolves query against qs and returns a ref. In order it tries: an
// exact ref of any quest, then among active quests an exact name, the slug
// of the query, and finally quests whose name contains every query word.
// When nothing matches, the slug of the query is returned unchanged so the
// caller reports the quest as missing.
func Quest(qs []types.Quest, query string, slug func(string) string) (string, error) {
	query = strings.TrimSpace(query)
	ref := slug(query)

	for _, q := range qs {
		if q.Ref == query {
			return q.Ref, nil
		}
	}

	var active []types.Quest
	for _, q := range qs {
		if q.Status == types.QuestActive {
			active = append(active, q)
		}
	}

	for _, q := range active {
		if strings.EqualFold(q.Name, query) || q.Ref == ref {
			return q.Ref, nil
		}
	}

	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return ref, nil
	}
	var matches []string
	for _, q := range active {
		if matchesWords(q, words) {
			matches = append(matches, q.Ref)
		}
	}
	switch len(matches) {
	case 0:
		return ref, nil
	case 1:
		return matches[0], nil
	default:
		slices.Sort(matches)
		return "", &AmbiguityError{Query: query, Candidates: matches}
	}
}

// matchesWords reports whether every word is a prefix of some word of the
// quest's name or ref.
func matchesWords(q types.Quest, words []string) bool {
	fields := strings.Fields(strings.ToLower(q.Name))
	fields = append(fields, strings.Split(q.Ref, "-")...)
	for _, w := range words {
		if !slices.ContainsFunc(fields, func(f string) bool { return strings.HasPrefix(f, w) }) {
			return false
		}
	}
	return true
}
