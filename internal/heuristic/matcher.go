package heuristic

import (
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// phraseMatcher finds which dictionary phrases occur in a text in a single pass.
// ahocorasick.Matcher keeps per-call state, so each goroutine borrows its own from the pool.
type phraseMatcher struct {
	dict []string
	pool sync.Pool
}

func newPhraseMatcher(phrases []string) *phraseMatcher {
	seen := make(map[string]bool, len(phrases))
	dict := make([]string, 0, len(phrases))
	for _, p := range phrases {
		// duplicate dictionary entries would shadow each other's index in the automaton
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		dict = append(dict, p)
	}

	m := &phraseMatcher{dict: dict}
	m.pool.New = func() any {
		return ahocorasick.NewStringMatcher(m.dict)
	}
	return m
}

// match returns the set of dictionary phrases found in text.
// A failure inside the automaton yields an empty set.
func (m *phraseMatcher) match(text string) (found map[string]bool) {
	if len(m.dict) == 0 || text == "" {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			found = nil
		}
	}()

	am := m.pool.Get().(*ahocorasick.Matcher)
	hits := am.Match([]byte(text))
	// a matcher that panicked is dropped instead of returned to the pool
	m.pool.Put(am)

	found = make(map[string]bool, len(hits))
	for _, idx := range hits {
		if idx >= 0 && idx < len(m.dict) {
			found[m.dict[idx]] = true
		}
	}
	return found
}
