// Package parser decomposes raw user input into what each search strategy
// consumes: a token multiset for the inverted index, or a keyword list for
// the substring relevance scorer.
package parser

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/indexer/tokenizer"
)

// QueryPlan is a tokenized query. Terms holds each distinct token once in
// order of first appearance; Counts holds its multiplicity.
type QueryPlan struct {
	Terms    []string
	Counts   map[string]int
	RawQuery string
}

func Parse(query string) *QueryPlan {
	plan := &QueryPlan{
		Terms:    make([]string, 0),
		Counts:   make(map[string]int),
		RawQuery: query,
	}
	for _, token := range tokenizer.Tokenize(query) {
		if plan.Counts[token] == 0 {
			plan.Terms = append(plan.Terms, token)
		}
		plan.Counts[token]++
	}
	return plan
}

func (p *QueryPlan) Empty() bool {
	return len(p.Terms) == 0
}

// Keywords lower-cases the query and splits it on whitespace. Unlike Parse
// it keeps short words and stop-words, since the relevance scorer matches
// substrings rather than whole tokens.
func Keywords(query string) []string {
	return strings.Fields(strings.ToLower(query))
}
