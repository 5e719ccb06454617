// Package relevance ranks a small set of entries against keywords without
// an index. Each keyword is matched as a case-insensitive substring of the
// title, username, notes and url, and as an exact tag; matches are weighted
// by field and by how much of the field the keyword covers.
//
// It serves the live filter of the entry list and autofill disambiguation,
// where candidate sets are small and substring hits ("git" in "GitHub")
// matter more than whole-token matches.
package relevance

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/vault"
)

const (
	weightTitle    = 1.0
	weightUsername = 0.8
	weightNotes    = 0.5
	weightURL      = 0.5
	weightTags     = 0.6
)

// Relevance is the score of one entry against a keyword list.
type Relevance struct {
	EntryID vault.EntryID
	Score   float64
	// Unmatched counts keywords that scored exactly zero on every field.
	Unmatched int
}

func (r Relevance) IsRelated() bool {
	return r.Score > 0
}

// Less orders entries covering more keywords first, then by higher score.
func Less(a, b Relevance) bool {
	if a.Unmatched != b.Unmatched {
		return a.Unmatched < b.Unmatched
	}
	return a.Score > b.Score
}

// Score computes the relevance of e to keywords. Blank keywords are
// ignored.
func Score(e vault.Entry, keywords []string) Relevance {
	r := Relevance{EntryID: e.ID}
	title := strings.ToLower(e.Title)
	username := strings.ToLower(e.Username)
	notes := strings.ToLower(e.Notes)
	url := strings.ToLower(e.URL)
	tags := nonBlank(e.Tags)

	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		s := fieldScore(title, kw)*weightTitle +
			fieldScore(username, kw)*weightUsername +
			fieldScore(notes, kw)*weightNotes +
			fieldScore(url, kw)*weightURL +
			tagScore(tags, kw)*weightTags
		if s == 0 {
			r.Unmatched++
		}
		r.Score += s
	}
	return r
}

// Rank scores entries, drops the unrelated ones and sorts the rest with
// Less. Entries that compare equal keep their input order.
func Rank(entries []vault.Entry, keywords []string) []Relevance {
	ranked := make([]Relevance, 0, len(entries))
	for _, e := range entries {
		r := Score(e, keywords)
		if r.IsRelated() {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return Less(ranked[i], ranked[j])
	})
	return ranked
}

// fieldScore is ln(e - 1 + |kw|/|field|) when kw occurs in field: a keyword
// spanning the whole field scores 1, a short one in a long field just over
// ln(e - 1). Both arguments must already be lower-cased.
func fieldScore(field, kw string) float64 {
	if field == "" || !strings.Contains(field, kw) {
		return 0
	}
	ratio := float64(utf8.RuneCountInString(kw)) / float64(utf8.RuneCountInString(field))
	return math.Log(math.E - 1 + ratio)
}

// tagScore only rewards an exact, case-insensitive tag match; the fewer
// tags an entry carries, the more a match counts.
func tagScore(tags []string, kw string) float64 {
	for _, tag := range tags {
		if strings.EqualFold(tag, kw) {
			return math.Log(math.E - 1 + 1/float64(len(tags)))
		}
	}
	return 0
}

func nonBlank(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// CandidateSet ranks a fixed, small list of entries. It implements the
// searcher Ranker interface for call sites that have no index.
type CandidateSet struct {
	entries []vault.Entry
}

func NewCandidateSet(entries []vault.Entry) *CandidateSet {
	return &CandidateSet{entries: entries}
}

// Rank splits query into keywords and returns the related entries' ids in
// relevance order.
func (c *CandidateSet) Rank(query string) []vault.EntryID {
	ranked := Rank(c.entries, parser.Keywords(query))
	ids := make([]vault.EntryID, len(ranked))
	for i, r := range ranked {
		ids[i] = r.EntryID
	}
	return ids
}

func (c *CandidateSet) Len() int {
	return len(c.entries)
}
