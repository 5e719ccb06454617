// Package index holds the token → postings map built from one corpus
// snapshot. An InvertedIndex is immutable once Build returns it; a refresh
// always produces a new one.
package index

import (
	"bytes"
	"sort"
)

type InvertedIndex struct {
	postings   map[string]PostingList
	totalEntry int
	totalToken int64
}

func newInvertedIndex() *InvertedIndex {
	return &InvertedIndex{
		postings: make(map[string]PostingList),
	}
}

// Postings returns the posting list for token, or nil. The slice is shared
// with the index and must not be modified.
func (ix *InvertedIndex) Postings(token string) PostingList {
	return ix.postings[token]
}

func (ix *InvertedIndex) Contains(token string) bool {
	_, ok := ix.postings[token]
	return ok
}

// DocFreq is the number of distinct entries containing token.
func (ix *InvertedIndex) DocFreq(token string) int {
	return len(ix.postings[token])
}

// TotalEntry is the number of entries indexed.
func (ix *InvertedIndex) TotalEntry() int {
	return ix.totalEntry
}

// TotalToken counts postings, i.e. one per distinct token per entry.
func (ix *InvertedIndex) TotalToken() int64 {
	return ix.totalToken
}

// Terms is the number of distinct tokens in the index.
func (ix *InvertedIndex) Terms() int {
	return len(ix.postings)
}

// Snapshot lists every term with its postings, terms sorted
// lexicographically and postings by entry id.
func (ix *InvertedIndex) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(ix.postings))
	for term, list := range ix.postings {
		postings := make(PostingList, len(list))
		copy(postings, list)
		sort.Slice(postings, func(i, j int) bool {
			return bytes.Compare(postings[i].EntryID[:], postings[j].EntryID[:]) < 0
		})
		entries = append(entries, TermEntry{
			Term:     term,
			Postings: postings,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}

// add registers one (token, entry, frequency) posting. Only the builder's
// single-threaded merge calls it.
func (ix *InvertedIndex) add(term string, p Posting) {
	ix.postings[term] = append(ix.postings[term], p)
	ix.totalToken++
}
