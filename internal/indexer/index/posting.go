package index

import "github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/vault"

// Posting records that an entry contains a token Frequency times.
type Posting struct {
	EntryID   vault.EntryID
	Frequency int
}

type PostingList []Posting

type TermEntry struct {
	Term     string
	Postings PostingList
}
