package ranker

import (
	"bytes"
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/vault"
)

type ScoredEntry struct {
	EntryID vault.EntryID `json:"entry_id"`
	Score   float64       `json:"score"`
}

type RankParams struct {
	// TotalToken is the index's posting count, not a raw word count.
	TotalToken int64
}

// Rank scores every entry that appears in postingsPerTerm. Each term's
// query weight is ln(1 + N/df) where N is the index's posting count; each
// posting contributes that weight times 1 + ln(tf). The accumulated sum A
// is reported as A/sqrt(A). Entries are returned best first, ties broken by
// entry id; limit <= 0 returns all of them.
func Rank(postingsPerTerm map[string]index.PostingList, params RankParams, limit int) []ScoredEntry {
	accum := make(map[vault.EntryID]float64)
	for _, postings := range postingsPerTerm {
		if len(postings) == 0 {
			continue
		}
		qw := QueryWeight(params.TotalToken, len(postings))
		for _, p := range postings {
			accum[p.EntryID] += qw * DocWeight(p.Frequency)
		}
	}
	result := make([]ScoredEntry, 0, len(accum))
	for id, a := range accum {
		score := cosine(a)
		if score <= 0 {
			continue
		}
		result = append(result, ScoredEntry{EntryID: id, Score: score})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return bytes.Compare(result[i].EntryID[:], result[j].EntryID[:]) < 0
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// QueryWeight grows as fewer entries contain the term.
func QueryWeight(totalToken int64, docFreq int) float64 {
	if docFreq <= 0 {
		return 0
	}
	return math.Log(1 + float64(totalToken)/float64(docFreq))
}

func DocWeight(frequency int) float64 {
	if frequency <= 0 {
		return 0
	}
	return 1 + math.Log(float64(frequency))
}

// cosine keeps the historical A/sqrt(A) normalisation. It is not a true
// cosine (the entry's own vector norm is never used) and orders results
// exactly as A would.
func cosine(accum float64) float64 {
	if accum <= 0 {
		return 0
	}
	return accum / math.Sqrt(accum)
}
