// Package searcher answers free-text queries against one immutable
// inverted index. A SearchIndex is a snapshot handle: rebuilding the corpus
// produces a new SearchIndex, and queries already holding the old handle
// keep seeing the old corpus.
package searcher

import (
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/vault"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/metrics"
)

// Ranker orders entries by relevance to a free-text query. The inverted
// index and the substring relevance scorer both implement it.
type Ranker interface {
	Rank(query string) []vault.EntryID
}

type SearchIndex struct {
	index   *index.InvertedIndex
	cache   *cache.QueryCache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a SearchIndex.
type Option func(*SearchIndex)

// WithCacheSize enables an LRU of up to size query results; 0 disables it.
func WithCacheSize(size int) Option {
	return func(s *SearchIndex) {
		s.cache = cache.New(size)
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *SearchIndex) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *SearchIndex) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New wraps ix. A nil ix behaves as an empty index.
func New(ix *index.InvertedIndex, opts ...Option) *SearchIndex {
	if ix == nil {
		ix = index.Build(nil)
	}
	s := &SearchIndex{
		index:  ix,
		logger: slog.Default().With("component", "search-index"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns the ids of entries matching query, best first. Unknown
// tokens are ignored; an empty query, a query without indexed tokens or a
// nil SearchIndex yield an empty slice.
func (s *SearchIndex) Search(query string) []vault.EntryID {
	scored := s.search(query)
	ids := make([]vault.EntryID, len(scored))
	for i, se := range scored {
		ids[i] = se.EntryID
	}
	return ids
}

// SearchScored is Search with the scores attached.
func (s *SearchIndex) SearchScored(query string) []ranker.ScoredEntry {
	scored := s.search(query)
	out := make([]ranker.ScoredEntry, len(scored))
	copy(out, scored)
	return out
}

// Rank implements Ranker.
func (s *SearchIndex) Rank(query string) []vault.EntryID {
	return s.Search(query)
}

// Index exposes the underlying index for statistics.
func (s *SearchIndex) Index() *index.InvertedIndex {
	if s == nil {
		return nil
	}
	return s.index
}

// CacheStats reports query cache hits and misses for this handle.
func (s *SearchIndex) CacheStats() (hits, misses int64) {
	if s == nil {
		return 0, 0
	}
	return s.cache.Stats()
}

// Release drops cached results. The handle still answers queries.
func (s *SearchIndex) Release() {
	if s == nil {
		return
	}
	s.cache.Purge()
}

// search returns a slice that may be shared with the cache.
func (s *SearchIndex) search(query string) []ranker.ScoredEntry {
	if s == nil {
		return nil
	}
	start := time.Now()
	plan := parser.Parse(query)
	if plan.Empty() {
		s.metrics.ObserveSearch(metrics.StrategyIndex, time.Since(start), 0)
		return nil
	}

	scored, hit := s.cache.GetOrCompute(plan, func() []ranker.ScoredEntry {
		return s.rank(plan)
	})
	if s.cache != nil {
		s.metrics.ObserveCache(hit)
	}
	s.metrics.ObserveSearch(metrics.StrategyIndex, time.Since(start), len(scored))
	s.logger.Debug("query executed",
		"terms", len(plan.Terms),
		"results", len(scored),
		"cache_hit", hit,
	)
	return scored
}

func (s *SearchIndex) rank(plan *parser.QueryPlan) []ranker.ScoredEntry {
	postingsPerTerm := make(map[string]index.PostingList, len(plan.Terms))
	for _, term := range plan.Terms {
		if postings := s.index.Postings(term); len(postings) > 0 {
			postingsPerTerm[term] = postings
		}
	}
	if len(postingsPerTerm) == 0 {
		return []ranker.ScoredEntry{}
	}
	params := ranker.RankParams{
		TotalToken: s.index.TotalToken(),
	}
	return ranker.Rank(postingsPerTerm, params, 0)
}
