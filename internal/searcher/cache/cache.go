// Package cache memoises ranked results for one SearchIndex handle. The
// cache lives and dies with its handle, so a rebuilt index never serves
// results computed against an older corpus.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/searcher/ranker"
)

const keyPrefix = "search:"

// QueryCache is an LRU of ranked results keyed by the query's distinct
// terms. A nil *QueryCache is valid and caches nothing.
type QueryCache struct {
	entries *lru.Cache[string, []ranker.ScoredEntry]
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New returns a cache holding up to size queries, or nil when size <= 0.
func New(size int) *QueryCache {
	if size <= 0 {
		return nil
	}
	entries, err := lru.New[string, []ranker.ScoredEntry](size)
	if err != nil {
		return nil
	}
	return &QueryCache{
		entries: entries,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(plan *parser.QueryPlan) ([]ranker.ScoredEntry, bool) {
	if c == nil {
		return nil, false
	}
	result, ok := c.entries.Get(buildKey(plan))
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return result, true
}

func (c *QueryCache) Set(plan *parser.QueryPlan, result []ranker.ScoredEntry) {
	if c == nil {
		return
	}
	c.entries.Add(buildKey(plan), result)
}

// GetOrCompute returns the cached result for plan or runs computeFn once,
// even when several goroutines miss on the same key at the same time. The
// boolean reports a cache hit. Returned slices are shared and read-only.
func (c *QueryCache) GetOrCompute(
	plan *parser.QueryPlan,
	computeFn func() []ranker.ScoredEntry,
) ([]ranker.ScoredEntry, bool) {
	if c == nil {
		return computeFn(), false
	}
	if result, ok := c.Get(plan); ok {
		return result, true
	}
	key := buildKey(plan)
	val, _, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.entries.Get(key); ok {
			return result, nil
		}
		result := computeFn()
		c.entries.Add(key, result)
		return result, nil
	})
	return val.([]ranker.ScoredEntry), false
}

// Purge drops every cached result.
func (c *QueryCache) Purge() {
	if c == nil {
		return
	}
	n := c.entries.Len()
	c.entries.Purge()
	c.logger.Debug("cache purged", "entries", n)
}

func (c *QueryCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

func (c *QueryCache) Stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}

// buildKey hashes the normalised query so plaintext queries are not kept
// alive as map keys.
func buildKey(plan *parser.QueryPlan) string {
	hash := sha256.Sum256([]byte(normalizeQuery(plan)))
	return keyPrefix + hex.EncodeToString(hash[:16])
}

// normalizeQuery reduces a plan to its sorted distinct terms; ranking does
// not depend on term order or repetition.
func normalizeQuery(plan *parser.QueryPlan) string {
	terms := make([]string, len(plan.Terms))
	copy(terms, plan.Terms)
	sort.Strings(terms)
	return strings.Join(terms, "\x00")
}
