// Package autofill picks the vault entries to offer for a login form. The
// inverted index narrows the corpus using the form's window titles and web
// domains, and the relevance scorer reorders the best few hits.
package autofill

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/searcher/relevance"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/vault"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/metrics"
)

const (
	DefaultMaxCandidates = 5
	DefaultCandidatePool = 20
)

// Form describes the window asking for credentials.
type Form struct {
	Titles     []string
	WebDomains []string
}

// Query joins the non-blank titles and domains into one search string.
func (f Form) Query() string {
	parts := make([]string, 0, len(f.Titles)+len(f.WebDomains))
	for _, s := range f.Titles {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	for _, s := range f.WebDomains {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Resolver maps an entry id back to its entry.
type Resolver interface {
	Lookup(id vault.EntryID) (vault.Entry, bool)
}

type Matcher struct {
	maxCandidates int
	candidatePool int
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

type Option func(*Matcher)

func WithMetrics(m *metrics.Metrics) Option {
	return func(mt *Matcher) {
		mt.metrics = m
	}
}

// NewMatcher returns a Matcher offering at most maxCandidates entries drawn
// from the first candidatePool index hits. Non-positive values fall back to
// the defaults, and the pool never shrinks below maxCandidates.
func NewMatcher(maxCandidates, candidatePool int, opts ...Option) *Matcher {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	if candidatePool <= 0 {
		candidatePool = DefaultCandidatePool
	}
	if candidatePool < maxCandidates {
		candidatePool = maxCandidates
	}
	m := &Matcher{
		maxCandidates: maxCandidates,
		candidatePool: candidatePool,
		logger:        slog.Default().With("component", "autofill"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match returns the entries to offer for form, best first. Index hits that
// the resolver no longer knows are skipped. Hits the relevance scorer cannot
// tell apart keep their index order.
func (m *Matcher) Match(idx *searcher.SearchIndex, entries Resolver, form Form) []vault.Entry {
	start := time.Now()
	query := form.Query()

	hits := idx.Search(query)
	if len(hits) > m.candidatePool {
		hits = hits[:m.candidatePool]
	}

	keywords := parser.Keywords(query)
	candidates := make([]vault.Entry, 0, len(hits))
	scores := make([]relevance.Relevance, 0, len(hits))
	for _, id := range hits {
		e, ok := entries.Lookup(id)
		if !ok {
			continue
		}
		candidates = append(candidates, e)
		scores = append(scores, relevance.Score(e, keywords))
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return relevance.Less(scores[order[a]], scores[order[b]])
	})
	if len(order) > m.maxCandidates {
		order = order[:m.maxCandidates]
	}

	result := make([]vault.Entry, len(order))
	for i, j := range order {
		result[i] = candidates[j]
	}

	m.metrics.ObserveSearch(metrics.StrategyAutofill, time.Since(start), len(result))
	m.logger.Debug("autofill matched",
		"hits", len(hits),
		"candidates", len(result),
	)
	return result
}
