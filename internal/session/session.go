// Package session owns the search state of one unlocked vault. Refreshing
// builds a new index off to the side and publishes it with a single atomic
// swap; locking drops it. Readers load the current snapshot once per call
// and never block on a rebuild.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/autofill"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/searcher/relevance"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/vault"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/tracing"
)

// snapshot is everything a reader needs from one refresh.
type snapshot struct {
	index   *searcher.SearchIndex
	entries []vault.Entry
	byID    map[vault.EntryID]vault.Entry
}

func (s *snapshot) Lookup(id vault.EntryID) (vault.Entry, bool) {
	e, ok := s.byID[id]
	return e, ok
}

type Session struct {
	id        string
	builder   *index.Builder
	matcher   *autofill.Matcher
	cacheSize int
	metrics   *metrics.Metrics

	current atomic.Pointer[snapshot]

	// afterBuild runs between a finished build and its publication.
	afterBuild func()

	// mu guards the fields below; readers never take it.
	mu           sync.Mutex
	generation   uint64
	seq          uint64
	publishedSeq uint64
	closed       bool
}

type Option func(*Session)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// New creates a locked session. Call Unlock to load a corpus.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Session{
		id:        uuid.NewString(),
		cacheSize: cfg.Search.CacheSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	builder, err := index.NewBuilder(cfg.Index.Workers)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	s.builder = builder
	s.matcher = autofill.NewMatcher(cfg.Autofill.MaxCandidates, cfg.Autofill.CandidatePool, autofill.WithMetrics(s.metrics))
	s.metrics.SetUnlocked(false)
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Unlocked() bool {
	return s.current.Load() != nil
}

// Unlock indexes entries and makes them searchable.
func (s *Session) Unlock(ctx context.Context, entries []vault.Entry) error {
	return s.publish(ctx, entries, false)
}

// Refresh re-indexes an unlocked session. It fails with ErrVaultLocked if
// the session is locked when it starts, and discards its result if the
// session is locked before the build finishes.
func (s *Session) Refresh(ctx context.Context, entries []vault.Entry) error {
	return s.publish(ctx, entries, true)
}

func (s *Session) UnlockFrom(ctx context.Context, p corpus.Provider) error {
	ctx, span := tracing.StartSpan(ctx, "unlock", s.id)
	defer span.Finish(logger.FromContext(ctx))

	entries, err := load(ctx, p)
	if err != nil {
		return fmt.Errorf("unlocking: %w", err)
	}
	return s.Unlock(ctx, entries)
}

func (s *Session) RefreshFrom(ctx context.Context, p corpus.Provider) error {
	if !s.Unlocked() {
		return apperrors.New(apperrors.ErrVaultLocked, "refresh skipped")
	}
	ctx, span := tracing.StartSpan(ctx, "refresh", s.id)
	defer span.Finish(logger.FromContext(ctx))

	entries, err := load(ctx, p)
	if err != nil {
		return fmt.Errorf("refreshing: %w", err)
	}
	return s.Refresh(ctx, entries)
}

func load(ctx context.Context, p corpus.Provider) ([]vault.Entry, error) {
	_, span := tracing.StartChildSpan(ctx, "load")
	defer span.End()
	entries, err := p.Entries(ctx)
	span.SetAttr("entries", len(entries))
	return entries, err
}

func (s *Session) publish(ctx context.Context, entries []vault.Entry, requireUnlocked bool) error {
	log := logger.FromContext(ctx).With("component", "session")

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return apperrors.New(apperrors.ErrVaultLocked, "session closed")
	}
	if requireUnlocked && s.current.Load() == nil {
		s.mu.Unlock()
		return apperrors.New(apperrors.ErrVaultLocked, "refresh skipped")
	}
	gen := s.generation
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	_, span := tracing.StartChildSpan(ctx, "build")
	start := time.Now()
	ix, err := s.builder.Build(ctx, entries)
	span.End()
	if err != nil {
		s.metrics.ObserveBuild(metrics.BuildFailed, time.Since(start), 0, 0)
		return err
	}
	if s.afterBuild != nil {
		s.afterBuild()
	}

	next := &snapshot{
		index: searcher.New(ix,
			searcher.WithCacheSize(s.cacheSize),
			searcher.WithMetrics(s.metrics),
		),
		entries: make([]vault.Entry, 0, len(entries)),
		byID:    make(map[vault.EntryID]vault.Entry, len(entries)),
	}
	for _, e := range entries {
		if e.ID == uuid.Nil {
			continue
		}
		if _, dup := next.byID[e.ID]; dup {
			continue
		}
		next.byID[e.ID] = e
		next.entries = append(next.entries, e)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.generation || seq < s.publishedSeq {
		s.metrics.ObserveBuild(metrics.BuildDiscarded, time.Since(start), 0, 0)
		log.Info("index build discarded", "entries", len(entries))
		if s.closed || gen != s.generation {
			return apperrors.New(apperrors.ErrVaultLocked, "locked during refresh")
		}
		return nil
	}
	s.publishedSeq = seq
	old := s.current.Swap(next)
	if old != nil {
		old.index.Release()
	}

	d := time.Since(start)
	s.metrics.ObserveBuild(metrics.BuildOK, d, ix.TotalEntry(), ix.Terms())
	s.metrics.SetUnlocked(true)
	log.Info("index published",
		"entries", ix.TotalEntry(),
		"terms", ix.Terms(),
		"duration_ms", d.Milliseconds(),
	)
	return nil
}

// Lock discards the index and the corpus. Builds still running will not be
// published.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockLocked()
}

func (s *Session) lockLocked() {
	s.generation++
	if old := s.current.Swap(nil); old != nil {
		old.index.Release()
	}
	s.metrics.SetUnlocked(false)
}

// Close locks the session and releases its worker pool.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.lockLocked()
	s.builder.Release()
}

// Index returns the current search handle, or nil while locked. The handle
// stays valid after later refreshes.
func (s *Session) Index() *searcher.SearchIndex {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	return snap.index
}

// Search ranks entry ids with the inverted index.
func (s *Session) Search(query string) []vault.EntryID {
	snap := s.current.Load()
	if snap == nil {
		s.metrics.ObserveLocked(metrics.StrategyIndex)
		return []vault.EntryID{}
	}
	return snap.index.Search(query)
}

// SearchEntries is Search resolved to entries, at most limit of them when
// limit > 0.
func (s *Session) SearchEntries(query string, limit int) []vault.Entry {
	snap := s.current.Load()
	if snap == nil {
		s.metrics.ObserveLocked(metrics.StrategyIndex)
		return []vault.Entry{}
	}
	ids := snap.index.Search(query)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return resolve(snap, ids)
}

// Filter narrows the entry list with the relevance scorer. A blank query
// keeps every entry in corpus order.
func (s *Session) Filter(query string) []vault.Entry {
	snap := s.current.Load()
	if snap == nil {
		s.metrics.ObserveLocked(metrics.StrategyRelevance)
		return []vault.Entry{}
	}
	if strings.TrimSpace(query) == "" {
		out := make([]vault.Entry, len(snap.entries))
		copy(out, snap.entries)
		return out
	}
	start := time.Now()
	ranked := relevance.Rank(snap.entries, parser.Keywords(query))
	out := make([]vault.Entry, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, snap.byID[r.EntryID])
	}
	s.metrics.ObserveSearch(metrics.StrategyRelevance, time.Since(start), len(out))
	return out
}

func (s *Session) Autofill(form autofill.Form) []vault.Entry {
	snap := s.current.Load()
	if snap == nil {
		s.metrics.ObserveLocked(metrics.StrategyAutofill)
		return []vault.Entry{}
	}
	return s.matcher.Match(snap.index, snap, form)
}

func (s *Session) Lookup(id vault.EntryID) (vault.Entry, bool) {
	snap := s.current.Load()
	if snap == nil {
		return vault.Entry{}, false
	}
	return snap.Lookup(id)
}

// Entries returns the unlocked corpus in load order.
func (s *Session) Entries() []vault.Entry {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	out := make([]vault.Entry, len(snap.entries))
	copy(out, snap.entries)
	return out
}

func resolve(snap *snapshot, ids []vault.EntryID) []vault.Entry {
	out := make([]vault.Entry, 0, len(ids))
	for _, id := range ids {
		if e, ok := snap.byID[id]; ok {
			out = append(out, e)
		}
	}
	return out
}
