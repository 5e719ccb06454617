package index

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/vault"
)

// Builder turns a corpus snapshot into an InvertedIndex. Entries are
// tokenized in parallel on a worker pool, each task filling its own partial
// index; the partials are then merged on the calling goroutine, so the
// shared postings map is never written concurrently.
type Builder struct {
	pool   *ants.Pool
	logger *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the builder's logger. A nil logger keeps the default.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a Builder backed by a pool of workers goroutines.
// workers <= 0 means runtime.NumCPU().
func NewBuilder(workers int, opts ...Option) (*Builder, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("creating index worker pool: %w", err)
	}
	b := &Builder{
		pool:   pool,
		logger: slog.Default().With("component", "index-builder"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Build indexes entries and returns the complete index. A nil or empty
// corpus yields an empty index. If ctx is cancelled before the merge, no
// index is returned.
func (b *Builder) Build(ctx context.Context, entries []vault.Entry) (*InvertedIndex, error) {
	start := time.Now()
	partials := make([]map[string]int, len(entries))

	var wg sync.WaitGroup
	for i := range entries {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		task := func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			partials[i] = entryFrequencies(entries[i])
		}
		if err := b.pool.Submit(task); err != nil {
			b.logger.Warn("worker pool rejected task, tokenizing inline", "error", err)
			task()
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}
	ix := b.merge(entries, partials)
	b.logger.Info("index built",
		"entries", ix.TotalEntry(),
		"terms", ix.Terms(),
		"postings", ix.TotalToken(),
		"workers", b.pool.Cap(),
		"duration", time.Since(start),
	)
	return ix, nil
}

// Release stops the worker pool. The Builder must not be used afterwards.
func (b *Builder) Release() {
	b.pool.Release()
}

// Build indexes entries sequentially on the calling goroutine.
func Build(entries []vault.Entry) *InvertedIndex {
	partials := make([]map[string]int, len(entries))
	for i := range entries {
		partials[i] = entryFrequencies(entries[i])
	}
	return mergePartials(entries, partials, slog.Default().With("component", "index-builder"))
}

func (b *Builder) merge(entries []vault.Entry, partials []map[string]int) *InvertedIndex {
	return mergePartials(entries, partials, b.logger)
}

func mergePartials(entries []vault.Entry, partials []map[string]int, logger *slog.Logger) *InvertedIndex {
	ix := newInvertedIndex()
	seen := make(map[vault.EntryID]struct{}, len(entries))
	for i, e := range entries {
		if e.ID == uuid.Nil {
			logger.Warn("skipping entry without id", "position", i)
			continue
		}
		if _, dup := seen[e.ID]; dup {
			logger.Warn("skipping duplicate entry id", "entry_id", e.ID)
			continue
		}
		seen[e.ID] = struct{}{}
		ix.totalEntry++
		for term, freq := range partials[i] {
			ix.add(term, Posting{EntryID: e.ID, Frequency: freq})
		}
	}
	return ix
}

func entryFrequencies(e vault.Entry) map[string]int {
	return tokenizer.Frequencies(tokenizer.TokenizeEntry(e))
}
