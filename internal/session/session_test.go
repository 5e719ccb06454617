package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/autofill"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/internal/vault"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vaultsearch/pkg/metrics"
)

func entryID(n int) vault.EntryID {
	return uuid.UUID{15: byte(n)}
}

func gitCorpus() []vault.Entry {
	return []vault.Entry{
		{ID: entryID(1), Title: "GitHub", Username: "alice", URL: "https://github.com"},
		{ID: entryID(2), Title: "GitLab", Username: "bob", URL: "https://gitlab.com"},
	}
}

func newSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	cfg := config.Default()
	cfg.Index.Workers = 2
	s, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func titles(entries []vault.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Title
	}
	return out
}

func TestLockedSessionReturnsNothing(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	s := newSession(t, WithMetrics(m))

	assert.False(t, s.Unlocked())
	assert.Nil(t, s.Index())
	assert.Empty(t, s.Search("github"))
	assert.Empty(t, s.SearchEntries("github", 0))
	assert.Empty(t, s.Filter(""))
	assert.Empty(t, s.Autofill(autofill.Form{Titles: []string{"GitHub"}}))
	_, ok := s.Lookup(entryID(1))
	assert.False(t, ok)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues(metrics.StrategyIndex, "locked")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SessionUnlocked))
}

func TestUnlockSearchAndLock(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	s := newSession(t, WithMetrics(m))

	require.NoError(t, s.Unlock(context.Background(), gitCorpus()))
	assert.True(t, s.Unlocked())
	assert.Equal(t, []vault.EntryID{entryID(1)}, s.Search("github"))
	assert.Equal(t, []string{"GitLab"}, titles(s.SearchEntries("gitlab", 1)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionUnlocked))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.IndexedEntries))

	s.Lock()
	assert.False(t, s.Unlocked())
	assert.Empty(t, s.Search("github"))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.IndexedEntries))
}

func TestOldHandleSurvivesRefresh(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()
	require.NoError(t, s.Unlock(ctx, gitCorpus()))

	old := s.Index()
	require.NoError(t, s.Refresh(ctx, append(gitCorpus(), vault.Entry{ID: entryID(3), Title: "Bitbucket"})))

	assert.Empty(t, old.Search("bitbucket"))
	assert.Equal(t, []vault.EntryID{entryID(3)}, s.Search("bitbucket"))
	assert.Equal(t, []vault.EntryID{entryID(1)}, old.Search("github"))
}

func TestRefreshRequiresUnlock(t *testing.T) {
	s := newSession(t)
	err := s.Refresh(context.Background(), gitCorpus())
	assert.ErrorIs(t, err, apperrors.ErrVaultLocked)
	assert.False(t, s.Unlocked())

	err = s.RefreshFrom(context.Background(), corpus.Static(gitCorpus()))
	assert.ErrorIs(t, err, apperrors.ErrVaultLocked)
}

func TestLockDuringRefreshDiscardsBuild(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	s := newSession(t, WithMetrics(m))
	ctx := context.Background()
	require.NoError(t, s.Unlock(ctx, gitCorpus()))

	s.afterBuild = s.Lock
	err := s.Refresh(ctx, append(gitCorpus(), vault.Entry{ID: entryID(3), Title: "Bitbucket"}))
	assert.ErrorIs(t, err, apperrors.ErrVaultLocked)
	assert.False(t, s.Unlocked())
	assert.Empty(t, s.Search("bitbucket"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexBuildsTotal.WithLabelValues(metrics.BuildDiscarded)))

	s.afterBuild = nil
	require.NoError(t, s.Unlock(ctx, gitCorpus()))
	assert.Empty(t, s.Search("bitbucket"))
}

func TestCancelledRefreshKeepsIndex(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Unlock(context.Background(), gitCorpus()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Refresh(ctx, []vault.Entry{{ID: entryID(9), Title: "Other"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, []vault.EntryID{entryID(1)}, s.Search("github"))
}

func TestFilter(t *testing.T) {
	s := newSession(t)
	entries := []vault.Entry{
		{ID: entryID(1), Title: "Mail", URL: "https://proton.me"},
		{ID: entryID(2), Title: "GitHub", Username: "octocat"},
		{ID: entryID(3), Title: "Git"},
		{ID: entryID(4), Title: "Router"},
	}
	require.NoError(t, s.Unlock(context.Background(), entries))

	assert.Equal(t, []string{"Mail", "GitHub", "Git", "Router"}, titles(s.Filter("  ")))
	assert.Equal(t, []string{"Git", "GitHub"}, titles(s.Filter("GIT")))
	assert.Empty(t, s.Filter("nothing"))
}

func TestAutofill(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Unlock(context.Background(), gitCorpus()))

	got := s.Autofill(autofill.Form{Titles: []string{"Sign in"}, WebDomains: []string{"gitlab.com"}})
	assert.Equal(t, []string{"GitLab"}, titles(got))
}

func TestLookupAndEntriesSkipBadIDs(t *testing.T) {
	s := newSession(t)
	entries := append(gitCorpus(),
		vault.Entry{ID: uuid.Nil, Title: "orphan"},
		vault.Entry{ID: entryID(1), Title: "duplicate"},
	)
	require.NoError(t, s.Unlock(context.Background(), entries))

	e, ok := s.Lookup(entryID(1))
	require.True(t, ok)
	assert.Equal(t, "GitHub", e.Title)
	assert.Equal(t, []string{"GitHub", "GitLab"}, titles(s.Entries()))
}

func TestConcurrentReadsDuringRefresh(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()
	require.NoError(t, s.Unlock(ctx, gitCorpus()))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				got := s.Search("github")
				assert.Equal(t, []vault.EntryID{entryID(1)}, got)
			}
		}()
	}
	for i := 0; i < 20; i++ {
		require.NoError(t, s.Refresh(ctx, gitCorpus()))
	}
	close(stop)
	wg.Wait()
}

func TestClosedSessionRejectsUnlock(t *testing.T) {
	cfg := config.Default()
	s, err := New(cfg)
	require.NoError(t, err)
	s.Close()
	s.Close()

	err = s.Unlock(context.Background(), gitCorpus())
	assert.ErrorIs(t, err, apperrors.ErrVaultLocked)
}

func TestHandleEvent(t *testing.T) {
	s := newSession(t)
	ctx := context.Background()
	provider := corpus.Static(gitCorpus())

	require.NoError(t, s.HandleEvent(ctx, provider, VaultEvent{Type: EventSynced}))
	assert.False(t, s.Unlocked())

	require.NoError(t, s.HandleEvent(ctx, provider, VaultEvent{Type: EventUnlocked, OccurredAt: time.Now()}))
	assert.True(t, s.Unlocked())

	grown := corpus.Static(append(gitCorpus(), vault.Entry{ID: entryID(3), Title: "Bitbucket"}))
	require.NoError(t, s.HandleEvent(ctx, grown, VaultEvent{Type: EventSynced}))
	assert.Equal(t, []vault.EntryID{entryID(3)}, s.Search("bitbucket"))

	require.NoError(t, s.HandleEvent(ctx, provider, VaultEvent{Type: EventLocked}))
	assert.False(t, s.Unlocked())

	assert.ErrorIs(t, s.HandleEvent(ctx, provider, VaultEvent{Type: "exploded"}), apperrors.ErrInvalidInput)
}

func TestMessageHandler(t *testing.T) {
	s := newSession(t)
	handle := s.MessageHandler(corpus.Static(gitCorpus()))

	require.NoError(t, handle(context.Background(), nil, []byte(`{"type":"unlocked","occurred_at":"2026-01-02T03:04:05Z"}`)))
	assert.True(t, s.Unlocked())

	assert.ErrorIs(t, handle(context.Background(), nil, []byte(`{`)), apperrors.ErrInvalidInput)
}
